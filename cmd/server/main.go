package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/journal/api/handler"
	"github.com/fastygo/journal/internal/config"
	"github.com/fastygo/journal/internal/infrastructure/buffer"
	"github.com/fastygo/journal/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/journal/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/journal/internal/infrastructure/redis"
	"github.com/fastygo/journal/internal/media"
	"github.com/fastygo/journal/internal/middleware"
	"github.com/fastygo/journal/internal/password"
	"github.com/fastygo/journal/internal/router"
	"github.com/fastygo/journal/internal/services"
	"github.com/fastygo/journal/internal/services/lifecycle"
	"github.com/fastygo/journal/internal/token"
	"github.com/fastygo/journal/pkg/httpcontext"
	"github.com/fastygo/journal/pkg/logger"
	"github.com/fastygo/journal/repository"
	"github.com/fastygo/journal/repository/memory"
	"github.com/fastygo/journal/repository/postgres"
	redisRepo "github.com/fastygo/journal/repository/redis"
	authUC "github.com/fastygo/journal/usecase/auth"
	editorUC "github.com/fastygo/journal/usecase/editor"
)

type mediaBackend interface {
	editorUC.MediaStore
	apiHandler.URLSource
}

type stores struct {
	tx       repository.TxManager
	accounts repository.AccountRepository
	editors  repository.EditorRepository
	sessions repository.SessionRepository
	checks   []monitor.Check
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Fields:   map[string]string{"service": cfg.AppName, "env": cfg.Environment},
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx := context.Background()
	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)

	st, err := openStores(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage setup failed", zap.Error(err), zap.String("driver", cfg.Storage.Driver))
	}

	mediaStore, err := openMedia(appCtx, cfg)
	if err != nil {
		zapLogger.Fatal("media storage setup failed", zap.Error(err), zap.String("driver", cfg.Media.Driver))
	}

	var (
		bufferStore     *buffer.Store
		bufferProcessor *services.BufferProcessor
	)
	if cfg.Buffer.Enabled {
		bufferStore, err = buffer.Open(cfg.Buffer.Path, buffer.Options{Bucket: "eic_profile_updates", MaxSize: cfg.Buffer.MaxSize})
		if err != nil {
			zapLogger.Fatal("failed to open buffer store", zap.Error(err))
		}
		manager.Register("buffer", func(context.Context) error {
			return bufferStore.Close()
		})
	}

	var sizer monitor.BufferSizer
	if bufferStore != nil {
		sizer = bufferStore
	}
	mon := monitor.New(st.checks, sizer, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(context.Context) error {
		mon.Stop()
		return nil
	})

	var profileBuffer *services.BufferBridge
	if bufferStore != nil {
		bufferProcessor, err = services.NewBufferProcessor(
			bufferStore,
			mon,
			st.editors,
			zapLogger,
			services.ProcessorConfig{
				Interval:   cfg.Buffer.SyncInterval,
				BatchSize:  cfg.Buffer.BatchSize,
				MaxRetries: cfg.Buffer.MaxRetry,
				Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
			},
		)
		if err != nil {
			zapLogger.Fatal("failed to schedule buffer processor", zap.Error(err))
		}
		bufferProcessor.Start()
		manager.Register("buffer_processor", func(ctx context.Context) error {
			bufferProcessor.Stop(ctx)
			return nil
		})
		profileBuffer = services.NewBufferBridge(bufferProcessor)
	}

	hasher := password.NewHasher(cfg.Password.BcryptCost)
	tokens := token.NewService(cfg.JWTSecret(), cfg.JWT.Issuer, cfg.JWT.TTL)

	authUseCase := authUC.New(st.accounts, st.editors, st.sessions, hasher, tokens,
		authUC.Policy{RequireApprovalForLogin: cfg.Policy.RequireApprovalForLogin}, zapLogger)
	if cfg.Staff.Email != "" {
		staff, err := authUseCase.EnsureStaff(appCtx, authUC.StaffInput{
			Email:     cfg.Staff.Email,
			Password:  cfg.Staff.Password,
			FirstName: cfg.Staff.FirstName,
			LastName:  cfg.Staff.LastName,
		})
		if err != nil {
			zapLogger.Fatal("staff bootstrap failed", zap.Error(err), zap.String("email", cfg.Staff.Email))
		}
		zapLogger.Info("staff account ready",
			zap.Int64("account_id", staff.Account.ID),
			zap.String("username", staff.Account.Username),
			zap.Bool("created", staff.Created))
	}

	registration := editorUC.NewRegistration(st.tx, st.accounts, hasher, mediaStore,
		editorUC.Policy{RejectDuplicateEmail: cfg.Policy.RejectDuplicateEmail}, zapLogger)
	approval := editorUC.NewApproval(st.editors, editorUC.StaffCapability{Accounts: st.accounts}, zapLogger)

	var directory *editorUC.Directory
	if profileBuffer != nil {
		directory = editorUC.NewDirectory(st.editors, mediaStore, profileBuffer, zapLogger)
	} else {
		directory = editorUC.NewDirectory(st.editors, mediaStore, nil, zapLogger)
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, mediaStore, zapLogger),
		Editor: apiHandler.NewEditorHandler(registration, approval, directory, ctxAdapter, mediaStore, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	opts := router.Options{Prefix: cfg.HTTP.APIPrefix}
	if local, ok := mediaStore.(*media.LocalStorage); ok {
		opts.MediaRoot = local.Root()
		opts.MediaPrefix = cfg.Media.URLPrefix
	}
	r := router.New(handlers, middleware.JWTAuth(authUseCase, ctxAdapter, zapLogger), opts)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxConnsPerIP:      cfg.HTTP.MaxConn,
		MaxRequestBodySize: cfg.HTTP.MaxBodySize,
		Name:               cfg.AppName,
	}
	manager.Register("http_server", func(context.Context) error {
		return server.Shutdown()
	})

	zapLogger.Info("server started",
		zap.String("address", cfg.Address()),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("media", cfg.Media.Driver),
		zap.Bool("buffer", bufferStore != nil))

	if err := manager.Run(appCtx, func() error {
		return server.ListenAndServe(cfg.Address())
	}); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, log *zap.Logger) (*stores, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		mem := memory.NewStore()
		log.Warn("using in-memory storage; data is lost on restart")
		return &stores{
			tx:       mem,
			accounts: mem.Accounts(),
			editors:  mem.Editors(),
			sessions: mem.Sessions(),
		}, nil
	}

	if err := pgInfra.RunMigrations(cfg, log); err != nil {
		return nil, err
	}

	pool, err := pgInfra.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	manager.Register("postgres", pgInfra.Close(pool, log))

	redisClient, err := redisInfra.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	manager.Register("redis", redisInfra.Close(redisClient))

	return &stores{
		tx:       postgres.NewTxManager(pool),
		accounts: postgres.NewAccountRepository(pool),
		editors:  postgres.NewEditorRepository(pool),
		sessions: redisRepo.NewSessionRepository(redisClient, cfg.JWT.TTL),
		checks: []monitor.Check{
			monitor.PostgresCheck(pool),
			monitor.RedisCheck(redisClient),
		},
	}, nil
}

func openMedia(ctx context.Context, cfg *config.Config) (mediaBackend, error) {
	if cfg.Media.Driver == config.MediaDriverS3 {
		s3cfg := cfg.Media.S3
		return media.NewS3Storage(ctx, media.S3Config{
			Endpoint:      s3cfg.Endpoint,
			Region:        s3cfg.Region,
			Bucket:        s3cfg.Bucket,
			AccessKey:     s3cfg.AccessKey,
			SecretKey:     s3cfg.SecretKey,
			PublicBaseURL: s3cfg.PublicBaseURL,
			PresignTTL:    s3cfg.PresignTTL,
			PathStyle:     s3cfg.PathStyle,
		})
	}
	return media.NewLocalStorage(cfg.Media.Root, cfg.Media.URLPrefix)
}
