// Command eicadmin creates a staff account that may approve Editor-in-Chief registrations,
// or signs in an existing one, and prints an access token for it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/journal/internal/config"
	pgInfra "github.com/fastygo/journal/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/journal/internal/infrastructure/redis"
	"github.com/fastygo/journal/internal/password"
	"github.com/fastygo/journal/internal/token"
	"github.com/fastygo/journal/pkg/logger"
	"github.com/fastygo/journal/repository/postgres"
	redisRepo "github.com/fastygo/journal/repository/redis"
	authUC "github.com/fastygo/journal/usecase/auth"
)

func main() {
	var in authUC.StaffInput
	flag.StringVar(&in.Email, "email", "", "staff email (required)")
	flag.StringVar(&in.Password, "password", os.Getenv("EIC_ADMIN_PASSWORD"), "staff password, defaults to $EIC_ADMIN_PASSWORD")
	flag.StringVar(&in.FirstName, "first-name", "Admin", "staff first name")
	flag.StringVar(&in.LastName, "last-name", "Staff", "staff last name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Fatal("eicadmin needs STORAGE_DRIVER=postgres; with memory storage set EIC_STAFF_EMAIL and use the staff login endpoint")
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: "console", Output: os.Stderr})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}
	pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()

	redisClient, err := redisInfra.NewClient(ctx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()

	auth := authUC.New(
		postgres.NewAccountRepository(pool),
		postgres.NewEditorRepository(pool),
		redisRepo.NewSessionRepository(redisClient, cfg.JWT.TTL),
		password.NewHasher(cfg.Password.BcryptCost),
		token.NewService(cfg.JWTSecret(), cfg.JWT.Issuer, cfg.JWT.TTL),
		authUC.Policy{},
		zapLogger,
	)

	res, err := staffToken(ctx, auth, in)
	if err != nil {
		zapLogger.Fatal("failed to sign in staff account", zap.Error(err))
	}

	zapLogger.Info("staff token issued",
		zap.Int64("account_id", res.Account.ID),
		zap.String("username", res.Account.Username),
		zap.Bool("created", res.Created),
		zap.Time("token_expires_at", res.Token.ExpiresAt))
	fmt.Println(res.Token.Value)
}
