package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Password    PasswordConfig
	Policy      PolicyConfig
	Staff       StaffConfig
	Media       MediaConfig
	Buffer      BufferConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	MediaDriverLocal = "local"
	MediaDriverS3    = "s3"
)

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int
	MaxBodySize   int
	APIPrefix     string
}

type StorageConfig struct {
	Driver string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type PasswordConfig struct {
	BcryptCost int
}

// PolicyConfig holds the optional registration and login rules.
type PolicyConfig struct {
	RejectDuplicateEmail    bool
	RequireApprovalForLogin bool
}

// StaffConfig seeds one staff account at startup when Email is set.
type StaffConfig struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type MediaConfig struct {
	Driver    string
	Root      string
	URLPrefix string
	S3        S3Config
}

type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	PresignTTL    time.Duration
	PathStyle     bool
}

type BufferConfig struct {
	Enabled        bool
	Path           string
	MaxSize        int
	RetentionHours int
	SyncInterval   time.Duration
	BatchSize      int
	MaxRetry       int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the service can boot locally without any setup.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppName:     getString("APP_NAME", "eic-journal"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       getInt("SERVER_MAX_CONN", 0),
			MaxBodySize:   getInt("SERVER_MAX_BODY_SIZE", 20<<20),
			APIPrefix:     getString("API_PREFIX", "/api/eic"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getString("STORAGE_DRIVER", StorageDriverPostgres)),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "journal"),
			User:            getString("DB_USER", "journal"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "eic-journal"),
			TTL:    getDuration("JWT_TTL", 24*time.Hour),
		},
		Password: PasswordConfig{
			BcryptCost: getInt("PASSWORD_BCRYPT_COST", 12),
		},
		Policy: PolicyConfig{
			RejectDuplicateEmail:    getBool("EIC_REJECT_DUPLICATE_EMAIL", false),
			RequireApprovalForLogin: getBool("EIC_REQUIRE_APPROVAL_FOR_LOGIN", false),
		},
		Staff: StaffConfig{
			Email:     strings.TrimSpace(os.Getenv("EIC_STAFF_EMAIL")),
			Password:  os.Getenv("EIC_STAFF_PASSWORD"),
			FirstName: getString("EIC_STAFF_FIRST_NAME", "Admin"),
			LastName:  getString("EIC_STAFF_LAST_NAME", "Staff"),
		},
		Media: MediaConfig{
			Driver:    strings.ToLower(getString("MEDIA_DRIVER", MediaDriverLocal)),
			Root:      getString("MEDIA_ROOT", "./data/media"),
			URLPrefix: getString("MEDIA_URL_PREFIX", "/media"),
			S3: S3Config{
				Endpoint:      os.Getenv("S3_ENDPOINT"),
				Region:        getString("S3_REGION", "us-east-1"),
				Bucket:        os.Getenv("S3_BUCKET"),
				AccessKey:     os.Getenv("S3_ACCESS_KEY"),
				SecretKey:     os.Getenv("S3_SECRET_KEY"),
				PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
				PresignTTL:    getDuration("S3_PRESIGN_TTL", 15*time.Minute),
				PathStyle:     getBool("S3_PATH_STYLE", true),
			},
		},
		Buffer: BufferConfig{
			Enabled:        getBool("BUFFER_ENABLED", true),
			Path:           getString("BOLTDB_PATH", "./data/buffer.db"),
			MaxSize:        getInt("BUFFER_MAX_SIZE", 100_000),
			RetentionHours: getInt("BUFFER_RETENTION_HOURS", 24),
			SyncInterval:   getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			BatchSize:      getInt("BUFFER_BATCH_SIZE", 50),
			MaxRetry:       getInt("MAX_RETRY_ATTEMPTS", 3),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" && !c.IsDevelopment() {
		return errors.New("config: JWT_SECRET is required outside development")
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	switch c.Media.Driver {
	case MediaDriverLocal:
		if c.Media.Root == "" {
			return errors.New("config: MEDIA_ROOT is required for local media")
		}
	case MediaDriverS3:
		if c.Media.S3.Bucket == "" {
			return errors.New("config: S3_BUCKET is required for s3 media")
		}
	default:
		return fmt.Errorf("config: unknown MEDIA_DRIVER %q", c.Media.Driver)
	}
	if c.Staff.Email != "" && c.Staff.Password == "" {
		return errors.New("config: EIC_STAFF_PASSWORD is required with EIC_STAFF_EMAIL")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("config: JWT_TTL must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == "test"
}

// JWTSecret falls back to a fixed development secret when none is configured.
func (c *Config) JWTSecret() string {
	if c.JWT.Secret == "" && c.IsDevelopment() {
		return "eic-development-secret"
	}
	return c.JWT.Secret
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
