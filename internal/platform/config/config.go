package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Environment        string        `yaml:"env" env:"APP_ENV" env-default:"development"`
	Addr               string        `yaml:"addr" env:"APP_ADDR" env-default:":8080"`
	JWTSecret          string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL           time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"8h"`
	DataEncryptionKey  string        `yaml:"data_encryption_key" env:"DATA_ENCRYPTION_KEY"`
	SeedAdminName      string        `yaml:"seed_admin_name" env:"SEED_ADMIN_NAME" env-default:"Administrator"`
	SeedAdminEmail     string        `yaml:"seed_admin_email" env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword  string        `yaml:"seed_admin_password" env:"SEED_ADMIN_PASSWORD"`
	RunMigrations      bool          `yaml:"run_migrations" env:"RUN_MIGRATIONS" env-default:"true"`
	RunSeed            bool          `yaml:"run_seed" env:"RUN_SEED" env-default:"true"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES" env-default:"1048576"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"120"`
	MetricsEnabled     bool          `yaml:"metrics_enabled" env:"METRICS_ENABLED" env-default:"true"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`

	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Reports ReportsConfig `yaml:"reports"`
}

type StorageConfig struct {
	Driver         string        `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	SQLitePath     string        `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"data/workshop.db"`
	DatabaseURL    string        `yaml:"database_url" env:"DATABASE_URL"`
	MongoURI       string        `yaml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase  string        `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"workshop"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"STORAGE_CONNECT_TIMEOUT" env-default:"1m"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr" env:"REDIS_ADDR"`
	Password  string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	ReportTTL time.Duration `yaml:"report_ttl" env:"REDIS_REPORT_TTL" env-default:"10m"`
}

type ReportsConfig struct {
	CurrencySuffix string `yaml:"currency_suffix" env:"CURRENCY_SUFFIX" env-default:"YER"`
	ExportCron     string `yaml:"export_cron" env:"REPORT_EXPORT_CRON"`
	ExportDir      string `yaml:"export_dir" env:"REPORT_EXPORT_DIR" env-default:"storage/reports"`
	ExportFormat   string `yaml:"export_format" env:"REPORT_EXPORT_FORMAT" env-default:"pdf"`
}

// Load reads a local .env file when present, then the yaml file named by
// CONFIG_PATH (if any) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverMongo:
		if strings.TrimSpace(c.Storage.MongoURI) == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo driver")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER %q is not supported", c.Storage.Driver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if c.RunSeed && len(c.SeedAdminPassword) < 12 {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be at least 12 characters or RUN_SEED disabled in production")
		}
	}
	if c.RunSeed && (c.SeedAdminEmail == "" || c.SeedAdminPassword == "") {
		return fmt.Errorf("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required when RUN_SEED is true")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	switch c.Reports.ExportFormat {
	case "pdf", "xlsx", "txt", "csv":
	default:
		return fmt.Errorf("REPORT_EXPORT_FORMAT %q is not supported", c.Reports.ExportFormat)
	}
	return nil
}
