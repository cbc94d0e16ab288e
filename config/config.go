package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string     `env:"DATABASE_URL,required,notEmpty"`
	JWTSecretKey string     `env:"JWT_SECRET_KEY,required,notEmpty"`
	ServerPort   int        `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel     slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	DBConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`

	// ScoringWorkers bounds how many games are scored at once.
	ScoringWorkers int `env:"SCORING_WORKERS" envDefault:"4"`
	// ThirdPlaceTable names the built-in cross rule table; empty disables it.
	ThirdPlaceTable string `env:"THIRD_PLACE_TABLE"`
	// ResumeOnStartup finishes interrupted result amendments before serving.
	ResumeOnStartup bool `env:"RESUME_ON_STARTUP" envDefault:"true"`
	// CleanupInterval is how often guesses left on draft results are cleaned; 0 disables it.
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Архив отчётов пересчёта в Cloudflare R2. Пустой бакет отключает архив.
	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2ReportPrefix    string `env:"R2_REPORT_PREFIX" envDefault:"recalculations"`
	R2Endpoint        string `env:"R2_ENDPOINT"`
}

// ArchiveEnabled reports whether recalculation reports should be archived.
func (c *Config) ArchiveEnabled() bool {
	return c.R2BucketName != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort))
	}
	if c.ScoringWorkers < 1 {
		errs = append(errs, fmt.Errorf("SCORING_WORKERS must be positive, got %d", c.ScoringWorkers))
	}
	if c.CleanupInterval < 0 {
		errs = append(errs, fmt.Errorf("CLEANUP_INTERVAL cannot be negative, got %s", c.CleanupInterval))
	}
	if c.DBMaxOpenConns < 1 || c.DBMaxIdleConns < 0 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be positive and DB_MAX_IDLE_CONNS not negative"))
	}
	if c.ArchiveEnabled() && (c.R2AccessKeyID == "" || c.R2SecretAccessKey == "") {
		errs = append(errs, errors.New("R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY are required when R2_BUCKET_NAME is set"))
	}
	if c.ArchiveEnabled() && c.R2AccountID == "" && c.R2Endpoint == "" {
		errs = append(errs, errors.New("R2_ACCOUNT_ID or R2_ENDPOINT is required when R2_BUCKET_NAME is set"))
	}
	return errors.Join(errs...)
}
