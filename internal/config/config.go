package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Entitlement  EntitlementConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	MutationRPS           float64
	MutationBurst         int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
	// Format is json or console.
	Format string
}

// AuthConfig defines token validation parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotificationConfig holds outbound notification endpoints.
type NotificationConfig struct {
	WebhookURL            string
	WebhookTimeoutSeconds int
}

// EntitlementConfig tunes the verification and premium workflows.
type EntitlementConfig struct {
	OperationTimeoutSeconds   int
	LockTTLSeconds            int
	ExpiringSoonDays          int
	DefaultCurrency           string
	ExpirySweepSchedule       string
	ExpirySweepTimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "admin-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			MutationRPS:           getEnvAsFloat("HTTP_MUTATION_RPS", 5),
			MutationBurst:         getEnvAsInt("HTTP_MUTATION_BURST", 10),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			WebhookURL:            getEnv("NOTIFY_WEBHOOK_URL", ""),
			WebhookTimeoutSeconds: getEnvAsInt("NOTIFY_WEBHOOK_TIMEOUT_SECONDS", 5),
		},
		Entitlement: EntitlementConfig{
			OperationTimeoutSeconds:   getEnvAsInt("ENTITLEMENT_OPERATION_TIMEOUT_SECONDS", 8),
			LockTTLSeconds:            getEnvAsInt("ENTITLEMENT_LOCK_TTL_SECONDS", 15),
			ExpiringSoonDays:          getEnvAsInt("PREMIUM_EXPIRING_SOON_DAYS", 7),
			DefaultCurrency:           getEnv("PREMIUM_DEFAULT_CURRENCY", "TRY"),
			ExpirySweepSchedule:       getEnv("PREMIUM_EXPIRY_SWEEP_SCHEDULE", ""),
			ExpirySweepTimeoutSeconds: getEnvAsInt("PREMIUM_EXPIRY_SWEEP_TIMEOUT_SECONDS", 300),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the workflows cannot run with.
func (c *Config) Validate() error {
	if c.Entitlement.OperationTimeoutSeconds <= 0 {
		return errors.New("ENTITLEMENT_OPERATION_TIMEOUT_SECONDS must be positive")
	}
	if c.Entitlement.LockTTLSeconds <= 0 {
		return errors.New("ENTITLEMENT_LOCK_TTL_SECONDS must be positive")
	}
	if c.Entitlement.ExpiringSoonDays < 0 {
		return errors.New("PREMIUM_EXPIRING_SOON_DAYS must not be negative")
	}
	if c.Entitlement.ExpirySweepTimeoutSeconds <= 0 {
		return errors.New("PREMIUM_EXPIRY_SWEEP_TIMEOUT_SECONDS must be positive")
	}
	if c.Entitlement.DefaultCurrency == "" {
		return errors.New("PREMIUM_DEFAULT_CURRENCY must not be empty")
	}
	if spec := c.Entitlement.ExpirySweepSchedule; spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid PREMIUM_EXPIRY_SWEEP_SCHEDULE: %w", err)
		}
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET must not be empty")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// OperationTimeout bounds a single workflow call including its store round trips.
func (e EntitlementConfig) OperationTimeout() time.Duration {
	return time.Duration(e.OperationTimeoutSeconds) * time.Second
}

// LockTTL is the lease length of a per-entity lock.
func (e EntitlementConfig) LockTTL() time.Duration {
	return time.Duration(e.LockTTLSeconds) * time.Second
}

// ExpiringSoonWindow is how close to expiry a grant counts as expiring soon.
func (e EntitlementConfig) ExpiringSoonWindow() time.Duration {
	return time.Duration(e.ExpiringSoonDays) * 24 * time.Hour
}

// ExpirySweepTimeout bounds one full expiry sweep.
func (e EntitlementConfig) ExpirySweepTimeout() time.Duration {
	return time.Duration(e.ExpirySweepTimeoutSeconds) * time.Second
}

// WebhookTimeout returns the outbound webhook timeout.
func (n NotificationConfig) WebhookTimeout() time.Duration {
	if n.WebhookTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.WebhookTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
