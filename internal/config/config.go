package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Lock modes for the assignment engine.
const (
	LockModeNone  = "none"
	LockModeLocal = "local"
	LockModeRedis = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Assignment   AssignmentConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
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
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig holds outbound notification endpoints. Empty values disable a channel.
type NotificationConfig struct {
	EmailFrom       string
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPassword    string
	SlackWebhookURL string
}

// AssignmentConfig tunes the skill catalog and the assignment engine.
type AssignmentConfig struct {
	SkillCatalogPath string
	LockMode         string
	LockTTLSeconds   int
	LockWaitSeconds  int
	BulkSchedule     string
	BulkPageSize     int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-assigner"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 24*60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:       getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			SMTPHost:        os.Getenv("NOTIFY_SMTP_HOST"),
			SMTPPort:        getEnvAsInt("NOTIFY_SMTP_PORT", 587),
			SMTPUser:        os.Getenv("NOTIFY_SMTP_USER"),
			SMTPPassword:    os.Getenv("NOTIFY_SMTP_PASSWORD"),
			SlackWebhookURL: os.Getenv("NOTIFY_SLACK_WEBHOOK_URL"),
		},
		Assignment: AssignmentConfig{
			SkillCatalogPath: os.Getenv("SKILL_CATALOG_PATH"),
			LockMode:         strings.ToLower(getEnv("ASSIGN_LOCK_MODE", LockModeNone)),
			LockTTLSeconds:   getEnvAsInt("ASSIGN_LOCK_TTL_SECONDS", 10),
			LockWaitSeconds:  getEnvAsInt("ASSIGN_LOCK_WAIT_SECONDS", 5),
			BulkSchedule:     os.Getenv("ASSIGN_BULK_SCHEDULE"),
			BulkPageSize:     getEnvAsInt("ASSIGN_BULK_PAGE_SIZE", 500),
		},
	}

	switch cfg.Assignment.LockMode {
	case LockModeNone, LockModeLocal, LockModeRedis:
	default:
		return nil, fmt.Errorf("invalid ASSIGN_LOCK_MODE %q", cfg.Assignment.LockMode)
	}

	return cfg, nil
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

// LockTTL returns how long an assignment lock is held before it expires on its own.
func (a AssignmentConfig) LockTTL() time.Duration {
	if a.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.LockTTLSeconds) * time.Second
}

// LockWait returns how long a caller waits to acquire the assignment lock.
func (a AssignmentConfig) LockWait() time.Duration {
	if a.LockWaitSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(a.LockWaitSeconds) * time.Second
}

// SMTPEnabled reports whether an SMTP relay is configured.
func (n NotificationConfig) SMTPEnabled() bool {
	return strings.TrimSpace(n.SMTPHost) != ""
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
