package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Automation   AutomationConfig
	Notification NotificationConfig
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

// AuthConfig defines token verification parameters. Identity lives in an
// external provider; this service only verifies the claims it signs and
// issues feedback submission tokens.
type AuthConfig struct {
	JWTSecret            string
	FeedbackTokenTTLDays int
}

// AutomationConfig holds the timed-rule thresholds. It is read-only to
// the engine and passed explicitly into the scheduler and services;
// nothing reads these from ambient state.
type AutomationConfig struct {
	PendingReminderEnabled     bool
	PendingReminderHours       int
	AutoSolveEnabled           bool
	AutoSolveHours             int
	AutoCloseEnabled           bool
	AutoCloseHours             int
	AttachmentRetentionEnabled bool
	AttachmentRetentionDays    int
	SweepIntervalMinutes       int
	TicketTimeoutSeconds       int
}

// NotificationConfig holds outbound notification endpoints.
type NotificationConfig struct {
	EmailFrom      string
	WebhookURL     string
	TelegramToken  string
	TelegramChatID int64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	telegramChatID, err := strconv.ParseInt(getEnv("NOTIFY_TELEGRAM_CHAT_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_TELEGRAM_CHAT_ID: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-engine"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
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
			JWTSecret:            getEnv("AUTH_JWT_SECRET", "dev-secret"),
			FeedbackTokenTTLDays: getEnvAsInt("FEEDBACK_TOKEN_TTL_DAYS", 14),
		},
		Automation: AutomationConfig{
			PendingReminderEnabled:     getEnvAsBool("AUTOMATION_PENDING_REMINDER_ENABLED", true),
			PendingReminderHours:       getEnvAsInt("AUTOMATION_PENDING_REMINDER_HOURS", 24),
			AutoSolveEnabled:           getEnvAsBool("AUTOMATION_AUTO_SOLVE_ENABLED", true),
			AutoSolveHours:             getEnvAsInt("AUTOMATION_AUTO_SOLVE_HOURS", 48),
			AutoCloseEnabled:           getEnvAsBool("AUTOMATION_AUTO_CLOSE_ENABLED", true),
			AutoCloseHours:             getEnvAsInt("AUTOMATION_AUTO_CLOSE_HOURS", 96),
			AttachmentRetentionEnabled: getEnvAsBool("AUTOMATION_ATTACHMENT_RETENTION_ENABLED", false),
			AttachmentRetentionDays:    getEnvAsInt("AUTOMATION_ATTACHMENT_RETENTION_DAYS", 365),
			SweepIntervalMinutes:       getEnvAsInt("AUTOMATION_SWEEP_INTERVAL_MINUTES", 5),
			TicketTimeoutSeconds:       getEnvAsInt("AUTOMATION_TICKET_TIMEOUT_SECONDS", 10),
		},
		Notification: NotificationConfig{
			EmailFrom:      getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
			TelegramToken:  getEnv("NOTIFY_TELEGRAM_TOKEN", ""),
			TelegramChatID: telegramChatID,
		},
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

// SweepInterval returns the automation pass cadence.
func (c AutomationConfig) SweepInterval() time.Duration {
	if c.SweepIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// TicketTimeout bounds per-ticket work inside a sweep pass.
func (c AutomationConfig) TicketTimeout() time.Duration {
	if c.TicketTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TicketTimeoutSeconds) * time.Second
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
