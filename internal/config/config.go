package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for visits, annotations and users.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	// URL overrides the fields above when set.
	URL string
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	ChatModel       string
	SummaryModel    string
	TranscribeModel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	Port           string
	StorageBackend string

	Database DatabaseConfig
	OpenAI   OpenAIConfig
	Redis    RedisConfig

	SessionKey string

	Report struct {
		Bucket        string
		BaseURL       string
		WebhookURL    string
		NotifyChannel string
	}

	NotificationTTL time.Duration
	// WorkflowIdleTTL closes workflows nobody touched for that long; zero
	// keeps them until closed.
	WorkflowIdleTTL time.Duration

	Log struct {
		Level   string
		Format  string
		Service string
	}
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Port = getEnv("PORT", "4000")
	cfg.StorageBackend = getEnv("STORAGE_BACKEND", BackendMemory)
	if cfg.StorageBackend != BackendMemory && cfg.StorageBackend != BackendPostgres {
		return nil, fmt.Errorf("STORAGE_BACKEND: unknown backend %q", cfg.StorageBackend)
	}

	var err error
	cfg.Database.Host = getEnv("PG_HOST", "localhost")
	if cfg.Database.Port, err = getInt("PG_PORT", 5432); err != nil {
		return nil, err
	}
	cfg.Database.User = getEnv("PG_USER", "postgres")
	cfg.Database.Password = getEnv("PG_PASSWORD", "")
	cfg.Database.Database = getEnv("PG_DATABASE", "inside_notes")
	cfg.Database.SSLMode = getEnv("PG_SSLMODE", "disable")
	if cfg.Database.MaxConns, err = getInt("PG_MAX_CONNS", 20); err != nil {
		return nil, err
	}
	cfg.Database.URL = getEnv("DATABASE_URL", "")

	cfg.OpenAI.APIKey = getEnv("OPENAI_API_KEY", "")
	cfg.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", "")
	cfg.OpenAI.ChatModel = getEnv("OPENAI_MODEL_CHAT", "gpt-4o-mini")
	cfg.OpenAI.SummaryModel = getEnv("OPENAI_MODEL_SUMMARY", cfg.OpenAI.ChatModel)
	cfg.OpenAI.TranscribeModel = getEnv("OPENAI_MODEL_TRANSCRIBE", "whisper-1")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	cfg.SessionKey = getEnv("SESSION_KEY", "inside-notes-user")

	cfg.Report.Bucket = getEnv("REPORT_BUCKET", "")
	cfg.Report.BaseURL = getEnv("REPORT_BASE_URL", "https://example.com")
	cfg.Report.WebhookURL = getEnv("WEBHOOK_URL", "")
	cfg.Report.NotifyChannel = getEnv("POSTGRES_NOTIFY_CHANNEL", "report_generated")

	ttl, err := time.ParseDuration(getEnv("NOTIFICATION_TTL", "5s"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("NOTIFICATION_TTL: invalid duration %q", os.Getenv("NOTIFICATION_TTL"))
	}
	cfg.NotificationTTL = ttl

	idle, err := time.ParseDuration(getEnv("WORKFLOW_IDLE_TTL", "2h"))
	if err != nil || idle < 0 {
		return nil, fmt.Errorf("WORKFLOW_IDLE_TTL: invalid duration %q", os.Getenv("WORKFLOW_IDLE_TTL"))
	}
	cfg.WorkflowIdleTTL = idle

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.Log.Service = getEnv("SERVICE_NAME", "inside-notes")

	return cfg, nil
}

// UsesPostgres reports whether visits, annotations and users live in
// Postgres.
func (c *Config) UsesPostgres() bool {
	return c.StorageBackend == BackendPostgres
}

// getEnv returns the variable or defaultValue when it is unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
