package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configVars = []string{
	"PORT", "STORAGE_BACKEND", "PG_HOST", "PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DATABASE",
	"PG_SSLMODE", "PG_MAX_CONNS", "DATABASE_URL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"OPENAI_MODEL_CHAT", "OPENAI_MODEL_SUMMARY", "OPENAI_MODEL_TRANSCRIBE", "REDIS_ADDR",
	"REDIS_PASSWORD", "REDIS_DB", "SESSION_KEY", "REPORT_BUCKET", "REPORT_BASE_URL",
	"WEBHOOK_URL", "POSTGRES_NOTIFY_CHANNEL", "NOTIFICATION_TTL", "WORKFLOW_IDLE_TTL", "LOG_LEVEL", "LOG_FORMAT",
	"SERVICE_NAME",
}

func clearEnv(t *testing.T) {
	for _, k := range configVars {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.False(t, cfg.UsesPostgres())
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "inside_notes", cfg.Database.Database)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.SummaryModel)
	assert.Equal(t, "whisper-1", cfg.OpenAI.TranscribeModel)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "inside-notes-user", cfg.SessionKey)
	assert.Equal(t, "https://example.com", cfg.Report.BaseURL)
	assert.Equal(t, "report_generated", cfg.Report.NotifyChannel)
	assert.Equal(t, 5*time.Second, cfg.NotificationTTL)
	assert.Equal(t, 2*time.Hour, cfg.WorkflowIdleTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "inside-notes", cfg.Log.Service)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("PG_USER", "notes")
	t.Setenv("PG_PASSWORD", "s3cr#t")
	t.Setenv("OPENAI_MODEL_CHAT", "gpt-4o")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("NOTIFICATION_TTL", "10s")
	t.Setenv("WORKFLOW_IDLE_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.True(t, cfg.UsesPostgres())
	assert.Equal(t, "postgres://notes:s3cr%23t@db:6543/inside_notes?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "gpt-4o", cfg.OpenAI.SummaryModel)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 10*time.Second, cfg.NotificationTTL)
	assert.Equal(t, 30*time.Minute, cfg.WorkflowIdleTTL)
}

func TestLoad_DatabaseURLOverridesFields(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@h/x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h/x", cfg.Database.DSN())
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"STORAGE_BACKEND":   "sqlite",
		"PG_PORT":           "abc",
		"REDIS_DB":          "x",
		"NOTIFICATION_TTL":  "soon",
		"WORKFLOW_IDLE_TTL": "-1m",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
