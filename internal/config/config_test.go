package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_TTL", "")
	t.Setenv("COURSE_RADIUS_KM", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "gc_sid", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 80.0, cfg.Quiz.CourseRadius)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "0s")
	t.Setenv("COURSE_RADIUS_KM", "42.5")
	t.Setenv("RERANK_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, time.Duration(0), cfg.Session.TTL)
	assert.Equal(t, 42.5, cfg.Quiz.CourseRadius)
	assert.True(t, cfg.Retrieval.RerankEnabled)
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{VectorBackend: "chromem"},
		Session:  SessionConfig{Store: "memory", CookieName: "gc_sid"},
		Ai:       AIConfig{EmbeddingProvider: "ollama"},
		Quiz:     QuizConfig{Mode: "local"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Database.VectorBackend = "pgvector"
	cfg.Quiz.Mode = "remote"
	cfg.Ai.EmbeddingProvider = "gemini"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_CONNECTION_STRING")
	assert.Contains(t, err.Error(), "QUIZ_BASE_URL")
	assert.Contains(t, err.Error(), "GOOGLE_GEMINI_API_KEY")

	cfg = validConfig()
	cfg.Session.Store = "etcd"
	assert.ErrorContains(t, cfg.Validate(), "SESSION_STORE")

	cfg = validConfig()
	cfg.Tracing = TracingConfig{Enabled: true, SampleRatio: 1.5}
	assert.ErrorContains(t, cfg.Validate(), "OTEL_SAMPLE_RATIO")

	cfg = validConfig()
	cfg.App.CorsAllowedOrigins = "https://golf.example, *"
	assert.ErrorContains(t, cfg.Validate(), "CORS_ALLOWED_ORIGINS")
}
