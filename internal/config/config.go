package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Keys      APIKeys
	Ai        AIConfig
	Quiz      QuizConfig
	Retrieval RetrievalConfig
	Sidecar   SidecarConfig
	Events    EventsConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	EventLogFilePath   string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection    string
	VectorBackend string // "pgvector" or "chromem"
	ChromemPath   string // empty keeps the chromem collections in memory
	MaxOpenConns  int
	LogSQL        bool
}

type SessionConfig struct {
	Store      string // "memory" or "redis"
	RedisURL   string
	KeyPrefix  string
	TTL        time.Duration
	CookieName string
}

type APIKeys struct {
	Geoapify     string
	GoogleGemini string
	Jina         string
	HuggingFace  string
	OpenAI       string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	JinaModel         string
	LLMProvider       string // "ollama", "huggingface" or "openai"
	LLMModel          string
	LLMBaseURL        string
}

type QuizConfig struct {
	Mode         string // "local" or "remote"
	BaseURL      string
	BankPath     string
	Timeout      time.Duration
	SessionTTL   time.Duration
	CourseRadius float64
	CourseLimit  int
}

type RetrievalConfig struct {
	TopK          int
	HostCap       int
	MaxPassages   int
	CharBudget    int
	SiteSearchURL string
	SiteSearchKey string
	RerankEnabled bool
	RerankModel   string
}

type SidecarConfig struct {
	GeocodeURL  string
	ForecastURL string
}

type EventsConfig struct {
	Topic   string
	NatsURL string
}

// TracingConfig drives internal/tracer. Tracing is off unless OTEL_ENABLED.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			EventLogFilePath:   getEnv("EVENT_LOG_FILE_PATH", "logs/events.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection:    getEnv("DB_CONNECTION_STRING", ""),
			VectorBackend: getEnv("VECTOR_BACKEND", "pgvector"),
			ChromemPath:   getEnv("CHROMEM_PATH", ""),
			MaxOpenConns:  getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			LogSQL:        getEnvAsBool("DB_LOG_SQL", false),
		},
		Session: SessionConfig{
			Store:      getEnv("SESSION_STORE", "memory"),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379"),
			KeyPrefix:  getEnv("SESSION_KEY_PREFIX", "gc:session:"),
			TTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			CookieName: getEnv("SESSION_COOKIE_NAME", "gc_sid"),
		},
		Keys: APIKeys{
			Geoapify:     getEnv("GEOAPIFY_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			JinaModel:         getEnv("JINA_EMBEDDING_MODEL", ""),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		},
		Quiz: QuizConfig{
			Mode:         getEnv("QUIZ_MODE", "local"),
			BaseURL:      getEnv("QUIZ_BASE_URL", ""),
			BankPath:     getEnv("QUIZ_BANK_PATH", ""),
			Timeout:      getEnvAsDuration("QUIZ_TIMEOUT", 30*time.Second),
			SessionTTL:   getEnvAsDuration("QUIZ_SESSION_TTL", 2*time.Hour),
			CourseRadius: getEnvAsFloat("COURSE_RADIUS_KM", 80),
			CourseLimit:  getEnvAsInt("COURSE_MATCH_LIMIT", 5),
		},
		Retrieval: RetrievalConfig{
			TopK:          getEnvAsInt("RETRIEVAL_TOP_K", 8),
			HostCap:       getEnvAsInt("RETRIEVAL_HOST_CAP", 2),
			MaxPassages:   getEnvAsInt("RETRIEVAL_MAX_PASSAGES", 6),
			CharBudget:    getEnvAsInt("RETRIEVAL_CHAR_BUDGET", 6000),
			SiteSearchURL: getEnv("SITE_SEARCH_URL", ""),
			SiteSearchKey: getEnv("SITE_SEARCH_PARAM", "q"),
			RerankEnabled: getEnvAsBool("RERANK_ENABLED", false),
			RerankModel:   getEnv("RERANK_MODEL", ""),
		},
		Sidecar: SidecarConfig{
			GeocodeURL:  getEnv("GEOAPIFY_URL", ""),
			ForecastURL: getEnv("OPEN_METEO_URL", ""),
		},
		Events: EventsConfig{
			Topic:   getEnv("EVENTS_TOPIC", "GOLF_CONCIERGE_EVENTS"),
			NatsURL: getEnv("NATS_URL", ""),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			Insecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
	}
}

// Validate reports every missing or contradictory setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.VectorBackend {
	case "pgvector":
		if c.Database.Connection == "" {
			errs = append(errs, errors.New("DB_CONNECTION_STRING is required when VECTOR_BACKEND=pgvector"))
		}
	case "chromem":
	default:
		errs = append(errs, fmt.Errorf("VECTOR_BACKEND %q is not supported", c.Database.VectorBackend))
	}

	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE %q is not supported", c.Session.Store))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}

	switch c.Ai.EmbeddingProvider {
	case "gemini":
		if c.Keys.GoogleGemini == "" {
			errs = append(errs, errors.New("GOOGLE_GEMINI_API_KEY is required when EMBEDDING_PROVIDER=gemini"))
		}
	case "jina":
		if c.Keys.Jina == "" {
			errs = append(errs, errors.New("JINA_API_KEY is required when EMBEDDING_PROVIDER=jina"))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("EMBEDDING_PROVIDER %q is not supported", c.Ai.EmbeddingProvider))
	}

	switch c.Quiz.Mode {
	case "local":
	case "remote":
		if c.Quiz.BaseURL == "" {
			errs = append(errs, errors.New("QUIZ_BASE_URL is required when QUIZ_MODE=remote"))
		}
	default:
		errs = append(errs, fmt.Errorf("QUIZ_MODE %q is not supported", c.Quiz.Mode))
	}

	if c.Retrieval.RerankEnabled && c.Keys.Jina == "" {
		errs = append(errs, errors.New("JINA_API_KEY is required when RERANK_ENABLED=true"))
	}

	// Credentialed CORS cannot be combined with a wildcard origin.
	for _, origin := range strings.Split(c.App.CorsAllowedOrigins, ",") {
		if strings.TrimSpace(origin) == "*" {
			errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must list explicit origins, \"*\" is not allowed with the session cookie"))
			break
		}
	}

	if c.Tracing.Enabled && (c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1) {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATIO %v must be between 0 and 1", c.Tracing.SampleRatio))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs with production logging.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
