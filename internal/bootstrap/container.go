package bootstrap

import (
	"context"
	"fmt"
	"log"

	"golf-concierge-be/internal/config"
	"golf-concierge-be/internal/controller"
	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/internal/repository/chromemstore"
	"golf-concierge-be/internal/repository/contract"
	"golf-concierge-be/internal/repository/implementation"
	"golf-concierge-be/internal/repository/memory"
	"golf-concierge-be/internal/repository/redisstore"
	"golf-concierge-be/internal/service"
	"golf-concierge-be/pkg/course"
	"golf-concierge-be/pkg/embedding"
	"golf-concierge-be/pkg/embedding/jina"
	"golf-concierge-be/pkg/llm/factory"
	"golf-concierge-be/pkg/quiz"
	"golf-concierge-be/pkg/retrieval"
	"golf-concierge-be/pkg/sidecar"
	"golf-concierge-be/pkg/store"
	"golf-concierge-be/pkg/synth"

	pktNats "golf-concierge-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	SidecarController controller.ISidecarController
	QuizController    controller.IQuizController
	HealthController  controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// Close releases connections opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// VectorRepositories are the two similarity-searchable collections.
type VectorRepositories struct {
	SiteChunks contract.SiteChunkRepository
	Courses    contract.CourseRepository
}

// NewVectorRepositories picks pgvector (db must be non-nil) or the embedded
// chromem store according to VECTOR_BACKEND.
func NewVectorRepositories(cfg *config.Config, db *gorm.DB) (*VectorRepositories, error) {
	if cfg.Database.VectorBackend == "chromem" {
		cdb, err := chromemstore.Open(cfg.Database.ChromemPath)
		if err != nil {
			return nil, fmt.Errorf("open chromem store: %w", err)
		}
		chunks, err := chromemstore.NewSiteChunkRepository(cdb)
		if err != nil {
			return nil, err
		}
		courses, err := chromemstore.NewCourseRepository(cdb)
		if err != nil {
			return nil, err
		}
		return &VectorRepositories{SiteChunks: chunks, Courses: courses}, nil
	}

	if db == nil {
		return nil, fmt.Errorf("pgvector backend needs a database connection")
	}
	return &VectorRepositories{
		SiteChunks: implementation.NewSiteChunkRepository(db),
		Courses:    implementation.NewCourseRepository(db),
	}, nil
}

// NewEmbeddingProvider builds the provider named by EMBEDDING_PROVIDER.
func NewEmbeddingProvider(cfg *config.Config) embedding.EmbeddingProvider {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	case "jina":
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
		return jina.NewJinaProvider(cfg.Keys.Jina, "", cfg.Ai.JinaModel)
	default:
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.EventLogFilePath)
	c := &Container{Logger: sysLogger}
	checks := map[string]controller.HealthCheck{}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var forwarder service.EventForwarder
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. Storage
	repos, err := NewVectorRepositories(cfg, db)
	if err != nil {
		return nil, err
	}
	if db != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}

	var sessions store.SessionStore
	if cfg.Session.Store == "redis" {
		opt, err := redis.ParseURL(cfg.Session.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.Session.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		sessions = redisstore.NewSessionRepository(rdb, cfg.Session.KeyPrefix, cfg.Session.TTL)
	} else {
		sessions = memory.NewSessionRepository(cfg.Session.TTL)
	}

	// 4. AI Providers
	embeddingProvider := NewEmbeddingProvider(cfg)

	llmBaseURL, llmKey := cfg.Ai.LLMBaseURL, ""
	switch cfg.Ai.LLMProvider {
	case "ollama":
		if llmBaseURL == "" {
			llmBaseURL = cfg.Ai.OllamaBaseURL
		}
	case "huggingface":
		llmKey = cfg.Keys.HuggingFace
	case "openai":
		llmKey = cfg.Keys.OpenAI
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, llmBaseURL, llmKey)
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Quiz
	bank, err := quiz.DefaultBank()
	if cfg.Quiz.BankPath != "" {
		bank, err = quiz.LoadBankFile(cfg.Quiz.BankPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz bank: %w", err)
	}
	engine := quiz.NewEngine(bank, cfg.Quiz.SessionTTL)

	var quizClient quiz.Client = engine
	if cfg.Quiz.Mode == "remote" {
		quizClient = quiz.NewHTTPClient(cfg.Quiz.BaseURL, cfg.Quiz.Timeout)
		log.Printf("[INFO] Using remote quiz service at %s", cfg.Quiz.BaseURL)
	}

	// 6. Retrieval & Synthesis
	var scraper retrieval.Scraper
	if cfg.Retrieval.SiteSearchURL != "" {
		scraper = retrieval.NewSiteSearchScraper(cfg.Retrieval.SiteSearchURL, cfg.Retrieval.SiteSearchKey, 0)
	}
	var reranker retrieval.Reranker
	if cfg.Retrieval.RerankEnabled {
		reranker = retrieval.NewJinaReranker(cfg.Keys.Jina, "", cfg.Retrieval.RerankModel)
	}
	orchestrator := retrieval.NewOrchestrator(embeddingProvider, repos.SiteChunks, scraper, reranker, sysLogger, retrieval.Config{
		TopK:        cfg.Retrieval.TopK,
		HostCap:     cfg.Retrieval.HostCap,
		MaxPassages: cfg.Retrieval.MaxPassages,
		CharBudget:  cfg.Retrieval.CharBudget,
	})
	synthesizer := synth.NewSynthesizer(llmProvider, sysLogger)
	matcher := course.NewMatcher(repos.Courses, sysLogger, cfg.Quiz.CourseRadius, cfg.Quiz.CourseLimit)

	geocoder := sidecar.NewGeoapifyGeocoder(cfg.Keys.Geoapify, cfg.Sidecar.GeocodeURL)
	weather := sidecar.NewSidecar(geocoder, sidecar.NewOpenMeteoForecaster(cfg.Sidecar.ForecastURL), sysLogger)

	// 7. Services
	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Events.Topic, forwarder, auditLogger, sysLogger)

	chatService := service.NewChatService(
		sessions,
		quizClient,
		orchestrator,
		synthesizer,
		matcher,
		geocoder,
		weather,
		publisherService,
		sysLogger,
	)

	// 8. Controllers
	c.ChatController = controller.NewChatController(chatService, cfg.Session.CookieName)
	c.SidecarController = controller.NewSidecarController(service.NewSidecarService(weather))
	c.QuizController = controller.NewQuizController(service.NewQuizService(engine, sysLogger))
	c.HealthController = controller.NewHealthController(checks)

	return c, nil
}
