package server

import (
	"log"
	"time"

	"golf-concierge-be/internal/bootstrap"
	"golf-concierge-be/internal/config"
	"golf-concierge-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	bodyLimit       = 1 * 1024 * 1024 // chat transcripts are small
	readTimeout     = 10 * time.Second
	writeTimeout    = 60 * time.Second // one chat turn may wait on the LLM
	shutdownTimeout = 15 * time.Second
)

// RouteRegistrar is implemented by every controller.
type RouteRegistrar interface {
	RegisterRoutes(r fiber.Router)
}

type Server struct {
	app *fiber.App
	cfg *config.Config
}

// New builds the Fiber app with the container's controllers mounted at the root.
func New(cfg *config.Config, container *bootstrap.Container) *Server {
	return NewWithRoutes(cfg,
		container.HealthController,
		container.ChatController,
		container.SidecarController,
		container.QuizController,
	)
}

func NewWithRoutes(cfg *config.Config, routes ...RouteRegistrar) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "golf-concierge",
		BodyLimit:    bodyLimit,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	app.Use(serverutils.ErrorHandlerMiddleware())
	// Registered after the error middleware so a panic is reported as a JSON 500.
	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		// The session cookie must travel with cross-origin chat requests.
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, OPTIONS",
	}))

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/healthz"
	})))

	for _, r := range routes {
		r.RegisterRoutes(app)
	}

	return &Server{app: app, cfg: cfg}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s (%s)", s.cfg.App.Port, s.cfg.App.Environment)
	return s.app.Listen(":" + s.cfg.App.Port)
}

// Shutdown stops accepting connections and waits for in-flight chat turns.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(shutdownTimeout)
}
