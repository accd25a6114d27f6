package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golf-concierge-be/internal/bootstrap"
	"golf-concierge-be/internal/config"
	"golf-concierge-be/internal/server"
	"golf-concierge-be/internal/tracer"
	"golf-concierge-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration:\n%v", err)
	}

	// 1b. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(cfg.Tracing, cfg.App.Environment)
	defer shutdownTracer(context.Background())

	// 2. Initialize Database (only the pgvector backend needs one)
	var gormDB *gorm.DB
	if cfg.Database.VectorBackend == "pgvector" {
		var err error
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.LogSQL, database.PoolConfig{
			MaxOpenConns: cfg.Database.MaxOpenConns,
		})
		if err != nil {
			log.Fatalf("Unable to connect to GORM DB: %v", err)
		}
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}
	defer container.Close()
	defer container.Logger.Sync()

	// 4. Start Background Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Unable to start event consumer: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
