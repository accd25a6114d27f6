package main

import (
	"log"

	"golf-concierge-be/internal/config"
	"golf-concierge-be/internal/model"
	"golf-concierge-be/pkg/database"

	"gorm.io/gorm"
)

// step is a raw statement AutoMigrate cannot express. Optional steps only
// warn on failure; HNSW needs pgvector >= 0.5 and the app works without it.
type step struct {
	name     string
	sql      string
	optional bool
}

var preMigration = []step{
	{name: "pgcrypto extension", sql: `CREATE EXTENSION IF NOT EXISTS pgcrypto;`},
	{name: "vector extension", sql: `CREATE EXTENSION IF NOT EXISTS vector;`},
}

var postMigration = []step{
	{
		name:     "site chunk embedding index",
		sql:      `CREATE INDEX IF NOT EXISTS idx_site_chunks_embedding ON site_chunks USING hnsw (embedding_value vector_cosine_ops);`,
		optional: true,
	},
	{
		name:     "course profile index",
		sql:      `CREATE INDEX IF NOT EXISTS idx_courses_profile ON courses USING hnsw (profile_vector vector_cosine_ops);`,
		optional: true,
	},
}

func run(db *gorm.DB, steps []step) {
	for _, s := range steps {
		if err := db.Exec(s.sql).Error; err != nil {
			if s.optional {
				log.Printf("Warn: %s skipped: %v", s.name, err)
				continue
			}
			log.Fatalf("Error: %s failed: %v", s.name, err)
		}
		log.Printf("  ok  %s", s.name)
	}
}

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	if cfg.Database.VectorBackend != "pgvector" {
		log.Printf("Info: VECTOR_BACKEND=%s does not use Postgres; migrating anyway", cfg.Database.VectorBackend)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.LogSQL, database.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Extensions")
	run(db, preMigration)

	log.Println("Step 2: AutoMigrate site_chunks, courses")
	if err := db.AutoMigrate(&model.SiteChunk{}, &model.Course{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Vector indexes")
	run(db, postMigration)

	log.Println("Database migration completed")
}
