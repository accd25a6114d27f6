package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"golf-concierge-be/internal/bootstrap"
	"golf-concierge-be/internal/config"
	"golf-concierge-be/internal/ingest"
	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/pkg/database"
)

var (
	// Global flags
	backend string
	verbose bool

	// Page flags
	chunkSize   int
	overlap     int
	concurrency int

	cfg   *config.Config
	repos *bootstrap.VectorRepositories
	sysLg logger.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load site pages and golf courses into the vector store",
	Long: `ingest fills the two collections the concierge searches:

- pages:   crawled site pages, split into overlapping chunks and embedded
- courses: golf courses with their ten-dimension preference profiles

Connection settings come from the same environment as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if backend != "" {
			cfg.Database.VectorBackend = backend
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if cfg.Database.VectorBackend == "chromem" && cfg.Database.ChromemPath == "" {
			return fmt.Errorf("CHROMEM_PATH must be set, an in-memory chromem store is lost when ingest exits")
		}

		sysLg = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

		var db *gorm.DB
		if cfg.Database.VectorBackend == "pgvector" {
			var err error
			db, err = database.NewGormDBFromDSN(cfg.Database.Connection, verbose, database.PoolConfig{
				MaxOpenConns: concurrency + 2,
			})
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
		}

		var err error
		repos, err = bootstrap.NewVectorRepositories(cfg, db)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = sysLg.Sync()
	},
}

var pagesCmd = &cobra.Command{
	Use:   "pages <pages.json>",
	Short: "Chunk, embed and store crawled site pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pages, err := ingest.ReadPages(args[0])
		if err != nil {
			return err
		}
		report, err := newIngester().IngestPages(cmd.Context(), pages)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d pages (%d chunks), %d failed\n", report.Pages, report.Chunks, report.Failed)
		if report.Failed > 0 {
			return fmt.Errorf("%d pages failed, see log for details", report.Failed)
		}
		return nil
	},
}

var coursesCmd = &cobra.Command{
	Use:   "courses <courses.json>",
	Short: "Store golf courses with their preference profiles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := ingest.ReadCourses(args[0])
		if err != nil {
			return err
		}
		report, err := newIngester().IngestCourses(cmd.Context(), records)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d courses, %d skipped\n", report.Courses, report.Failed)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print how many chunks and courses are stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		chunks, err := repos.SiteChunks.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("count site chunks: %w", err)
		}
		courses, err := repos.Courses.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("count courses: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "site_chunks: %d\ncourses:     %d\n", chunks, courses)
		return nil
	},
}

func newIngester() *ingest.Ingester {
	return ingest.NewIngester(repos.SiteChunks, repos.Courses, bootstrap.NewEmbeddingProvider(cfg), sysLg, ingest.Options{
		ChunkSize:   chunkSize,
		Overlap:     overlap,
		Concurrency: concurrency,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "vector backend override: pgvector or chromem (default: VECTOR_BACKEND)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every SQL statement")

	pagesCmd.Flags().IntVar(&chunkSize, "chunk-size", ingest.DefaultChunkSize, "maximum characters per chunk")
	pagesCmd.Flags().IntVar(&overlap, "overlap", ingest.DefaultOverlap, "characters shared by consecutive chunks")
	pagesCmd.Flags().IntVarP(&concurrency, "concurrency", "j", ingest.DefaultConcurrency, "pages embedded in parallel")

	rootCmd.AddCommand(pagesCmd, coursesCmd, statsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
