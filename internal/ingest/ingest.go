package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"golf-concierge-be/internal/entity"
	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/internal/repository/contract"
	"golf-concierge-be/pkg/embedding"
	"golf-concierge-be/pkg/preference"
	"golf-concierge-be/pkg/utils"
)

const (
	DefaultChunkSize   = 1500
	DefaultOverlap     = 200
	DefaultConcurrency = 4
)

// Page is one document of the golf content site as produced by the crawler.
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// CourseRecord is one course with raw 0-10 scores per preference dimension.
type CourseRecord struct {
	Name       string             `json:"name"`
	URL        string             `json:"url"`
	Latitude   float64            `json:"latitude"`
	Longitude  float64            `json:"longitude"`
	Profile    map[string]float64 `json:"profile"`
	Attributes map[string]any     `json:"attributes"`
}

type Options struct {
	ChunkSize   int
	Overlap     int
	Concurrency int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// Report summarises a run. Failed pages are logged and skipped.
type Report struct {
	Pages   int
	Chunks  int
	Failed  int
	Courses int
}

type Ingester struct {
	chunks   contract.SiteChunkRepository
	courses  contract.CourseRepository
	embedder embedding.EmbeddingProvider
	log      logger.ILogger
	opts     Options
}

func NewIngester(chunks contract.SiteChunkRepository, courses contract.CourseRepository, embedder embedding.EmbeddingProvider, log logger.ILogger, opts Options) *Ingester {
	return &Ingester{
		chunks:   chunks,
		courses:  courses,
		embedder: embedder,
		log:      log,
		opts:     opts.withDefaults(),
	}
}

// IngestPages replaces the stored chunks of every page. Pages are processed
// concurrently; a page whose embedding or store write fails keeps its
// previous chunks.
func (i *Ingester) IngestPages(ctx context.Context, pages []Page) (*Report, error) {
	var chunkCount, failed, done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.Concurrency)

	for _, page := range pages {
		page := page
		if strings.TrimSpace(page.URL) == "" || strings.TrimSpace(page.Text) == "" {
			i.log.Warn("INGEST", "Skipping page without url or text", map[string]interface{}{"title": page.Title})
			failed.Add(1)
			continue
		}
		g.Go(func() error {
			n, err := i.ingestPage(gctx, page)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				i.log.Error("INGEST", "Page failed", map[string]interface{}{"url": page.URL, "error": err.Error()})
				failed.Add(1)
				return nil
			}
			chunkCount.Add(int64(n))
			done.Add(1)
			return nil
		})
	}

	err := g.Wait()
	report := &Report{Pages: int(done.Load()), Chunks: int(chunkCount.Load()), Failed: int(failed.Load())}
	i.log.Info("INGEST", "Pages ingested", map[string]interface{}{
		"pages":  report.Pages,
		"chunks": report.Chunks,
		"failed": report.Failed,
	})
	return report, err
}

func (i *Ingester) ingestPage(ctx context.Context, page Page) (int, error) {
	pieces := utils.SplitText(page.Text, i.opts.ChunkSize, i.opts.Overlap)
	now := time.Now().UTC()

	rows := make([]*entity.SiteChunk, 0, len(pieces))
	for idx, text := range pieces {
		emb, err := i.embedder.Generate(ctx, text, embedding.TaskRetrievalDocument)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", idx, err)
		}
		rows = append(rows, &entity.SiteChunk{
			Id:         uuid.New(),
			URL:        page.URL,
			Title:      page.Title,
			Text:       text,
			ChunkIndex: idx,
			Embedding:  emb.Embedding.Values,
			CreatedAt:  now,
		})
	}

	if err := i.chunks.ReplaceByURL(ctx, page.URL, rows); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	return len(rows), nil
}

// IngestCourses converts raw profiles to normalised vectors and upserts them
// by URL. Unknown dimensions are ignored and missing ones count as neutral.
// Records without a name or URL are skipped; a repeated URL keeps the last
// record.
func (i *Ingester) IngestCourses(ctx context.Context, records []CourseRecord) (*Report, error) {
	now := time.Now().UTC()
	rows := make([]*entity.Course, 0, len(records))
	byURL := make(map[string]int, len(records))
	report := &Report{}

	for _, r := range records {
		r.URL = strings.TrimSpace(r.URL)
		if strings.TrimSpace(r.Name) == "" || r.URL == "" {
			i.log.Warn("INGEST", "Skipping course without name or url", map[string]interface{}{"name": r.Name, "url": r.URL})
			report.Failed++
			continue
		}
		if prev, dup := byURL[r.URL]; dup {
			i.log.Warn("INGEST", "Duplicate course url, keeping the later record", map[string]interface{}{"url": r.URL, "dropped": rows[prev].Name})
			report.Failed++
			rows[prev] = nil
		}
		byURL[r.URL] = len(rows)
		rows = append(rows, &entity.Course{
			Id:         uuid.New(),
			Name:       r.Name,
			URL:        r.URL,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			Profile:    preference.FromMap(r.Profile).Embedding(),
			Attributes: r.Attributes,
			CreatedAt:  now,
		})
	}

	rows = slices.DeleteFunc(rows, func(c *entity.Course) bool { return c == nil })
	if len(rows) > 0 {
		if err := i.courses.Upsert(ctx, rows); err != nil {
			return report, fmt.Errorf("store courses: %w", err)
		}
	}
	report.Courses = len(rows)
	i.log.Info("INGEST", "Courses ingested", map[string]interface{}{"courses": report.Courses, "skipped": report.Failed})
	return report, nil
}

// ReadPages loads a JSON array of pages.
func ReadPages(path string) ([]Page, error) {
	var pages []Page
	if err := readJSON(path, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// ReadCourses loads a JSON array of course records.
func ReadCourses(path string) ([]CourseRecord, error) {
	var courses []CourseRecord
	if err := readJSON(path, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func readJSON(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
