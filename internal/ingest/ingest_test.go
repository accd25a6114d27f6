package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golf-concierge-be/internal/entity"
	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/internal/repository/contract"
	"golf-concierge-be/pkg/embedding"
)

type memChunks struct {
	mu       sync.Mutex
	byURL    map[string][]*entity.SiteChunk
	replaced []string
	failURL  string
}

func newMemChunks() *memChunks {
	return &memChunks{byURL: map[string][]*entity.SiteChunk{}}
}

func (m *memChunks) ReplaceByURL(ctx context.Context, url string, chunks []*entity.SiteChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if url == m.failURL {
		return errors.New("connection reset by peer")
	}
	m.replaced = append(m.replaced, url)
	m.byURL[url] = chunks
	return nil
}

func (m *memChunks) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *memChunks) SearchSimilarWithScore(ctx context.Context, vec []float32, limit int, threshold float64) ([]*contract.ScoredSiteChunk, error) {
	return nil, nil
}

type memCourses struct {
	rows []*entity.Course
}

func (m *memCourses) Upsert(ctx context.Context, courses []*entity.Course) error {
	m.rows = append(m.rows, courses...)
	return nil
}

func (m *memCourses) Count(ctx context.Context) (int64, error) { return int64(len(m.rows)), nil }

func (m *memCourses) SearchNearest(ctx context.Context, profile []float32, limit int, geo *contract.GeoFilter) ([]*contract.ScoredCourse, error) {
	return nil, nil
}

type stubEmbedder struct {
	failOn string
}

func (s *stubEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	if taskType != embedding.TaskRetrievalDocument {
		return nil, errors.New("wrong task type")
	}
	if s.failOn != "" && strings.Contains(text, s.failOn) {
		return nil, errors.New("embedding quota exceeded")
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0, 0}}}, nil
}

func TestIngestPagesChunksAndReplaces(t *testing.T) {
	chunks := newMemChunks()
	ing := NewIngester(chunks, &memCourses{}, &stubEmbedder{failOn: "BROKEN"}, logger.NewNopLogger(), Options{ChunkSize: 40, Overlap: 10, Concurrency: 2})

	report, err := ing.IngestPages(context.Background(), []Page{
		{URL: "https://golf.example/pinehurst", Title: "Pinehurst", Text: strings.Repeat("crowned greens and wiregrass ", 6)},
		{URL: "https://golf.example/bandon", Title: "Bandon", Text: "cliffside links"},
		{URL: "https://golf.example/broken", Title: "Broken", Text: "BROKEN page"},
		{URL: "", Text: "orphan"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 2, report.Failed)
	assert.Greater(t, report.Chunks, 2)

	pinehurst := chunks.byURL["https://golf.example/pinehurst"]
	require.Greater(t, len(pinehurst), 1)
	for i, c := range pinehurst {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, "Pinehurst", c.Title)
		assert.LessOrEqual(t, len([]rune(c.Text)), 40)
	}
	assert.Len(t, chunks.byURL["https://golf.example/bandon"], 1)
	assert.NotContains(t, chunks.byURL, "https://golf.example/broken")
	assert.NotContains(t, chunks.replaced, "https://golf.example/broken")
}

func TestIngestPagesKeepsPreviousChunksWhenStoreFails(t *testing.T) {
	chunks := newMemChunks()
	prior := []*entity.SiteChunk{{URL: "https://golf.example/bandon", Text: "old copy", ChunkIndex: 0}}
	chunks.byURL["https://golf.example/bandon"] = prior
	chunks.failURL = "https://golf.example/bandon"

	ing := NewIngester(chunks, &memCourses{}, &stubEmbedder{}, logger.NewNopLogger(), Options{})
	report, err := ing.IngestPages(context.Background(), []Page{
		{URL: "https://golf.example/bandon", Title: "Bandon", Text: "new cliffside links copy"},
		{URL: "https://golf.example/pinehurst", Title: "Pinehurst", Text: "wiregrass"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, prior, chunks.byURL["https://golf.example/bandon"])
	assert.Len(t, chunks.byURL["https://golf.example/pinehurst"], 1)
}

func TestIngestPagesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ing := NewIngester(newMemChunks(), &memCourses{}, ctxEmbedder{}, logger.NewNopLogger(), Options{})
	_, err := ing.IngestPages(ctx, []Page{{URL: "https://golf.example/a", Text: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

type ctxEmbedder struct{}

func (ctxEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	return nil, ctx.Err()
}

func TestIngestCoursesBuildsProfiles(t *testing.T) {
	courses := &memCourses{}
	ing := NewIngester(newMemChunks(), courses, &stubEmbedder{}, logger.NewNopLogger(), Options{})

	report, err := ing.IngestCourses(context.Background(), []CourseRecord{
		{Name: "Pinehurst No. 2", URL: "https://golf.example/no2", Latitude: 35.19, Longitude: -79.47,
			Profile: map[string]float64{"difficulty": 10, "value": 1, "bogus": 5}},
		{Name: "", URL: "https://golf.example/nameless"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Courses)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, courses.rows, 1)

	row := courses.rows[0]
	require.Len(t, row.Profile, 10)
	assert.InDelta(t, 1.0, row.Profile[0], 1e-6)
	assert.InDelta(t, 35.19, row.Latitude, 1e-9)
}

func TestIngestCoursesNeedsDistinctURLs(t *testing.T) {
	courses := &memCourses{}
	ing := NewIngester(newMemChunks(), courses, &stubEmbedder{}, logger.NewNopLogger(), Options{})

	report, err := ing.IngestCourses(context.Background(), []CourseRecord{
		{Name: "Muni Nine", URL: ""},
		{Name: "Unnamed Links", URL: "  "},
		{Name: "Tobacco Road", URL: "https://golf.example/tobacco"},
		{Name: "Tobacco Road Golf Club", URL: "https://golf.example/tobacco"},
		{Name: "Mid Pines", URL: "https://golf.example/midpines"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Courses)
	assert.Equal(t, 3, report.Failed)
	require.Len(t, courses.rows, 2)
	assert.Equal(t, "Tobacco Road Golf Club", courses.rows[0].Name)
	assert.Equal(t, "Mid Pines", courses.rows[1].Name)
}

func TestReadPagesAndCourses(t *testing.T) {
	dir := t.TempDir()
	pagesPath := filepath.Join(dir, "pages.json")
	require.NoError(t, os.WriteFile(pagesPath, []byte(`[{"url":"https://golf.example/a","title":"A","text":"hello"}]`), 0o600))

	pages, err := ReadPages(pagesPath)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "A", pages[0].Title)

	coursesPath := filepath.Join(dir, "courses.json")
	require.NoError(t, os.WriteFile(coursesPath, []byte(`{"name":"not an array"}`), 0o600))
	_, err = ReadCourses(coursesPath)
	assert.Error(t, err)

	_, err = ReadPages(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
