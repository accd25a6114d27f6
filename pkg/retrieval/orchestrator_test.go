package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golf-concierge-be/internal/entity"
	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/internal/repository/contract"
	"golf-concierge-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err   error
	calls []string
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

// fakeChunks returns hits keyed by the variant index of the call.
type fakeChunks struct {
	byCall [][]*contract.ScoredSiteChunk
	err    error
	call   int
}

func (f *fakeChunks) ReplaceByURL(context.Context, string, []*entity.SiteChunk) error { return nil }
func (f *fakeChunks) Count(context.Context) (int64, error) { return 0, nil }

func (f *fakeChunks) SearchSimilarWithScore(ctx context.Context, e []float32, limit int, threshold float64) ([]*contract.ScoredSiteChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	defer func() { f.call++ }()
	if f.call < len(f.byCall) {
		return f.byCall[f.call], nil
	}
	return nil, nil
}

type fakeScraper struct {
	links []Link
	err   error
}

func (f fakeScraper) Search(context.Context, string) ([]Link, error) { return f.links, f.err }

type fakeReranker struct {
	order []int
	err   error
}

func (f fakeReranker) Rerank(context.Context, string, []string) ([]int, error) { return f.order, f.err }

func hit(url string, idx int, score float64, text string) *contract.ScoredSiteChunk {
	return &contract.ScoredSiteChunk{
		Chunk:      &entity.SiteChunk{URL: url, Title: "T " + url, Text: text, ChunkIndex: idx},
		Similarity: score,
	}
}

func TestRetrieveDedupesByURLAndChunk(t *testing.T) {
	chunks := &fakeChunks{byCall: [][]*contract.ScoredSiteChunk{
		{hit("https://a.com/links", 0, 0.50, "links golf"), hit("https://a.com/links", 1, 0.45, "wind")},
		{hit("https://a.com/links", 0, 0.62, "links golf")},
		{hit("https://a.com/links", 0, 0.40, "links golf")},
	}}
	o := NewOrchestrator(&fakeEmbedder{}, chunks, nil, nil, logger.NewNopLogger(), DefaultConfig())

	res, err := o.Retrieve(context.Background(), "Links Golf?")
	require.NoError(t, err)
	require.Len(t, res.Passages, 2)
	assert.Equal(t, 0, res.Passages[0].ChunkIndex)
	assert.InDelta(t, 0.62, res.Passages[0].Score, 1e-9, "best score of the duplicates survives")
	assert.Len(t, res.Links, 1)
}

func TestRetrieveRunsEachDistinctVariant(t *testing.T) {
	emb := &fakeEmbedder{}
	o := NewOrchestrator(emb, &fakeChunks{}, nil, nil, logger.NewNopLogger(), DefaultConfig())

	_, err := o.Retrieve(context.Background(), "links golf")
	require.NoError(t, err)
	assert.Equal(t, []string{"links golf"}, emb.calls)

	emb.calls = nil
	_, err = o.Retrieve(context.Background(), "Links, golf!")
	require.NoError(t, err)
	assert.Equal(t, []string{"Links, golf!", "links, golf!", "links golf"}, emb.calls)
}

func TestRetrieveNothingFoundIsEmpty(t *testing.T) {
	chunks := &fakeChunks{byCall: [][]*contract.ScoredSiteChunk{{hit("https://a.com/x", 0, 0.10, "noise")}}}
	o := NewOrchestrator(&fakeEmbedder{}, chunks, fakeScraper{}, nil, logger.NewNopLogger(), DefaultConfig())

	res, err := o.Retrieve(context.Background(), "putting green speed")
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestRetrieveLinksOnlyWhenNoPassages(t *testing.T) {
	scraper := fakeScraper{links: []Link{{URL: "https://a.com/greens", Title: "Greens"}}}
	o := NewOrchestrator(&fakeEmbedder{err: errors.New("down")}, &fakeChunks{}, scraper, nil, logger.NewNopLogger(), DefaultConfig())

	res, err := o.Retrieve(context.Background(), "green speed")
	require.NoError(t, err)
	assert.Empty(t, res.Passages)
	assert.Equal(t, scraper.links, res.Links)
}

func TestRetrieveUnavailable(t *testing.T) {
	o := NewOrchestrator(&fakeEmbedder{}, &fakeChunks{err: errors.New("db down")}, fakeScraper{err: errors.New("404")}, nil, logger.NewNopLogger(), DefaultConfig())

	_, err := o.Retrieve(context.Background(), "green speed")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRerankFailOpen(t *testing.T) {
	chunks := &fakeChunks{byCall: [][]*contract.ScoredSiteChunk{{
		hit("https://a.com/1", 0, 0.9, "one"),
		hit("https://b.com/2", 0, 0.8, "two"),
	}}}
	o := NewOrchestrator(&fakeEmbedder{}, chunks, nil, fakeReranker{err: errors.New("quota")}, logger.NewNopLogger(), DefaultConfig())
	res, err := o.Retrieve(context.Background(), "one")
	require.NoError(t, err)
	require.Len(t, res.Passages, 2)
	assert.Equal(t, "one", res.Passages[0].Text)

	chunks.call = 0
	o.reranker = fakeReranker{order: []int{1, 0}}
	res, err = o.Retrieve(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, "two", res.Passages[0].Text)
}

func TestRankThresholdAndLexicalBonus(t *testing.T) {
	passages := []Passage{
		{SourceURL: "https://a.com/x", Text: "generic", Score: 0.50},
		{SourceURL: "https://a.com/bermuda-greens", Text: "Bermuda greens roll fast in summer", Score: 0.46},
		{SourceURL: "https://a.com/y", Text: "below the bar", Score: 0.29},
	}
	ranked := Rank("bermuda greens summer", passages)
	require.Len(t, ranked, 2)
	assert.Equal(t, "https://a.com/bermuda-greens", ranked[0].SourceURL)
	assert.InDelta(t, 0.52, ranked[0].AdjustedScore, 1e-9)
}

func TestThresholdScalesWithLength(t *testing.T) {
	assert.Equal(t, 0.30, Threshold("links golf"))
	assert.Equal(t, 0.35, Threshold("what is a links golf course"))
	assert.Equal(t, 0.40, Threshold("what should I wear for a links golf course in Scotland"))
}

func TestLexicalBonusCapped(t *testing.T) {
	tokens := Tokens("how to fix the bunker fairway green rough hazard driver putter")
	p := Passage{Text: "bunker fairway green rough hazard driver putter"}
	assert.InDelta(t, 0.10, LexicalBonus(tokens, p), 1e-9)
	assert.NotContains(t, tokens, "to", "short tokens are ignored")
	assert.NotContains(t, tokens, "the", "stopwords are ignored")
}

func TestSelectHostCapAndBudget(t *testing.T) {
	var ranked []Passage
	for i := 0; i < 4; i++ {
		ranked = append(ranked, Passage{SourceURL: "https://www.a.com/p", ChunkIndex: i, Text: "aaaa"})
	}
	ranked = append(ranked,
		Passage{SourceURL: "https://b.com/p", Text: "bbbb"},
		Passage{SourceURL: "https://c.com/p", Text: strings.Repeat("c", 100)},
	)

	out := Select(ranked, Config{HostCap: 2, MaxPassages: 6, CharBudget: 50})
	require.Len(t, out, 3)
	assert.Equal(t, "https://b.com/p", out[2].SourceURL)

	out = Select([]Passage{{SourceURL: "https://c.com/p", Text: strings.Repeat("c", 100)}}, Config{CharBudget: 40})
	require.Len(t, out, 1)
	assert.Len(t, out[0].Text, 40)

	out = Select(ranked[:4], Config{HostCap: 10, MaxPassages: 3})
	assert.Len(t, out, 3)
}

func TestVariants(t *testing.T) {
	assert.Nil(t, Variants("   "))
	assert.Equal(t, []string{"Pebble Beach?", "pebble beach?", "pebble beach"}, Variants("Pebble Beach?"))
}
