package retrieval

import (
	"context"
	"errors"
)

// ErrUnavailable means no source could be queried at all.
var ErrUnavailable = errors.New("retrieval backends unavailable")

// Passage is a retrieved chunk of site content.
type Passage struct {
	SourceURL     string  `json:"source_url"`
	Title         string  `json:"title"`
	Text          string  `json:"text"`
	ChunkIndex    int     `json:"chunk_index"`
	Score         float64 `json:"score"`
	AdjustedScore float64 `json:"adjusted_score"`
}

type Link struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Result is what a query produced. Passages are ranked and already fit the
// context budget; Links is every distinct page worth showing, passage
// sources first.
type Result struct {
	Passages []Passage
	Links    []Link
}

// Empty reports whether there is nothing at all to show.
func (r *Result) Empty() bool {
	return r == nil || (len(r.Passages) == 0 && len(r.Links) == 0)
}

// Scraper returns candidate links from a server-rendered site search page.
type Scraper interface {
	Search(ctx context.Context, query string) ([]Link, error)
}

// Reranker returns a permutation of indexes into documents, best first.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string) ([]int, error)
}

type Config struct {
	TopK        int
	HostCap     int
	MaxPassages int
	CharBudget  int
	MaxLinks    int
}

func DefaultConfig() Config {
	return Config{
		TopK:        8,
		HostCap:     2,
		MaxPassages: 6,
		CharBudget:  6000,
		MaxLinks:    8,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.HostCap <= 0 {
		c.HostCap = d.HostCap
	}
	if c.MaxPassages <= 0 {
		c.MaxPassages = d.MaxPassages
	}
	if c.CharBudget <= 0 {
		c.CharBudget = d.CharBudget
	}
	if c.MaxLinks <= 0 {
		c.MaxLinks = d.MaxLinks
	}
	return c
}
