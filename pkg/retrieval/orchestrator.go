package retrieval

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/internal/repository/contract"
	"golf-concierge-be/pkg/embedding"
)

const moduleName = "Retrieval"

// Orchestrator turns a free-text question into a bounded, ranked set of
// site passages plus candidate links.
type Orchestrator struct {
	embedder embedding.EmbeddingProvider
	chunks   contract.SiteChunkRepository
	scraper  Scraper
	reranker Reranker
	logger   logger.ILogger
	cfg      Config
}

// NewOrchestrator wires the search path. scraper and reranker may be nil.
func NewOrchestrator(
	embedder embedding.EmbeddingProvider,
	chunks contract.SiteChunkRepository,
	scraper Scraper,
	reranker Reranker,
	log logger.ILogger,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		embedder: embedder,
		chunks:   chunks,
		scraper:  scraper,
		reranker: reranker,
		logger:   log,
		cfg:      cfg.withDefaults(),
	}
}

type chunkKey struct {
	url   string
	index int
}

// Retrieve runs every step of the search. Individual source failures are
// logged and skipped; ErrUnavailable is returned only when no source could
// be queried at all.
func (o *Orchestrator) Retrieve(ctx context.Context, query string) (*Result, error) {
	variants := Variants(query)
	if len(variants) == 0 {
		return &Result{}, nil
	}
	threshold := Threshold(query)

	best := make(map[chunkKey]Passage)
	var order []chunkKey
	searched := 0

	for _, v := range variants {
		emb, err := o.embedder.Generate(ctx, v, embedding.TaskRetrievalQuery)
		if err != nil {
			o.logger.Warn(moduleName, "Embedding failed", map[string]interface{}{"variant": v, "error": err.Error()})
			continue
		}
		hits, err := o.chunks.SearchSimilarWithScore(ctx, emb.Embedding.Values, o.cfg.TopK, threshold)
		if err != nil {
			o.logger.Warn(moduleName, "Vector search failed", map[string]interface{}{"variant": v, "error": err.Error()})
			continue
		}
		searched++

		for _, h := range hits {
			p := Passage{
				SourceURL:  h.Chunk.URL,
				Title:      h.Chunk.Title,
				Text:       h.Chunk.Text,
				ChunkIndex: h.Chunk.ChunkIndex,
				Score:      h.Similarity,
			}
			k := chunkKey{p.SourceURL, p.ChunkIndex}
			prev, seen := best[k]
			if !seen {
				order = append(order, k)
			}
			if !seen || p.Score > prev.Score {
				best[k] = p
			}
		}
	}

	var scraped []Link
	scrapeOK := false
	if o.scraper != nil {
		links, err := o.scraper.Search(ctx, query)
		if err != nil {
			o.logger.Warn(moduleName, "Site search scrape failed", map[string]interface{}{"error": err.Error()})
		} else {
			scrapeOK = true
			scraped = links
		}
	}

	if searched == 0 && !scrapeOK {
		return nil, fmt.Errorf("%w: no vector search or site search succeeded", ErrUnavailable)
	}

	merged := make([]Passage, 0, len(order))
	for _, k := range order {
		merged = append(merged, best[k])
	}

	ranked := Rank(query, merged)
	o.logger.Debug(moduleName, "Candidates ranked", map[string]interface{}{
		"merged":    len(merged),
		"kept":      len(ranked),
		"threshold": threshold,
	})

	ranked = o.rerank(ctx, query, ranked)
	passages := Select(ranked, o.cfg)

	return &Result{
		Passages: passages,
		Links:    mergeLinks(passages, scraped, o.cfg.MaxLinks),
	}, nil
}

// Rank applies the length-scaled threshold, then the lexical bonus, and sorts
// by adjusted score. Ties keep their input order.
func Rank(query string, passages []Passage) []Passage {
	threshold := Threshold(query)
	tokens := Tokens(query)

	out := make([]Passage, 0, len(passages))
	for _, p := range passages {
		if p.Score < threshold {
			continue
		}
		p.AdjustedScore = p.Score + LexicalBonus(tokens, p)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AdjustedScore > out[j].AdjustedScore })
	return out
}

func (o *Orchestrator) rerank(ctx context.Context, query string, passages []Passage) []Passage {
	if o.reranker == nil || len(passages) < 2 {
		return passages
	}
	docs := make([]string, len(passages))
	for i, p := range passages {
		docs[i] = p.Title + "\n" + p.Text
	}
	order, err := o.reranker.Rerank(ctx, query, docs)
	if err != nil {
		o.logger.Warn(moduleName, "Rerank failed, keeping score order", map[string]interface{}{"error": err.Error()})
		return passages
	}
	return applyOrder(passages, order)
}

// applyOrder permutes passages by order. Indexes out of range or repeated are
// ignored and anything the reranker left out keeps its relative place at
// the end.
func applyOrder(passages []Passage, order []int) []Passage {
	out := make([]Passage, 0, len(passages))
	used := make([]bool, len(passages))
	for _, i := range order {
		if i < 0 || i >= len(passages) || used[i] {
			continue
		}
		used[i] = true
		out = append(out, passages[i])
	}
	for i, p := range passages {
		if !used[i] {
			out = append(out, p)
		}
	}
	return out
}

// Select enforces the per-host cap, the passage limit and the character
// budget, in that order of precedence over the ranked input.
func Select(ranked []Passage, cfg Config) []Passage {
	cfg = cfg.withDefaults()
	perHost := make(map[string]int)
	used := 0

	var out []Passage
	for _, p := range ranked {
		if len(out) == cfg.MaxPassages {
			break
		}
		host := hostOf(p.SourceURL)
		if perHost[host] >= cfg.HostCap {
			continue
		}
		remaining := cfg.CharBudget - used
		if remaining <= 0 {
			break
		}
		if len(p.Text) > remaining {
			if len(out) > 0 {
				break
			}
			p.Text = truncate(p.Text, remaining)
		}
		perHost[host]++
		used += len(p.Text)
		out = append(out, p)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func mergeLinks(passages []Passage, scraped []Link, limit int) []Link {
	var out []Link
	seen := make(map[string]bool)
	add := func(l Link) {
		if l.URL == "" || seen[l.URL] || len(out) >= limit {
			return
		}
		seen[l.URL] = true
		out = append(out, l)
	}
	for _, p := range passages {
		add(Link{URL: p.SourceURL, Title: p.Title})
	}
	for _, l := range scraped {
		add(l)
	}
	return out
}
