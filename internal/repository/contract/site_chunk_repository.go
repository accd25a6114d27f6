package contract

import (
	"context"

	"golf-concierge-be/internal/entity"
)

// ScoredSiteChunk wraps SiteChunk with its similarity score
type ScoredSiteChunk struct {
	Chunk      *entity.SiteChunk
	Similarity float64 // cosine similarity, 1.0 = identical
}

type SiteChunkRepository interface {
	// ReplaceByURL swaps every stored chunk of url for chunks. A failed
	// replace leaves the previous chunks searchable.
	ReplaceByURL(ctx context.Context, url string, chunks []*entity.SiteChunk) error
	Count(ctx context.Context) (int64, error)
	// SearchSimilarWithScore returns at most limit chunks with similarity >= threshold, best first.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredSiteChunk, error)
}
