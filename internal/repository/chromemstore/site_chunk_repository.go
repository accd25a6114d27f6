package chromemstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golf-concierge-be/internal/entity"
	"golf-concierge-be/internal/repository/contract"

	"github.com/philippgille/chromem-go"
)

type SiteChunkRepository struct {
	coll *chromem.Collection
}

func NewSiteChunkRepository(db *chromem.DB) (contract.SiteChunkRepository, error) {
	coll, err := db.GetOrCreateCollection(SiteChunkCollection, nil, precomputed)
	if err != nil {
		return nil, fmt.Errorf("open chromem collection %s: %w", SiteChunkCollection, err)
	}
	return &SiteChunkRepository{coll: coll}, nil
}

func chunkID(url string, index int) string {
	return url + "#" + strconv.Itoa(index)
}

func (r *SiteChunkRepository) upsert(ctx context.Context, chunks []*entity.SiteChunk) error {
	now := time.Now()
	for _, c := range chunks {
		doc := chromem.Document{
			ID: chunkID(c.URL, c.ChunkIndex),
			Metadata: map[string]string{
				"url":         c.URL,
				"title":       c.Title,
				"chunk_index": strconv.Itoa(c.ChunkIndex),
				"updated_at":  now.Format(time.RFC3339),
			},
			Embedding: c.Embedding,
			Content:   c.Text,
		}
		if err := r.coll.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add chunk %s: %w", doc.ID, err)
		}
	}
	return nil
}

// ReplaceByURL overwrites chunks in place by (url, index) and then drops the
// indexes past the new end. chromem has no transactions, so a failed write
// can leave a mix of old and new chunks but never an empty page.
func (r *SiteChunkRepository) ReplaceByURL(ctx context.Context, url string, chunks []*entity.SiteChunk) error {
	if err := r.upsert(ctx, chunks); err != nil {
		return err
	}
	var stale []string
	for idx := len(chunks); ; idx++ {
		id := chunkID(url, idx)
		if _, err := r.coll.GetByID(ctx, id); err != nil {
			break
		}
		stale = append(stale, id)
	}
	if len(stale) == 0 {
		return nil
	}
	return r.coll.Delete(ctx, nil, nil, stale...)
}

func (r *SiteChunkRepository) Count(ctx context.Context) (int64, error) {
	return int64(r.coll.Count()), nil
}

func (r *SiteChunkRepository) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredSiteChunk, error) {
	if limit <= 0 {
		limit = 8
	}
	// chromem rejects nResults larger than the collection
	if n := r.coll.Count(); n < limit {
		limit = n
	}
	if limit == 0 {
		return nil, nil
	}

	res, err := r.coll.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		return nil, err
	}

	out := make([]*contract.ScoredSiteChunk, 0, len(res))
	for _, doc := range res {
		if float64(doc.Similarity) < threshold {
			continue
		}
		idx, _ := strconv.Atoi(doc.Metadata["chunk_index"])
		out = append(out, &contract.ScoredSiteChunk{
			Chunk: &entity.SiteChunk{
				URL:        doc.Metadata["url"],
				Title:      doc.Metadata["title"],
				Text:       doc.Content,
				ChunkIndex: idx,
				Embedding:  doc.Embedding,
			},
			Similarity: float64(doc.Similarity),
		})
	}
	return out, nil
}
