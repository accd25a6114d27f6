package implementation

import (
	"context"
	"fmt"

	"golf-concierge-be/internal/entity"
	"golf-concierge-be/internal/mapper"
	"golf-concierge-be/internal/model"
	"golf-concierge-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SiteChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SiteChunkMapper
}

func NewSiteChunkRepository(db *gorm.DB) contract.SiteChunkRepository {
	return &SiteChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewSiteChunkMapper(),
	}
}

func (r *SiteChunkRepositoryImpl) ReplaceByURL(ctx context.Context, url string, chunks []*entity.SiteChunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("url = ?", url).Delete(&model.SiteChunk{}).Error; err != nil {
			return fmt.Errorf("delete chunks of %s: %w", url, err)
		}
		if len(chunks) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(r.mapper.ToModels(chunks), 100).Error; err != nil {
			return fmt.Errorf("insert chunks of %s: %w", url, err)
		}
		return nil
	})
}

func (r *SiteChunkRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SiteChunk{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns chunks with similarity scores, filtered by threshold
func (r *SiteChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredSiteChunk, error) {
	if limit <= 0 {
		limit = 8
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity
	type result struct {
		model.SiteChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("site_chunks").
		Select("site_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredSiteChunk, len(results))
	for i := range results {
		scored[i] = &contract.ScoredSiteChunk{
			Chunk:      r.mapper.ToEntity(&results[i].SiteChunk),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
