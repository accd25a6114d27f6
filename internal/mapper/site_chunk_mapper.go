package mapper

import (
	"time"

	"golf-concierge-be/internal/entity"
	"golf-concierge-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type SiteChunkMapper struct{}

func NewSiteChunkMapper() *SiteChunkMapper {
	return &SiteChunkMapper{}
}

func (m *SiteChunkMapper) ToEntity(e *model.SiteChunk) *entity.SiteChunk {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.SiteChunk{
		Id:         e.Id,
		URL:        e.URL,
		Title:      e.Title,
		Text:       e.Text,
		ChunkIndex: e.ChunkIndex,
		Embedding:  e.EmbeddingValue.Slice(),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *SiteChunkMapper) ToModel(e *entity.SiteChunk) *model.SiteChunk {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.SiteChunk{
		Id:             e.Id,
		URL:            e.URL,
		Title:          e.Title,
		Text:           e.Text,
		ChunkIndex:     e.ChunkIndex,
		EmbeddingValue: pgvector.NewVector(e.Embedding),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *SiteChunkMapper) ToModels(chunks []*entity.SiteChunk) []*model.SiteChunk {
	models := make([]*model.SiteChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
