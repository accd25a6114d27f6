package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type SiteChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	URL            string          `gorm:"type:text;not null;uniqueIndex:idx_site_chunks_url_chunk"`
	Title          string          `gorm:"type:text"`
	Text           string          `gorm:"type:text"`
	ChunkIndex     int             `gorm:"default:0;uniqueIndex:idx_site_chunks_url_chunk"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // matches embedding.Dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (SiteChunk) TableName() string {
	return "site_chunks"
}
