package entity

import (
	"time"

	"github.com/google/uuid"
)

// SiteChunk is one embedded slice of a page from the golf content site.
type SiteChunk struct {
	Id         uuid.UUID
	URL        string
	Title      string
	Text       string
	ChunkIndex int
	Embedding  []float32
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
