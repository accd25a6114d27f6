package entity

import (
	"time"

	"github.com/google/uuid"
)

// Course is a golf course with its normalised ten-dimension profile.
type Course struct {
	Id         uuid.UUID
	Name       string
	URL        string
	Latitude   float64
	Longitude  float64
	Profile    []float32
	Attributes map[string]any
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
