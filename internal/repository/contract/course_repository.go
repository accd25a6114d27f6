package contract

import (
	"context"

	"golf-concierge-be/internal/entity"
)

// GeoFilter restricts a course search to a circle around a point.
type GeoFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

type ScoredCourse struct {
	Course     *entity.Course
	Similarity float64
	// DistanceKm is only meaningful when the search had a GeoFilter.
	DistanceKm float64
}

type CourseRepository interface {
	// Upsert inserts courses, replacing any existing row with the same URL.
	Upsert(ctx context.Context, courses []*entity.Course) error
	Count(ctx context.Context) (int64, error)
	SearchNearest(ctx context.Context, profile []float32, limit int, geo *GeoFilter) ([]*ScoredCourse, error)
}
