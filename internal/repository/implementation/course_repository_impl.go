package implementation

import (
	"context"
	"fmt"

	"golf-concierge-be/internal/entity"
	"golf-concierge-be/internal/mapper"
	"golf-concierge-be/internal/model"
	"golf-concierge-be/internal/repository/contract"
	"golf-concierge-be/pkg/geo"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// haversineSQL expects (lat, lat, lon) bound in that order.
const haversineSQL = "6371 * 2 * asin(least(1, sqrt(power(sin(radians(latitude - ?) / 2), 2) + " +
	"cos(radians(?)) * cos(radians(latitude)) * power(sin(radians(longitude - ?) / 2), 2))))"

type CourseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CourseMapper
}

func NewCourseRepository(db *gorm.DB) contract.CourseRepository {
	return &CourseRepositoryImpl{
		db:     db,
		mapper: mapper.NewCourseMapper(),
	}
}

func (r *CourseRepositoryImpl) Upsert(ctx context.Context, courses []*entity.Course) error {
	if len(courses) == 0 {
		return nil
	}
	models := make([]*model.Course, 0, len(courses))
	for _, c := range courses {
		m, err := r.mapper.ToModel(c)
		if err != nil {
			return fmt.Errorf("map course %q: %w", c.Name, err)
		}
		models = append(models, m)
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "latitude", "longitude", "profile_vector", "attributes", "updated_at"}),
		}).
		CreateInBatches(models, 100).Error
}

func (r *CourseRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Course{}).Count(&count).Error
	return count, err
}

func (r *CourseRepositoryImpl) SearchNearest(ctx context.Context, profile []float32, limit int, g *contract.GeoFilter) ([]*contract.ScoredCourse, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.Course
		Similarity float64
		DistanceKm float64
	}
	var results []result

	queryVector := pgvector.NewVector(profile)
	q := r.db.WithContext(ctx).Table("courses")

	if g == nil {
		q = q.Select("courses.*, 1 - (profile_vector <=> ?) as similarity, 0 as distance_km", queryVector)
	} else {
		minLat, maxLat, minLon, maxLon := geo.BoundingBox(g.Latitude, g.Longitude, g.RadiusKm)
		q = q.Select("courses.*, 1 - (profile_vector <=> ?) as similarity, "+haversineSQL+" as distance_km",
			queryVector, g.Latitude, g.Latitude, g.Longitude).
			Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?", minLat, maxLat, minLon, maxLon).
			Where(haversineSQL+" <= ?", g.Latitude, g.Latitude, g.Longitude, g.RadiusKm)
	}

	err := q.Order("similarity DESC").Limit(limit).Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredCourse, len(results))
	for i := range results {
		scored[i] = &contract.ScoredCourse{
			Course:     r.mapper.ToEntity(&results[i].Course),
			Similarity: results[i].Similarity,
			DistanceKm: results[i].DistanceKm,
		}
	}
	return scored, nil
}
