package course

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/internal/repository/contract"
	"golf-concierge-be/pkg/preference"
)

const moduleName = "CourseMatcher"

const (
	DefaultRadiusKm = 80.0
	DefaultLimit    = 5
)

// Match is one recommended course.
type Match struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	URL         string         `json:"url"`
	Similarity  float64        `json:"similarity"`
	DistanceKm  float64        `json:"distance_km"`
	HasDistance bool           `json:"has_distance"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// GeoFilter centres the search on a point. RadiusKm <= 0 uses the matcher's
// default radius.
type GeoFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

type Matcher struct {
	courses  contract.CourseRepository
	logger   logger.ILogger
	radiusKm float64
	limit    int
}

func NewMatcher(courses contract.CourseRepository, log logger.ILogger, radiusKm float64, limit int) *Matcher {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Matcher{courses: courses, logger: log, radiusKm: radiusKm, limit: limit}
}

// Match finds the courses closest to vec, within the radius of geo when
// given. It never fails: errors are logged and yield an empty list.
func (m *Matcher) Match(ctx context.Context, vec preference.Vector, geo *GeoFilter) []Match {
	var filter *contract.GeoFilter
	if geo != nil {
		radius := geo.RadiusKm
		if radius <= 0 {
			radius = m.radiusKm
		}
		filter = &contract.GeoFilter{Latitude: geo.Latitude, Longitude: geo.Longitude, RadiusKm: radius}
	}

	hits, err := m.courses.SearchNearest(ctx, vec.Embedding(), m.limit, filter)
	if err != nil {
		m.logger.Error(moduleName, "Course search failed", map[string]interface{}{
			"error":   err.Error(),
			"has_geo": filter != nil,
		})
		return []Match{}
	}

	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		if h == nil || h.Course == nil || h.Course.Name == "" {
			continue
		}
		out = append(out, Match{
			ID:          courseID(h),
			Name:        h.Course.Name,
			URL:         h.Course.URL,
			Similarity:  h.Similarity,
			DistanceKm:  h.DistanceKm,
			HasDistance: filter != nil,
			Attributes:  h.Course.Attributes,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })

	m.logger.Info(moduleName, "Courses matched", map[string]interface{}{
		"count":   len(out),
		"has_geo": filter != nil,
	})
	return out
}

func courseID(h *contract.ScoredCourse) string {
	if h.Course.Id != uuid.Nil {
		return h.Course.Id.String()
	}
	if h.Course.URL != "" {
		return h.Course.URL
	}
	return fmt.Sprintf("course:%s", h.Course.Name)
}
