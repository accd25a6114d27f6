package mapper

import (
	"encoding/json"
	"time"

	"golf-concierge-be/internal/entity"
	"golf-concierge-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type CourseMapper struct{}

func NewCourseMapper() *CourseMapper {
	return &CourseMapper{}
}

func (m *CourseMapper) ToEntity(e *model.Course) *entity.Course {
	if e == nil {
		return nil
	}

	attrs := map[string]any{}
	if len(e.Attributes) > 0 {
		// Malformed attributes are dropped rather than failing the whole row.
		_ = json.Unmarshal(e.Attributes, &attrs)
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.Course{
		Id:         e.Id,
		Name:       e.Name,
		URL:        e.URL,
		Latitude:   e.Latitude,
		Longitude:  e.Longitude,
		Profile:    e.ProfileVector.Slice(),
		Attributes: attrs,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *CourseMapper) ToModel(e *entity.Course) (*model.Course, error) {
	if e == nil {
		return nil, nil
	}

	attrs := datatypes.JSON("{}")
	if len(e.Attributes) > 0 {
		raw, err := json.Marshal(e.Attributes)
		if err != nil {
			return nil, err
		}
		attrs = datatypes.JSON(raw)
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.Course{
		Id:            e.Id,
		Name:          e.Name,
		URL:           e.URL,
		Latitude:      e.Latitude,
		Longitude:     e.Longitude,
		ProfileVector: pgvector.NewVector(e.Profile),
		Attributes:    attrs,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     updatedAt,
	}, nil
}
