package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Course struct {
	Id            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string          `gorm:"type:text;not null"`
	URL           string          `gorm:"type:text;uniqueIndex"`
	Latitude      float64         `gorm:"index:idx_courses_lat_lon"`
	Longitude     float64         `gorm:"index:idx_courses_lat_lon"`
	ProfileVector pgvector.Vector `gorm:"type:vector(10)"` // one value per preference dimension
	Attributes    datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`
}

func (Course) TableName() string {
	return "courses"
}
