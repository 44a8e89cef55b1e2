package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is a service category ("festés", "villanyszerelés", ...). Its
// expected job value bounds feed the lead pricing calculator.
type Service struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"not null;column:name" json:"name"`
	Slug            string    `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	ExpectedJobMin  float64   `gorm:"column:expected_job_min" json:"expected_job_min"`
	ExpectedJobMax  float64   `gorm:"column:expected_job_max" json:"expected_job_max"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (Service) TableName() string {
	return "service"
}

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
