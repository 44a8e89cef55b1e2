package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	JobStatusOpen   = "open"
	JobStatusClosed = "closed"

	UrgencyFlexible = "flexible"
	UrgencyNormal   = "normal"
	UrgencyUrgent   = "urgent"
)

// Job is a customer's service request. It doubles as the conversation key:
// all messages between one customer and one pro about one job form a thread.
type Job struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID     uuid.UUID `gorm:"index;not null;column:customer_id" json:"customer_id"`
	Customer       *User     `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	ServiceID      uuid.UUID `gorm:"index;not null;column:service_id" json:"service_id"`
	Service        *Service  `gorm:"foreignKey:ServiceID;references:ID" json:"service,omitempty"`
	Title          string    `gorm:"not null;column:title" json:"title"`
	Description    string    `gorm:"column:description" json:"description"`
	City           string    `gorm:"column:city" json:"city"`
	Budget         *float64  `gorm:"column:budget" json:"budget,omitempty"`
	Urgency        string    `gorm:"not null;default:normal;column:urgency" json:"urgency"`
	SeatsAvailable int       `gorm:"not null;default:5;column:seats_available" json:"seats_available"`
	Status         string    `gorm:"not null;default:open;column:status" json:"status"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Job) TableName() string {
	return "job"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
