package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is immutable once created except for the is_read flag.
type Message struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobID               uuid.UUID `gorm:"index;not null;column:job_id" json:"job_id"`
	SenderID            uuid.UUID `gorm:"index;not null;column:sender_id" json:"sender_id"`
	ReceiverID          uuid.UUID `gorm:"index;not null;column:receiver_id" json:"receiver_id"`
	Content             string    `gorm:"not null;column:content" json:"content"`
	IsFromPro           bool      `gorm:"not null;default:false;column:is_from_pro" json:"is_from_pro"`
	IsRead              bool      `gorm:"not null;default:false;column:is_read" json:"is_read"`
	ContainsContactInfo bool      `gorm:"not null;default:false;column:contains_contact_info" json:"contains_contact_info"`
	CreatedAt           time.Time `gorm:"index;not null" json:"created_at"`
}

func (Message) TableName() string {
	return "message"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
