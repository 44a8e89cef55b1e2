package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArchivedConversation and StarredConversation are per-(pro_profile, job)
// toggles. Rows are created on toggle-on and deleted on toggle-off; a
// conversation is never hard-deleted.

type ArchivedConversation struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProProfileID uuid.UUID `gorm:"uniqueIndex:idx_archived_pro_job;not null;column:pro_profile_id" json:"pro_profile_id"`
	JobID        uuid.UUID `gorm:"uniqueIndex:idx_archived_pro_job;not null;column:job_id" json:"job_id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (ArchivedConversation) TableName() string {
	return "archived_conversation"
}

func (a *ArchivedConversation) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type StarredConversation struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProProfileID uuid.UUID `gorm:"uniqueIndex:idx_starred_pro_job;not null;column:pro_profile_id" json:"pro_profile_id"`
	JobID        uuid.UUID `gorm:"uniqueIndex:idx_starred_pro_job;not null;column:job_id" json:"job_id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (StarredConversation) TableName() string {
	return "starred_conversation"
}

func (s *StarredConversation) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
