package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProProfile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"uniqueIndex;not null;column:user_id" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	DisplayName string    `gorm:"not null;column:display_name" json:"display_name"`
	Trade       string    `gorm:"column:trade" json:"trade"`
	City        string    `gorm:"column:city" json:"city"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (ProProfile) TableName() string {
	return "pro_profile"
}

func (p *ProProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
