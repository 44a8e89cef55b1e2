package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	LeadPurchaseStatusPending = "pending"
	LeadPurchaseStatusPaid    = "paid"
)

// LeadPurchase records a pro paying for full access to a job's thread.
// Once status is paid the message gate stays open for this (pro, job) pair
// for good; there is no re-locking path.
type LeadPurchase struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProID                 uuid.UUID      `gorm:"uniqueIndex:idx_lead_purchase_pro_job;not null;column:pro_id" json:"pro_id"`
	JobID                 uuid.UUID      `gorm:"uniqueIndex:idx_lead_purchase_pro_job;not null;column:job_id" json:"job_id"`
	Amount                float64        `gorm:"not null;column:amount" json:"amount"`
	Currency              string         `gorm:"not null;default:HUF;column:currency" json:"currency"`
	StripePaymentIntentID string         `gorm:"index;column:stripe_payment_intent_id" json:"stripe_payment_intent_id"`
	Status                string         `gorm:"not null;default:pending;column:status" json:"status"`
	PriceBreakdown        datatypes.JSON `gorm:"column:price_breakdown" json:"price_breakdown,omitempty"`
	PurchasedAt           *time.Time     `gorm:"column:purchased_at" json:"purchased_at,omitempty"`
	CreatedAt             time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null" json:"updated_at"`
}

func (LeadPurchase) TableName() string {
	return "lead_purchase"
}

func (p *LeadPurchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
