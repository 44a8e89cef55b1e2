package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProposalStatus string

const (
	ProposalStatusProposed  ProposalStatus = "proposed"
	ProposalStatusAccepted  ProposalStatus = "accepted"
	ProposalStatusRejected  ProposalStatus = "rejected"
	ProposalStatusCancelled ProposalStatus = "cancelled"
	ProposalStatusExpired   ProposalStatus = "expired"
)

// proposalTransitions is the single transition table for the proposal
// negotiation. All four non-proposed states are absorbing.
var proposalTransitions = map[ProposalStatus][]ProposalStatus{
	ProposalStatusProposed: {
		ProposalStatusAccepted,
		ProposalStatusRejected,
		ProposalStatusCancelled,
		ProposalStatusExpired,
	},
}

func (s ProposalStatus) CanTransitionTo(next ProposalStatus) bool {
	for _, allowed := range proposalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ProposalStatus) IsTerminal() bool {
	return len(proposalTransitions[s]) == 0
}

// AppointmentProposal is a pro's offer of a time, location, price and terms,
// scoped to one job thread. Customer accept/reject, pro cancel, system expire.
type AppointmentProposal struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	JobID           uuid.UUID      `gorm:"index;not null;column:job_id" json:"job_id"`
	ProID           uuid.UUID      `gorm:"index;not null;column:pro_id" json:"pro_id"`
	CustomerID      uuid.UUID      `gorm:"index;not null;column:customer_id" json:"customer_id"`
	ProposedAt      time.Time      `gorm:"not null;column:proposed_at" json:"proposed_at"`
	DurationMinutes int            `gorm:"not null;default:60;column:duration_minutes" json:"duration_minutes"`
	Location        string         `gorm:"column:location" json:"location"`
	Price           float64        `gorm:"not null;column:price" json:"price"`
	Currency        string         `gorm:"not null;default:HUF;column:currency" json:"currency"`
	Notes           string         `gorm:"column:notes" json:"notes"`
	Status          ProposalStatus `gorm:"not null;default:proposed;column:status" json:"status"`
	ResponseMessage string         `gorm:"column:response_message" json:"response_message"`
	RespondedAt     *time.Time     `gorm:"column:responded_at" json:"responded_at,omitempty"`
	ExpiresAt       time.Time      `gorm:"index;not null;column:expires_at" json:"expires_at"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (AppointmentProposal) TableName() string {
	return "appointment_proposal"
}

func (p *AppointmentProposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the proposal is past its expiry window but not
// yet marked so. The expired transition is applied lazily at read time and
// by the background sweep.
func (p *AppointmentProposal) IsExpired(now time.Time) bool {
	return p.Status == ProposalStatusProposed && now.After(p.ExpiresAt)
}
