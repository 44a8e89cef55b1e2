package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	AppointmentStatusConfirmed           AppointmentStatus = "confirmed"
	AppointmentStatusRescheduled         AppointmentStatus = "rescheduled"
	AppointmentStatusCancelledByCustomer AppointmentStatus = "cancelled_by_customer"
	AppointmentStatusCancelledByMester   AppointmentStatus = "cancelled_by_mester"
	AppointmentStatusCompleted           AppointmentStatus = "completed"
	AppointmentStatusNoShow              AppointmentStatus = "no_show"
)

const (
	PricingTypeFixedPrice = "fixed_price"
	PricingTypeHourlyRate = "hourly_rate"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusConfirmed: {
		AppointmentStatusRescheduled,
		AppointmentStatusCancelledByCustomer,
		AppointmentStatusCancelledByMester,
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
	},
	// A rescheduled appointment is history; it may still be cancelled, which
	// voids the chain, but never completed or rescheduled again.
	AppointmentStatusRescheduled: {
		AppointmentStatusCancelledByCustomer,
		AppointmentStatusCancelledByMester,
	},
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) IsTerminal() bool {
	return len(appointmentTransitions[s]) == 0
}

// NotifySettings controls reminder delivery for an appointment. Stored as a
// JSON column.
type NotifySettings struct {
	NotifyEmail         bool `json:"notify_email"`
	NotifySMS           bool `json:"notify_sms"`
	ReminderLeadMinutes int  `json:"reminder_lead_minutes"`
}

// Appointment is created from an accepted proposal. Rescheduling never
/// mutates times in place: the old row is marked rescheduled and linked to a
// fresh confirmed row, so rescheduled_from_id/rescheduled_to_id form a
// singly-linked chain preserving history.
type Appointment struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ProposalID         *uuid.UUID        `gorm:"index;column:proposal_id" json:"proposal_id,omitempty"`
	JobID              uuid.UUID         `gorm:"index;not null;column:job_id" json:"job_id"`
	ProID              uuid.UUID         `gorm:"index;not null;column:pro_id" json:"pro_id"`
	CustomerID         uuid.UUID         `gorm:"index;not null;column:customer_id" json:"customer_id"`
	ScheduledStart     time.Time         `gorm:"not null;column:scheduled_start" json:"scheduled_start"`
	ScheduledEnd       time.Time         `gorm:"not null;column:scheduled_end" json:"scheduled_end"`
	DurationMinutes    int               `gorm:"not null;default:60;column:duration_minutes" json:"duration_minutes"`
	LocationLine1      string            `gorm:"column:location_line1" json:"location_line1"`
	LocationLine2      string            `gorm:"column:location_line2" json:"location_line2"`
	LocationCity       string            `gorm:"column:location_city" json:"location_city"`
	LocationPostalCode string            `gorm:"column:location_postal_code" json:"location_postal_code"`
	PricingType        string            `gorm:"not null;default:fixed_price;column:pricing_type" json:"pricing_type"`
	QuotedAmount       *float64          `gorm:"column:quoted_amount" json:"quoted_amount,omitempty"`
	HourlyRate         *float64          `gorm:"column:hourly_rate" json:"hourly_rate,omitempty"`
	MinHours           *float64          `gorm:"column:min_hours" json:"min_hours,omitempty"`
	Currency           string            `gorm:"not null;default:HUF;column:currency" json:"currency"`
	Notes              string            `gorm:"column:notes" json:"notes"`
	Notify             datatypes.JSON    `gorm:"column:notify" json:"notify,omitempty"`
	Status             AppointmentStatus `gorm:"not null;default:confirmed;column:status" json:"status"`
	CancellationReason string            `gorm:"column:cancellation_reason" json:"cancellation_reason,omitempty"`
	CompletionNotes    string            `gorm:"column:completion_notes" json:"completion_notes,omitempty"`
	RescheduledFromID  *uuid.UUID        `gorm:"index;column:rescheduled_from_id" json:"rescheduled_from_id,omitempty"`
	RescheduledToID    *uuid.UUID        `gorm:"index;column:rescheduled_to_id" json:"rescheduled_to_id,omitempty"`
	CreatedAt          time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointment"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
