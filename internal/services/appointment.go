package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/apierr"
	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/sse"
	"github.com/mestermind/backend/internal/types"
)

type CreateAppointmentRequest struct {
	JobID              uuid.UUID            `json:"job_id"`
	CustomerID         uuid.UUID            `json:"customer_id"`
	ScheduledStart     time.Time            `json:"scheduled_start"`
	DurationMinutes    int                  `json:"duration_minutes"`
	LocationLine1      string               `json:"location_line1"`
	LocationLine2      string               `json:"location_line2"`
	LocationCity       string               `json:"location_city"`
	LocationPostalCode string               `json:"location_postal_code"`
	PricingType        string               `json:"pricing_type"`
	QuotedAmount       *float64             `json:"quoted_amount,omitempty"`
	HourlyRate         *float64             `json:"hourly_rate,omitempty"`
	MinHours           *float64             `json:"min_hours,omitempty"`
	Currency           string               `json:"currency"`
	Notes              string               `json:"notes"`
	Notify             types.NotifySettings `json:"notify"`
}

type RescheduleRequest struct {
	NewStart time.Time `json:"new_start"`
	Reason   string    `json:"reason"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type CompleteAppointmentRequest struct {
	Notes string `json:"notes"`
}

// AppointmentService owns the post-acceptance lifecycle:
// confirmed -> rescheduled | cancelled_by_* | completed | no_show.
type AppointmentService interface {
	Create(ctx context.Context, proID uuid.UUID, req CreateAppointmentRequest) (*types.Appointment, error)
	GetByID(ctx context.Context, appointmentID uuid.UUID) (*types.Appointment, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]*types.Appointment, error)
	// Reschedule marks the current appointment rescheduled and creates a new
	// confirmed one; the two rows are linked so history is never rewritten.
	Reschedule(ctx context.Context, actorID, appointmentID uuid.UUID, req RescheduleRequest) (*types.Appointment, error)
	Cancel(ctx context.Context, actorID, appointmentID uuid.UUID, req CancelAppointmentRequest) error
	Complete(ctx context.Context, proID, appointmentID uuid.UUID, req CompleteAppointmentRequest) error
	MarkNoShow(ctx context.Context, proID, appointmentID uuid.UUID) error
	ExportICal(ctx context.Context, userID, appointmentID uuid.UUID) (string, error)
}

type appointmentService struct {
	db              *gorm.DB
	log             *logger.Logger
	appointmentRepo repos.AppointmentRepo
	userRepo        repos.UserRepo
	sseHub          *sse.SSEHub
	now             func() time.Time
}

func NewAppointmentService(
	db *gorm.DB,
	log *logger.Logger,
	appointmentRepo repos.AppointmentRepo,
	userRepo repos.UserRepo,
	sseHub *sse.SSEHub,
) AppointmentService {
	return &appointmentService{
		db:              db,
		log:             log.With("service", "AppointmentService"),
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		sseHub:          sseHub,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (as *appointmentService) Create(ctx context.Context, proID uuid.UUID, req CreateAppointmentRequest) (*types.Appointment, error) {
	if req.JobID == uuid.Nil || req.CustomerID == uuid.Nil {
		return nil, apierr.Validation(fmt.Errorf("job_id and customer_id are required"))
	}
	if req.ScheduledStart.IsZero() || !req.ScheduledStart.After(as.now()) {
		return nil, apierr.Validation(fmt.Errorf("scheduled start must be in the future"))
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 60
	}
	switch req.PricingType {
	case "", types.PricingTypeFixedPrice:
		req.PricingType = types.PricingTypeFixedPrice
	case types.PricingTypeHourlyRate:
		if req.HourlyRate == nil || *req.HourlyRate <= 0 {
			return nil, apierr.Validation(fmt.Errorf("hourly_rate is required for hourly pricing"))
		}
	default:
		return nil, apierr.Validation(fmt.Errorf("unknown pricing_type %q", req.PricingType))
	}
	if req.Currency == "" {
		req.Currency = "HUF"
	}

	notifyJSON, err := json.Marshal(req.Notify)
	if err != nil {
		return nil, fmt.Errorf("marshal notify settings: %w", err)
	}

	appointment := &types.Appointment{
		JobID:              req.JobID,
		ProID:              proID,
		CustomerID:         req.CustomerID,
		ScheduledStart:     req.ScheduledStart.UTC(),
		ScheduledEnd:       req.ScheduledStart.UTC().Add(time.Duration(req.DurationMinutes) * time.Minute),
		DurationMinutes:    req.DurationMinutes,
		LocationLine1:      req.LocationLine1,
		LocationLine2:      req.LocationLine2,
		LocationCity:       req.LocationCity,
		LocationPostalCode: req.LocationPostalCode,
		PricingType:        req.PricingType,
		QuotedAmount:       req.QuotedAmount,
		HourlyRate:         req.HourlyRate,
		MinHours:           req.MinHours,
		Currency:           req.Currency,
		Notes:              req.Notes,
		Notify:             datatypes.JSON(notifyJSON),
		Status:             types.AppointmentStatusConfirmed,
	}
	created, err := as.appointmentRepo.Create(ctx, nil, []*types.Appointment{appointment})
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	as.notify(created[0])
	return created[0], nil
}

func (as *appointmentService) GetByID(ctx context.Context, appointmentID uuid.UUID) (*types.Appointment, error) {
	appointment, err := as.appointmentRepo.GetByID(ctx, nil, appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("appointment %s not found", appointmentID))
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return appointment, nil
}

func (as *appointmentService) ListMine(ctx context.Context, userID uuid.UUID) ([]*types.Appointment, error) {
	appointments, err := as.appointmentRepo.ListByParticipant(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

func (as *appointmentService) Reschedule(ctx context.Context, actorID, appointmentID uuid.UUID, req RescheduleRequest) (*types.Appointment, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, apierr.Validation(fmt.Errorf("a reschedule reason is required"))
	}
	if req.NewStart.IsZero() || !req.NewStart.After(as.now()) {
		return nil, apierr.Validation(fmt.Errorf("new start must be in the future"))
	}

	var replacement *types.Appointment
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := as.appointmentRepo.GetByID(ctx, tx, appointmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.NotFound(fmt.Errorf("appointment %s not found", appointmentID))
			}
			return fmt.Errorf("load appointment: %w", err)
		}
		if current.ProID != actorID && current.CustomerID != actorID {
			return apierr.Forbidden(fmt.Errorf("not a participant of this appointment"))
		}
		if !current.Status.CanTransitionTo(types.AppointmentStatusRescheduled) {
			return apierr.InvalidTransition(fmt.Errorf("appointment is %s and cannot be rescheduled", current.Status))
		}

		currentID := current.ID
		replacement = &types.Appointment{
			ProposalID:         current.ProposalID,
			JobID:              current.JobID,
			ProID:              current.ProID,
			CustomerID:         current.CustomerID,
			ScheduledStart:     req.NewStart.UTC(),
			ScheduledEnd:       req.NewStart.UTC().Add(time.Duration(current.DurationMinutes) * time.Minute),
			DurationMinutes:    current.DurationMinutes,
			LocationLine1:      current.LocationLine1,
			LocationLine2:      current.LocationLine2,
			LocationCity:       current.LocationCity,
			LocationPostalCode: current.LocationPostalCode,
			PricingType:        current.PricingType,
			QuotedAmount:       current.QuotedAmount,
			HourlyRate:         current.HourlyRate,
			MinHours:           current.MinHours,
			Currency:           current.Currency,
			Notes:              current.Notes,
			Notify:             current.Notify,
			Status:             types.AppointmentStatusConfirmed,
			RescheduledFromID:  &currentID,
		}
		created, err := as.appointmentRepo.Create(ctx, tx, []*types.Appointment{replacement})
		if err != nil {
			return fmt.Errorf("create replacement appointment: %w", err)
		}
		replacement = created[0]

		updates := map[string]any{
			"rescheduled_to_id":   replacement.ID,
			"cancellation_reason": strings.TrimSpace(req.Reason),
		}
		if err := as.appointmentRepo.UpdateStatus(ctx, tx, current.ID, types.AppointmentStatusConfirmed, types.AppointmentStatusRescheduled, updates); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.InvalidTransition(fmt.Errorf("appointment was changed concurrently"))
			}
			return fmt.Errorf("mark appointment rescheduled: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.notify(replacement)
	return replacement, nil
}

func (as *appointmentService) Cancel(ctx context.Context, actorID, appointmentID uuid.UUID, req CancelAppointmentRequest) error {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return apierr.Validation(fmt.Errorf("a cancellation reason is required"))
	}

	appointment, err := as.appointmentRepo.GetByID(ctx, nil, appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound(fmt.Errorf("appointment %s not found", appointmentID))
		}
		return fmt.Errorf("load appointment: %w", err)
	}

	// The actor decides which cancelled state applies.
	var target types.AppointmentStatus
	switch actorID {
	case appointment.CustomerID:
		target = types.AppointmentStatusCancelledByCustomer
	case appointment.ProID:
		target = types.AppointmentStatusCancelledByMester
	default:
		return apierr.Forbidden(fmt.Errorf("not a participant of this appointment"))
	}
	if !appointment.Status.CanTransitionTo(target) {
		return apierr.InvalidTransition(fmt.Errorf("appointment is %s and cannot be cancelled", appointment.Status))
	}

	updates := map[string]any{"cancellation_reason": reason}
	if err := as.appointmentRepo.UpdateStatus(ctx, nil, appointment.ID, appointment.Status, target, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.InvalidTransition(fmt.Errorf("appointment was changed concurrently"))
		}
		return fmt.Errorf("cancel appointment: %w", err)
	}
	appointment.Status = target
	as.notify(appointment)
	return nil
}

func (as *appointmentService) Complete(ctx context.Context, proID, appointmentID uuid.UUID, req CompleteAppointmentRequest) error {
	return as.closeOut(ctx, proID, appointmentID, types.AppointmentStatusCompleted, req.Notes)
}

func (as *appointmentService) MarkNoShow(ctx context.Context, proID, appointmentID uuid.UUID) error {
	return as.closeOut(ctx, proID, appointmentID, types.AppointmentStatusNoShow, "")
}

func (as *appointmentService) closeOut(ctx context.Context, proID, appointmentID uuid.UUID, target types.AppointmentStatus, notes string) error {
	appointment, err := as.appointmentRepo.GetByID(ctx, nil, appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound(fmt.Errorf("appointment %s not found", appointmentID))
		}
		return fmt.Errorf("load appointment: %w", err)
	}
	// Completion and no-show are the pro's call.
	if appointment.ProID != proID {
		return apierr.Forbidden(fmt.Errorf("only the pro can close out an appointment"))
	}
	if !appointment.Status.CanTransitionTo(target) {
		return apierr.InvalidTransition(fmt.Errorf("appointment is %s and cannot become %s", appointment.Status, target))
	}
	updates := map[string]any{}
	if strings.TrimSpace(notes) != "" {
		updates["completion_notes"] = strings.TrimSpace(notes)
	}
	if err := as.appointmentRepo.UpdateStatus(ctx, nil, appointment.ID, appointment.Status, target, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.InvalidTransition(fmt.Errorf("appointment was changed concurrently"))
		}
		return fmt.Errorf("close out appointment: %w", err)
	}
	appointment.Status = target
	as.notify(appointment)
	return nil
}

func (as *appointmentService) ExportICal(ctx context.Context, userID, appointmentID uuid.UUID) (string, error) {
	appointment, err := as.GetByID(ctx, appointmentID)
	if err != nil {
		return "", err
	}
	if appointment.ProID != userID && appointment.CustomerID != userID {
		return "", apierr.Forbidden(fmt.Errorf("not a participant of this appointment"))
	}
	return buildICal(appointment, as.now()), nil
}

func (as *appointmentService) notify(a *types.Appointment) {
	if as.sseHub == nil || a == nil {
		return
	}
	as.sseHub.NotifyUser(a.ProID, sse.SSEEventAppointmentUpdated, a)
	as.sseHub.NotifyUser(a.CustomerID, sse.SSEEventAppointmentUpdated, a)
}
