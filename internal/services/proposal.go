package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/apierr"
	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/sse"
	"github.com/mestermind/backend/internal/types"
)

// DefaultProposalTTL is how long a proposal stays open before the system
// expires it.
const DefaultProposalTTL = 72 * time.Hour

type CreateProposalRequest struct {
	ProposedAt      time.Time `json:"proposed_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
	Price           float64   `json:"price"`
	Currency        string    `json:"currency"`
	Notes           string    `json:"notes"`
}

type RespondProposalRequest struct {
	ResponseMessage string `json:"response_message"`
}

// ProposalService drives the appointment negotiation:
// proposed -> accepted | rejected | cancelled | expired, all terminal.
// Accepting creates the confirmed Appointment in the same transaction.
// Sibling proposals on a thread are deliberately left untouched on accept;
// the business has not decided they should be mutually exclusive.
type ProposalService interface {
	Create(ctx context.Context, proID, jobID uuid.UUID, req CreateProposalRequest) (*types.AppointmentProposal, error)
	ListByThread(ctx context.Context, jobID uuid.UUID) ([]*types.AppointmentProposal, error)
	Accept(ctx context.Context, customerID, proposalID uuid.UUID, req RespondProposalRequest) (*types.Appointment, error)
	Reject(ctx context.Context, customerID, proposalID uuid.UUID, req RespondProposalRequest) error
	Cancel(ctx context.Context, proID, proposalID uuid.UUID) error
	// ExpireDue is the system transition; invoked by the background sweep.
	ExpireDue(ctx context.Context) (int64, error)
}

type proposalService struct {
	db              *gorm.DB
	log             *logger.Logger
	proposalRepo    repos.ProposalRepo
	appointmentRepo repos.AppointmentRepo
	jobRepo         repos.JobRepo
	sseHub          *sse.SSEHub
	ttl             time.Duration
	now             func() time.Time
}

func NewProposalService(
	db *gorm.DB,
	log *logger.Logger,
	proposalRepo repos.ProposalRepo,
	appointmentRepo repos.AppointmentRepo,
	jobRepo repos.JobRepo,
	sseHub *sse.SSEHub,
	ttl time.Duration,
) ProposalService {
	if ttl <= 0 {
		ttl = DefaultProposalTTL
	}
	return &proposalService{
		db:              db,
		log:             log.With("service", "ProposalService"),
		proposalRepo:    proposalRepo,
		appointmentRepo: appointmentRepo,
		jobRepo:         jobRepo,
		sseHub:          sseHub,
		ttl:             ttl,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (ps *proposalService) Create(ctx context.Context, proID, jobID uuid.UUID, req CreateProposalRequest) (*types.AppointmentProposal, error) {
	now := ps.now()
	// Validation happens before any write: a past slot or negative price
	// never reaches the database.
	if req.ProposedAt.IsZero() || !req.ProposedAt.After(now) {
		return nil, apierr.Validation(fmt.Errorf("proposed time must be in the future"))
	}
	if req.Price < 0 {
		return nil, apierr.Validation(fmt.Errorf("price must not be negative"))
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 60
	}
	if req.Currency == "" {
		req.Currency = "HUF"
	}

	job, err := ps.jobRepo.GetByID(ctx, nil, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("job %s not found", jobID))
		}
		return nil, fmt.Errorf("load job: %w", err)
	}

	proposal := &types.AppointmentProposal{
		JobID:           jobID,
		ProID:           proID,
		CustomerID:      job.CustomerID,
		ProposedAt:      req.ProposedAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Price:           req.Price,
		Currency:        req.Currency,
		Notes:           req.Notes,
		Status:          types.ProposalStatusProposed,
		ExpiresAt:       now.Add(ps.ttl),
	}
	created, err := ps.proposalRepo.Create(ctx, nil, []*types.AppointmentProposal{proposal})
	if err != nil {
		return nil, fmt.Errorf("create proposal: %w", err)
	}

	ps.notify(created[0].CustomerID, created[0])
	return created[0], nil
}

func (ps *proposalService) ListByThread(ctx context.Context, jobID uuid.UUID) ([]*types.AppointmentProposal, error) {
	proposals, err := ps.proposalRepo.ListByJob(ctx, nil, jobID)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	// Expiry is applied lazily at read time so a stale sweep never shows a
	// proposal as still open.
	now := ps.now()
	for _, p := range proposals {
		if p.IsExpired(now) {
			if uErr := ps.proposalRepo.UpdateStatus(ctx, nil, p.ID, types.ProposalStatusProposed, types.ProposalStatusExpired, nil); uErr != nil && !errors.Is(uErr, gorm.ErrRecordNotFound) {
				ps.log.Warn("failed to expire proposal at read", "proposal_id", p.ID, "error", uErr)
				continue
			}
			p.Status = types.ProposalStatusExpired
		}
	}
	return proposals, nil
}

// resolve loads a proposal and applies lazy expiry before any transition
// check, so responding to an expired proposal fails with invalid_transition.
func (ps *proposalService) resolve(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (*types.AppointmentProposal, error) {
	proposal, err := ps.proposalRepo.GetByID(ctx, tx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("proposal %s not found", proposalID))
		}
		return nil, fmt.Errorf("load proposal: %w", err)
	}
	if proposal.IsExpired(ps.now()) {
		if uErr := ps.proposalRepo.UpdateStatus(ctx, tx, proposal.ID, types.ProposalStatusProposed, types.ProposalStatusExpired, nil); uErr != nil && !errors.Is(uErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("expire proposal: %w", uErr)
		}
		proposal.Status = types.ProposalStatusExpired
	}
	return proposal, nil
}

func (ps *proposalService) Accept(ctx context.Context, customerID, proposalID uuid.UUID, req RespondProposalRequest) (*types.Appointment, error) {
	var appointment *types.Appointment
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := ps.resolve(ctx, tx, proposalID)
		if err != nil {
			return err
		}
		if proposal.CustomerID != customerID {
			return apierr.Forbidden(fmt.Errorf("only the customer can accept a proposal"))
		}
		if !proposal.Status.CanTransitionTo(types.ProposalStatusAccepted) {
			return apierr.InvalidTransition(fmt.Errorf("proposal is %s and cannot be accepted", proposal.Status))
		}

		now := ps.now()
		updates := map[string]any{
			"responded_at":     now,
			"response_message": req.ResponseMessage,
		}
		if err := ps.proposalRepo.UpdateStatus(ctx, tx, proposal.ID, types.ProposalStatusProposed, types.ProposalStatusAccepted, updates); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.InvalidTransition(fmt.Errorf("proposal was resolved concurrently"))
			}
			return fmt.Errorf("accept proposal: %w", err)
		}

		proposalID := proposal.ID
		quoted := proposal.Price
		appointment = &types.Appointment{
			ProposalID:      &proposalID,
			JobID:           proposal.JobID,
			ProID:           proposal.ProID,
			CustomerID:      proposal.CustomerID,
			ScheduledStart:  proposal.ProposedAt,
			ScheduledEnd:    proposal.ProposedAt.Add(time.Duration(proposal.DurationMinutes) * time.Minute),
			DurationMinutes: proposal.DurationMinutes,
			LocationLine1:   proposal.Location,
			PricingType:     types.PricingTypeFixedPrice,
			QuotedAmount:    &quoted,
			Currency:        proposal.Currency,
			Notes:           proposal.Notes,
			Status:          types.AppointmentStatusConfirmed,
		}
		created, err := ps.appointmentRepo.Create(ctx, tx, []*types.Appointment{appointment})
		if err != nil {
			return fmt.Errorf("create appointment from proposal: %w", err)
		}
		appointment = created[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ps.sseHub != nil {
		ps.sseHub.NotifyUser(appointment.ProID, sse.SSEEventProposalUpdated, appointment)
		ps.sseHub.NotifyUser(appointment.ProID, sse.SSEEventAppointmentUpdated, appointment)
	}
	return appointment, nil
}

func (ps *proposalService) Reject(ctx context.Context, customerID, proposalID uuid.UUID, req RespondProposalRequest) error {
	proposal, err := ps.resolve(ctx, nil, proposalID)
	if err != nil {
		return err
	}
	if proposal.CustomerID != customerID {
		return apierr.Forbidden(fmt.Errorf("only the customer can reject a proposal"))
	}
	if !proposal.Status.CanTransitionTo(types.ProposalStatusRejected) {
		return apierr.InvalidTransition(fmt.Errorf("proposal is %s and cannot be rejected", proposal.Status))
	}
	updates := map[string]any{
		"responded_at":     ps.now(),
		"response_message": req.ResponseMessage,
	}
	if err := ps.proposalRepo.UpdateStatus(ctx, nil, proposal.ID, types.ProposalStatusProposed, types.ProposalStatusRejected, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.InvalidTransition(fmt.Errorf("proposal was resolved concurrently"))
		}
		return fmt.Errorf("reject proposal: %w", err)
	}
	ps.notify(proposal.ProID, proposal)
	return nil
}

func (ps *proposalService) Cancel(ctx context.Context, proID, proposalID uuid.UUID) error {
	proposal, err := ps.resolve(ctx, nil, proposalID)
	if err != nil {
		return err
	}
	if proposal.ProID != proID {
		return apierr.Forbidden(fmt.Errorf("only the proposing pro can cancel a proposal"))
	}
	if !proposal.Status.CanTransitionTo(types.ProposalStatusCancelled) {
		return apierr.InvalidTransition(fmt.Errorf("proposal is %s and cannot be cancelled", proposal.Status))
	}
	if err := ps.proposalRepo.UpdateStatus(ctx, nil, proposal.ID, types.ProposalStatusProposed, types.ProposalStatusCancelled, nil); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.InvalidTransition(fmt.Errorf("proposal was resolved concurrently"))
		}
		return fmt.Errorf("cancel proposal: %w", err)
	}
	ps.notify(proposal.CustomerID, proposal)
	return nil
}

func (ps *proposalService) ExpireDue(ctx context.Context) (int64, error) {
	expired, err := ps.proposalRepo.ExpireDue(ctx, nil, ps.now())
	if err != nil {
		return 0, fmt.Errorf("expire due proposals: %w", err)
	}
	if expired > 0 {
		ps.log.Info("expired overdue proposals", "count", expired)
	}
	return expired, nil
}

func (ps *proposalService) notify(userID uuid.UUID, proposal *types.AppointmentProposal) {
	if ps.sseHub == nil {
		return
	}
	ps.sseHub.NotifyUser(userID, sse.SSEEventProposalUpdated, proposal)
}
