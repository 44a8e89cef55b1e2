package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/apierr"
	redisclient "github.com/mestermind/backend/internal/clients/redis"
	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/repos"
)

// DefaultLeadMessageLimit is how many messages a pro may send on a thread
// before having to purchase the lead.
const DefaultLeadMessageLimit = 3

type GateStatus struct {
	ProMessageCount int64 `json:"pro_message_count"`
	Limit           int   `json:"limit"`
	LeadPurchased   bool  `json:"lead_purchased"`
	CanSend         bool  `json:"can_send"`
}

// GateService enforces the message gate: a pro may send at most Limit
// messages per job thread until the lead is purchased. Once purchased the
// gate is open for that (pro, job) pair permanently.
type GateService interface {
	Status(ctx context.Context, proID, jobID uuid.UUID) (*GateStatus, error)
	// CheckSend returns nil when the pro may send, or a 402 apierr when the
	// gate is closed.
	CheckSend(ctx context.Context, proID, jobID uuid.UUID) error
	HasLeadAccess(ctx context.Context, proID, jobID uuid.UUID) (bool, error)
}

type gateService struct {
	db               *gorm.DB
	log              *logger.Logger
	messageRepo      repos.MessageRepo
	leadPurchaseRepo repos.LeadPurchaseRepo
	accessCache      redisclient.LeadAccessCache
	limit            int
}

func NewGateService(
	db *gorm.DB,
	log *logger.Logger,
	messageRepo repos.MessageRepo,
	leadPurchaseRepo repos.LeadPurchaseRepo,
	accessCache redisclient.LeadAccessCache,
	limit int,
) GateService {
	if limit <= 0 {
		limit = DefaultLeadMessageLimit
	}
	return &gateService{
		db:               db,
		log:              log.With("service", "GateService"),
		messageRepo:      messageRepo,
		leadPurchaseRepo: leadPurchaseRepo,
		accessCache:      accessCache,
		limit:            limit,
	}
}

func (gs *gateService) HasLeadAccess(ctx context.Context, proID, jobID uuid.UUID) (bool, error) {
	if gs.accessCache != nil {
		if purchased, found := gs.accessCache.IsPurchased(ctx, proID, jobID); found {
			return purchased, nil
		}
	}
	paid, err := gs.leadPurchaseRepo.HasPaid(ctx, nil, proID, jobID)
	if err != nil {
		return false, fmt.Errorf("check lead purchase: %w", err)
	}
	if paid && gs.accessCache != nil {
		// Warm the cache; the flag never goes back to false.
		if cErr := gs.accessCache.MarkPurchased(ctx, proID, jobID); cErr != nil {
			gs.log.Warn("failed to warm lead access cache", "error", cErr, "pro_id", proID, "job_id", jobID)
		}
	}
	return paid, nil
}

func (gs *gateService) Status(ctx context.Context, proID, jobID uuid.UUID) (*GateStatus, error) {
	purchased, err := gs.HasLeadAccess(ctx, proID, jobID)
	if err != nil {
		return nil, err
	}
	count, err := gs.messageRepo.CountProMessages(ctx, nil, jobID, proID)
	if err != nil {
		return nil, fmt.Errorf("count pro messages: %w", err)
	}
	return &GateStatus{
		ProMessageCount: count,
		Limit:           gs.limit,
		LeadPurchased:   purchased,
		CanSend:         purchased || count < int64(gs.limit),
	}, nil
}

func (gs *gateService) CheckSend(ctx context.Context, proID, jobID uuid.UUID) error {
	status, err := gs.Status(ctx, proID, jobID)
	if err != nil {
		return err
	}
	if !status.CanSend {
		return apierr.PaymentRequired(fmt.Errorf("message limit of %d reached, purchase the lead to continue", status.Limit))
	}
	return nil
}
