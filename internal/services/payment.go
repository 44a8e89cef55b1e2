package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/apierr"
	redisclient "github.com/mestermind/backend/internal/clients/redis"
	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/sse"
	"github.com/mestermind/backend/internal/types"
)

type CreateIntentRequest struct {
	JobID uuid.UUID `json:"job_id"`
}

type CreateIntentResponse struct {
	PaymentIntentID string           `json:"payment_intent_id"`
	ClientSecret    string           `json:"client_secret"`
	Amount          float64          `json:"amount"`
	Currency        string           `json:"currency"`
	LeadPrice       *types.LeadPrice `json:"lead_price"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// PaymentService runs the lead purchase flow: price the lead, open a Stripe
// payment intent, and on confirmation flip the purchase to paid. Paid is the
// one-way switch that opens the message gate for good.
type PaymentService interface {
	CreateIntent(ctx context.Context, proID uuid.UUID, req CreateIntentRequest) (*CreateIntentResponse, error)
	Confirm(ctx context.Context, proID uuid.UUID, req ConfirmPaymentRequest) (*types.LeadPurchase, error)
	CheckAccess(ctx context.Context, proID, jobID uuid.UUID) (bool, error)
	// CleanupStaleIntents drops pending purchases older than maxAge.
	CleanupStaleIntents(ctx context.Context, maxAge time.Duration) (int64, error)
}

type paymentService struct {
	db               *gorm.DB
	log              *logger.Logger
	leadPurchaseRepo repos.LeadPurchaseRepo
	pricingService   PricingService
	gateService      GateService
	stripeClient     StripeClient
	accessCache      redisclient.LeadAccessCache
	sseHub           *sse.SSEHub
}

func NewPaymentService(
	db *gorm.DB,
	log *logger.Logger,
	leadPurchaseRepo repos.LeadPurchaseRepo,
	pricingService PricingService,
	gateService GateService,
	stripeClient StripeClient,
	accessCache redisclient.LeadAccessCache,
	sseHub *sse.SSEHub,
) PaymentService {
	return &paymentService{
		db:               db,
		log:              log.With("service", "PaymentService"),
		leadPurchaseRepo: leadPurchaseRepo,
		pricingService:   pricingService,
		gateService:      gateService,
		stripeClient:     stripeClient,
		accessCache:      accessCache,
		sseHub:           sseHub,
	}
}

func (ps *paymentService) CreateIntent(ctx context.Context, proID uuid.UUID, req CreateIntentRequest) (*CreateIntentResponse, error) {
	if req.JobID == uuid.Nil {
		return nil, apierr.Validation(fmt.Errorf("job_id is required"))
	}

	already, err := ps.gateService.HasLeadAccess(ctx, proID, req.JobID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, apierr.Conflict(fmt.Errorf("lead already purchased"))
	}

	price, err := ps.pricingService.PriceForJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	// HUF is a zero-decimal currency for Stripe; others use minor units.
	amountMinor := int64(price.FinalPrice)
	if !isZeroDecimalCurrency(price.Currency) {
		amountMinor = int64(price.FinalPrice * 100)
	}

	intent, err := ps.stripeClient.CreatePaymentIntent(amountMinor, strings.ToLower(price.Currency), map[string]string{
		"pro_id": proID.String(),
		"job_id": req.JobID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("create stripe payment intent: %w", err)
	}

	breakdownJSON, err := json.Marshal(price.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("marshal price breakdown: %w", err)
	}

	// Reuse the existing pending row on retry instead of stacking intents.
	existing, err := ps.leadPurchaseRepo.GetByProJob(ctx, nil, proID, req.JobID)
	switch {
	case err == nil && existing.Status == types.LeadPurchaseStatusPending:
		if uErr := ps.db.WithContext(ctx).
			Model(&types.LeadPurchase{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"stripe_payment_intent_id": intent.ID,
				"amount":                   price.FinalPrice,
				"currency":                 price.Currency,
				"price_breakdown":          datatypes.JSON(breakdownJSON),
			}).Error; uErr != nil {
			return nil, fmt.Errorf("refresh pending purchase: %w", uErr)
		}
	case err == nil:
		return nil, apierr.Conflict(fmt.Errorf("lead already purchased"))
	case errors.Is(err, gorm.ErrRecordNotFound):
		purchase := &types.LeadPurchase{
			ProID:                 proID,
			JobID:                 req.JobID,
			Amount:                price.FinalPrice,
			Currency:              price.Currency,
			StripePaymentIntentID: intent.ID,
			Status:                types.LeadPurchaseStatusPending,
			PriceBreakdown:        datatypes.JSON(breakdownJSON),
		}
		if _, cErr := ps.leadPurchaseRepo.Create(ctx, nil, []*types.LeadPurchase{purchase}); cErr != nil {
			return nil, fmt.Errorf("create pending purchase: %w", cErr)
		}
	default:
		return nil, fmt.Errorf("load purchase: %w", err)
	}

	return &CreateIntentResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          price.FinalPrice,
		Currency:        price.Currency,
		LeadPrice:       price,
	}, nil
}

func (ps *paymentService) Confirm(ctx context.Context, proID uuid.UUID, req ConfirmPaymentRequest) (*types.LeadPurchase, error) {
	if req.PaymentIntentID == "" {
		return nil, apierr.Validation(fmt.Errorf("payment_intent_id is required"))
	}

	purchase, err := ps.leadPurchaseRepo.GetByPaymentIntentID(ctx, nil, req.PaymentIntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("no purchase for payment intent %s", req.PaymentIntentID))
		}
		return nil, fmt.Errorf("load purchase: %w", err)
	}
	if purchase.ProID != proID {
		return nil, apierr.Forbidden(fmt.Errorf("payment intent belongs to another pro"))
	}
	if purchase.Status == types.LeadPurchaseStatusPaid {
		// Confirm is idempotent; a double click is not an error.
		return purchase, nil
	}

	intent, err := ps.stripeClient.GetPaymentIntent(req.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("fetch stripe payment intent: %w", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, apierr.Conflict(fmt.Errorf("payment intent is %s, not succeeded", intent.Status))
	}

	now := time.Now().UTC()
	if err := ps.leadPurchaseRepo.MarkPaid(ctx, nil, purchase.ID, now); err != nil {
		return nil, fmt.Errorf("mark purchase paid: %w", err)
	}
	purchase.Status = types.LeadPurchaseStatusPaid
	purchase.PurchasedAt = &now

	if ps.accessCache != nil {
		if cErr := ps.accessCache.MarkPurchased(ctx, purchase.ProID, purchase.JobID); cErr != nil {
			ps.log.Warn("failed to warm lead access cache after purchase", "error", cErr)
		}
	}
	if ps.sseHub != nil {
		ps.sseHub.NotifyUser(purchase.ProID, sse.SSEEventLeadAccessGranted, map[string]any{
			"job_id": purchase.JobID,
		})
	}
	ps.log.Info("lead purchase confirmed", "pro_id", purchase.ProID, "job_id", purchase.JobID, "amount", purchase.Amount)
	return purchase, nil
}

func (ps *paymentService) CheckAccess(ctx context.Context, proID, jobID uuid.UUID) (bool, error) {
	return ps.gateService.HasLeadAccess(ctx, proID, jobID)
}

func (ps *paymentService) CleanupStaleIntents(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	removed, err := ps.leadPurchaseRepo.DeleteStalePending(ctx, nil, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale pending purchases: %w", err)
	}
	if removed > 0 {
		ps.log.Info("cleaned up stale pending purchases", "count", removed)
	}
	return removed, nil
}

func isZeroDecimalCurrency(currency string) bool {
	switch strings.ToUpper(currency) {
	case "HUF", "JPY", "KRW", "VND", "CLP", "ISK", "TWD", "UGX":
		return true
	default:
		return false
	}
}
