package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/apierr"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/types"
)

// fakeStripeClient records created intents and serves them back with a
// configurable status.
type fakeStripeClient struct {
	intents      map[string]*stripe.PaymentIntent
	nextStatus   stripe.PaymentIntentStatus
	createdCount int
}

func newFakeStripeClient() *fakeStripeClient {
	return &fakeStripeClient{
		intents:    map[string]*stripe.PaymentIntent{},
		nextStatus: stripe.PaymentIntentStatusRequiresPaymentMethod,
	}
}

func (f *fakeStripeClient) CreatePaymentIntent(amount int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	f.createdCount++
	intent := &stripe.PaymentIntent{
		ID:           fmt.Sprintf("pi_test_%d", f.createdCount),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", f.createdCount),
		Amount:       amount,
		Status:       f.nextStatus,
	}
	f.intents[intent.ID] = intent
	return intent, nil
}

func (f *fakeStripeClient) GetPaymentIntent(id string) (*stripe.PaymentIntent, error) {
	intent, ok := f.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent %s", id)
	}
	return intent, nil
}

func newPaymentFixture(t *testing.T) (PaymentService, *fakeStripeClient, *fakeLeadAccessCache, *gorm.DB, *types.User, *types.Job) {
	t.Helper()
	db := newTestDB(t)
	log := nopLog()

	messageRepo := repos.NewMessageRepo(db, log)
	purchaseRepo := repos.NewLeadPurchaseRepo(db, log)
	jobRepo := repos.NewJobRepo(db, log)
	serviceRepo := repos.NewServiceRepo(db, log)

	cache := newFakeLeadAccessCache()
	gate := NewGateService(db, log, messageRepo, purchaseRepo, cache, 3)
	pricing, err := NewPricingService(db, log, jobRepo, serviceRepo, "HUF")
	if err != nil {
		t.Fatalf("pricing service: %v", err)
	}
	stripeClient := newFakeStripeClient()
	svc := NewPaymentService(db, log, purchaseRepo, pricing, gate, stripeClient, cache, nil)

	customer := createUser(t, db, types.RoleCustomer)
	pro := createUser(t, db, types.RolePro)
	category := createService(t, db, 40000, 80000)
	job := createJob(t, db, customer.ID, category.ID)
	return svc, stripeClient, cache, db, pro, job
}

func TestPaymentService_CreateIntentAndConfirm(t *testing.T) {
	svc, stripeClient, cache, db, pro, job := newPaymentFixture(t)
	ctx := context.Background()

	resp, err := svc.CreateIntent(ctx, pro.ID, CreateIntentRequest{JobID: job.ID})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if resp.PaymentIntentID == "" || resp.ClientSecret == "" {
		t.Fatalf("missing intent identifiers: %+v", resp)
	}
	if resp.Currency != "HUF" || resp.Amount <= 0 {
		t.Fatalf("unexpected amount/currency: %+v", resp)
	}
	// HUF is zero-decimal: the minor amount equals the price.
	if stripeClient.intents[resp.PaymentIntentID].Amount != int64(resp.Amount) {
		t.Fatalf("stripe amount = %d, price %v", stripeClient.intents[resp.PaymentIntentID].Amount, resp.Amount)
	}

	var pending types.LeadPurchase
	if err := db.First(&pending, "pro_id = ? AND job_id = ?", pro.ID, job.ID).Error; err != nil {
		t.Fatalf("load pending purchase: %v", err)
	}
	if pending.Status != types.LeadPurchaseStatusPending {
		t.Fatalf("status = %s, want pending", pending.Status)
	}
	if len(pending.PriceBreakdown) == 0 {
		t.Fatalf("price breakdown should be snapshotted")
	}

	// Confirming before the payment succeeded is a conflict.
	_, err = svc.Confirm(ctx, pro.ID, ConfirmPaymentRequest{PaymentIntentID: resp.PaymentIntentID})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Status != 409 {
		t.Fatalf("unsucceeded intent should be a 409, got %v", err)
	}

	stripeClient.intents[resp.PaymentIntentID].Status = stripe.PaymentIntentStatusSucceeded
	purchase, err := svc.Confirm(ctx, pro.ID, ConfirmPaymentRequest{PaymentIntentID: resp.PaymentIntentID})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if purchase.Status != types.LeadPurchaseStatusPaid || purchase.PurchasedAt == nil {
		t.Fatalf("purchase not marked paid: %+v", purchase)
	}
	if purchased, found := cache.IsPurchased(ctx, pro.ID, job.ID); !found || !purchased {
		t.Fatalf("cache should be warmed on confirm")
	}

	// Confirm is idempotent.
	again, err := svc.Confirm(ctx, pro.ID, ConfirmPaymentRequest{PaymentIntentID: resp.PaymentIntentID})
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if again.Status != types.LeadPurchaseStatusPaid {
		t.Fatalf("second confirm status = %s", again.Status)
	}

	// A paid lead cannot be re-bought.
	_, err = svc.CreateIntent(ctx, pro.ID, CreateIntentRequest{JobID: job.ID})
	if !errors.As(err, &apiErr) || apiErr.Status != 409 {
		t.Fatalf("re-purchase should be a 409, got %v", err)
	}

	has, err := svc.CheckAccess(ctx, pro.ID, job.ID)
	if err != nil || !has {
		t.Fatalf("CheckAccess = %v, %v", has, err)
	}
}

func TestPaymentService_RetryReusesPendingRow(t *testing.T) {
	svc, _, _, db, pro, job := newPaymentFixture(t)
	ctx := context.Background()

	first, err := svc.CreateIntent(ctx, pro.ID, CreateIntentRequest{JobID: job.ID})
	if err != nil {
		t.Fatalf("first intent: %v", err)
	}
	second, err := svc.CreateIntent(ctx, pro.ID, CreateIntentRequest{JobID: job.ID})
	if err != nil {
		t.Fatalf("second intent: %v", err)
	}
	if first.PaymentIntentID == second.PaymentIntentID {
		t.Fatalf("retry should open a fresh stripe intent")
	}

	var count int64
	if err := db.Model(&types.LeadPurchase{}).
		Where("pro_id = ? AND job_id = ?", pro.ID, job.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("pending rows = %d, want 1 (reused)", count)
	}

	var pending types.LeadPurchase
	if err := db.First(&pending, "pro_id = ? AND job_id = ?", pro.ID, job.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if pending.StripePaymentIntentID != second.PaymentIntentID {
		t.Fatalf("pending row should point at the latest intent")
	}
}

func TestPaymentService_ConfirmGuards(t *testing.T) {
	svc, stripeClient, _, _, pro, job := newPaymentFixture(t)
	ctx := context.Background()

	if _, err := svc.Confirm(ctx, pro.ID, ConfirmPaymentRequest{}); err == nil {
		t.Fatalf("missing intent id should fail validation")
	}
	if _, err := svc.Confirm(ctx, pro.ID, ConfirmPaymentRequest{PaymentIntentID: "pi_unknown"}); err == nil {
		t.Fatalf("unknown intent should be not_found")
	}

	resp, err := svc.CreateIntent(ctx, pro.ID, CreateIntentRequest{JobID: job.ID})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	stripeClient.intents[resp.PaymentIntentID].Status = stripe.PaymentIntentStatusSucceeded

	// Another pro cannot confirm someone else's intent.
	_, err = svc.Confirm(ctx, uuid.New(), ConfirmPaymentRequest{PaymentIntentID: resp.PaymentIntentID})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Status != 403 {
		t.Fatalf("foreign confirm should be a 403, got %v", err)
	}
}

func TestPaymentService_CleanupStaleIntents(t *testing.T) {
	svc, _, _, db, pro, job := newPaymentFixture(t)
	ctx := context.Background()

	if _, err := svc.CreateIntent(ctx, pro.ID, CreateIntentRequest{JobID: job.ID}); err != nil {
		t.Fatalf("create intent: %v", err)
	}
	// Age the pending row past the cutoff.
	old := time.Now().UTC().Add(-48 * time.Hour)
	if err := db.Model(&types.LeadPurchase{}).
		Where("pro_id = ? AND job_id = ?", pro.ID, job.ID).
		Update("created_at", old).Error; err != nil {
		t.Fatalf("age row: %v", err)
	}

	removed, err := svc.CleanupStaleIntents(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	var count int64
	if err := db.Model(&types.LeadPurchase{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("stale row not removed")
	}
}
