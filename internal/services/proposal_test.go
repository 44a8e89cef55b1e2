package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/apierr"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/types"
)

func newProposalFixture(t *testing.T) (*proposalService, *gorm.DB, *types.User, *types.User, *types.Job) {
	t.Helper()
	db := newTestDB(t)
	log := nopLog()

	proposalRepo := repos.NewProposalRepo(db, log)
	appointmentRepo := repos.NewAppointmentRepo(db, log)
	jobRepo := repos.NewJobRepo(db, log)
	svc := NewProposalService(db, log, proposalRepo, appointmentRepo, jobRepo, nil, 72*time.Hour).(*proposalService)

	customer := createUser(t, db, types.RoleCustomer)
	pro := createUser(t, db, types.RolePro)
	category := createService(t, db, 40000, 80000)
	job := createJob(t, db, customer.ID, category.ID)
	return svc, db, customer, pro, job
}

func TestProposalService_CreateValidation(t *testing.T) {
	svc, _, _, pro, job := newProposalFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, pro.ID, job.ID, CreateProposalRequest{
		ProposedAt: time.Now().UTC().Add(-time.Hour),
		Price:      10000,
	})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Status != 422 {
		t.Fatalf("past slot should be a 422, got %v", err)
	}

	_, err = svc.Create(ctx, pro.ID, job.ID, CreateProposalRequest{
		ProposedAt: time.Now().UTC().Add(24 * time.Hour),
		Price:      -1,
	})
	if !errors.As(err, &apiErr) || apiErr.Status != 422 {
		t.Fatalf("negative price should be a 422, got %v", err)
	}

	created, err := svc.Create(ctx, pro.ID, job.ID, CreateProposalRequest{
		ProposedAt: time.Now().UTC().Add(24 * time.Hour),
		Price:      10000,
		Location:   "Budapest, Fő utca 1.",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != types.ProposalStatusProposed {
		t.Fatalf("status = %s", created.Status)
	}
	if created.DurationMinutes != 60 || created.Currency != "HUF" {
		t.Fatalf("defaults not applied: %+v", created)
	}
	if !created.ExpiresAt.After(time.Now().UTC().Add(71 * time.Hour)) {
		t.Fatalf("expiry should be ~72h out, got %v", created.ExpiresAt)
	}
}

func TestProposalService_AcceptCreatesAppointment(t *testing.T) {
	svc, db, customer, pro, job := newProposalFixture(t)
	ctx := context.Background()

	slot := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	proposal, err := svc.Create(ctx, pro.ID, job.ID, CreateProposalRequest{
		ProposedAt:      slot,
		DurationMinutes: 90,
		Price:           25000,
		Location:        "Budapest, Fő utca 1.",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Only the customer may accept.
	if _, err := svc.Accept(ctx, pro.ID, proposal.ID, RespondProposalRequest{}); err == nil {
		t.Fatalf("pro must not accept its own proposal")
	}

	appointment, err := svc.Accept(ctx, customer.ID, proposal.ID, RespondProposalRequest{ResponseMessage: "rendben"})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if appointment.Status != types.AppointmentStatusConfirmed {
		t.Fatalf("appointment status = %s", appointment.Status)
	}
	if appointment.ProposalID == nil || *appointment.ProposalID != proposal.ID {
		t.Fatalf("appointment not linked to proposal")
	}
	if !appointment.ScheduledStart.Equal(slot) {
		t.Fatalf("start = %v, want %v", appointment.ScheduledStart, slot)
	}
	if !appointment.ScheduledEnd.Equal(slot.Add(90 * time.Minute)) {
		t.Fatalf("end = %v", appointment.ScheduledEnd)
	}
	if appointment.PricingType != types.PricingTypeFixedPrice || appointment.QuotedAmount == nil || *appointment.QuotedAmount != 25000 {
		t.Fatalf("pricing not carried over: %+v", appointment)
	}

	var stored types.AppointmentProposal
	if err := db.First(&stored, "id = ?", proposal.ID).Error; err != nil {
		t.Fatalf("reload proposal: %v", err)
	}
	if stored.Status != types.ProposalStatusAccepted {
		t.Fatalf("proposal status = %s", stored.Status)
	}
	if stored.RespondedAt == nil || stored.ResponseMessage != "rendben" {
		t.Fatalf("response not recorded: %+v", stored)
	}

	// All terminal states refuse further transitions.
	if _, err := svc.Accept(ctx, customer.ID, proposal.ID, RespondProposalRequest{}); err == nil {
		t.Fatalf("double accept should fail")
	}
	if err := svc.Reject(ctx, customer.ID, proposal.ID, RespondProposalRequest{}); err == nil {
		t.Fatalf("reject after accept should fail")
	}
	if err := svc.Cancel(ctx, pro.ID, proposal.ID); err == nil {
		t.Fatalf("cancel after accept should fail")
	}
}

func TestProposalService_RejectAndCancelGuards(t *testing.T) {
	svc, _, customer, pro, job := newProposalFixture(t)
	ctx := context.Background()

	proposal, err := svc.Create(ctx, pro.ID, job.ID, CreateProposalRequest{
		ProposedAt: time.Now().UTC().Add(24 * time.Hour),
		Price:      10000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Cancel(ctx, customer.ID, proposal.ID); err == nil {
		t.Fatalf("only the pro can cancel")
	}
	if err := svc.Reject(ctx, pro.ID, proposal.ID, RespondProposalRequest{}); err == nil {
		t.Fatalf("only the customer can reject")
	}
	if err := svc.Reject(ctx, customer.ID, proposal.ID, RespondProposalRequest{ResponseMessage: "köszönöm, nem"}); err != nil {
		t.Fatalf("reject: %v", err)
	}
}

func TestProposalService_LazyExpiry(t *testing.T) {
	svc, _, customer, pro, job := newProposalFixture(t)
	ctx := context.Background()

	proposal, err := svc.Create(ctx, pro.ID, job.ID, CreateProposalRequest{
		ProposedAt: time.Now().UTC().Add(100 * time.Hour),
		Price:      10000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Jump past the TTL.
	svc.now = func() time.Time { return time.Now().UTC().Add(80 * time.Hour) }

	listed, err := svc.ListByThread(ctx, job.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Status != types.ProposalStatusExpired {
		t.Fatalf("read should apply expiry, got %+v", listed)
	}

	// Responding after expiry is an invalid transition, not a success.
	_, err = svc.Accept(ctx, customer.ID, proposal.ID, RespondProposalRequest{})
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Status != 409 {
		t.Fatalf("accept on expired should be a 409, got %v", err)
	}
}

func TestProposalService_ExpireDueSweep(t *testing.T) {
	svc, db, _, pro, job := newProposalFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, pro.ID, job.ID, CreateProposalRequest{
		ProposedAt: time.Now().UTC().Add(100 * time.Hour),
		Price:      10000,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	svc.now = func() time.Time { return time.Now().UTC().Add(80 * time.Hour) }
	count, err := svc.ExpireDue(ctx)
	if err != nil {
		t.Fatalf("expire due: %v", err)
	}
	if count != 1 {
		t.Fatalf("expired %d, want 1", count)
	}

	var remaining int64
	if err := db.Model(&types.AppointmentProposal{}).
		Where("status = ?", types.ProposalStatusProposed).
		Count(&remaining).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("%d proposals still open after sweep", remaining)
	}
}
