package types

import (
	"testing"
	"time"
)

func TestProposalTransitions(t *testing.T) {
	terminal := []ProposalStatus{
		ProposalStatusAccepted,
		ProposalStatusRejected,
		ProposalStatusCancelled,
		ProposalStatusExpired,
	}
	for _, next := range terminal {
		if !ProposalStatusProposed.CanTransitionTo(next) {
			t.Fatalf("proposed should transition to %s", next)
		}
	}
	for _, from := range terminal {
		if !from.IsTerminal() {
			t.Fatalf("%s should be terminal", from)
		}
		for _, next := range append(terminal, ProposalStatusProposed) {
			if from.CanTransitionTo(next) {
				t.Fatalf("%s -> %s should not be allowed", from, next)
			}
		}
	}
	if ProposalStatusProposed.IsTerminal() {
		t.Fatalf("proposed must not be terminal")
	}
}

func TestProposalIsExpired(t *testing.T) {
	now := time.Now().UTC()
	p := &AppointmentProposal{Status: ProposalStatusProposed, ExpiresAt: now.Add(-time.Minute)}
	if !p.IsExpired(now) {
		t.Fatalf("overdue proposed proposal should be expired")
	}
	p.ExpiresAt = now.Add(time.Minute)
	if p.IsExpired(now) {
		t.Fatalf("proposal within its window should not be expired")
	}
	p.Status = ProposalStatusAccepted
	p.ExpiresAt = now.Add(-time.Minute)
	if p.IsExpired(now) {
		t.Fatalf("a resolved proposal never expires")
	}
}

func TestAppointmentTransitions(t *testing.T) {
	from := AppointmentStatusConfirmed
	for _, next := range []AppointmentStatus{
		AppointmentStatusRescheduled,
		AppointmentStatusCancelledByCustomer,
		AppointmentStatusCancelledByMester,
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
	} {
		if !from.CanTransitionTo(next) {
			t.Fatalf("confirmed should transition to %s", next)
		}
	}

	// A rescheduled appointment is history, but the chain can still be voided.
	resched := AppointmentStatusRescheduled
	if !resched.CanTransitionTo(AppointmentStatusCancelledByCustomer) {
		t.Fatalf("rescheduled should allow customer cancellation")
	}
	if !resched.CanTransitionTo(AppointmentStatusCancelledByMester) {
		t.Fatalf("rescheduled should allow pro cancellation")
	}
	if resched.CanTransitionTo(AppointmentStatusCompleted) {
		t.Fatalf("rescheduled must not complete")
	}
	if resched.CanTransitionTo(AppointmentStatusRescheduled) {
		t.Fatalf("rescheduled must not reschedule again")
	}

	for _, s := range []AppointmentStatus{
		AppointmentStatusCancelledByCustomer,
		AppointmentStatusCancelledByMester,
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
	} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}
