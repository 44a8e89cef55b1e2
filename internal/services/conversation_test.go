package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/types"
)

func newConversationFixture(t *testing.T) (ConversationService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	log := nopLog()
	svc := NewConversationService(
		db,
		log,
		repos.NewMessageRepo(db, log),
		repos.NewJobRepo(db, log),
		repos.NewUserRepo(db, log),
		repos.NewServiceRepo(db, log),
		repos.NewProProfileRepo(db, log),
		repos.NewConversationFlagRepo(db, log),
	)
	return svc, db
}

func TestConversationService_ListAggregates(t *testing.T) {
	svc, db := newConversationFixture(t)
	ctx := context.Background()

	customer := createUser(t, db, types.RoleCustomer)
	pro := createUser(t, db, types.RolePro)
	category := createService(t, db, 40000, 80000)
	jobA := createJob(t, db, customer.ID, category.ID)
	jobB := createJob(t, db, customer.ID, category.ID)

	base := time.Now().UTC().Add(-time.Hour)
	// Thread A: two unread for the pro, last message from the customer.
	createMessage(t, db, jobA.ID, pro.ID, customer.ID, true, "Jó napot!", base)
	createMessage(t, db, jobA.ID, customer.ID, pro.ID, false, "Üdvözlöm!", base.Add(time.Minute))
	createMessage(t, db, jobA.ID, customer.ID, pro.ID, false, "Mikor ér rá?", base.Add(2*time.Minute))
	// Thread B: newer, nothing unread for the pro.
	createMessage(t, db, jobB.ID, pro.ID, customer.ID, true, "Ajánlatot küldtem.", base.Add(10*time.Minute))

	views, err := svc.List(ctx, pro.ID, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d conversations, want 2", len(views))
	}

	// Sorted by last message, newest first.
	if views[0].JobID != jobB.ID || views[1].JobID != jobA.ID {
		t.Fatalf("unexpected order: %v, %v", views[0].JobID, views[1].JobID)
	}

	a := views[1]
	if a.UnreadCount != 2 {
		t.Fatalf("thread A unread = %d, want 2", a.UnreadCount)
	}
	if a.LastMessage != "Mikor ér rá?" {
		t.Fatalf("thread A last message = %q", a.LastMessage)
	}
	if a.CounterpartID != customer.ID {
		t.Fatalf("counterpart = %v, want customer", a.CounterpartID)
	}
	if a.CounterpartName != customer.FirstName+" "+customer.LastName {
		t.Fatalf("counterpart name = %q", a.CounterpartName)
	}
	if a.ServiceName != "Festés" {
		t.Fatalf("service name = %q", a.ServiceName)
	}
	if views[0].UnreadCount != 0 {
		t.Fatalf("thread B unread = %d, want 0", views[0].UnreadCount)
	}

	// The customer's view counts the other direction.
	views, err = svc.List(ctx, customer.ID, false)
	if err != nil {
		t.Fatalf("list as customer: %v", err)
	}
	for _, v := range views {
		if v.JobID == jobA.ID && v.UnreadCount != 1 {
			t.Fatalf("customer unread on A = %d, want 1", v.UnreadCount)
		}
		if v.CounterpartID != pro.ID {
			t.Fatalf("customer counterpart = %v, want pro", v.CounterpartID)
		}
	}
}

func TestConversationService_PlaceholdersOnMissingLookups(t *testing.T) {
	svc, db := newConversationFixture(t)
	ctx := context.Background()

	customer := createUser(t, db, types.RoleCustomer)
	pro := createUser(t, db, types.RolePro)
	category := createService(t, db, 40000, 80000)
	job := createJob(t, db, customer.ID, category.ID)
	createMessage(t, db, job.ID, customer.ID, pro.ID, false, "szia", time.Now().UTC())

	// Delete the service and the counterpart; the inbox must still render.
	if err := db.Delete(&types.Service{}, "id = ?", category.ID).Error; err != nil {
		t.Fatalf("delete service: %v", err)
	}
	if err := db.Delete(&types.User{}, "id = ?", customer.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	views, err := svc.List(ctx, pro.ID, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d conversations, want 1", len(views))
	}
	if views[0].ServiceName != placeholderService {
		t.Fatalf("service placeholder not applied: %q", views[0].ServiceName)
	}
	if views[0].CounterpartName != placeholderCustomer {
		t.Fatalf("counterpart placeholder not applied: %q", views[0].CounterpartName)
	}
}

func TestConversationService_ArchiveAndStarFlags(t *testing.T) {
	svc, db := newConversationFixture(t)
	ctx := context.Background()

	customer := createUser(t, db, types.RoleCustomer)
	pro := createUser(t, db, types.RolePro)
	category := createService(t, db, 40000, 80000)
	jobA := createJob(t, db, customer.ID, category.ID)
	jobB := createJob(t, db, customer.ID, category.ID)

	createMessage(t, db, jobA.ID, customer.ID, pro.ID, false, "A", time.Now().UTC().Add(-2*time.Minute))
	createMessage(t, db, jobB.ID, customer.ID, pro.ID, false, "B", time.Now().UTC().Add(-time.Minute))

	// Flags require a pro profile.
	if err := svc.Archive(ctx, pro.ID, jobA.ID); err == nil {
		t.Fatalf("archive without a pro profile should be forbidden")
	}
	profile := &types.ProProfile{UserID: pro.ID, DisplayName: "Kovács Béla"}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}

	if err := svc.Archive(ctx, pro.ID, jobA.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	// Archiving twice is a no-op, not an error.
	if err := svc.Archive(ctx, pro.ID, jobA.ID); err != nil {
		t.Fatalf("double archive: %v", err)
	}
	if err := svc.Star(ctx, pro.ID, jobB.ID); err != nil {
		t.Fatalf("star: %v", err)
	}

	archived, err := svc.IsArchived(ctx, pro.ID, jobA.ID)
	if err != nil || !archived {
		t.Fatalf("IsArchived = %v, %v", archived, err)
	}

	inbox, err := svc.List(ctx, pro.ID, false)
	if err != nil {
		t.Fatalf("list inbox: %v", err)
	}
	if len(inbox) != 1 || inbox[0].JobID != jobB.ID {
		t.Fatalf("inbox should hide the archived thread: %+v", inbox)
	}
	if !inbox[0].Starred {
		t.Fatalf("starred flag not surfaced")
	}

	archivedList, err := svc.List(ctx, pro.ID, true)
	if err != nil {
		t.Fatalf("list archived: %v", err)
	}
	if len(archivedList) != 1 || archivedList[0].JobID != jobA.ID {
		t.Fatalf("archived view should hold thread A: %+v", archivedList)
	}

	if err := svc.Unarchive(ctx, pro.ID, jobA.ID); err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	inbox, err = svc.List(ctx, pro.ID, false)
	if err != nil {
		t.Fatalf("list after unarchive: %v", err)
	}
	if len(inbox) != 2 {
		t.Fatalf("both threads should be back in the inbox, got %d", len(inbox))
	}
}
