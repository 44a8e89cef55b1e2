package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.ProProfile{},
		&types.Service{},
		&types.Job{},
		&types.Message{},
		&types.ArchivedConversation{},
		&types.StarredConversation{},
		&types.AppointmentProposal{},
		&types.Appointment{},
		&types.LeadPurchase{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, role string) *types.User {
	t.Helper()
	u := &types.User{
		Email:     fmt.Sprintf("%s@example.com", uuid.NewString()),
		Password:  "hashed",
		FirstName: "Teszt",
		LastName:  "Elek",
		Role:      role,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createService(t *testing.T, db *gorm.DB, min, max float64) *types.Service {
	t.Helper()
	s := &types.Service{
		Name:           "Festés",
		Slug:           uuid.NewString(),
		ExpectedJobMin: min,
		ExpectedJobMax: max,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("create service: %v", err)
	}
	return s
}

func createJob(t *testing.T, db *gorm.DB, customerID, serviceID uuid.UUID) *types.Job {
	t.Helper()
	j := &types.Job{
		CustomerID:     customerID,
		ServiceID:      serviceID,
		Title:          "Lakásfestés",
		Urgency:        types.UrgencyNormal,
		SeatsAvailable: 5,
		Status:         types.JobStatusOpen,
	}
	if err := db.Create(j).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return j
}

func createMessage(t *testing.T, db *gorm.DB, jobID, senderID, receiverID uuid.UUID, fromPro bool, content string, at time.Time) *types.Message {
	t.Helper()
	m := &types.Message{
		JobID:      jobID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		IsFromPro:  fromPro,
		CreatedAt:  at,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("create message: %v", err)
	}
	return m
}

func nopLog() *logger.Logger {
	return logger.NewNop()
}

// fakeLeadAccessCache is an in-memory stand-in for the redis cache.
type fakeLeadAccessCache struct {
	mu      sync.Mutex
	entries map[string]bool
}

func newFakeLeadAccessCache() *fakeLeadAccessCache {
	return &fakeLeadAccessCache{entries: map[string]bool{}}
}

func (f *fakeLeadAccessCache) key(proID, jobID uuid.UUID) string {
	return proID.String() + ":" + jobID.String()
}

func (f *fakeLeadAccessCache) MarkPurchased(ctx context.Context, proID, jobID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[f.key(proID, jobID)] = true
	return nil
}

func (f *fakeLeadAccessCache) IsPurchased(ctx context.Context, proID, jobID uuid.UUID) (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[f.key(proID, jobID)]
	return v, ok
}

func (f *fakeLeadAccessCache) Close() error { return nil }
