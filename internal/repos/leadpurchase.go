package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/types"
)

type LeadPurchaseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, purchases []*types.LeadPurchase) ([]*types.LeadPurchase, error)
	GetByProJob(ctx context.Context, tx *gorm.DB, proID, jobID uuid.UUID) (*types.LeadPurchase, error)
	GetByPaymentIntentID(ctx context.Context, tx *gorm.DB, intentID string) (*types.LeadPurchase, error)
	// HasPaid reports whether a paid purchase exists for the (pro, job) pair.
	// This is the source of truth behind the message gate.
	HasPaid(ctx context.Context, tx *gorm.DB, proID, jobID uuid.UUID) (bool, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, purchaseID uuid.UUID, paidAt time.Time) error
	// DeleteStalePending removes pending purchases older than the cutoff so
	// abandoned checkout attempts do not pile up.
	DeleteStalePending(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type leadPurchaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLeadPurchaseRepo(db *gorm.DB, baseLog *logger.Logger) LeadPurchaseRepo {
	repoLog := baseLog.With("repo", "LeadPurchaseRepo")
	return &leadPurchaseRepo{db: db, log: repoLog}
}

func (lr *leadPurchaseRepo) Create(ctx context.Context, tx *gorm.DB, purchases []*types.LeadPurchase) ([]*types.LeadPurchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	if len(purchases) == 0 {
		return []*types.LeadPurchase{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

func (lr *leadPurchaseRepo) GetByProJob(ctx context.Context, tx *gorm.DB, proID, jobID uuid.UUID) (*types.LeadPurchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var result types.LeadPurchase
	if err := transaction.WithContext(ctx).
		Where("pro_id = ? AND job_id = ?", proID, jobID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (lr *leadPurchaseRepo) GetByPaymentIntentID(ctx context.Context, tx *gorm.DB, intentID string) (*types.LeadPurchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var result types.LeadPurchase
	if err := transaction.WithContext(ctx).
		Where("stripe_payment_intent_id = ?", intentID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (lr *leadPurchaseRepo) HasPaid(ctx context.Context, tx *gorm.DB, proID, jobID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.LeadPurchase{}).
		Where("pro_id = ? AND job_id = ? AND status = ?", proID, jobID, types.LeadPurchaseStatusPaid).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (lr *leadPurchaseRepo) MarkPaid(ctx context.Context, tx *gorm.DB, purchaseID uuid.UUID, paidAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.LeadPurchase{}).
		Where("id = ?", purchaseID).
		Updates(map[string]any{
			"status":       types.LeadPurchaseStatusPaid,
			"purchased_at": paidAt,
		}).Error
}

func (lr *leadPurchaseRepo) DeleteStalePending(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	res := transaction.WithContext(ctx).
		Where("status = ? AND created_at < ?", types.LeadPurchaseStatusPending, cutoff).
		Delete(&types.LeadPurchase{})
	return res.RowsAffected, res.Error
}
