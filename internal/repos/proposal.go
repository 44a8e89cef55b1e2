package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/types"
)

type ProposalRepo interface {
	Create(ctx context.Context, tx *gorm.DB, proposals []*types.AppointmentProposal) ([]*types.AppointmentProposal, error)
	GetByID(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (*types.AppointmentProposal, error)
	ListByJob(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]*types.AppointmentProposal, error)
	// UpdateStatus applies a status change guarded by the expected current
	// status; returns gorm.ErrRecordNotFound when the guard misses so
	// concurrent responders cannot double-resolve a proposal.
	UpdateStatus(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, from, to types.ProposalStatus, updates map[string]any) error
	// ExpireDue flips every proposal still in proposed state past its
	// expires_at to expired. Idempotent; used by the cron sweep.
	ExpireDue(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type proposalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProposalRepo(db *gorm.DB, baseLog *logger.Logger) ProposalRepo {
	repoLog := baseLog.With("repo", "ProposalRepo")
	return &proposalRepo{db: db, log: repoLog}
}

func (pr *proposalRepo) Create(ctx context.Context, tx *gorm.DB, proposals []*types.AppointmentProposal) ([]*types.AppointmentProposal, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(proposals) == 0 {
		return []*types.AppointmentProposal{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

func (pr *proposalRepo) GetByID(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (*types.AppointmentProposal, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.AppointmentProposal
	if err := transaction.WithContext(ctx).
		Where("id = ?", proposalID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *proposalRepo) ListByJob(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]*types.AppointmentProposal, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.AppointmentProposal
	if err := transaction.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *proposalRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, from, to types.ProposalStatus, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	res := transaction.WithContext(ctx).
		Model(&types.AppointmentProposal{}).
		Where("id = ? AND status = ?", proposalID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (pr *proposalRepo) ExpireDue(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.AppointmentProposal{}).
		Where("status = ? AND expires_at < ?", types.ProposalStatusProposed, now).
		Update("status", types.ProposalStatusExpired)
	return res.RowsAffected, res.Error
}
