package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/types"
)

type JobRepo interface {
	Create(ctx context.Context, tx *gorm.DB, jobs []*types.Job) ([]*types.Job, error)
	GetByID(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) (*types.Job, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, jobIDs []uuid.UUID) ([]*types.Job, error)
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	repoLog := baseLog.With("repo", "JobRepo")
	return &jobRepo{db: db, log: repoLog}
}

func (jr *jobRepo) Create(ctx context.Context, tx *gorm.DB, jobs []*types.Job) ([]*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = jr.db
	}
	if len(jobs) == 0 {
		return []*types.Job{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (jr *jobRepo) GetByID(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) (*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = jr.db
	}
	var result types.Job
	if err := transaction.WithContext(ctx).
		Where("id = ?", jobID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (jr *jobRepo) GetByIDs(ctx context.Context, tx *gorm.DB, jobIDs []uuid.UUID) ([]*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = jr.db
	}
	var results []*types.Job
	if len(jobIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", jobIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
