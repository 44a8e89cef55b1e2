package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/types"
)

type ProProfileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, profiles []*types.ProProfile) ([]*types.ProProfile, error)
	GetByID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) (*types.ProProfile, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ProProfile, error)
}

type proProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProProfileRepo {
	repoLog := baseLog.With("repo", "ProProfileRepo")
	return &proProfileRepo{db: db, log: repoLog}
}

func (pr *proProfileRepo) Create(ctx context.Context, tx *gorm.DB, profiles []*types.ProProfile) ([]*types.ProProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(profiles) == 0 {
		return []*types.ProProfile{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (pr *proProfileRepo) GetByID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) (*types.ProProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.ProProfile
	if err := transaction.WithContext(ctx).
		Where("id = ?", profileID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *proProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ProProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.ProProfile
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
