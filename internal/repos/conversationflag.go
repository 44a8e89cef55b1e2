package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/types"
)

// ConversationFlagRepo manages the per-(pro_profile, job) archive and star
// toggles. Toggle-on is idempotent; toggle-off deletes the row.
type ConversationFlagRepo interface {
	Archive(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) error
	Unarchive(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) error
	IsArchived(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) (bool, error)
	ListArchivedJobIDs(ctx context.Context, tx *gorm.DB, proProfileID uuid.UUID) ([]uuid.UUID, error)
	Star(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) error
	Unstar(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) error
	IsStarred(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) (bool, error)
	ListStarredJobIDs(ctx context.Context, tx *gorm.DB, proProfileID uuid.UUID) ([]uuid.UUID, error)
}

type conversationFlagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationFlagRepo(db *gorm.DB, baseLog *logger.Logger) ConversationFlagRepo {
	repoLog := baseLog.With("repo", "ConversationFlagRepo")
	return &conversationFlagRepo{db: db, log: repoLog}
}

func (cr *conversationFlagRepo) Archive(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var existing types.ArchivedConversation
	err := transaction.WithContext(ctx).
		Where("pro_profile_id = ? AND job_id = ?", proProfileID, jobID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	row := types.ArchivedConversation{ProProfileID: proProfileID, JobID: jobID}
	return transaction.WithContext(ctx).Create(&row).Error
}

func (cr *conversationFlagRepo) Unarchive(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("pro_profile_id = ? AND job_id = ?", proProfileID, jobID).
		Delete(&types.ArchivedConversation{}).Error
}

func (cr *conversationFlagRepo) IsArchived(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ArchivedConversation{}).
		Where("pro_profile_id = ? AND job_id = ?", proProfileID, jobID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (cr *conversationFlagRepo) ListArchivedJobIDs(ctx context.Context, tx *gorm.DB, proProfileID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.ArchivedConversation{}).
		Where("pro_profile_id = ?", proProfileID).
		Pluck("job_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (cr *conversationFlagRepo) Star(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var existing types.StarredConversation
	err := transaction.WithContext(ctx).
		Where("pro_profile_id = ? AND job_id = ?", proProfileID, jobID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	row := types.StarredConversation{ProProfileID: proProfileID, JobID: jobID}
	return transaction.WithContext(ctx).Create(&row).Error
}

func (cr *conversationFlagRepo) Unstar(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("pro_profile_id = ? AND job_id = ?", proProfileID, jobID).
		Delete(&types.StarredConversation{}).Error
}

func (cr *conversationFlagRepo) IsStarred(ctx context.Context, tx *gorm.DB, proProfileID, jobID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.StarredConversation{}).
		Where("pro_profile_id = ? AND job_id = ?", proProfileID, jobID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (cr *conversationFlagRepo) ListStarredJobIDs(ctx context.Context, tx *gorm.DB, proProfileID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.StarredConversation{}).
		Where("pro_profile_id = ?", proProfileID).
		Pluck("job_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
