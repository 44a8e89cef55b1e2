package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/types"
)

type MessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, messages []*types.Message) ([]*types.Message, error)
	GetByID(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) (*types.Message, error)
	// ListByJob returns the thread for a job, strictly created_at ascending.
	ListByJob(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]*types.Message, error)
	// ListByUser returns every message a user sent or received, created_at ascending.
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Message, error)
	MarkRead(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) error
	// CountProMessages counts messages on a job thread sent by the given pro.
	// Only pro-authored messages count against the lead message gate.
	CountProMessages(ctx context.Context, tx *gorm.DB, jobID, proID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	repoLog := baseLog.With("repo", "MessageRepo")
	return &messageRepo{db: db, log: repoLog}
}

func (mr *messageRepo) Create(ctx context.Context, tx *gorm.DB, messages []*types.Message) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if len(messages) == 0 {
		return []*types.Message{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (mr *messageRepo) GetByID(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) (*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var result types.Message
	if err := transaction.WithContext(ctx).
		Where("id = ?", messageID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (mr *messageRepo) ListByJob(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.Message
	if err := transaction.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *messageRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.Message
	if err := transaction.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *messageRepo) MarkRead(ctx context.Context, tx *gorm.DB, messageID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Message{}).
		Where("id = ?", messageID).
		Update("is_read", true).Error
}

func (mr *messageRepo) CountProMessages(ctx context.Context, tx *gorm.DB, jobID, proID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Message{}).
		Where("job_id = ? AND sender_id = ? AND is_from_pro = ?", jobID, proID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
