package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/types"
)

type AppointmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, appointments []*types.Appointment) ([]*types.Appointment, error)
	GetByID(ctx context.Context, tx *gorm.DB, appointmentID uuid.UUID) (*types.Appointment, error)
	ListByJob(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]*types.Appointment, error)
	ListByParticipant(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Appointment, error)
	// UpdateStatus is guarded by the expected current status, same contract
	// as ProposalRepo.UpdateStatus.
	UpdateStatus(ctx context.Context, tx *gorm.DB, appointmentID uuid.UUID, from, to types.AppointmentStatus, updates map[string]any) error
}

type appointmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAppointmentRepo(db *gorm.DB, baseLog *logger.Logger) AppointmentRepo {
	repoLog := baseLog.With("repo", "AppointmentRepo")
	return &appointmentRepo{db: db, log: repoLog}
}

func (ar *appointmentRepo) Create(ctx context.Context, tx *gorm.DB, appointments []*types.Appointment) ([]*types.Appointment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(appointments) == 0 {
		return []*types.Appointment{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (ar *appointmentRepo) GetByID(ctx context.Context, tx *gorm.DB, appointmentID uuid.UUID) (*types.Appointment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var result types.Appointment
	if err := transaction.WithContext(ctx).
		Where("id = ?", appointmentID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ar *appointmentRepo) ListByJob(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]*types.Appointment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Appointment
	if err := transaction.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("scheduled_start ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *appointmentRepo) ListByParticipant(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Appointment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Appointment
	if err := transaction.WithContext(ctx).
		Where("pro_id = ? OR customer_id = ?", userID, userID).
		Order("scheduled_start ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *appointmentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, appointmentID uuid.UUID, from, to types.AppointmentStatus, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	res := transaction.WithContext(ctx).
		Model(&types.Appointment{}).
		Where("id = ? AND status = ?", appointmentID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
