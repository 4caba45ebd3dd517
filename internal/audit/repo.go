package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Repository persists audit rows. There is no update or delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByTarget(ctx context.Context, targetType enums.AuditTargetType, targetID string, limit int) ([]models.AuditLog, error)
	ListByActor(ctx context.Context, actorID string, limit int) ([]models.AuditLog, error)
	ListBySeverity(ctx context.Context, severity enums.AuditSeverity, limit int) ([]models.AuditLog, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByTarget(ctx context.Context, targetType enums.AuditTargetType, targetID string, limit int) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByActor(ctx context.Context, actorID string, limit int) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListBySeverity(ctx context.Context, severity enums.AuditSeverity, limit int) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("severity = ?", severity).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
