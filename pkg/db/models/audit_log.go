package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// SystemActor is recorded when no human triggered the action.
const SystemActor = "system"

// AuditLog is an append-only trail of privileged and state-changing actions.
type AuditLog struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	ActorID    string                `gorm:"column:actor_id;type:text;not null"`
	Action     enums.AuditAction     `gorm:"column:action;type:text;not null;index"`
	TargetType enums.AuditTargetType `gorm:"column:target_type;type:text;not null;index:idx_audit_logs_target"`
	TargetID   string                `gorm:"column:target_id;type:text;not null;index:idx_audit_logs_target"`
	Severity   enums.AuditSeverity   `gorm:"column:severity;type:text;not null;default:'info'"`
	Details    json.RawMessage       `gorm:"column:details;type:jsonb"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (AuditLog) TableName() string { return "audit_logs" }

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
