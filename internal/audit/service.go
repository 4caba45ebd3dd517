// Package audit records privileged and state-changing actions so money
// movement can be reconstructed after the fact.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// Entry is one audit record before persistence.
type Entry struct {
	ActorID    string
	Action     enums.AuditAction
	TargetType enums.AuditTargetType
	TargetID   string
	Severity   enums.AuditSeverity
	Details    any
}

// Recorder is what domain services depend on.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
}

type Service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("audit repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{repo: repo, logg: logg}, nil
}

// Actor formats a user id as an audit actor. uuid.Nil maps to the system actor.
func Actor(id uuid.UUID) string {
	if id == uuid.Nil {
		return models.SystemActor
	}
	return id.String()
}

// Record appends one row. When tx is non-nil the row commits with the caller.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.Action == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit action required")
	}
	if entry.TargetType == "" || entry.TargetID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit target required")
	}
	if entry.ActorID == "" {
		entry.ActorID = models.SystemActor
	}
	if entry.Severity == "" {
		entry.Severity = enums.AuditSeverityInfo
	}

	var details json.RawMessage
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode audit details")
		}
		details = raw
	}

	row := &models.AuditLog{
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Severity:   entry.Severity,
		Details:    details,
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("append audit %s", entry.Action))
	}

	if entry.Severity != enums.AuditSeverityInfo {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"audit_action": entry.Action,
			"target_type":  entry.TargetType,
			"target_id":    entry.TargetID,
			"severity":     entry.Severity,
		}), "audit anomaly recorded")
	}
	return nil
}

// ListByTarget returns the trail for one entity, oldest first.
func (s *Service) ListByTarget(ctx context.Context, targetType enums.AuditTargetType, targetID string, limit int) ([]models.AuditLog, error) {
	if targetType == "" || targetID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target type and id required")
	}
	rows, err := s.repo.ListByTarget(ctx, targetType, targetID, clampLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit by target")
	}
	return rows, nil
}

// ListByActor returns the most recent actions taken by one actor.
func (s *Service) ListByActor(ctx context.Context, actorID string, limit int) ([]models.AuditLog, error) {
	if actorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	rows, err := s.repo.ListByActor(ctx, actorID, clampLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit by actor")
	}
	return rows, nil
}

// ListAnomalies returns recent warning-or-worse rows for manual reconciliation.
func (s *Service) ListAnomalies(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, severity := range []enums.AuditSeverity{enums.AuditSeverityCritical, enums.AuditSeverityWarning} {
		rows, err := s.repo.ListBySeverity(ctx, severity, clampLimit(limit))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit anomalies")
		}
		out = append(out, rows...)
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
