package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

const (
	notificationRetentionDays = 30
	outboxRetentionDays       = 14
	outboxMinAttempts         = 10
)

type notificationPurger interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type purgeFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

// retentionJob deletes rows older than a fixed number of days in one
// transaction.
type retentionJob struct {
	name      string
	logg      *logger.Logger
	db        txRunner
	purge     purgeFunc
	retention int
	fields    map[string]any
	now       func() time.Time
}

type NotificationRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository notificationPurger
	Days       int
}

// NewNotificationRetentionJob purges read in-app notifications.
func NewNotificationRetentionJob(params NotificationRetentionJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	job, err := newRetentionJob("notification-retention", params.Logger, params.DB, params.Days, notificationRetentionDays,
		params.Repository.DeleteOlderThan, nil)
	if err != nil {
		return nil, err
	}
	return job, nil
}

type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  outboxPurger
	Days        int
	MinAttempts int
}

// NewOutboxRetentionJob purges published outbox rows and rows parked at the
// attempt ceiling.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	minAttempts := params.MinAttempts
	if minAttempts <= 0 {
		minAttempts = outboxMinAttempts
	}
	purge := func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
		return params.Repository.DeletePublishedBefore(ctx, tx, cutoff, minAttempts)
	}
	job, err := newRetentionJob("outbox-retention", params.Logger, params.DB, params.Days, outboxRetentionDays,
		purge, map[string]any{"min_attempts": minAttempts})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func newRetentionJob(name string, logg *logger.Logger, db txRunner, days, fallback int, purge purgeFunc, fields map[string]any) (*retentionJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if days <= 0 {
		days = fallback
	}
	return &retentionJob{
		name:      name,
		logg:      logg,
		db:        db,
		purge:     purge,
		retention: days,
		fields:    fields,
		now:       time.Now,
	}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.purge(ctx, tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	if len(j.fields) > 0 {
		logCtx = j.logg.WithFields(logCtx, j.fields)
	}
	j.logg.Info(logCtx, "retention purge complete")
	return nil
}
