package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-settlement/internal/orders"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

const defaultAutoCompleteBatch = 200

type orderCompleter interface {
	AutoComplete(ctx context.Context, cutoff time.Time, limit int) (orders.AutoCompleteResult, error)
}

type OrderAutoCompleteJobParams struct {
	Logger    *logger.Logger
	Orders    orderCompleter
	HoldAfter time.Duration
	BatchSize int
}

// NewOrderAutoCompleteJob closes out delivered orders once the buyer hold
// period has elapsed.
func NewOrderAutoCompleteJob(params OrderAutoCompleteJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.HoldAfter <= 0 {
		return nil, fmt.Errorf("hold period must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultAutoCompleteBatch
	}
	return &orderAutoCompleteJob{
		logg:   params.Logger,
		orders: params.Orders,
		hold:   params.HoldAfter,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type orderAutoCompleteJob struct {
	logg   *logger.Logger
	orders orderCompleter
	hold   time.Duration
	batch  int
	now    func() time.Time
}

func (j *orderAutoCompleteJob) Name() string { return "order-auto-complete" }

func (j *orderAutoCompleteJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.hold)
	result, err := j.orders.AutoComplete(ctx, cutoff, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"scanned":   result.Scanned,
		"completed": result.Completed,
	})
	if err != nil {
		return fmt.Errorf("auto-complete orders: %w", err)
	}
	j.logg.Info(logCtx, "order auto-complete finished")
	return nil
}
