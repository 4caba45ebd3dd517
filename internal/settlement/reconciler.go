package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-settlement/internal/dedup"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/metrics"
)

type eventMetrics interface {
	ObserveEvent(eventType, outcome string, took time.Duration)
}

type handler func(ctx context.Context, ev Event) (string, error)

// Reconciler deduplicates verified events and routes them to the handler for
// their type. Unknown types are acknowledged and ignored.
type Reconciler struct {
	dedup    dedup.Store
	handlers map[EventType]handler
	metrics  eventMetrics
	logg     *logger.Logger
}

type ReconcilerParams struct {
	Service *Service
	Dedup   dedup.Store
	Metrics eventMetrics
	Logger  *logger.Logger
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Service == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	if params.Dedup == nil {
		return nil, fmt.Errorf("dedup store required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	svc := params.Service
	return &Reconciler{
		dedup: params.Dedup,
		handlers: map[EventType]handler{
			EventPaymentSucceeded: svc.handlePaymentSucceeded,
			EventPaymentFailed:    svc.handlePaymentFailed,
			EventTransferCreated:  svc.handleTransferCreated,
			EventTransferReversed: svc.handleTransferReversed,
			EventPayoutFailed:     svc.handlePayoutFailed,
			EventChargeRefunded:   svc.handleChargeRefunded,
			EventDisputeOpened:    svc.handleDisputeOpened,
			EventDisputeClosed:    svc.handleDisputeClosed,
			EventAccountUpdated:   svc.handleAccountUpdated,
		},
		metrics: params.Metrics,
		logg:    logg,
	}, nil
}

// Handle processes one event and returns the outcome label. A returned error
// means the event was not applied and the sender should redeliver it, unless
// the error code is non-retryable.
func (r *Reconciler) Handle(ctx context.Context, ev Event) (string, error) {
	start := time.Now()
	label := string(ev.Type)
	if label == "" {
		label = ev.RawType
	}
	ctx = r.logg.WithEventID(ctx, ev.ID, label)

	outcome, err := r.handle(ctx, ev)
	if r.metrics != nil {
		r.metrics.ObserveEvent(label, outcome, time.Since(start))
	}
	if err != nil {
		r.logg.Error(r.logg.WithField(ctx, "outcome", outcome), "event processing failed", err)
		return outcome, err
	}
	if outcome == metrics.OutcomeApplied || outcome == metrics.OutcomeRejected {
		r.logg.Info(r.logg.WithField(ctx, "outcome", outcome), "event processed")
	}
	return outcome, nil
}

func (r *Reconciler) handle(ctx context.Context, ev Event) (string, error) {
	if ev.ID == "" {
		return metrics.OutcomeRejected, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	h, ok := r.handlers[ev.Type]
	if !ok {
		r.logg.Info(r.logg.WithField(ctx, "outcome", metrics.OutcomeIgnored), "unhandled event type")
		return metrics.OutcomeIgnored, nil
	}

	dup, err := r.dedup.IsDuplicate(ctx, ev.ID)
	if err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "dedup_error", err.Error()), "dedup check failed, processing anyway")
	}
	if dup {
		return metrics.OutcomeDuplicate, nil
	}

	outcome, err := h(ctx, ev)
	if err != nil {
		if ferr := r.dedup.Forget(ctx, ev.ID); ferr != nil {
			r.logg.Error(ctx, "failed to release dedup entry", ferr)
		}
		return outcome, err
	}
	return outcome, nil
}
