package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/packfinderz-settlement/internal/audit"
	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

const defaultReconcilePage = 500

type balanceReconciler interface {
	SellerIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
	Reconcile(ctx context.Context, sellerID uuid.UUID) (*ledger.Reconciliation, error)
}

type BalanceReconciliationJobParams struct {
	Logger   *logger.Logger
	Ledger   balanceReconciler
	Audit    audit.Recorder
	PageSize int
}

// NewBalanceReconciliationJob compares every cached seller balance with the
// sum of its transaction log and records a critical audit row per mismatch.
func NewBalanceReconciliationJob(params BalanceReconciliationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	page := params.PageSize
	if page <= 0 {
		page = defaultReconcilePage
	}
	return &balanceReconciliationJob{
		logg:   params.Logger,
		ledger: params.Ledger,
		audit:  params.Audit,
		page:   page,
	}, nil
}

type balanceReconciliationJob struct {
	logg   *logger.Logger
	ledger balanceReconciler
	audit  audit.Recorder
	page   int
}

func (j *balanceReconciliationJob) Name() string { return "balance-reconciliation" }

func (j *balanceReconciliationJob) Run(ctx context.Context) error {
	var (
		errs       error
		checked    int
		mismatched int
		after      = uuid.Nil
	)
	for {
		ids, err := j.ledger.SellerIDs(ctx, after, j.page)
		if err != nil {
			return multierr.Append(errs, err)
		}
		for _, id := range ids {
			checked++
			ok, err := j.check(ctx, id)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("seller %s: %w", id, err))
				continue
			}
			if !ok {
				mismatched++
			}
		}
		if len(ids) < j.page {
			break
		}
		after = ids[len(ids)-1]
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"checked": checked, "mismatched": mismatched})
	if mismatched > 0 {
		j.logg.Warn(logCtx, "seller balances disagree with transaction log")
	} else {
		j.logg.Info(logCtx, "seller balances reconciled")
	}
	return errs
}

func (j *balanceReconciliationJob) check(ctx context.Context, sellerID uuid.UUID) (bool, error) {
	rec, err := j.ledger.Reconcile(ctx, sellerID)
	if err != nil {
		return false, err
	}
	if rec.Matches() {
		return true, nil
	}
	return false, j.audit.Record(ctx, nil, audit.Entry{
		ActorID:    audit.Actor(uuid.Nil),
		Action:     enums.AuditBalanceMismatch,
		TargetType: enums.AuditTargetSeller,
		TargetID:   sellerID.String(),
		Severity:   enums.AuditSeverityCritical,
		Details: map[string]any{
			"cached_available_cents": rec.Cached.AvailableCents,
			"cached_pending_cents":   rec.Cached.PendingCents,
			"cached_withdrawn_cents": rec.Cached.WithdrawnCents,
			"ledger_available_cents": rec.Ledger.AvailableCents,
			"ledger_pending_cents":   rec.Ledger.PendingCents,
			"ledger_withdrawn_cents": rec.Ledger.WithdrawnCents,
			"ledger_net_cents":       rec.Ledger.NetCents,
		},
	})
}
