// Package ledger owns seller balances. Balances only move through Credit,
// Debit and Transfer, and each call appends one seller transaction so the
// cached totals can always be rebuilt from the log.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/internal/audit"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

const maxVersionRetries = 3

// Posting describes the ledger entry written alongside a balance change.
type Posting struct {
	SellerID        uuid.UUID
	OrderID         *uuid.UUID
	Type            enums.SellerTransactionType
	GrossCents      int64
	CommissionCents int64
	Status          enums.SellerTransactionStatus
	Description     string
	// IdempotencyKey makes a retried business step a no-op.
	IdempotencyKey string
	ActorID        string
	// RequireFunds turns a short source balance into INSUFFICIENT_FUNDS
	// instead of clamping at zero.
	RequireFunds bool
}

// Result reports what a primitive did.
type Result struct {
	Transaction  *models.SellerTransaction
	Balance      models.SellerBalance
	Applied      bool
	FloorApplied bool
}

// Reconciliation compares the cached balance with the transaction log.
type Reconciliation struct {
	SellerID uuid.UUID
	Cached   models.SellerBalance
	Ledger   Totals
}

// Matches reports whether every cached field agrees with the log and the
// available+pending sum equals the summed net amounts.
func (r Reconciliation) Matches() bool {
	return r.Cached.AvailableCents == r.Ledger.AvailableCents &&
		r.Cached.PendingCents == r.Ledger.PendingCents &&
		r.Cached.WithdrawnCents == r.Ledger.WithdrawnCents &&
		r.Cached.AvailableCents+r.Cached.PendingCents == r.Ledger.NetCents
}

type ledgerMetrics interface {
	IncFloorApplied(field string)
	IncVersionConflict()
}

type ServiceParams struct {
	Repository Repository
	Audit      audit.Recorder
	Logger     *logger.Logger
	Metrics    ledgerMetrics
}

type Service struct {
	repo    Repository
	audit   audit.Recorder
	logg    *logger.Logger
	metrics ledgerMetrics
	locks   *sellerLocks
}

// NewService wires a ledger service with the provided repository.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		repo:    params.Repository,
		audit:   params.Audit,
		logg:    logg,
		metrics: params.Metrics,
		locks:   newSellerLocks(),
	}, nil
}

// Key joins the parts of a business step into an idempotency key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Credit adds amount to field.
func (s *Service) Credit(ctx context.Context, tx *gorm.DB, field enums.BalanceField, amount int64, p Posting) (*Result, error) {
	return s.apply(ctx, tx, p, amount, func(b *models.SellerBalance, entry *models.SellerTransaction) (enums.BalanceField, error) {
		if !field.IsValid() {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid balance field")
		}
		applyDelta(b, entry, field, amount)
		return "", nil
	})
}

// Debit subtracts amount from field, clamping at zero unless RequireFunds is set.
func (s *Service) Debit(ctx context.Context, tx *gorm.DB, field enums.BalanceField, amount int64, p Posting) (*Result, error) {
	return s.apply(ctx, tx, p, amount, func(b *models.SellerBalance, entry *models.SellerTransaction) (enums.BalanceField, error) {
		if !field.IsValid() {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid balance field")
		}
		actual, err := floorDebit(b.Field(field), amount, p.RequireFunds)
		if err != nil {
			return "", err
		}
		applyDelta(b, entry, field, -actual)
		return flooredIf(field, actual, amount), nil
	})
}

// Transfer moves amount from one field to another. The source is debited with
// the same floor as Debit and the destination receives only what was debited,
// so a clamped transfer never creates funds.
func (s *Service) Transfer(ctx context.Context, tx *gorm.DB, from, to enums.BalanceField, amount int64, p Posting) (*Result, error) {
	return s.apply(ctx, tx, p, amount, func(b *models.SellerBalance, entry *models.SellerTransaction) (enums.BalanceField, error) {
		if !from.IsValid() || !to.IsValid() || from == to {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid transfer fields")
		}
		actual, err := floorDebit(b.Field(from), amount, p.RequireFunds)
		if err != nil {
			return "", err
		}
		applyDelta(b, entry, from, -actual)
		applyDelta(b, entry, to, actual)
		return flooredIf(from, actual, amount), nil
	})
}

func floorDebit(current, amount int64, requireFunds bool) (int64, error) {
	if amount <= current {
		return amount, nil
	}
	if requireFunds {
		return 0, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient available balance").
			WithDetails(map[string]int64{"available_cents": current, "requested_cents": amount})
	}
	if current < 0 {
		current = 0
	}
	return current, nil
}

func flooredIf(field enums.BalanceField, actual, requested int64) enums.BalanceField {
	if actual < requested {
		return field
	}
	return ""
}

func applyDelta(b *models.SellerBalance, entry *models.SellerTransaction, field enums.BalanceField, delta int64) {
	b.Add(field, delta)
	switch field {
	case enums.BalanceAvailable:
		entry.AvailableDeltaCents += delta
	case enums.BalancePending:
		entry.PendingDeltaCents += delta
	case enums.BalanceWithdrawn:
		entry.WithdrawnDeltaCents += delta
	}
	entry.NetCents = entry.AvailableDeltaCents + entry.PendingDeltaCents
}

// mutation returns the field that was clamped, or "" when the debit was covered.
type mutation func(b *models.SellerBalance, entry *models.SellerTransaction) (enums.BalanceField, error)

func (s *Service) apply(ctx context.Context, tx *gorm.DB, p Posting, amount int64, mutate mutation) (*Result, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger mutation requires a transaction")
	}
	if err := validatePosting(p, amount); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	existing, err := repo.FindTransactionByKey(ctx, p.IdempotencyKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup seller transaction")
	}
	if existing != nil {
		balance, err := repo.FindBalance(ctx, p.SellerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller balance")
		}
		return &Result{Transaction: existing, Balance: *balance}, nil
	}

	unlock := s.locks.lock(p.SellerID)
	defer unlock()

	if err := repo.EnsureBalance(ctx, p.SellerID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure seller balance")
	}

	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		balance, err := repo.LockBalance(ctx, p.SellerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock seller balance")
		}
		before := *balance

		entry := newEntry(p)
		flooredField, err := mutate(balance, entry)
		if err != nil {
			return nil, err
		}
		floored := flooredField != ""
		entry.FloorApplied = floored

		ok, err := repo.UpdateBalance(ctx, balance, before.Version)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update seller balance")
		}
		if !ok {
			if s.metrics != nil {
				s.metrics.IncVersionConflict()
			}
			continue
		}

		if err := repo.CreateTransaction(ctx, entry); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seller transaction recorded concurrently")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append seller transaction")
		}

		if floored {
			if err := s.recordFloor(ctx, tx, p, flooredField, amount, before); err != nil {
				return nil, err
			}
		}
		return &Result{Transaction: entry, Balance: *balance, Applied: true, FloorApplied: floored}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "seller balance contention, retry")
}

func newEntry(p Posting) *models.SellerTransaction {
	status := p.Status
	if status == "" {
		status = enums.SellerTransactionStatusCompleted
	}
	return &models.SellerTransaction{
		SellerID:        p.SellerID,
		OrderID:         p.OrderID,
		Type:            p.Type,
		GrossCents:      p.GrossCents,
		CommissionCents: p.CommissionCents,
		Status:          status,
		Description:     p.Description,
		IdempotencyKey:  p.IdempotencyKey,
	}
}

func validatePosting(p Posting, amount int64) error {
	switch {
	case p.SellerID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	case amount <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	case !p.Type.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid seller transaction type %q", p.Type))
	case strings.TrimSpace(p.IdempotencyKey) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	return nil
}

func (s *Service) recordFloor(ctx context.Context, tx *gorm.DB, p Posting, field enums.BalanceField, requested int64, before models.SellerBalance) error {
	details := map[string]any{
		"seller_id":        p.SellerID,
		"transaction_type": p.Type,
		"field":            field,
		"requested_cents":  requested,
		"balance_cents":    before.Field(field),
		"idempotency_key":  p.IdempotencyKey,
	}
	if p.OrderID != nil {
		details["order_id"] = p.OrderID.String()
	}

	if s.metrics != nil {
		s.metrics.IncFloorApplied(string(field))
	}
	s.logg.Warn(s.logg.WithFields(ctx, details), "balance debit clamped at zero")

	return s.audit.Record(ctx, tx, audit.Entry{
		ActorID:    p.ActorID,
		Action:     enums.AuditBalanceFloorApplied,
		TargetType: enums.AuditTargetSeller,
		TargetID:   p.SellerID.String(),
		Severity:   enums.AuditSeverityWarning,
		Details:    details,
	})
}

// Balance returns the cached totals for a seller, zero when none exist yet.
func (s *Service) Balance(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error) {
	balance, err := s.repo.FindBalance(ctx, sellerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.SellerBalance{SellerID: sellerID}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller balance")
	}
	return balance, nil
}

// Transactions lists the most recent ledger entries for a seller.
func (s *Service) Transactions(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.SellerTransaction, error) {
	rows, err := s.repo.ListTransactions(ctx, sellerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller transactions")
	}
	return rows, nil
}

// Reconcile compares the cached balance with the transaction log.
func (s *Service) Reconcile(ctx context.Context, sellerID uuid.UUID) (*Reconciliation, error) {
	balance, err := s.Balance(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.SumTransactions(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum seller transactions")
	}
	return &Reconciliation{SellerID: sellerID, Cached: *balance, Ledger: totals}, nil
}

// SellerIDs pages through every seller with a balance row.
func (s *Service) SellerIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	ids, err := s.repo.ListSellerIDs(ctx, after, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sellers")
	}
	return ids, nil
}
