// Package admin implements the privileged console operations. Every entry
// point passes the admin gate before touching storage.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/internal/audit"
	"github.com/angelmondragon/packfinderz-settlement/internal/notifications"
	"github.com/angelmondragon/packfinderz-settlement/internal/users"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

const (
	maxRevenuePeriodDays = 366
	activityLimit        = 50
)

var hundred = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type adminVerifier interface {
	VerifyAdmin(ctx context.Context, userID uuid.UUID) error
}

type auditReader interface {
	audit.Recorder
	ListByTarget(ctx context.Context, targetType enums.AuditTargetType, targetID string, limit int) ([]models.AuditLog, error)
	ListByActor(ctx context.Context, actorID string, limit int) ([]models.AuditLog, error)
	ListAnomalies(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type balanceReader interface {
	Balance(ctx context.Context, sellerID uuid.UUID) (*models.SellerBalance, error)
}

type ServiceParams struct {
	TxRunner   txRunner
	Repository Repository
	Users      *users.Repository
	Gate       adminVerifier
	Audit      auditReader
	Balances   balanceReader
	Notifier   notifications.Notifier
	Logger     *logger.Logger
	Clock      func() time.Time
}

type Service struct {
	tx       txRunner
	repo     Repository
	users    *users.Repository
	gate     adminVerifier
	audit    auditReader
	balances balanceReader
	notifier notifications.Notifier
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.TxRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Repository == nil:
		return nil, fmt.Errorf("admin repository required")
	case params.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case params.Gate == nil:
		return nil, fmt.Errorf("admin gate required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit service required")
	case params.Balances == nil:
		return nil, fmt.Errorf("balance reader required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		tx:       params.TxRunner,
		repo:     params.Repository,
		users:    params.Users,
		gate:     params.Gate,
		audit:    params.Audit,
		balances: params.Balances,
		notifier: params.Notifier,
		logg:     logg,
		now:      clock,
	}, nil
}

// Dollars renders cents as a two-decimal currency amount.
func Dollars(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// PlatformStats returns the dashboard summary.
func (s *Service) PlatformStats(ctx context.Context, adminID uuid.UUID) (*PlatformStats, error) {
	if err := s.gate.VerifyAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	userCounts, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}
	byStatus, err := s.repo.OrderCountsByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	pendingCount, pendingCents, err := s.repo.PendingWithdrawals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum pending withdrawals")
	}
	available, pending, withdrawn, err := s.repo.BalanceTotals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum seller balances")
	}
	return &PlatformStats{
		Users:                  userCounts,
		OrdersByStatus:         byStatus,
		OpenDisputes:           byStatus[enums.OrderStatusDisputeOpened],
		PendingWithdrawals:     pendingCount,
		PendingWithdrawalTotal: Dollars(pendingCents),
		SellerAvailableTotal:   Dollars(available),
		SellerPendingTotal:     Dollars(pending),
		SellerWithdrawnTotal:   Dollars(withdrawn),
	}, nil
}

// PlatformRevenue reports fees earned on orders paid in the last periodDays.
func (s *Service) PlatformRevenue(ctx context.Context, adminID uuid.UUID, periodDays int) (*RevenueReport, error) {
	if err := s.gate.VerifyAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if periodDays <= 0 || periodDays > maxRevenuePeriodDays {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("period must be between 1 and %d days", maxRevenuePeriodDays))
	}
	to := s.now()
	from := to.AddDate(0, 0, -periodDays)
	totals, err := s.repo.RevenueSince(ctx, from)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}

	gross := decimal.New(totals.GrossCents, -2)
	fees := decimal.New(totals.PlatformFeeCents, -2)
	takeRate := decimal.Zero
	avg := decimal.Zero
	if !gross.IsZero() {
		takeRate = fees.Div(gross).Mul(hundred)
	}
	if totals.OrderCount > 0 {
		avg = gross.Div(decimal.NewFromInt(totals.OrderCount))
	}
	return &RevenueReport{
		PeriodDays:    periodDays,
		From:          from,
		To:            to,
		OrderCount:    totals.OrderCount,
		Gross:         gross.StringFixed(2),
		PlatformFees:  fees.StringFixed(2),
		Refunded:      Dollars(totals.RefundedCents),
		NetRevenue:    fees.StringFixed(2),
		TakeRatePct:   takeRate.StringFixed(2),
		AvgOrderValue: avg.StringFixed(2),
	}, nil
}

// ReviewSellerApplication approves or rejects a pending application. An
// approval promotes a buyer account to seller.
func (s *Service) ReviewSellerApplication(ctx context.Context, input ReviewApplicationInput) (*models.SellerApplication, error) {
	if err := s.gate.VerifyAdmin(ctx, input.AdminID); err != nil {
		return nil, err
	}
	decision, err := enums.ParseReviewDecision(input.Decision)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid review decision")
	}

	var app *models.SellerApplication
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var lockErr error
		app, lockErr = repo.LockApplication(ctx, input.ApplicationID)
		if lockErr != nil {
			return notFoundOr(lockErr, "seller application")
		}
		if app.Status != enums.SellerApplicationPending {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "seller application already reviewed").
				WithDetails(map[string]any{"status": app.Status})
		}
		now := s.now()
		app.Status = enums.SellerApplicationRejected
		if decision == enums.ReviewApprove {
			app.Status = enums.SellerApplicationApproved
		}
		app.ReviewedBy = &input.AdminID
		app.ReviewedAt = &now
		if notes := strings.TrimSpace(input.Notes); notes != "" {
			app.ReviewNotes = &notes
		}
		if err := repo.SaveApplication(ctx, app); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save seller application")
		}
		if decision == enums.ReviewApprove {
			if err := repo.PromoteToSeller(ctx, app.UserID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote user to seller")
			}
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    audit.Actor(input.AdminID),
			Action:     enums.AuditSellerApplication,
			TargetType: enums.AuditTargetSellerApplication,
			TargetID:   app.ID.String(),
			Details:    map[string]any{"decision": decision, "user_id": app.UserID, "notes": input.Notes},
		})
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// ModerateProduct approves, rejects or removes a listing.
func (s *Service) ModerateProduct(ctx context.Context, input ModerateProductInput) (*models.Product, error) {
	if err := s.gate.VerifyAdmin(ctx, input.AdminID); err != nil {
		return nil, err
	}
	action, err := enums.ParseModerationAction(input.Action)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid moderation action")
	}

	var product *models.Product
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var lockErr error
		product, lockErr = repo.LockProduct(ctx, input.ProductID)
		if lockErr != nil {
			return notFoundOr(lockErr, "product")
		}
		if product.Status == enums.ProductStatusRemoved {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "product was removed")
		}
		from := product.Status
		now := s.now()
		product.Status = action.ResultingStatus()
		product.ModeratedBy = &input.AdminID
		product.ModeratedAt = &now
		if note := strings.TrimSpace(input.Note); note != "" {
			product.ModerationNote = &note
		}
		if err := repo.SaveProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    audit.Actor(input.AdminID),
			Action:     enums.AuditProductModerated,
			TargetType: enums.AuditTargetProduct,
			TargetID:   product.ID.String(),
			Details:    map[string]any{"action": action, "from": from, "to": product.Status, "note": input.Note},
		})
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// SuspendUser blocks an account. Admins cannot suspend themselves.
func (s *Service) SuspendUser(ctx context.Context, input SuspensionInput) (*models.User, error) {
	if err := s.gate.VerifyAdmin(ctx, input.AdminID); err != nil {
		return nil, err
	}
	if input.UserID == input.AdminID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admins cannot suspend themselves")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "suspension reason is required")
	}
	user, err := s.setSuspension(ctx, input, true, reason)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		if nerr := s.notifier.Notify(ctx, notifications.NotifyInput{
			UserID:  user.ID,
			Type:    enums.NotificationAccountSuspended,
			Title:   "Account suspended",
			Message: "Your account has been suspended: " + reason,
		}); nerr != nil {
			s.logg.Error(ctx, "suspension notification failed", nerr)
		}
	}
	return user, nil
}

// UnsuspendUser reinstates a suspended account.
func (s *Service) UnsuspendUser(ctx context.Context, input SuspensionInput) (*models.User, error) {
	if err := s.gate.VerifyAdmin(ctx, input.AdminID); err != nil {
		return nil, err
	}
	return s.setSuspension(ctx, input, false, strings.TrimSpace(input.Reason))
}

func (s *Service) setSuspension(ctx context.Context, input SuspensionInput, suspend bool, reason string) (*models.User, error) {
	var user *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var lockErr error
		user, lockErr = repo.LockUser(ctx, input.UserID)
		if lockErr != nil {
			return notFoundOr(lockErr, "user")
		}
		action := enums.AuditUserUnsuspended
		if suspend {
			if user.Status == enums.UserStatusSuspended {
				return pkgerrors.New(pkgerrors.CodeInvalidState, "user already suspended")
			}
			now := s.now()
			user.Status = enums.UserStatusSuspended
			user.SuspendedAt = &now
			user.SuspensionReason = &reason
			action = enums.AuditUserSuspended
		} else {
			if user.Status != enums.UserStatusSuspended {
				return pkgerrors.New(pkgerrors.CodeInvalidState, "user is not suspended")
			}
			user.Status = enums.UserStatusActive
			user.SuspendedAt = nil
			user.SuspensionReason = nil
		}
		if err := repo.SaveUser(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save user")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    audit.Actor(input.AdminID),
			Action:     action,
			TargetType: enums.AuditTargetUser,
			TargetID:   user.ID.String(),
			Details:    map[string]any{"reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UserActivity returns order counts, balance and audit history for a user.
func (s *Service) UserActivity(ctx context.Context, adminID, userID uuid.UUID, limit int) (*UserActivity, error) {
	if err := s.gate.VerifyAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > activityLimit {
		limit = activityLimit
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	asBuyer, asSeller, err := s.repo.OrderCounts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count user orders")
	}
	actions, err := s.audit.ListByActor(ctx, userID.String(), limit)
	if err != nil {
		return nil, err
	}
	history, err := s.audit.ListByTarget(ctx, enums.AuditTargetUser, userID.String(), limit)
	if err != nil {
		return nil, err
	}
	activity := &UserActivity{
		User:           user,
		OrdersAsBuyer:  asBuyer,
		OrdersAsSeller: asSeller,
		RecentActions:  actions,
		History:        history,
	}
	if user.Role == enums.UserRoleSeller {
		bal, err := s.balances.Balance(ctx, userID)
		if err != nil {
			return nil, err
		}
		activity.Balance = &BalanceView{
			Available: Dollars(bal.AvailableCents),
			Pending:   Dollars(bal.PendingCents),
			Withdrawn: Dollars(bal.WithdrawnCents),
		}
	}
	return activity, nil
}

// AuditTrail returns the log for one target, oldest first.
func (s *Service) AuditTrail(ctx context.Context, adminID uuid.UUID, targetType, targetID string, limit int) ([]models.AuditLog, error) {
	if err := s.gate.VerifyAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.audit.ListByTarget(ctx, enums.AuditTargetType(targetType), targetID, limit)
}

// Anomalies returns warning and critical audit rows.
func (s *Service) Anomalies(ctx context.Context, adminID uuid.UUID, limit int) ([]models.AuditLog, error) {
	if err := s.gate.VerifyAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.audit.ListAnomalies(ctx, limit)
}

func notFoundOr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}
