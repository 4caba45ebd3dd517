// Package withdrawals implements the admin approval workflow that moves a
// seller's available funds out of the platform.
package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/internal/audit"
	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	"github.com/angelmondragon/packfinderz-settlement/internal/notifications"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox/payloads"
)

const (
	maxPendingList      = 500
	payoutReferenceSize = 16
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type adminVerifier interface {
	VerifyAdmin(ctx context.Context, userID uuid.UUID) error
}

type balanceTransferer interface {
	Transfer(ctx context.Context, tx *gorm.DB, from, to enums.BalanceField, amount int64, p ledger.Posting) (*ledger.Result, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type withdrawalMetrics interface {
	IncWithdrawal(result string)
}

type ServiceParams struct {
	TxRunner   txRunner
	Repository Repository
	Gate       adminVerifier
	Ledger     balanceTransferer
	Audit      audit.Recorder
	Notifier   notifications.Notifier
	Outbox     eventEmitter
	Metrics    withdrawalMetrics
	Logger     *logger.Logger
	Clock      func() time.Time
}

type Service struct {
	tx       txRunner
	repo     Repository
	gate     adminVerifier
	ledger   balanceTransferer
	audit    audit.Recorder
	notifier notifications.Notifier
	outbox   eventEmitter
	metrics  withdrawalMetrics
	logg     *logger.Logger
	now      func() time.Time
	newRef   func() string
}

// ProcessInput is one admin decision.
type ProcessInput struct {
	RequestID uuid.UUID
	AdminID   uuid.UUID
	Action    string
	Reason    string
}

// ProcessResult is returned to the admin after a decision commits.
type ProcessResult struct {
	Request *models.WithdrawalRequest `json:"request"`
	Balance *models.SellerBalance     `json:"balance,omitempty"`
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.TxRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Repository == nil:
		return nil, fmt.Errorf("withdrawal repository required")
	case params.Gate == nil:
		return nil, fmt.Errorf("admin gate required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit recorder required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	gen, err := nanoid.Standard(payoutReferenceSize)
	if err != nil {
		return nil, fmt.Errorf("payout reference generator: %w", err)
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
		gate:     params.Gate,
		ledger:   params.Ledger,
		audit:    params.Audit,
		notifier: params.Notifier,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     logg,
		now:      clock,
		newRef:   func() string { return "wd_" + gen() },
	}, nil
}

// ListPending returns every pending request, oldest first.
func (s *Service) ListPending(ctx context.Context, adminID uuid.UUID) ([]models.WithdrawalRequest, error) {
	if err := s.gate.VerifyAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPending(ctx, maxPendingList)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending withdrawals")
	}
	return rows, nil
}

// Process approves or rejects a pending request. Approval moves the amount
// from available to withdrawn and fails with INSUFFICIENT_FUNDS, leaving the
// request pending, when the seller cannot cover it.
func (s *Service) Process(ctx context.Context, input ProcessInput) (*ProcessResult, error) {
	if err := s.gate.VerifyAdmin(ctx, input.AdminID); err != nil {
		return nil, err
	}
	action, err := enums.ParseWithdrawalAction(input.Action)
	if err != nil {
		err = pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal action")
		s.recordFailure(ctx, input, err)
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"withdrawal_id": input.RequestID.String(), "action": action})

	var (
		req     *models.WithdrawalRequest
		balance *models.SellerBalance
	)
	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var lockErr error
		req, lockErr = repo.LockByID(ctx, input.RequestID)
		if lockErr != nil {
			if errors.Is(lockErr, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, lockErr, "load withdrawal request")
		}
		if req.Status != enums.WithdrawalStatusPending {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "withdrawal request already processed").
				WithDetails(map[string]any{"status": req.Status})
		}

		auditAction := enums.AuditWithdrawalRejected
		switch action {
		case enums.WithdrawalActionApprove:
			res, err := s.ledger.Transfer(ctx, tx, enums.BalanceAvailable, enums.BalanceWithdrawn, req.AmountCents, ledger.Posting{
				SellerID:       req.SellerID,
				Type:           enums.SellerTransactionWithdrawal,
				GrossCents:     req.AmountCents,
				Description:    fmt.Sprintf("withdrawal via %s", req.Method),
				IdempotencyKey: ledger.Key("withdrawal", req.ID.String(), "approve"),
				ActorID:        audit.Actor(input.AdminID),
				RequireFunds:   true,
			})
			if err != nil {
				return err
			}
			balance = &res.Balance
			ref := s.newRef()
			req.Status = enums.WithdrawalStatusCompleted
			req.PayoutReference = &ref
			auditAction = enums.AuditWithdrawalApproved
		case enums.WithdrawalActionReject:
			req.Status = enums.WithdrawalStatusRejected
			if reason := strings.TrimSpace(input.Reason); reason != "" {
				req.RejectionReason = &reason
			}
		}
		req.ProcessedBy = &input.AdminID
		req.ProcessedAt = &now
		if err := repo.Save(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save withdrawal request")
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    audit.Actor(input.AdminID),
			Action:     auditAction,
			TargetType: enums.AuditTargetWithdrawal,
			TargetID:   req.ID.String(),
			Details: map[string]any{
				"seller_id":    req.SellerID,
				"amount_cents": req.AmountCents,
				"method":       req.Method,
				"reason":       input.Reason,
			},
		}); err != nil {
			return err
		}

		event := payloads.WithdrawalProcessedEvent{
			WithdrawalID: req.ID,
			SellerID:     req.SellerID,
			AdminID:      input.AdminID,
			Status:       req.Status,
			AmountCents:  req.AmountCents,
		}
		if req.PayoutReference != nil {
			event.PayoutReference = *req.PayoutReference
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalProcessed,
			AggregateType: enums.AggregateWithdrawalRequest,
			AggregateID:   req.ID,
			Actor:         &outbox.ActorRef{UserID: input.AdminID, Role: enums.UserRoleAdmin.String()},
			OccurredAt:    now,
			Data:          event,
		})
	})
	if err != nil {
		s.recordFailure(ctx, input, err)
		return nil, err
	}

	s.observe(string(req.Status))
	s.notifySeller(ctx, req)
	return &ProcessResult{Request: req, Balance: balance}, nil
}

// recordFailure keeps a trail of refused approvals. The decision transaction
// has rolled back, so the row is written on its own.
func (s *Service) recordFailure(ctx context.Context, input ProcessInput, cause error) {
	if pkgerrors.IsCode(cause, pkgerrors.CodeNotFound) {
		s.observe("not_found")
		return
	}
	s.observe("failed")
	severity := enums.AuditSeverityInfo
	if pkgerrors.IsCode(cause, pkgerrors.CodeInsufficientFunds) {
		severity = enums.AuditSeverityWarning
	}
	details := map[string]any{"action": input.Action, "error": cause.Error()}
	if typed := pkgerrors.As(cause); typed != nil {
		details["code"] = typed.Code()
	}
	if err := s.audit.Record(ctx, nil, audit.Entry{
		ActorID:    audit.Actor(input.AdminID),
		Action:     enums.AuditWithdrawalFailed,
		TargetType: enums.AuditTargetWithdrawal,
		TargetID:   input.RequestID.String(),
		Severity:   severity,
		Details:    details,
	}); err != nil {
		s.logg.Error(ctx, "failed to audit withdrawal failure", err)
	}
}

func (s *Service) observe(result string) {
	if s.metrics != nil {
		s.metrics.IncWithdrawal(result)
	}
}

func (s *Service) notifySeller(ctx context.Context, req *models.WithdrawalRequest) {
	if s.notifier == nil {
		return
	}
	message := fmt.Sprintf("Your withdrawal of $%d.%02d was approved.", req.AmountCents/100, req.AmountCents%100)
	if req.Status == enums.WithdrawalStatusRejected {
		message = fmt.Sprintf("Your withdrawal of $%d.%02d was rejected.", req.AmountCents/100, req.AmountCents%100)
		if req.RejectionReason != nil {
			message += " Reason: " + *req.RejectionReason
		}
	}
	if err := s.notifier.Notify(ctx, notifications.NotifyInput{
		UserID:  req.SellerID,
		Type:    enums.NotificationWithdrawalProcessed,
		Title:   "Withdrawal " + string(req.Status),
		Message: message,
		Data:    map[string]any{"withdrawal_id": req.ID, "status": req.Status},
	}); err != nil {
		s.logg.Error(ctx, "withdrawal notification failed", err)
	}
}
