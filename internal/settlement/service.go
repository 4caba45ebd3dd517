// Package settlement applies verified processor events to orders, seller
// balances, stock and payouts. Each event commits as one transaction.
package settlement

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/internal/audit"
	"github.com/angelmondragon/packfinderz-settlement/internal/inventory"
	"github.com/angelmondragon/packfinderz-settlement/internal/ledger"
	"github.com/angelmondragon/packfinderz-settlement/internal/notifications"
	"github.com/angelmondragon/packfinderz-settlement/internal/orders"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	dbtypes "github.com/angelmondragon/packfinderz-settlement/pkg/db/types"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/metrics"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerPoster interface {
	Credit(ctx context.Context, tx *gorm.DB, field enums.BalanceField, amount int64, p ledger.Posting) (*ledger.Result, error)
	Debit(ctx context.Context, tx *gorm.DB, field enums.BalanceField, amount int64, p ledger.Posting) (*ledger.Result, error)
	Transfer(ctx context.Context, tx *gorm.DB, from, to enums.BalanceField, amount int64, p ledger.Posting) (*ledger.Result, error)
}

type stockRestorer interface {
	RestoreStock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []inventory.Item, reason enums.StockRestoreReason) (bool, error)
}

type ServiceParams struct {
	TxRunner txRunner
	Orders   orders.Repository
	Payouts  PayoutRepository
	Accounts AccountRepository
	Ledger   ledgerPoster
	Stock    stockRestorer
	Audit    audit.Recorder
	Notifier notifications.Notifier
	Outbox   eventEmitter
	Logger   *logger.Logger
	Clock    func() time.Time
}

// Service holds one handler per event type.
type Service struct {
	tx       txRunner
	orders   orders.Repository
	payouts  PayoutRepository
	accounts AccountRepository
	ledger   ledgerPoster
	stock    stockRestorer
	audit    audit.Recorder
	notifier notifications.Notifier
	outbox   eventEmitter
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.TxRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Payouts == nil:
		return nil, fmt.Errorf("payout repository required")
	case params.Accounts == nil:
		return nil, fmt.Errorf("account repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger required")
	case params.Stock == nil:
		return nil, fmt.Errorf("stock restorer required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit recorder required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
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
		orders:   params.Orders,
		payouts:  params.Payouts,
		accounts: params.Accounts,
		ledger:   params.Ledger,
		stock:    params.Stock,
		audit:    params.Audit,
		notifier: params.Notifier,
		outbox:   params.Outbox,
		logg:     logg,
		now:      clock,
	}, nil
}

// result collects what a handler did inside its transaction. Notifications
// are only sent once the transaction has committed.
type result struct {
	outcome string
	notes   []notifications.NotifyInput
}

func newResult() *result {
	return &result{outcome: metrics.OutcomeNoop}
}

func (r *result) applied() { r.outcome = metrics.OutcomeApplied }

func (r *result) notify(input notifications.NotifyInput) {
	if input.UserID == uuid.Nil {
		return
	}
	r.notes = append(r.notes, input)
}

func (s *Service) finish(ctx context.Context, res *result, err error) (string, error) {
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	if s.notifier != nil {
		for _, note := range res.notes {
			if nerr := s.notifier.Notify(ctx, note); nerr != nil {
				s.logg.Error(s.logg.WithField(ctx, "notification_type", note.Type), "settlement notification failed", nerr)
			}
		}
	}
	return res.outcome, nil
}

func (s *Service) noop(ctx context.Context, reason string) {
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"outcome": metrics.OutcomeNoop, "reason": reason}), "event skipped")
}

func malformed(ev Event) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "event payload missing").
		WithDetails(map[string]any{"event_id": ev.ID, "type": ev.RawType})
}

func (s *Service) lockOrder(ctx context.Context, tx *gorm.DB, keys orders.LookupKeys) (*models.Order, error) {
	order, via, err := orders.Locate(ctx, s.orders.WithTx(tx), keys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "locate order by "+via)
	}
	if order != nil && via != "order_id" {
		s.logg.Info(s.logg.WithField(ctx, "lookup", via), "order located by secondary key")
	}
	return order, nil
}

func (s *Service) saveTransition(ctx context.Context, tx *gorm.DB, order *models.Order, from enums.OrderStatus, event orders.Event) error {
	if err := s.orders.WithTx(tx).Save(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}
	return s.audit.Record(ctx, tx, orders.TransitionEntry(models.SystemActor, order.ID, from, order.Status, event))
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, ev Event, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, id uuid.UUID, data any) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   id,
		SourceEvent:   ev.ID,
		OccurredAt:    s.now(),
		Data:          data,
	})
}

func orderKey(order *models.Order, step ...string) string {
	return ledger.Key(append([]string{"order", order.ID.String()}, step...)...)
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, ev Event) (string, error) {
	d := ev.Payment
	if d == nil {
		return metrics.OutcomeRejected, malformed(ev)
	}
	res := newResult()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, orders.LookupKeys{OrderID: d.OrderID, PaymentIntentID: d.PaymentIntentID, ChargeID: d.ChargeID})
		if err != nil {
			return err
		}
		if order == nil {
			s.noop(ctx, "order not found")
			return nil
		}
		from := order.Status
		effects, ok := orders.ApplyTransition(order, orders.EventPaymentSucceeded)
		if !ok {
			s.noop(ctx, "order already past payment")
			return nil
		}

		now := s.now()
		order.PaidAt = &now
		if d.PaymentIntentID != "" && order.PaymentIntentID == nil {
			order.PaymentIntentID = &d.PaymentIntentID
		}
		if d.ChargeID != "" && order.ChargeID == nil {
			order.ChargeID = &d.ChargeID
		}
		charged := d.AmountCents
		if charged <= 0 {
			charged = order.TotalCents
		}
		if d.FeeCents != nil {
			order.PlatformFeeCents = *d.FeeCents
		}
		order.SellerEarningsCents = max(charged-order.PlatformFeeCents, 0)

		if err := s.saveTransition(ctx, tx, order, from, orders.EventPaymentSucceeded); err != nil {
			return err
		}
		if orders.HasEffect(effects, orders.EffectCreditSeller) && order.SellerEarningsCents > 0 {
			if _, err := s.ledger.Credit(ctx, tx, enums.BalanceAvailable, order.SellerEarningsCents, ledger.Posting{
				SellerID:        order.SellerID,
				OrderID:         &order.ID,
				Type:            enums.SellerTransactionPayout,
				GrossCents:      charged,
				CommissionCents: order.PlatformFeeCents,
				Description:     "order " + order.OrderNumber + " paid",
				IdempotencyKey:  orderKey(order, "payment_succeeded"),
			}); err != nil {
				return err
			}
		}
		if err := s.emit(ctx, tx, ev, enums.EventOrderPaid, enums.AggregateOrder, order.ID, payloads.OrderPaidEvent{
			OrderID:             order.ID,
			SellerID:            order.SellerID,
			BuyerID:             order.BuyerID,
			TotalCents:          charged,
			PlatformFeeCents:    order.PlatformFeeCents,
			SellerEarningsCents: order.SellerEarningsCents,
			PaidAt:              now,
		}); err != nil {
			return err
		}

		res.applied()
		res.notify(notifications.NotifyInput{
			UserID:  order.SellerID,
			Type:    enums.NotificationOrderPaid,
			Title:   "New paid order",
			Message: fmt.Sprintf("Order %s was paid. Please prepare it for shipment.", order.OrderNumber),
			Data:    map[string]any{"order_id": order.ID, "earnings_cents": order.SellerEarningsCents},
		})
		return nil
	})
	return s.finish(ctx, res, err)
}

func (s *Service) handlePaymentFailed(ctx context.Context, ev Event) (string, error) {
	d := ev.Payment
	if d == nil {
		return metrics.OutcomeRejected, malformed(ev)
	}
	res := newResult()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, orders.LookupKeys{OrderID: d.OrderID, PaymentIntentID: d.PaymentIntentID, ChargeID: d.ChargeID})
		if err != nil {
			return err
		}
		if order == nil {
			s.noop(ctx, "order not found")
			return nil
		}
		if order.Status != enums.OrderStatusPending {
			s.noop(ctx, "payment failure after order left pending")
			return nil
		}
		now := s.now()
		message := d.FailureMessage
		if message == "" {
			message = "payment failed"
		}
		order.PaymentFailedAt = &now
		order.PaymentFailureMessage = &message
		if d.PaymentIntentID != "" && order.PaymentIntentID == nil {
			order.PaymentIntentID = &d.PaymentIntentID
		}
		if err := s.orders.WithTx(tx).Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		res.applied()
		return s.audit.Record(ctx, tx, audit.Entry{
			Action:     enums.AuditWebhookProcessed,
			TargetType: enums.AuditTargetOrder,
			TargetID:   order.ID.String(),
			Details:    map[string]any{"event_id": ev.ID, "type": ev.Type, "failure_message": message},
		})
	})
	return s.finish(ctx, res, err)
}

func (s *Service) handleTransferCreated(ctx context.Context, ev Event) (string, error) {
	d := ev.Transfer
	if d == nil || d.TransferID == "" {
		return metrics.OutcomeRejected, malformed(ev)
	}
	res := newResult()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payouts := s.payouts.WithTx(tx)
		existing, err := payouts.LockByTransferID(ctx, d.TransferID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}
		if existing != nil {
			if existing.Status != enums.PayoutStatusPending {
				s.noop(ctx, "transfer already tracked")
				return nil
			}
			existing.Status = enums.PayoutStatusProcessing
			if err := payouts.Save(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payout")
			}
			res.applied()
			return nil
		}

		sellerID := d.SellerID
		var orderID *uuid.UUID
		if d.OrderID != uuid.Nil {
			order, err := s.lockOrder(ctx, tx, orders.LookupKeys{OrderID: d.OrderID})
			if err != nil {
				return err
			}
			if order != nil {
				orderID = &order.ID
				if sellerID == uuid.Nil {
					sellerID = order.SellerID
				}
			}
		}
		if sellerID == uuid.Nil {
			sellerID, err = sellerFromAccount(ctx, s.accounts.WithTx(tx), d.DestinationAccount)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve seller account")
			}
		}
		if sellerID == uuid.Nil {
			s.noop(ctx, "transfer destination is not a known seller")
			return nil
		}

		currency := d.Currency
		if currency == "" {
			currency = "usd"
		}
		transferID := d.TransferID
		created, err := payouts.Create(ctx, &models.Payout{
			SellerID:    sellerID,
			OrderID:     orderID,
			TransferID:  &transferID,
			AmountCents: d.AmountCents,
			Currency:    currency,
			Status:      enums.PayoutStatusProcessing,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
		}
		if created {
			res.applied()
		}
		return nil
	})
	return s.finish(ctx, res, err)
}

func (s *Service) handleTransferReversed(ctx context.Context, ev Event) (string, error) {
	d := ev.Transfer
	if d == nil || d.TransferID == "" {
		return metrics.OutcomeRejected, malformed(ev)
	}
	res := newResult()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payouts := s.payouts.WithTx(tx)
		payout, err := payouts.LockByTransferID(ctx, d.TransferID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}
		if payout == nil {
			s.noop(ctx, "reversal for unknown transfer")
			return nil
		}
		delta := d.ReversedCents - payout.ReversedCents
		if delta <= 0 {
			s.noop(ctx, "reversal already applied")
			return nil
		}
		payout.ReversedCents = d.ReversedCents
		payout.Status = enums.PayoutStatusReversed
		if err := payouts.Save(ctx, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payout")
		}

		// Pending gets the full reversed amount even when total_withdrawn
		// floors, so the two sides post separately.
		reversalKey := ledger.Key("transfer", d.TransferID, "reversed", strconv.FormatInt(d.ReversedCents, 10))
		if _, err := s.ledger.Credit(ctx, tx, enums.BalancePending, delta, ledger.Posting{
			SellerID:       payout.SellerID,
			OrderID:        payout.OrderID,
			Type:           enums.SellerTransactionReversal,
			GrossCents:     delta,
			Status:         enums.SellerTransactionStatusHeld,
			Description:    "transfer " + d.TransferID + " reversed",
			IdempotencyKey: ledger.Key(reversalKey, "pending"),
		}); err != nil {
			return err
		}
		if _, err := s.ledger.Debit(ctx, tx, enums.BalanceWithdrawn, delta, ledger.Posting{
			SellerID:       payout.SellerID,
			OrderID:        payout.OrderID,
			Type:           enums.SellerTransactionReversal,
			GrossCents:     delta,
			Status:         enums.SellerTransactionStatusCompleted,
			Description:    "transfer " + d.TransferID + " reversed",
			IdempotencyKey: ledger.Key(reversalKey, "withdrawn"),
		}); err != nil {
			return err
		}
		if err := s.emit(ctx, tx, ev, enums.EventTransferReversed, enums.AggregatePayout, payout.ID, payloads.TransferReversedEvent{
			PayoutID:      payout.ID,
			SellerID:      payout.SellerID,
			TransferID:    d.TransferID,
			ReversedCents: delta,
		}); err != nil {
			return err
		}
		res.applied()
		return nil
	})
	return s.finish(ctx, res, err)
}

func (s *Service) handlePayoutFailed(ctx context.Context, ev Event) (string, error) {
	d := ev.Payout
	if d == nil {
		return metrics.OutcomeRejected, malformed(ev)
	}
	res := newResult()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sellerID := d.SellerID
		if sellerID == uuid.Nil {
			var err error
			sellerID, err = sellerFromAccount(ctx, s.accounts.WithTx(tx), d.Account)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve seller account")
			}
		}
		if sellerID == uuid.Nil {
			s.noop(ctx, "payout for unknown seller")
			return nil
		}
		reason := d.FailureMessage
		if reason == "" {
			reason = d.FailureCode
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Action:     enums.AuditWebhookProcessed,
			TargetType: enums.AuditTargetSeller,
			TargetID:   sellerID.String(),
			Severity:   enums.AuditSeverityWarning,
			Details:    map[string]any{"event_id": ev.ID, "type": ev.Type, "payout_id": d.PayoutID, "failure_code": d.FailureCode, "reason": reason},
		}); err != nil {
			return err
		}
		res.applied()
		res.notify(notifications.NotifyInput{
			UserID:  sellerID,
			Type:    enums.NotificationPayoutFailed,
			Title:   "Payout failed",
			Message: "A payout to your bank account failed: " + reason,
			Data:    map[string]any{"payout_id": d.PayoutID, "amount_cents": d.AmountCents, "failure_code": d.FailureCode},
		})
		return nil
	})
	return s.finish(ctx, res, err)
}

func (s *Service) handleChargeRefunded(ctx context.Context, ev Event) (string, error) {
	d := ev.Charge
	if d == nil {
		return metrics.OutcomeRejected, malformed(ev)
	}
	res := newResult()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, orders.LookupKeys{OrderID: d.OrderID, PaymentIntentID: d.PaymentIntentID, ChargeID: d.ChargeID})
		if err != nil {
			return err
		}
		if order == nil {
			s.noop(ctx, "order not found")
			return nil
		}
		refund := d.AmountRefundedCents
		if refund <= 0 {
			s.noop(ctx, "charge carries no refunded amount")
			return nil
		}
		charged := d.AmountCents
		if charged <= 0 {
			charged = order.TotalCents
		}
		event := orders.EventRefundPartial
		if d.FullyRefunded || refund >= charged {
			event = orders.EventRefundFull
		}

		from := order.Status
		effects, ok := orders.ApplyTransition(order, event)
		if !ok {
			if from == enums.OrderStatusPartialRefund && refund > order.RefundAmountCents {
				// A later, larger cumulative refund on a partially refunded
				// order is not settled automatically.
				res.outcome = metrics.OutcomeRejected
				return s.audit.Record(ctx, tx, audit.Entry{
					Action:     enums.AuditOrderAnomaly,
					TargetType: enums.AuditTargetOrder,
					TargetID:   order.ID.String(),
					Severity:   enums.AuditSeverityCritical,
					Details: map[string]any{
						"event_id":             ev.ID,
						"status":               order.Status,
						"refunded_cents":       order.RefundAmountCents,
						"event_refunded_cents": refund,
						"fully_refunded":       event == orders.EventRefundFull,
						"reason":               "refund escalation on partially refunded order",
					},
				})
			}
			s.noop(ctx, "refund not allowed in current state")
			return nil
		}
		now := s.now()
		order.RefundAmountCents = refund
		order.RefundedAt = &now
		if err := s.saveTransition(ctx, tx, order, from, event); err != nil {
			return err
		}

		restored := false
		if orders.HasEffect(effects, orders.EffectRestoreStock) {
			restored, err = s.stock.RestoreStock(ctx, tx, order.ID, inventory.ItemsFromOrder(order), enums.StockRestoreReturn)
			if err != nil {
				return err
			}
		}
		if debit := refund - order.PlatformFeeCents; debit > 0 && orders.HasEffect(effects, orders.EffectDebitRefund) {
			if _, err := s.ledger.Debit(ctx, tx, enums.BalanceAvailable, debit, ledger.Posting{
				SellerID:        order.SellerID,
				OrderID:         &order.ID,
				Type:            enums.SellerTransactionRefund,
				GrossCents:      refund,
				CommissionCents: order.PlatformFeeCents,
				Description:     "order " + order.OrderNumber + " refunded",
				IdempotencyKey:  orderKey(order, "refund"),
			}); err != nil {
				return err
			}
		}
		if err := s.emit(ctx, tx, ev, enums.EventOrderRefunded, enums.AggregateOrder, order.ID, payloads.OrderRefundedEvent{
			OrderID:           order.ID,
			SellerID:          order.SellerID,
			Status:            order.Status,
			RefundAmountCents: refund,
			StockRestored:     restored,
		}); err != nil {
			return err
		}

		res.applied()
		res.notify(notifications.NotifyInput{
			UserID:  order.BuyerID,
			Type:    enums.NotificationRefundProcessed,
			Title:   "Refund processed",
			Message: fmt.Sprintf("Your refund for order %s has been processed.", order.OrderNumber),
			Data:    map[string]any{"order_id": order.ID, "refund_cents": refund},
		})
		res.notify(notifications.NotifyInput{
			UserID:  order.SellerID,
			Type:    enums.NotificationRefundProcessed,
			Title:   "Order refunded",
			Message: fmt.Sprintf("Order %s was refunded.", order.OrderNumber),
			Data:    map[string]any{"order_id": order.ID, "refund_cents": refund, "status": order.Status},
		})
		return nil
	})
	return s.finish(ctx, res, err)
}

func disputeKeys(d *DisputeData) orders.LookupKeys {
	return orders.LookupKeys{
		OrderID:         d.OrderID,
		PaymentIntentID: d.PaymentIntentID,
		ChargeID:        d.ChargeID,
		DisputeID:       d.DisputeID,
	}
}

func (s *Service) handleDisputeOpened(ctx context.Context, ev Event) (string, error) {
	d := ev.Dispute
	if d == nil {
		return metrics.OutcomeRejected, malformed(ev)
	}
	res := newResult()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, disputeKeys(d))
		if err != nil {
			return err
		}
		if order == nil {
			s.noop(ctx, "order not found")
			return nil
		}
		if orders.Anomalous(order.Status, orders.EventDisputeOpened) {
			res.outcome = metrics.OutcomeRejected
			return s.audit.Record(ctx, tx, audit.Entry{
				Action:     enums.AuditOrderAnomaly,
				TargetType: enums.AuditTargetOrder,
				TargetID:   order.ID.String(),
				Severity:   enums.AuditSeverityCritical,
				Details: map[string]any{
					"event_id":     ev.ID,
					"dispute_id":   d.DisputeID,
					"status":       order.Status,
					"amount_cents": d.AmountCents,
					"reason":       "dispute opened on settled order",
				},
			})
		}

		from := order.Status
		effects, ok := orders.ApplyTransition(order, orders.EventDisputeOpened)
		if !ok {
			s.noop(ctx, "dispute already open or order not disputable")
			return nil
		}
		amount := d.AmountCents
		if amount <= 0 {
			amount = order.TotalCents
		}
		now := s.now()
		if d.DisputeID != "" {
			order.DisputeID = &d.DisputeID
		}
		if d.Reason != "" {
			order.DisputeReason = &d.Reason
		}
		order.DisputeAmountCents = amount
		order.DisputeStatus = enums.DisputeStatusOpened
		order.DisputeOpenedAt = &now
		if err := s.saveTransition(ctx, tx, order, from, orders.EventDisputeOpened); err != nil {
			return err
		}

		if orders.HasEffect(effects, orders.EffectFreezeFunds) {
			freeze, err := s.ledger.Transfer(ctx, tx, enums.BalanceAvailable, enums.BalancePending, amount, ledger.Posting{
				SellerID:       order.SellerID,
				OrderID:        &order.ID,
				Type:           enums.SellerTransactionDisputeHold,
				GrossCents:     amount,
				Status:         enums.SellerTransactionStatusHeld,
				Description:    "dispute opened on order " + order.OrderNumber,
				IdempotencyKey: orderKey(order, "dispute", "freeze"),
			})
			if err != nil {
				return err
			}
			// Close releases or forfeits only what the freeze actually moved.
			order.DisputeFrozenCents = freeze.Transaction.PendingDeltaCents
			if err := s.orders.WithTx(tx).Save(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save dispute hold")
			}
		}
		if err := s.emit(ctx, tx, ev, enums.EventDisputeOpened, enums.AggregateOrder, order.ID, payloads.DisputeOpenedEvent{
			OrderID:     order.ID,
			SellerID:    order.SellerID,
			DisputeID:   d.DisputeID,
			Reason:      d.Reason,
			AmountCents: amount,
			FrozenCents: order.DisputeFrozenCents,
		}); err != nil {
			return err
		}

		res.applied()
		res.notify(notifications.NotifyInput{
			UserID:  order.SellerID,
			Type:    enums.NotificationDisputeOpened,
			Title:   "Dispute opened",
			Message: fmt.Sprintf("A buyer disputed order %s. The disputed amount is on hold until it is resolved.", order.OrderNumber),
			Data:    map[string]any{"order_id": order.ID, "dispute_id": d.DisputeID, "amount_cents": amount},
		})
		return nil
	})
	return s.finish(ctx, res, err)
}

func (s *Service) handleDisputeClosed(ctx context.Context, ev Event) (string, error) {
	d := ev.Dispute
	if d == nil {
		return metrics.OutcomeRejected, malformed(ev)
	}
	var (
		event  orders.Event
		result enums.DisputeStatus
	)
	switch d.Status {
	case DisputeStatusWon:
		event, result = orders.EventDisputeWon, enums.DisputeStatusWon
	case DisputeStatusLost:
		event, result = orders.EventDisputeLost, enums.DisputeStatusLost
	default:
		s.noop(ctx, "dispute closed without a won or lost result")
		return metrics.OutcomeNoop, nil
	}

	res := newResult()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, tx, disputeKeys(d))
		if err != nil {
			return err
		}
		if order == nil {
			s.noop(ctx, "order not found")
			return nil
		}
		if order.DisputeStatus != enums.DisputeStatusOpened {
			s.noop(ctx, "dispute is not open")
			return nil
		}
		if d.DisputeID != "" && order.DisputeID != nil && *order.DisputeID != d.DisputeID {
			s.noop(ctx, "dispute id does not match the open dispute")
			return nil
		}
		from := order.Status
		effects, ok := orders.ApplyTransition(order, event)
		if !ok {
			s.noop(ctx, "dispute resolution not allowed in current state")
			return nil
		}

		now := s.now()
		amount := order.DisputeAmountCents
		frozen := order.DisputeFrozenCents
		order.DisputeStatus = result
		order.DisputeResolvedAt = &now
		if result == enums.DisputeStatusWon {
			order.CompletedAt = &now
		} else {
			order.RefundAmountCents = amount
			order.RefundedAt = &now
		}
		if err := s.saveTransition(ctx, tx, order, from, event); err != nil {
			return err
		}

		if frozen > 0 {
			switch {
			case orders.HasEffect(effects, orders.EffectReleaseFunds):
				_, err = s.ledger.Transfer(ctx, tx, enums.BalancePending, enums.BalanceAvailable, frozen, ledger.Posting{
					SellerID:       order.SellerID,
					OrderID:        &order.ID,
					Type:           enums.SellerTransactionDisputeRelease,
					GrossCents:     frozen,
					Description:    "dispute won on order " + order.OrderNumber,
					IdempotencyKey: orderKey(order, "dispute", "release"),
				})
			case orders.HasEffect(effects, orders.EffectForfeitFunds):
				_, err = s.ledger.Debit(ctx, tx, enums.BalancePending, frozen, ledger.Posting{
					SellerID:       order.SellerID,
					OrderID:        &order.ID,
					Type:           enums.SellerTransactionDisputeLoss,
					GrossCents:     frozen,
					Description:    "dispute lost on order " + order.OrderNumber,
					IdempotencyKey: orderKey(order, "dispute", "forfeit"),
				})
			}
			if err != nil {
				return err
			}
		}
		if orders.HasEffect(effects, orders.EffectRestoreStock) {
			if _, err := s.stock.RestoreStock(ctx, tx, order.ID, inventory.ItemsFromOrder(order), enums.StockRestoreReturn); err != nil {
				return err
			}
		}

		disputeID := d.DisputeID
		if disputeID == "" && order.DisputeID != nil {
			disputeID = *order.DisputeID
		}
		if err := s.emit(ctx, tx, ev, enums.EventDisputeResolved, enums.AggregateOrder, order.ID, payloads.DisputeResolvedEvent{
			OrderID:     order.ID,
			SellerID:    order.SellerID,
			DisputeID:   disputeID,
			Result:      result,
			AmountCents: amount,
			FrozenCents: frozen,
		}); err != nil {
			return err
		}

		res.applied()
		res.notify(notifications.NotifyInput{
			UserID:  order.SellerID,
			Type:    enums.NotificationDisputeResolved,
			Title:   "Dispute resolved",
			Message: fmt.Sprintf("The dispute on order %s was closed as %s.", order.OrderNumber, result),
			Data:    map[string]any{"order_id": order.ID, "dispute_id": disputeID, "result": result},
		})
		return nil
	})
	return s.finish(ctx, res, err)
}

func (s *Service) handleAccountUpdated(ctx context.Context, ev Event) (string, error) {
	d := ev.Account
	if d == nil || d.AccountID == "" {
		return metrics.OutcomeRejected, malformed(ev)
	}
	res := newResult()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		accounts := s.accounts.WithTx(tx)
		existing, err := accounts.FindByProcessorAccountID(ctx, d.AccountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller account")
		}
		sellerID := d.SellerID
		if existing != nil {
			sellerID = existing.SellerID
		}
		if sellerID == uuid.Nil {
			s.noop(ctx, "account is not linked to a seller")
			return nil
		}

		verification := d.VerificationStatus
		if verification == "" {
			verification = "unverified"
		}
		mirror := &models.SellerAccount{
			SellerID:           sellerID,
			ProcessorAccountID: d.AccountID,
			ChargesEnabled:     d.ChargesEnabled,
			PayoutsEnabled:     d.PayoutsEnabled,
			OnboardingComplete: d.DetailsSubmitted,
			VerificationStatus: verification,
			Requirements:       dbtypes.StringArray(d.Requirements),
		}
		if err := accounts.Upsert(ctx, mirror); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror seller account")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Action:     enums.AuditSellerAccountUpdated,
			TargetType: enums.AuditTargetSeller,
			TargetID:   sellerID.String(),
			Details: map[string]any{
				"event_id":        ev.ID,
				"account_id":      d.AccountID,
				"charges_enabled": d.ChargesEnabled,
				"payouts_enabled": d.PayoutsEnabled,
				"requirements":    d.Requirements,
			},
		}); err != nil {
			return err
		}

		res.applied()
		if existing == nil || existing.PayoutsEnabled != d.PayoutsEnabled {
			message := "Payouts are now enabled on your account."
			if !d.PayoutsEnabled {
				message = "Payouts are disabled on your account until outstanding requirements are completed."
			}
			res.notify(notifications.NotifyInput{
				UserID:  sellerID,
				Type:    enums.NotificationAccountUpdated,
				Title:   "Payout account updated",
				Message: message,
				Data:    map[string]any{"payouts_enabled": d.PayoutsEnabled, "requirements": d.Requirements},
			})
		}
		return nil
	})
	return s.finish(ctx, res, err)
}
