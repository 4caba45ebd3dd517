// Package orders owns the order lifecycle: the transition table and the
// seller-driven shipment steps that sit outside webhook processing.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/internal/audit"
	"github.com/angelmondragon/packfinderz-settlement/internal/notifications"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox/payloads"
)

const defaultAutoCompleteBatch = 200

type ServiceParams struct {
	Repository Repository
	TxRunner   txRunner
	Audit      audit.Recorder
	Notifier   notifications.Notifier
	Outbox     eventEmitter
	Logger     *logger.Logger
	Clock      func() time.Time
}

type Service struct {
	repo     Repository
	tx       txRunner
	audit    audit.Recorder
	notifier notifications.Notifier
	outbox   eventEmitter
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if params.Outbox == nil {
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
		repo:     params.Repository,
		tx:       params.TxRunner,
		audit:    params.Audit,
		notifier: params.Notifier,
		outbox:   params.Outbox,
		logg:     logg,
		now:      clock,
	}, nil
}

// ApplyTransition moves order to the next state for event and returns the
// side effects the caller must apply. ok is false when the pair is undefined,
// in which case the order is left untouched.
func ApplyTransition(order *models.Order, event Event) ([]Effect, bool) {
	next, effects, ok := Transition(order.Status, event)
	if !ok {
		return nil, false
	}
	order.Status = next
	return effects, true
}

// TransitionEntry builds the audit row for a state change.
func TransitionEntry(actorID string, orderID uuid.UUID, from, to enums.OrderStatus, event Event) audit.Entry {
	return audit.Entry{
		ActorID:    actorID,
		Action:     enums.AuditOrderTransition,
		TargetType: enums.AuditTargetOrder,
		TargetID:   orderID.String(),
		Details:    transitionDetails{From: from.String(), To: to.String(), Event: event},
	}
}

// Get returns an order with its line items.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// MarkShipped records a shipment. A PAID order moves to SHIPPED and the buyer
// is notified; an already SHIPPED order only has its tracking info replaced.
func (s *Service) MarkShipped(ctx context.Context, input ShipInput) (*models.Order, error) {
	carrier, err := enums.ParseCarrier(input.Carrier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid carrier")
	}
	tracking := NormalizeTrackingNumber(input.TrackingNumber)
	if !ValidTrackingNumber(carrier, tracking) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tracking number for carrier").
			WithDetails(map[string]any{"carrier": carrier, "tracking_number": input.TrackingNumber})
	}

	var (
		order      *models.Order
		transition bool
	)
	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var lockErr error
		order, lockErr = s.lockOwned(ctx, tx, input.OrderID, input.SellerID)
		if lockErr != nil {
			return lockErr
		}

		from := order.Status
		switch from {
		case enums.OrderStatusPaid:
			if _, ok := ApplyTransition(order, EventShipped); !ok {
				return stateConflict(order.Status, EventShipped)
			}
			transition = true
			order.ShippedAt = &now
		case enums.OrderStatusShipped:
		default:
			return stateConflict(order.Status, EventShipped)
		}
		order.Carrier = &carrier
		order.TrackingNumber = &tracking
		order.EstimatedDeliveryAt = input.EstimatedDelivery

		if err := s.repo.WithTx(tx).Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}

		actor := audit.Actor(input.SellerID)
		if !transition {
			return s.audit.Record(ctx, tx, audit.Entry{
				ActorID:    actor,
				Action:     enums.AuditShipmentUpdated,
				TargetType: enums.AuditTargetOrder,
				TargetID:   order.ID.String(),
				Details:    shipmentDetails{Carrier: carrier.String(), TrackingNumber: tracking, EstimatedAt: input.EstimatedDelivery},
			})
		}
		if err := s.audit.Record(ctx, tx, TransitionEntry(actor, order.ID, from, order.Status, EventShipped)); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderShipped,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.SellerID, Role: enums.UserRoleSeller.String()},
			OccurredAt:    now,
			Data: payloads.OrderShippedEvent{
				OrderID:        order.ID,
				SellerID:       order.SellerID,
				Carrier:        carrier,
				TrackingNumber: tracking,
				ShippedAt:      now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if transition {
		s.notify(ctx, notifications.NotifyInput{
			UserID:  order.BuyerID,
			Type:    enums.NotificationOrderShipped,
			Title:   "Your order has shipped",
			Message: fmt.Sprintf("Order %s is on its way via %s.", order.OrderNumber, carrierLabel(carrier)),
			Link:    TrackingURL(carrier, tracking),
			Data:    map[string]any{"order_id": order.ID, "tracking_number": tracking, "carrier": carrier},
		})
	}
	return order, nil
}

// MarkDelivered confirms delivery of a shipped order. Repeating it on a
// DELIVERED order returns the order unchanged.
func (s *Service) MarkDelivered(ctx context.Context, input DeliverInput) (*models.Order, error) {
	var (
		order      *models.Order
		transition bool
	)
	now := s.now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var lockErr error
		order, lockErr = s.lockOwned(ctx, tx, input.OrderID, input.SellerID)
		if lockErr != nil {
			return lockErr
		}
		if order.Status == enums.OrderStatusDelivered {
			return nil
		}
		from := order.Status
		if _, ok := ApplyTransition(order, EventDelivered); !ok {
			return stateConflict(order.Status, EventDelivered)
		}
		transition = true
		order.DeliveredAt = &now
		if err := s.repo.WithTx(tx).Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		return s.audit.Record(ctx, tx, TransitionEntry(audit.Actor(input.SellerID), order.ID, from, order.Status, EventDelivered))
	})
	if err != nil {
		return nil, err
	}
	if transition {
		s.notify(ctx, notifications.NotifyInput{
			UserID:  order.BuyerID,
			Type:    enums.NotificationOrderDelivered,
			Title:   "Your order was delivered",
			Message: fmt.Sprintf("Order %s has been delivered.", order.OrderNumber),
			Data:    map[string]any{"order_id": order.ID},
		})
	}
	return order, nil
}

// AutoComplete moves DELIVERED orders whose delivery is at or before cutoff to
// COMPLETED. Each order commits on its own so one failure does not hold back
// the rest of the batch.
func (s *Service) AutoComplete(ctx context.Context, cutoff time.Time, limit int) (AutoCompleteResult, error) {
	if limit <= 0 {
		limit = defaultAutoCompleteBatch
	}
	candidates, err := s.repo.ListDeliveredBefore(ctx, cutoff, limit)
	if err != nil {
		return AutoCompleteResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivered orders")
	}

	result := AutoCompleteResult{Scanned: len(candidates)}
	var errs error
	for _, candidate := range candidates {
		completed, err := s.completeOne(ctx, candidate.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", candidate.ID, err))
			continue
		}
		if completed {
			result.Completed++
		}
	}
	return result, errs
}

func (s *Service) completeOne(ctx context.Context, orderID uuid.UUID) (bool, error) {
	completed := false
	now := s.now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		from := order.Status
		if _, ok := ApplyTransition(order, EventAutoComplete); !ok {
			return nil
		}
		order.CompletedAt = &now
		if err := s.repo.WithTx(tx).Save(ctx, order); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, TransitionEntry(audit.Actor(uuid.Nil), order.ID, from, order.Status, EventAutoComplete)); err != nil {
			return err
		}
		completed = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			OccurredAt:    now,
			Data:          payloads.OrderCompletedEvent{OrderID: order.ID, SellerID: order.SellerID, CompletedAt: now},
		})
	})
	if err != nil {
		return false, err
	}
	return completed, nil
}

func (s *Service) lockOwned(ctx context.Context, tx *gorm.DB, orderID, sellerID uuid.UUID) (*models.Order, error) {
	repo := s.repo.WithTx(tx)
	order, err := repo.LockByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	owns, err := repo.SellerOwnsLineItem(ctx, orderID, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order ownership")
	}
	if !owns {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller has no items in this order")
	}
	return order, nil
}

func (s *Service) notify(ctx context.Context, input notifications.NotifyInput) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, input); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "notification_type", input.Type), "order notification failed", err)
	}
}

func stateConflict(status enums.OrderStatus, event Event) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot accept this action in its current state").
		WithDetails(map[string]any{"status": status, "action": event})
}

func carrierLabel(c enums.Carrier) string {
	switch c {
	case enums.CarrierUPS:
		return "UPS"
	case enums.CarrierUSPS:
		return "USPS"
	case enums.CarrierFedEx:
		return "FedEx"
	case enums.CarrierDHL:
		return "DHL"
	default:
		return c.String()
	}
}
