package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
)

// LookupKeys carries every reference an inbound event may have for an order.
type LookupKeys struct {
	OrderID         uuid.UUID
	PaymentIntentID string
	ChargeID        string
	DisputeID       string
}

type lookupStrategy struct {
	name string
	find func(ctx context.Context, repo Repository, keys LookupKeys) (*models.Order, error)
}

var lookupStrategies = []lookupStrategy{
	{
		name: "order_id",
		find: func(ctx context.Context, repo Repository, keys LookupKeys) (*models.Order, error) {
			if keys.OrderID == uuid.Nil {
				return nil, nil
			}
			return optional(repo.LockByID(ctx, keys.OrderID))
		},
	},
	{
		name: "payment_intent_id",
		find: func(ctx context.Context, repo Repository, keys LookupKeys) (*models.Order, error) {
			if keys.PaymentIntentID == "" {
				return nil, nil
			}
			return optional(repo.LockByPaymentIntentID(ctx, keys.PaymentIntentID))
		},
	},
	{
		name: "charge_id",
		find: func(ctx context.Context, repo Repository, keys LookupKeys) (*models.Order, error) {
			if keys.ChargeID == "" {
				return nil, nil
			}
			return optional(repo.LockByChargeID(ctx, keys.ChargeID))
		},
	},
	{
		name: "dispute_id",
		find: func(ctx context.Context, repo Repository, keys LookupKeys) (*models.Order, error) {
			if keys.DisputeID == "" {
				return nil, nil
			}
			return optional(repo.LockByDisputeID(ctx, keys.DisputeID))
		},
	},
}

// Locate tries each key in turn and returns the first order found along with
// the key that matched. A nil order with a nil error means no key matched.
func Locate(ctx context.Context, repo Repository, keys LookupKeys) (*models.Order, string, error) {
	for _, strategy := range lookupStrategies {
		order, err := strategy.find(ctx, repo, keys)
		if err != nil {
			return nil, strategy.name, err
		}
		if order != nil {
			return order, strategy.name, nil
		}
	}
	return nil, "", nil
}

func optional(order *models.Order, err error) (*models.Order, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return order, err
}
