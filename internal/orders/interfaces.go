package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/outbox"
)

// Repository defines persistence operations for orders. Lock* reads take a
// row lock when run inside a transaction and preload line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error)
	LockByChargeID(ctx context.Context, chargeID string) (*models.Order, error)
	LockByDisputeID(ctx context.Context, disputeID string) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	ListDeliveredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	SellerOwnsLineItem(ctx context.Context, orderID, sellerID uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}
