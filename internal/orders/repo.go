package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.first(ctx, false, "id = ?", id)
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.first(ctx, true, "id = ?", id)
}

func (r *repository) LockByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	return r.first(ctx, true, "payment_intent_id = ?", paymentIntentID)
}

func (r *repository) LockByChargeID(ctx context.Context, chargeID string) (*models.Order, error) {
	return r.first(ctx, true, "charge_id = ?", chargeID)
}

func (r *repository) LockByDisputeID(ctx context.Context, disputeID string) (*models.Order, error) {
	return r.first(ctx, true, "dispute_id = ?", disputeID)
}

func (r *repository) first(ctx context.Context, lock bool, query string, args ...any) (*models.Order, error) {
	var order models.Order
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where(query, args...).First(&order).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("created_at ASC").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Save writes the order row only; line items are immutable after checkout.
func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error
}

func (r *repository) ListDeliveredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND delivered_at IS NOT NULL AND delivered_at <= ?", enums.OrderStatusDelivered, cutoff).
		Order("delivered_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SellerOwnsLineItem(ctx context.Context, orderID, sellerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderLineItem{}).
		Where("order_id = ? AND seller_id = ?", orderID, sellerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
