package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// Order is the settlement view of a marketplace order. PaymentStatus is a
// stored projection of Status and is recomputed on every save.
type Order struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber           string              `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	BuyerID               uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID              uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Currency              string              `gorm:"column:currency;type:text;not null;default:'usd'"`
	TotalCents            int64               `gorm:"column:total_cents;not null"`
	PlatformFeeCents      int64               `gorm:"column:platform_fee_cents;not null;default:0"`
	SellerEarningsCents   int64               `gorm:"column:seller_earnings_cents;not null;default:0"`
	Status                enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	PaymentIntentID       *string             `gorm:"column:payment_intent_id;type:text;uniqueIndex"`
	ChargeID              *string             `gorm:"column:charge_id;type:text;index"`
	PaymentFailureMessage *string             `gorm:"column:payment_failure_message;type:text"`
	PaymentFailedAt       *time.Time          `gorm:"column:payment_failed_at"`
	PaidAt                *time.Time          `gorm:"column:paid_at"`

	DisputeID          *string             `gorm:"column:dispute_id;type:text;index"`
	DisputeReason      *string             `gorm:"column:dispute_reason;type:text"`
	DisputeAmountCents int64               `gorm:"column:dispute_amount_cents;not null;default:0"`
	DisputeStatus      enums.DisputeStatus `gorm:"column:dispute_status;type:text;not null;default:'none'"`
	DisputeOpenedAt    *time.Time          `gorm:"column:dispute_opened_at"`
	DisputeResolvedAt  *time.Time          `gorm:"column:dispute_resolved_at"`
	// DisputeFrozenCents is what the open actually moved into pending. It is
	// below DisputeAmountCents when available was short.
	DisputeFrozenCents int64 `gorm:"column:dispute_frozen_cents;not null;default:0"`

	RefundAmountCents int64      `gorm:"column:refund_amount_cents;not null;default:0"`
	RefundedAt        *time.Time `gorm:"column:refunded_at"`

	TrackingNumber      *string        `gorm:"column:tracking_number;type:text"`
	Carrier             *enums.Carrier `gorm:"column:carrier;type:text"`
	ShippedAt           *time.Time     `gorm:"column:shipped_at"`
	EstimatedDeliveryAt *time.Time     `gorm:"column:estimated_delivery_at"`
	DeliveredAt         *time.Time     `gorm:"column:delivered_at"`
	CompletedAt         *time.Time     `gorm:"column:completed_at"`

	Items     []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

func (o *Order) BeforeSave(*gorm.DB) error {
	o.PaymentStatus = o.ProjectedPaymentStatus()
	return nil
}

// ProjectedPaymentStatus derives the payment flag from the canonical status.
func (o *Order) ProjectedPaymentStatus() enums.PaymentStatus {
	return o.Status.PaymentStatus(o.PaymentFailedAt != nil)
}

// OrderLineItem is one product line of an order.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	SellerID       uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLineItem) TableName() string { return "order_line_items" }

func (i *OrderLineItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// TotalCents returns quantity * unit price.
func (i OrderLineItem) TotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}
