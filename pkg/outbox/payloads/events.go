package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// OrderPaidEvent is emitted once an order leaves PENDING.
type OrderPaidEvent struct {
	OrderID             uuid.UUID `json:"order_id"`
	SellerID            uuid.UUID `json:"seller_id"`
	BuyerID             uuid.UUID `json:"buyer_id"`
	TotalCents          int64     `json:"total_cents"`
	PlatformFeeCents    int64     `json:"platform_fee_cents"`
	SellerEarningsCents int64     `json:"seller_earnings_cents"`
	PaidAt              time.Time `json:"paid_at"`
}

// OrderShippedEvent is emitted on the first shipment of an order.
type OrderShippedEvent struct {
	OrderID        uuid.UUID     `json:"order_id"`
	SellerID       uuid.UUID     `json:"seller_id"`
	Carrier        enums.Carrier `json:"carrier"`
	TrackingNumber string        `json:"tracking_number"`
	ShippedAt      time.Time     `json:"shipped_at"`
}

// OrderCompletedEvent is emitted when an order reaches COMPLETED.
type OrderCompletedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// OrderRefundedEvent covers full and partial refunds.
type OrderRefundedEvent struct {
	OrderID           uuid.UUID         `json:"order_id"`
	SellerID          uuid.UUID         `json:"seller_id"`
	Status            enums.OrderStatus `json:"status"`
	RefundAmountCents int64             `json:"refund_amount_cents"`
	StockRestored     bool              `json:"stock_restored"`
}

// DisputeOpenedEvent is emitted when funds are frozen for a chargeback.
type DisputeOpenedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	DisputeID   string    `json:"dispute_id"`
	Reason      string    `json:"reason"`
	AmountCents int64     `json:"amount_cents"`
	FrozenCents int64     `json:"frozen_cents"`
}

// DisputeResolvedEvent is emitted when a chargeback closes.
type DisputeResolvedEvent struct {
	OrderID     uuid.UUID           `json:"order_id"`
	SellerID    uuid.UUID           `json:"seller_id"`
	DisputeID   string              `json:"dispute_id"`
	Result      enums.DisputeStatus `json:"result"`
	AmountCents int64               `json:"amount_cents"`
	FrozenCents int64               `json:"frozen_cents"`
}

// TransferReversedEvent is emitted when a payout is pulled back.
type TransferReversedEvent struct {
	PayoutID      uuid.UUID `json:"payout_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	TransferID    string    `json:"transfer_id"`
	ReversedCents int64     `json:"reversed_cents"`
}

// WithdrawalProcessedEvent is emitted for every admin decision.
type WithdrawalProcessedEvent struct {
	WithdrawalID    uuid.UUID              `json:"withdrawal_id"`
	SellerID        uuid.UUID              `json:"seller_id"`
	AdminID         uuid.UUID              `json:"admin_id"`
	Status          enums.WithdrawalStatus `json:"status"`
	AmountCents     int64                  `json:"amount_cents"`
	PayoutReference string                 `json:"payout_reference,omitempty"`
}
