package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder             OutboxAggregateType = "order"
	AggregateSellerBalance     OutboxAggregateType = "seller_balance"
	AggregateWithdrawalRequest OutboxAggregateType = "withdrawal_request"
	AggregatePayout            OutboxAggregateType = "payout"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateSellerBalance,
	AggregateWithdrawalRequest,
	AggregatePayout,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventOrderPaid           OutboxEventType = "order_paid"
	EventOrderShipped        OutboxEventType = "order_shipped"
	EventOrderCompleted      OutboxEventType = "order_completed"
	EventOrderRefunded       OutboxEventType = "order_refunded"
	EventDisputeOpened       OutboxEventType = "dispute_opened"
	EventDisputeResolved     OutboxEventType = "dispute_resolved"
	EventTransferReversed    OutboxEventType = "transfer_reversed"
	EventWithdrawalProcessed OutboxEventType = "withdrawal_processed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPaid,
	EventOrderShipped,
	EventOrderCompleted,
	EventOrderRefunded,
	EventDisputeOpened,
	EventDisputeResolved,
	EventTransferReversed,
	EventWithdrawalProcessed,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
