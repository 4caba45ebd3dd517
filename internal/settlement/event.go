package settlement

import (
	"time"

	"github.com/google/uuid"
)

// EventType is the processor-neutral kind of an inbound event.
type EventType string

const (
	EventPaymentSucceeded EventType = "payment_succeeded"
	EventPaymentFailed    EventType = "payment_failed"
	EventTransferCreated  EventType = "transfer_created"
	EventTransferReversed EventType = "transfer_reversed"
	EventPayoutFailed     EventType = "payout_failed"
	EventChargeRefunded   EventType = "charge_refunded"
	EventDisputeOpened    EventType = "dispute_opened"
	EventDisputeClosed    EventType = "dispute_closed"
	EventAccountUpdated   EventType = "account_updated"
)

// Event is a verified, decoded processor event. Exactly one of the payload
// pointers is set for known types; Unknown events carry only ID and RawType.
type Event struct {
	ID         string
	Type       EventType
	RawType    string
	OccurredAt time.Time

	Payment  *PaymentData
	Transfer *TransferData
	Payout   *PayoutData
	Charge   *ChargeData
	Dispute  *DisputeData
	Account  *AccountData
}

// PaymentData describes a payment intent outcome.
type PaymentData struct {
	OrderID         uuid.UUID
	PaymentIntentID string
	ChargeID        string
	AmountCents     int64
	// FeeCents is the application fee retained by the platform, when the
	// processor reports one.
	FeeCents       *int64
	FailureMessage string
}

// TransferData describes funds moved toward a seller's processor account.
type TransferData struct {
	TransferID         string
	DestinationAccount string
	SellerID           uuid.UUID
	OrderID            uuid.UUID
	AmountCents        int64
	// ReversedCents is the cumulative amount reversed so far.
	ReversedCents int64
	Currency      string
}

// PayoutData describes a payout from a seller account to their bank.
type PayoutData struct {
	PayoutID       string
	Account        string
	SellerID       uuid.UUID
	AmountCents    int64
	FailureCode    string
	FailureMessage string
}

// ChargeData describes a charge after a refund.
type ChargeData struct {
	OrderID             uuid.UUID
	PaymentIntentID     string
	ChargeID            string
	AmountCents         int64
	AmountRefundedCents int64
	FullyRefunded       bool
}

// DisputeData describes a chargeback.
type DisputeData struct {
	DisputeID       string
	OrderID         uuid.UUID
	PaymentIntentID string
	ChargeID        string
	AmountCents     int64
	Reason          string
	Status          string
}

// AccountData mirrors a seller's processor account capabilities.
type AccountData struct {
	AccountID          string
	SellerID           uuid.UUID
	ChargesEnabled     bool
	PayoutsEnabled     bool
	DetailsSubmitted   bool
	VerificationStatus string
	Requirements       []string
}

// Dispute close statuses that resolve a dispute.
const (
	DisputeStatusWon  = "won"
	DisputeStatusLost = "lost"
)
