package orders

import "github.com/angelmondragon/packfinderz-settlement/pkg/enums"

// Event is an input to the order state machine.
type Event string

const (
	EventPaymentSucceeded Event = "payment_succeeded"
	EventShipped          Event = "shipped"
	EventDelivered        Event = "delivered"
	EventAutoComplete     Event = "auto_complete"
	EventRefundFull       Event = "refund_full"
	EventRefundPartial    Event = "refund_partial"
	EventDisputeOpened    Event = "dispute_opened"
	EventDisputeWon       Event = "dispute_won"
	EventDisputeLost      Event = "dispute_lost"
)

// Effect is a side effect the caller must apply with the transition.
type Effect string

const (
	EffectCreditSeller  Effect = "credit_seller"
	EffectDebitRefund   Effect = "debit_refund"
	EffectRestoreStock  Effect = "restore_stock"
	EffectFreezeFunds   Effect = "freeze_funds"
	EffectReleaseFunds  Effect = "release_funds"
	EffectForfeitFunds  Effect = "forfeit_funds"
	EffectNotifyShipped Effect = "notify_shipped"
)

type transitionKey struct {
	from  enums.OrderStatus
	event Event
}

type transition struct {
	to      enums.OrderStatus
	effects []Effect
}

var transitions = buildTransitions()

func buildTransitions() map[transitionKey]transition {
	t := map[transitionKey]transition{
		{enums.OrderStatusPending, EventPaymentSucceeded}: {enums.OrderStatusPaid, []Effect{EffectCreditSeller}},
		{enums.OrderStatusPaid, EventShipped}:             {enums.OrderStatusShipped, []Effect{EffectNotifyShipped}},
		{enums.OrderStatusShipped, EventDelivered}:        {enums.OrderStatusDelivered, nil},
		{enums.OrderStatusDelivered, EventAutoComplete}:   {enums.OrderStatusCompleted, nil},
		{enums.OrderStatusDisputeOpened, EventDisputeWon}: {enums.OrderStatusCompleted, []Effect{EffectReleaseFunds}},
		{enums.OrderStatusDisputeOpened, EventDisputeLost}: {
			enums.OrderStatusRefunded, []Effect{EffectForfeitFunds, EffectRestoreStock},
		},
	}
	for _, from := range []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusShipped, enums.OrderStatusDelivered} {
		t[transitionKey{from, EventRefundFull}] = transition{enums.OrderStatusRefunded, []Effect{EffectDebitRefund, EffectRestoreStock}}
		t[transitionKey{from, EventRefundPartial}] = transition{enums.OrderStatusPartialRefund, []Effect{EffectDebitRefund}}
		t[transitionKey{from, EventDisputeOpened}] = transition{enums.OrderStatusDisputeOpened, []Effect{EffectFreezeFunds}}
	}
	return t
}

// Transition is the pure lifecycle function. ok is false for every pair
// without a defined transition, in which case next equals current.
func Transition(current enums.OrderStatus, event Event) (enums.OrderStatus, []Effect, bool) {
	t, ok := transitions[transitionKey{current, event}]
	if !ok {
		return current, nil, false
	}
	effects := make([]Effect, len(t.effects))
	copy(effects, t.effects)
	return t.to, effects, true
}

// Anomalous reports undefined pairs that indicate a processor-side problem
// rather than a replay: a dispute opened against an order that already
// settled for good.
func Anomalous(current enums.OrderStatus, event Event) bool {
	if event != EventDisputeOpened {
		return false
	}
	return current == enums.OrderStatusCompleted ||
		current == enums.OrderStatusRefunded ||
		current == enums.OrderStatusPartialRefund
}

// HasEffect reports whether effects contains e.
func HasEffect(effects []Effect, e Effect) bool {
	for _, candidate := range effects {
		if candidate == e {
			return true
		}
	}
	return false
}
