package orders

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

var allEvents = []Event{
	EventPaymentSucceeded, EventShipped, EventDelivered, EventAutoComplete,
	EventRefundFull, EventRefundPartial, EventDisputeOpened, EventDisputeWon, EventDisputeLost,
}

var allStatuses = []enums.OrderStatus{
	enums.OrderStatusPending, enums.OrderStatusPaid, enums.OrderStatusShipped, enums.OrderStatusDelivered,
	enums.OrderStatusDisputeOpened, enums.OrderStatusCompleted, enums.OrderStatusRefunded, enums.OrderStatusPartialRefund,
}

func TestTransitionHappyPath(t *testing.T) {
	state := enums.OrderStatusPending
	for _, step := range []struct {
		event Event
		want  enums.OrderStatus
	}{
		{EventPaymentSucceeded, enums.OrderStatusPaid},
		{EventShipped, enums.OrderStatusShipped},
		{EventDelivered, enums.OrderStatusDelivered},
		{EventAutoComplete, enums.OrderStatusCompleted},
	} {
		next, _, ok := Transition(state, step.event)
		require.True(t, ok, "%s + %s", state, step.event)
		require.Equal(t, step.want, next)
		state = next
	}
}

func TestTransitionEffects(t *testing.T) {
	_, effects, ok := Transition(enums.OrderStatusPending, EventPaymentSucceeded)
	require.True(t, ok)
	require.Equal(t, []Effect{EffectCreditSeller}, effects)

	next, effects, ok := Transition(enums.OrderStatusShipped, EventRefundFull)
	require.True(t, ok)
	require.Equal(t, enums.OrderStatusRefunded, next)
	require.True(t, HasEffect(effects, EffectRestoreStock))

	next, effects, ok = Transition(enums.OrderStatusDelivered, EventRefundPartial)
	require.True(t, ok)
	require.Equal(t, enums.OrderStatusPartialRefund, next)
	require.False(t, HasEffect(effects, EffectRestoreStock))

	next, effects, ok = Transition(enums.OrderStatusDisputeOpened, EventDisputeLost)
	require.True(t, ok)
	require.Equal(t, enums.OrderStatusRefunded, next)
	require.Equal(t, []Effect{EffectForfeitFunds, EffectRestoreStock}, effects)

	next, effects, ok = Transition(enums.OrderStatusDisputeOpened, EventDisputeWon)
	require.True(t, ok)
	require.Equal(t, enums.OrderStatusCompleted, next)
	require.Equal(t, []Effect{EffectReleaseFunds}, effects)
}

func TestTransitionClosure(t *testing.T) {
	defined := 0
	for _, s := range allStatuses {
		for _, e := range allEvents {
			next, effects, ok := Transition(s, e)
			if !ok {
				require.Equal(t, s, next, "undefined %s + %s must leave state unchanged", s, e)
				require.Empty(t, effects)
				continue
			}
			defined++
			require.True(t, next.IsValid())
		}
	}
	require.Equal(t, len(transitions), defined)
}

func TestTerminalStatesAcceptNothing(t *testing.T) {
	for _, s := range allStatuses {
		if !s.IsTerminal() {
			continue
		}
		for _, e := range allEvents {
			_, _, ok := Transition(s, e)
			require.False(t, ok, "%s + %s", s, e)
		}
	}
}

func TestSecondDisputeOpenIsNoop(t *testing.T) {
	_, _, ok := Transition(enums.OrderStatusDisputeOpened, EventDisputeOpened)
	require.False(t, ok)
	require.False(t, Anomalous(enums.OrderStatusDisputeOpened, EventDisputeOpened))
}

func TestAnomalous(t *testing.T) {
	require.True(t, Anomalous(enums.OrderStatusCompleted, EventDisputeOpened))
	require.True(t, Anomalous(enums.OrderStatusRefunded, EventDisputeOpened))
	require.False(t, Anomalous(enums.OrderStatusCompleted, EventPaymentSucceeded))
	require.False(t, Anomalous(enums.OrderStatusPaid, EventDisputeOpened))
}

func TestTransitionReturnsCopy(t *testing.T) {
	_, effects, _ := Transition(enums.OrderStatusPaid, EventRefundFull)
	effects[0] = "mutated"
	_, again, _ := Transition(enums.OrderStatusPaid, EventRefundFull)
	require.Equal(t, EffectDebitRefund, again[0])
}
