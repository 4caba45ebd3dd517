package enums

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderStatusTerminal(t *testing.T) {
	require.True(t, OrderStatusCompleted.IsTerminal())
	require.True(t, OrderStatusRefunded.IsTerminal())
	require.True(t, OrderStatusPartialRefund.IsTerminal())
	require.False(t, OrderStatusDisputeOpened.IsTerminal())
	require.False(t, OrderStatusPending.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus("dispute_opened")
	require.NoError(t, err)
	require.Equal(t, OrderStatusDisputeOpened, got)

	_, err = ParseOrderStatus("cancelled")
	require.Error(t, err)
}

func TestParseCarrierNormalizes(t *testing.T) {
	got, err := ParseCarrier(" FedEx ")
	require.NoError(t, err)
	require.Equal(t, CarrierFedEx, got)

	_, err = ParseCarrier("pigeon")
	require.Error(t, err)
}

func TestBalanceFieldCountsTowardNet(t *testing.T) {
	require.True(t, BalanceAvailable.CountsTowardNet())
	require.True(t, BalancePending.CountsTowardNet())
	require.False(t, BalanceWithdrawn.CountsTowardNet())
}

func TestModerationResultingStatus(t *testing.T) {
	require.Equal(t, ProductStatusActive, ModerationApprove.ResultingStatus())
	require.Equal(t, ProductStatusRejected, ModerationReject.ResultingStatus())
	require.Equal(t, ProductStatusRemoved, ModerationRemove.ResultingStatus())
}

func TestParseWithdrawalAction(t *testing.T) {
	_, err := ParseWithdrawalAction("approve")
	require.NoError(t, err)
	_, err = ParseWithdrawalAction("cancel")
	require.Error(t, err)
}

func TestPaymentStatusProjection(t *testing.T) {
	cases := map[OrderStatus]PaymentStatus{
		OrderStatusPending:       PaymentStatusUnpaid,
		OrderStatusPaid:          PaymentStatusPaid,
		OrderStatusShipped:       PaymentStatusPaid,
		OrderStatusDelivered:     PaymentStatusPaid,
		OrderStatusDisputeOpened: PaymentStatusPaid,
		OrderStatusCompleted:     PaymentStatusPaid,
		OrderStatusRefunded:      PaymentStatusRefunded,
		OrderStatusPartialRefund: PaymentStatusPartiallyRefunded,
	}
	for status, want := range cases {
		require.Equal(t, want, status.PaymentStatus(false), status)
	}
	require.Equal(t, PaymentStatusFailed, OrderStatusPending.PaymentStatus(true))
	require.Equal(t, PaymentStatusPaid, OrderStatusPaid.PaymentStatus(true), "a later success overrides the failure note")
}
