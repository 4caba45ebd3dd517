package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/packfinderz-settlement/internal/settlement"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

const testSecret = "whsec_test_secret"

type recordingReconciler struct {
	events []settlement.Event
}

func (r *recordingReconciler) Handle(_ context.Context, ev settlement.Event) (string, error) {
	r.events = append(r.events, ev)
	return "applied", nil
}

func newTestService(t *testing.T) (*Service, *recordingReconciler) {
	t.Helper()
	verifier, err := NewVerifier(testSecret, 0)
	require.NoError(t, err)
	rec := &recordingReconciler{}
	svc, err := NewService(ServiceParams{Verifier: verifier, Reconciler: rec, Logger: logger.Nop()})
	require.NoError(t, err)
	return svc, rec
}

func envelope(t *testing.T, id, eventType string, object map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"created":     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Unix(),
		"api_version": "2025-01-27.acacia",
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return body
}

func sign(payload []byte) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestHandleDeliveryRejectsBadSignature(t *testing.T) {
	svc, rec := newTestService(t)
	payload := envelope(t, "evt_1", "payment_intent.succeeded", map[string]any{"id": "pi_1"})

	_, err := svc.HandleDelivery(context.Background(), payload, "t=1,v1=deadbeef")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSignatureInvalid))

	_, err = svc.HandleDelivery(context.Background(), payload, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSignatureInvalid))
	require.Empty(t, rec.events)
}

func TestHandleDeliveryPaymentSucceeded(t *testing.T) {
	svc, rec := newTestService(t)
	orderID := uuid.New()
	payload := envelope(t, "evt_pay", "payment_intent.succeeded", map[string]any{
		"id":                     "pi_123",
		"object":                 "payment_intent",
		"amount":                 10000,
		"amount_received":        10000,
		"application_fee_amount": 1000,
		"latest_charge":          "ch_123",
		"metadata":               map[string]string{"order_id": orderID.String()},
	})

	receipt, err := svc.HandleDelivery(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	require.Equal(t, "applied", receipt.Outcome)
	require.Len(t, rec.events, 1)

	ev := rec.events[0]
	require.Equal(t, "evt_pay", ev.ID)
	require.Equal(t, settlement.EventPaymentSucceeded, ev.Type)
	require.NotNil(t, ev.Payment)
	require.Equal(t, orderID, ev.Payment.OrderID)
	require.Equal(t, "pi_123", ev.Payment.PaymentIntentID)
	require.Equal(t, "ch_123", ev.Payment.ChargeID)
	require.EqualValues(t, 10000, ev.Payment.AmountCents)
	require.NotNil(t, ev.Payment.FeeCents)
	require.EqualValues(t, 1000, *ev.Payment.FeeCents)
	require.False(t, ev.OccurredAt.IsZero())
}

func TestHandleDeliveryUnknownTypePassesRawType(t *testing.T) {
	svc, rec := newTestService(t)
	payload := envelope(t, "evt_misc", "customer.created", map[string]any{"id": "cus_1"})

	_, err := svc.HandleDelivery(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	require.Len(t, rec.events, 1)
	require.Empty(t, rec.events[0].Type)
	require.Equal(t, "customer.created", rec.events[0].RawType)
}

func TestTranslateDisputeClosed(t *testing.T) {
	svc, rec := newTestService(t)
	payload := envelope(t, "evt_dp", "charge.dispute.closed", map[string]any{
		"id":             "dp_1",
		"object":         "dispute",
		"amount":         5000,
		"charge":         "ch_9",
		"payment_intent": "pi_9",
		"reason":         "fraudulent",
		"status":         "lost",
	})

	_, err := svc.HandleDelivery(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	d := rec.events[0].Dispute
	require.NotNil(t, d)
	require.Equal(t, settlement.EventDisputeClosed, rec.events[0].Type)
	require.Equal(t, "dp_1", d.DisputeID)
	require.Equal(t, "ch_9", d.ChargeID)
	require.Equal(t, "pi_9", d.PaymentIntentID)
	require.Equal(t, settlement.DisputeStatusLost, d.Status)
	require.EqualValues(t, 5000, d.AmountCents)
	require.Equal(t, uuid.Nil, d.OrderID)
}

func TestTranslateRefundAndTransfer(t *testing.T) {
	svc, rec := newTestService(t)
	orderID, sellerID := uuid.New(), uuid.New()

	refund := envelope(t, "evt_rf", "charge.refunded", map[string]any{
		"id":              "ch_5",
		"object":          "charge",
		"amount":          8000,
		"amount_refunded": 8000,
		"refunded":        true,
		"payment_intent":  "pi_5",
		"metadata":        map[string]string{"order_id": orderID.String()},
	})
	_, err := svc.HandleDelivery(context.Background(), refund, sign(refund))
	require.NoError(t, err)

	transfer := envelope(t, "evt_tr", "transfer.reversed", map[string]any{
		"id":              "tr_7",
		"object":          "transfer",
		"amount":          4000,
		"amount_reversed": 1500,
		"currency":        "usd",
		"destination":     "acct_1",
		"metadata":        map[string]string{"seller_id": sellerID.String(), "order_id": "not-a-uuid"},
	})
	_, err = svc.HandleDelivery(context.Background(), transfer, sign(transfer))
	require.NoError(t, err)

	require.Len(t, rec.events, 2)
	c := rec.events[0].Charge
	require.True(t, c.FullyRefunded)
	require.Equal(t, orderID, c.OrderID)
	require.Equal(t, "pi_5", c.PaymentIntentID)

	tr := rec.events[1].Transfer
	require.Equal(t, settlement.EventTransferReversed, rec.events[1].Type)
	require.Equal(t, sellerID, tr.SellerID)
	require.Equal(t, uuid.Nil, tr.OrderID)
	require.Equal(t, "acct_1", tr.DestinationAccount)
	require.EqualValues(t, 1500, tr.ReversedCents)
}

func TestTranslateAccountUpdated(t *testing.T) {
	svc, rec := newTestService(t)
	sellerID := uuid.New()
	payload := envelope(t, "evt_acct", "account.updated", map[string]any{
		"id":                "acct_42",
		"object":            "account",
		"charges_enabled":   true,
		"payouts_enabled":   false,
		"details_submitted": true,
		"metadata":          map[string]string{"seller_id": sellerID.String()},
		"requirements":      map[string]any{"currently_due": []string{"external_account"}},
	})

	_, err := svc.HandleDelivery(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	a := rec.events[0].Account
	require.Equal(t, sellerID, a.SellerID)
	require.Equal(t, "pending", a.VerificationStatus)
	require.Equal(t, []string{"external_account"}, a.Requirements)
	require.False(t, a.PayoutsEnabled)
}

func TestVerificationStatus(t *testing.T) {
	require.Equal(t, "restricted", verificationStatus(true, "rejected.fraud", 0))
	require.Equal(t, "verified", verificationStatus(true, "", 0))
	require.Equal(t, "unverified", verificationStatus(false, "", 0))
}
