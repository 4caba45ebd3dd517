package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/packfinderz-settlement/internal/settlement"
	stripewebhook "github.com/angelmondragon/packfinderz-settlement/internal/webhooks/stripe"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

const testSecret = "whsec_controller"

type fakeReconciler struct {
	calls   int
	outcome string
	err     error
}

func (f *fakeReconciler) Handle(context.Context, settlement.Event) (string, error) {
	f.calls++
	return f.outcome, f.err
}

func newHandler(t *testing.T, rec *fakeReconciler) http.HandlerFunc {
	t.Helper()
	verifier, err := stripewebhook.NewVerifier(testSecret, 0)
	require.NoError(t, err)
	svc, err := stripewebhook.NewService(stripewebhook.ServiceParams{Verifier: verifier, Reconciler: rec, Logger: logger.Nop()})
	require.NoError(t, err)
	return StripeWebhook(svc, logger.Nop())
}

func signedRequest(t *testing.T, secret string) *http.Request {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_ctrl_1",
		"object":      "event",
		"type":        "payment_intent.succeeded",
		"api_version": "2025-01-27.acacia",
		"data": map[string]any{"object": map[string]any{
			"id":       "pi_ctrl_1",
			"object":   "payment_intent",
			"amount":   5000,
			"metadata": map[string]string{"order_id": "5d0a3c59-7a0b-4d5e-9e1b-7b8a0d1f2c3e"},
		}},
	})
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret, Timestamp: time.Now()})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func TestStripeWebhookHandlesSignedDelivery(t *testing.T) {
	rec := &fakeReconciler{outcome: "applied"}
	resp := httptest.NewRecorder()
	newHandler(t, rec)(resp, signedRequest(t, testSecret))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, 1, rec.calls)

	var envelope struct {
		Data stripewebhook.Receipt `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, "evt_ctrl_1", envelope.Data.EventID)
	require.Equal(t, "applied", envelope.Data.Outcome)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	rec := &fakeReconciler{outcome: "applied"}
	resp := httptest.NewRecorder()
	newHandler(t, rec)(resp, signedRequest(t, "whsec_wrong"))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "SIGNATURE_INVALID")
	require.Zero(t, rec.calls)
}

func TestStripeWebhookSurfacesRetryableFailure(t *testing.T) {
	rec := &fakeReconciler{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "apply event")}
	resp := httptest.NewRecorder()
	newHandler(t, rec)(resp, signedRequest(t, testSecret))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
