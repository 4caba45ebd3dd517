package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/packfinderz-settlement/api/responses"
	stripewebhook "github.com/angelmondragon/packfinderz-settlement/internal/webhooks/stripe"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

const maxWebhookBytes = 1 << 20

type deliveryHandler interface {
	HandleDelivery(ctx context.Context, payload []byte, signature string) (*stripewebhook.Receipt, error)
}

// StripeWebhook accepts processor deliveries. Business no-ops answer 200 so
// the processor stops retrying; dependency failures answer 5xx so it retries.
func StripeWebhook(svc deliveryHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		receipt, err := svc.HandleDelivery(ctx, payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithFields(ctx, map[string]any{
				"event_id": receipt.EventID,
				"outcome":  receipt.Outcome,
			}), "stripe event handled")
		}
		responses.WriteSuccess(w, receipt)
	}
}
