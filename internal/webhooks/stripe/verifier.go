package stripewebhook

import (
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
)

// Verifier checks the Stripe-Signature header against the endpoint secret.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("stripe webhook secret is required")
	}
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance}, nil
}

// Verify authenticates the raw body and decodes the event envelope.
func (v *Verifier) Verify(payload []byte, header string) (stripe.Event, error) {
	if strings.TrimSpace(header) == "" {
		return stripe.Event{}, pkgerrors.New(pkgerrors.CodeSignatureInvalid, "stripe signature missing")
	}
	event, err := webhook.ConstructEventWithOptions(payload, header, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, pkgerrors.Wrap(pkgerrors.CodeSignatureInvalid, err, "verify stripe signature")
	}
	return event, nil
}
