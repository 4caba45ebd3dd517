// Package stripewebhook authenticates Stripe webhook deliveries and hands the
// decoded events to the settlement reconciler.
package stripewebhook

import (
	"context"
	"errors"

	"github.com/angelmondragon/packfinderz-settlement/internal/settlement"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

type eventHandler interface {
	Handle(ctx context.Context, ev settlement.Event) (string, error)
}

type ServiceParams struct {
	Verifier   *Verifier
	Reconciler eventHandler
	Logger     *logger.Logger
}

type Service struct {
	verifier   *Verifier
	reconciler eventHandler
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Verifier == nil {
		return nil, errors.New("webhook verifier required")
	}
	if params.Reconciler == nil {
		return nil, errors.New("settlement reconciler required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{verifier: params.Verifier, reconciler: params.Reconciler, logg: logg}, nil
}

// Receipt is what the webhook endpoint reports back to Stripe.
type Receipt struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Outcome string `json:"outcome"`
}

// HandleDelivery verifies the payload, translates it and runs it through the
// reconciler. Signature failures never reach the reconciler.
func (s *Service) HandleDelivery(ctx context.Context, payload []byte, signature string) (*Receipt, error) {
	event, err := s.verifier.Verify(payload, signature)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithEventID(ctx, event.ID, string(event.Type))

	ev, err := Translate(event)
	if err != nil {
		return nil, err
	}
	outcome, err := s.reconciler.Handle(ctx, ev)
	if err != nil {
		return nil, err
	}
	return &Receipt{EventID: event.ID, Type: string(event.Type), Outcome: outcome}, nil
}
