package orders

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/api/middleware"
	"github.com/angelmondragon/packfinderz-settlement/api/responses"
	"github.com/angelmondragon/packfinderz-settlement/api/validators"
	internalorders "github.com/angelmondragon/packfinderz-settlement/internal/orders"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

// FulfillmentService is the seller-facing slice of the order ledger.
type FulfillmentService interface {
	MarkShipped(ctx context.Context, input internalorders.ShipInput) (*models.Order, error)
	MarkDelivered(ctx context.Context, input internalorders.DeliverInput) (*models.Order, error)
}

type shipRequest struct {
	TrackingNumber    string     `json:"tracking_number" validate:"required,max=64"`
	Carrier           string     `json:"carrier" validate:"required,carrier"`
	EstimatedDelivery *time.Time `json:"estimated_delivery_at,omitempty"`
}

// Ship records the seller's shipment for a paid order.
func Ship(svc FulfillmentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		sellerID, orderID, err := sellerAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shipRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.MarkShipped(r.Context(), internalorders.ShipInput{
			OrderID:           orderID,
			SellerID:          sellerID,
			TrackingNumber:    payload.TrackingNumber,
			Carrier:           payload.Carrier,
			EstimatedDelivery: payload.EstimatedDelivery,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Deliver records seller-confirmed delivery for a shipped order.
func Deliver(svc FulfillmentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		sellerID, orderID, err := sellerAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.MarkDelivered(r.Context(), internalorders.DeliverInput{OrderID: orderID, SellerID: sellerID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func sellerAndOrder(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	sellerID := middleware.UserIDFromContext(r.Context())
	if sellerID == uuid.Nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	orderID, err := validators.ParseUUIDParam(r, "orderId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return sellerID, orderID, nil
}
