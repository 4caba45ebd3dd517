package orders

import (
	"time"

	"github.com/google/uuid"
)

// ShipInput is a seller's shipment confirmation.
type ShipInput struct {
	OrderID           uuid.UUID
	SellerID          uuid.UUID
	TrackingNumber    string
	Carrier           string
	EstimatedDelivery *time.Time
}

// DeliverInput is a seller's delivery confirmation.
type DeliverInput struct {
	OrderID  uuid.UUID
	SellerID uuid.UUID
}

// AutoCompleteResult summarizes one auto-complete sweep.
type AutoCompleteResult struct {
	Scanned   int
	Completed int
}

type transitionDetails struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Event Event  `json:"event"`
}

type shipmentDetails struct {
	Carrier        string     `json:"carrier"`
	TrackingNumber string     `json:"tracking_number"`
	EstimatedAt    *time.Time `json:"estimated_delivery_at,omitempty"`
}
