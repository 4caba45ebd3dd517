package enums

import "fmt"

// PaymentStatus is the legacy-shaped payment flag. It is never written on its
// own: models.Order.ProjectedPaymentStatus derives it from OrderStatus.PaymentStatus
// on every save.
type PaymentStatus string

const (
	PaymentStatusUnpaid            PaymentStatus = "unpaid"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusPartiallyRefunded,
}

func (p PaymentStatus) String() string {
	return string(p)
}

func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// PaymentStatus projects the canonical order status onto the legacy payment
// flag. failed is only honored while the order has not been paid.
func (s OrderStatus) PaymentStatus(failed bool) PaymentStatus {
	switch s {
	case OrderStatusPending:
		if failed {
			return PaymentStatusFailed
		}
		return PaymentStatusUnpaid
	case OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusDisputeOpened, OrderStatusCompleted:
		return PaymentStatusPaid
	case OrderStatusRefunded:
		return PaymentStatusRefunded
	case OrderStatusPartialRefund:
		return PaymentStatusPartiallyRefunded
	default:
		return PaymentStatusUnpaid
	}
}
