package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationOrderPaid           NotificationType = "order_paid"
	NotificationOrderShipped        NotificationType = "order_shipped"
	NotificationOrderDelivered      NotificationType = "order_delivered"
	NotificationRefundProcessed     NotificationType = "refund_processed"
	NotificationDisputeOpened       NotificationType = "dispute_opened"
	NotificationDisputeResolved     NotificationType = "dispute_resolved"
	NotificationPayoutFailed        NotificationType = "payout_failed"
	NotificationWithdrawalProcessed NotificationType = "withdrawal_processed"
	NotificationAccountUpdated      NotificationType = "account_updated"
	NotificationAccountSuspended    NotificationType = "account_suspended"
)

var validNotificationTypes = []NotificationType{
	NotificationOrderPaid,
	NotificationOrderShipped,
	NotificationOrderDelivered,
	NotificationRefundProcessed,
	NotificationDisputeOpened,
	NotificationDisputeResolved,
	NotificationPayoutFailed,
	NotificationWithdrawalProcessed,
	NotificationAccountUpdated,
	NotificationAccountSuspended,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
