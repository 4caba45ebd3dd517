package enums

// AuditAction names a privileged or state-changing operation.
type AuditAction string

const (
	AuditWebhookProcessed     AuditAction = "webhook_processed"
	AuditOrderTransition      AuditAction = "order_transition"
	AuditOrderAnomaly         AuditAction = "order_anomaly"
	AuditBalanceFloorApplied  AuditAction = "balance_floor_applied"
	AuditBalanceMismatch      AuditAction = "balance_mismatch"
	AuditStockRestored        AuditAction = "stock_restored"
	AuditShipmentUpdated      AuditAction = "shipment_updated"
	AuditWithdrawalApproved   AuditAction = "withdrawal_approved"
	AuditWithdrawalRejected   AuditAction = "withdrawal_rejected"
	AuditWithdrawalFailed     AuditAction = "withdrawal_failed"
	AuditSellerApplication    AuditAction = "seller_application_reviewed"
	AuditProductModerated     AuditAction = "product_moderated"
	AuditUserSuspended        AuditAction = "user_suspended"
	AuditUserUnsuspended      AuditAction = "user_unsuspended"
	AuditSellerAccountUpdated AuditAction = "seller_account_updated"
)

func (a AuditAction) String() string {
	return string(a)
}

// AuditSeverity lets reconciliation tooling find anomalies quickly.
type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityCritical AuditSeverity = "critical"
)

// AuditTargetType names the entity an audit row refers to.
type AuditTargetType string

const (
	AuditTargetOrder             AuditTargetType = "order"
	AuditTargetSeller            AuditTargetType = "seller"
	AuditTargetWithdrawal        AuditTargetType = "withdrawal_request"
	AuditTargetPayout            AuditTargetType = "payout"
	AuditTargetUser              AuditTargetType = "user"
	AuditTargetProduct           AuditTargetType = "product"
	AuditTargetSellerApplication AuditTargetType = "seller_application"
	AuditTargetEvent             AuditTargetType = "event"
)
