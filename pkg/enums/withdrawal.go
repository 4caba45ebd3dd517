package enums

import "fmt"

// WithdrawalStatus tracks a seller withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

var validWithdrawalStatuses = []WithdrawalStatus{
	WithdrawalStatusPending,
	WithdrawalStatusCompleted,
	WithdrawalStatusRejected,
}

func (w WithdrawalStatus) String() string {
	return string(w)
}

func (w WithdrawalStatus) IsValid() bool {
	for _, candidate := range validWithdrawalStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

func ParseWithdrawalStatus(value string) (WithdrawalStatus, error) {
	for _, candidate := range validWithdrawalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid withdrawal status %q", value)
}

// WithdrawalAction is the admin decision applied to a pending request.
type WithdrawalAction string

const (
	WithdrawalActionApprove WithdrawalAction = "approve"
	WithdrawalActionReject  WithdrawalAction = "reject"
)

func ParseWithdrawalAction(value string) (WithdrawalAction, error) {
	switch WithdrawalAction(value) {
	case WithdrawalActionApprove, WithdrawalActionReject:
		return WithdrawalAction(value), nil
	default:
		return "", fmt.Errorf("invalid withdrawal action %q", value)
	}
}

// PayoutMethod is where an approved withdrawal is sent.
type PayoutMethod string

const (
	PayoutMethodBankTransfer  PayoutMethod = "bank_transfer"
	PayoutMethodStripeConnect PayoutMethod = "stripe_connect"
	PayoutMethodCheck         PayoutMethod = "check"
)

func (p PayoutMethod) IsValid() bool {
	switch p {
	case PayoutMethodBankTransfer, PayoutMethodStripeConnect, PayoutMethodCheck:
		return true
	default:
		return false
	}
}
