package enums

import "fmt"

// SellerTransactionType classifies ledger entries.
type SellerTransactionType string

const (
	SellerTransactionPayout         SellerTransactionType = "payout"
	SellerTransactionFee            SellerTransactionType = "fee"
	SellerTransactionRefund         SellerTransactionType = "refund"
	SellerTransactionAdjustment     SellerTransactionType = "adjustment"
	SellerTransactionWithdrawal     SellerTransactionType = "withdrawal"
	SellerTransactionDisputeHold    SellerTransactionType = "dispute_hold"
	SellerTransactionDisputeRelease SellerTransactionType = "dispute_release"
	SellerTransactionDisputeLoss    SellerTransactionType = "dispute_loss"
	SellerTransactionReversal       SellerTransactionType = "transfer_reversal"
)

var validSellerTransactionTypes = []SellerTransactionType{
	SellerTransactionPayout,
	SellerTransactionFee,
	SellerTransactionRefund,
	SellerTransactionAdjustment,
	SellerTransactionWithdrawal,
	SellerTransactionDisputeHold,
	SellerTransactionDisputeRelease,
	SellerTransactionDisputeLoss,
	SellerTransactionReversal,
}

func (t SellerTransactionType) String() string {
	return string(t)
}

func (t SellerTransactionType) IsValid() bool {
	for _, candidate := range validSellerTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseSellerTransactionType(value string) (SellerTransactionType, error) {
	for _, candidate := range validSellerTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller transaction type %q", value)
}

// SellerTransactionStatus is the resulting status recorded on a ledger entry.
type SellerTransactionStatus string

const (
	SellerTransactionStatusCompleted SellerTransactionStatus = "completed"
	SellerTransactionStatusHeld      SellerTransactionStatus = "held"
	SellerTransactionStatusReversed  SellerTransactionStatus = "reversed"
)

func (s SellerTransactionStatus) String() string {
	return string(s)
}
