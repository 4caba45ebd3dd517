package enums

import "fmt"

// BalanceField names one of the three running totals on a seller balance.
type BalanceField string

const (
	BalanceAvailable BalanceField = "available"
	BalancePending   BalanceField = "pending"
	BalanceWithdrawn BalanceField = "withdrawn"
)

var validBalanceFields = []BalanceField{
	BalanceAvailable,
	BalancePending,
	BalanceWithdrawn,
}

func (b BalanceField) String() string {
	return string(b)
}

func (b BalanceField) IsValid() bool {
	for _, candidate := range validBalanceFields {
		if candidate == b {
			return true
		}
	}
	return false
}

// CountsTowardNet reports whether the field participates in the
// available+pending sum that seller transactions reconcile against.
func (b BalanceField) CountsTowardNet() bool {
	return b == BalanceAvailable || b == BalancePending
}

func ParseBalanceField(value string) (BalanceField, error) {
	for _, candidate := range validBalanceFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid balance field %q", value)
}
