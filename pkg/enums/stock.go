package enums

import "fmt"

// StockRestoreReason explains why inventory was returned to a product.
type StockRestoreReason string

const (
	StockRestoreReturn StockRestoreReason = "return"
	StockRestoreCancel StockRestoreReason = "cancel"
)

func (r StockRestoreReason) IsValid() bool {
	return r == StockRestoreReturn || r == StockRestoreCancel
}

func ParseStockRestoreReason(value string) (StockRestoreReason, error) {
	r := StockRestoreReason(value)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid stock restore reason %q", value)
	}
	return r, nil
}
