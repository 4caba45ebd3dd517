package enums

import (
	"fmt"
	"strings"
)

// Carrier identifies a shipping provider.
type Carrier string

const (
	CarrierUPS   Carrier = "ups"
	CarrierUSPS  Carrier = "usps"
	CarrierFedEx Carrier = "fedex"
	CarrierDHL   Carrier = "dhl"
)

var validCarriers = []Carrier{
	CarrierUPS,
	CarrierUSPS,
	CarrierFedEx,
	CarrierDHL,
}

func (c Carrier) String() string {
	return string(c)
}

func (c Carrier) IsValid() bool {
	for _, candidate := range validCarriers {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCarrier accepts any casing.
func ParseCarrier(value string) (Carrier, error) {
	normalized := Carrier(strings.ToLower(strings.TrimSpace(value)))
	if !normalized.IsValid() {
		return "", fmt.Errorf("invalid carrier %q", value)
	}
	return normalized, nil
}
