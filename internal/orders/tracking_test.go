package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

func TestValidTrackingNumber(t *testing.T) {
	cases := []struct {
		carrier enums.Carrier
		number  string
		valid   bool
	}{
		{enums.CarrierUPS, "1Z999AA10123456784", true},
		{enums.CarrierUPS, "1Z999AA1012345678", false},
		{enums.CarrierUSPS, "94001111899223334445", true},
		{enums.CarrierUSPS, "EC123456789US", true},
		{enums.CarrierUSPS, "EC123456789CA", false},
		{enums.CarrierFedEx, "123456789012", true},
		{enums.CarrierFedEx, "1234567890123", false},
		{enums.CarrierDHL, "1234567890", true},
		{enums.CarrierDHL, "123456789", false},
		{enums.Carrier("pigeon"), "1234567890", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, ValidTrackingNumber(tc.carrier, tc.number), "%s %s", tc.carrier, tc.number)
	}
}

func TestNormalizeTrackingNumber(t *testing.T) {
	assert.Equal(t, "1Z999AA10123456784", NormalizeTrackingNumber(" 1z999aa1-0123 456784 "))
}

func TestTrackingURL(t *testing.T) {
	assert.Equal(t, "https://www.ups.com/track?tracknum=1Z999AA10123456784", TrackingURL(enums.CarrierUPS, "1Z999AA10123456784"))
	assert.Empty(t, TrackingURL(enums.Carrier("pigeon"), "123"))
	assert.Empty(t, TrackingURL(enums.CarrierDHL, ""))
}
