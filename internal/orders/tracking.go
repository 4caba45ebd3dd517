package orders

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

var trackingPatterns = map[enums.Carrier]*regexp.Regexp{
	enums.CarrierUPS:   regexp.MustCompile(`^1Z[0-9A-Z]{16}$`),
	enums.CarrierUSPS:  regexp.MustCompile(`^(\d{20,22}|[A-Z]{2}\d{9}US)$`),
	enums.CarrierFedEx: regexp.MustCompile(`^(\d{12}|\d{15}|\d{20})$`),
	enums.CarrierDHL:   regexp.MustCompile(`^\d{10,11}$`),
}

var trackingURLs = map[enums.Carrier]string{
	enums.CarrierUPS:   "https://www.ups.com/track?tracknum=%s",
	enums.CarrierUSPS:  "https://tools.usps.com/go/TrackConfirmAction?tLabels=%s",
	enums.CarrierFedEx: "https://www.fedex.com/fedextrack/?trknbr=%s",
	enums.CarrierDHL:   "https://www.dhl.com/en/express/tracking.html?AWB=%s",
}

// NormalizeTrackingNumber strips spaces and dashes and upper-cases the value.
func NormalizeTrackingNumber(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	return strings.NewReplacer(" ", "", "-", "").Replace(value)
}

// ValidTrackingNumber reports whether number matches the carrier's format.
func ValidTrackingNumber(carrier enums.Carrier, number string) bool {
	pattern, ok := trackingPatterns[carrier]
	if !ok {
		return false
	}
	return pattern.MatchString(number)
}

// TrackingURL returns the public tracking page for a shipment, or "" for an
// unknown carrier.
func TrackingURL(carrier enums.Carrier, number string) string {
	format, ok := trackingURLs[carrier]
	if !ok || number == "" {
		return ""
	}
	return fmt.Sprintf(format, url.QueryEscape(number))
}
