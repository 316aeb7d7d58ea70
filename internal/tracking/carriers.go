package tracking

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

const minTrackingNumberLength = 5

// CarrierInfo describes a carrier for the admin carrier picker.
type CarrierInfo struct {
	ID          enums.Carrier `json:"id"`
	Name        string        `json:"name"`
	TrackingURL string        `json:"tracking_url"`
}

var carrierHomepages = map[enums.Carrier]string{
	enums.CarrierUPS:     "https://www.ups.com/track",
	enums.CarrierFedEx:   "https://www.fedex.com/fedextrack",
	enums.CarrierUSPS:    "https://tools.usps.com/go",
	enums.CarrierDHL:     "https://www.dhl.com/en/express/tracking",
	enums.CarrierAramex:  "https://www.aramex.com/track",
	enums.CarrierSMSA:    "https://www.smsaexpress.com/track",
	enums.CarrierNaqel:   "https://www.naqelexpress.com/tracking",
	enums.CarrierFantasy: "https://fantasy.sa/tracking",
}

// Carriers lists every supported carrier in display order.
func Carriers() []CarrierInfo {
	all := enums.Carriers()
	out := make([]CarrierInfo, 0, len(all))
	for _, c := range all {
		out = append(out, CarrierInfo{ID: c, Name: c.DisplayName(), TrackingURL: carrierHomepages[c]})
	}
	return out
}

// TrackingURL builds the public tracking link for a shipment. Carriers without
// a deep link fall back to the generic tracker.
func TrackingURL(carrier enums.Carrier, number string) string {
	n := url.QueryEscape(strings.TrimSpace(number))
	switch enums.Carrier(strings.ToLower(string(carrier))) {
	case enums.CarrierUPS:
		return "https://www.ups.com/track?tracknum=" + n
	case enums.CarrierFedEx:
		return "https://www.fedex.com/fedextrack/?trknbr=" + n
	case enums.CarrierUSPS:
		return "https://tools.usps.com/go/TrackConfirmAction?tLabels=" + n
	case enums.CarrierDHL:
		return "https://www.dhl.com/en/express/tracking.html?AWB=" + n
	case enums.CarrierAramex:
		return "https://www.aramex.com/track/results?shipmentnumber=" + n
	default:
		return "https://track.example.com/" + url.PathEscape(strings.TrimSpace(number))
	}
}

var (
	upsPattern   = regexp.MustCompile(`(?i)^1Z[A-Z0-9]{16}$`)
	fedexPattern = regexp.MustCompile(`^\d{12,22}$`)
	uspsPattern  = regexp.MustCompile(`(?i)^[A-Z0-9]{20,22}$`)
)

// ValidateTrackingNumber checks number against the format of carrier. The
// returned message is empty when the number is acceptable.
func ValidateTrackingNumber(carrier enums.Carrier, number string) (bool, string) {
	number = strings.TrimSpace(number)
	if len(number) < minTrackingNumberLength {
		return false, "tracking number is too short"
	}
	switch enums.Carrier(strings.ToLower(string(carrier))) {
	case enums.CarrierUPS:
		if !upsPattern.MatchString(number) {
			return false, "invalid UPS tracking number (must start with 1Z)"
		}
	case enums.CarrierFedEx:
		if !fedexPattern.MatchString(number) {
			return false, "invalid FedEx tracking number"
		}
	case enums.CarrierUSPS:
		if !uspsPattern.MatchString(number) {
			return false, "invalid USPS tracking number"
		}
	}
	return true, ""
}
