package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

func TestValidateTrackingNumber(t *testing.T) {
	cases := []struct {
		name    string
		carrier enums.Carrier
		number  string
		valid   bool
	}{
		{"too short", enums.CarrierDHL, "1234", false},
		{"ups ok", enums.CarrierUPS, "1Z999AA10123456784", true},
		{"ups lower case", enums.CarrierUPS, "1z999aa10123456784", true},
		{"ups missing prefix", enums.CarrierUPS, "9Z999AA10123456784", false},
		{"fedex ok", enums.CarrierFedEx, "123456789012", true},
		{"fedex letters", enums.CarrierFedEx, "12345678901A", false},
		{"usps ok", enums.CarrierUSPS, "9400111899223197428490", true},
		{"usps short", enums.CarrierUSPS, "94001118992231974", false},
		{"other carrier free form", enums.CarrierAramex, "AX-55555", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, msg := ValidateTrackingNumber(tc.carrier, tc.number)
			assert.Equal(t, tc.valid, ok)
			if tc.valid {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

func TestTrackingURL(t *testing.T) {
	assert.Equal(t, "https://www.ups.com/track?tracknum=1Z999AA10123456784", TrackingURL(enums.CarrierUPS, "1Z999AA10123456784"))
	assert.Equal(t, "https://www.dhl.com/en/express/tracking.html?AWB=JD0146", TrackingURL("DHL", "JD0146"))
	assert.Equal(t, "https://track.example.com/SMSA123", TrackingURL(enums.CarrierSMSA, "SMSA123"))
}

func TestCarriersListsEveryCarrier(t *testing.T) {
	carriers := Carriers()
	assert.Len(t, carriers, len(enums.Carriers()))
	assert.Equal(t, "UPS", carriers[0].Name)
	last := carriers[len(carriers)-1]
	assert.Equal(t, enums.CarrierOther, last.ID)
	assert.Empty(t, last.TrackingURL)
}
