package enums

import "fmt"

// Carrier lists the shipping carriers the storefront knows how to link to.
type Carrier string

const (
	CarrierUPS     Carrier = "ups"
	CarrierFedEx   Carrier = "fedex"
	CarrierUSPS    Carrier = "usps"
	CarrierDHL     Carrier = "dhl"
	CarrierAramex  Carrier = "aramex"
	CarrierSMSA    Carrier = "smsa"
	CarrierNaqel   Carrier = "naqel"
	CarrierFantasy Carrier = "fantasy"
	CarrierOther   Carrier = "other"
)

var validCarriers = []Carrier{
	CarrierUPS,
	CarrierFedEx,
	CarrierUSPS,
	CarrierDHL,
	CarrierAramex,
	CarrierSMSA,
	CarrierNaqel,
	CarrierFantasy,
	CarrierOther,
}

// String implements fmt.Stringer.
func (v Carrier) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Carrier.
func (v Carrier) IsValid() bool {
	for _, candidate := range validCarriers {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCarrier converts raw input into a Carrier.
func ParseCarrier(value string) (Carrier, error) {
	for _, candidate := range validCarriers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid carrier %q", value)
}

var carrierNames = map[Carrier]string{
	CarrierUPS:     "UPS",
	CarrierFedEx:   "FedEx",
	CarrierUSPS:    "USPS",
	CarrierDHL:     "DHL",
	CarrierAramex:  "Aramex",
	CarrierSMSA:    "SMSA Express",
	CarrierNaqel:   "Naqel Express",
	CarrierFantasy: "Fantasy Express",
	CarrierOther:   "Other",
}

// DisplayName returns the human readable carrier name.
func (v Carrier) DisplayName() string {
	if name, ok := carrierNames[v]; ok {
		return name
	}
	return string(v)
}

// Carriers returns every supported carrier.
func Carriers() []Carrier {
	out := make([]Carrier, len(validCarriers))
	copy(out, validCarriers)
	return out
}
