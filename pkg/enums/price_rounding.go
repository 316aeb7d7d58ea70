package enums

import "fmt"

// PriceRounding selects how imported prices are rounded.
type PriceRounding string

const (
	PriceRoundingNone          PriceRounding = "none"
	PriceRoundingNearestDollar PriceRounding = "nearest_dollar"
	PriceRoundingNearest99     PriceRounding = "nearest_99"
	PriceRoundingFixed         PriceRounding = "fixed"
)

var validPriceRoundings = []PriceRounding{
	PriceRoundingNone,
	PriceRoundingNearestDollar,
	PriceRoundingNearest99,
	PriceRoundingFixed,
}

// String implements fmt.Stringer.
func (v PriceRounding) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PriceRounding.
func (v PriceRounding) IsValid() bool {
	for _, candidate := range validPriceRoundings {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePriceRounding converts raw input into a PriceRounding.
func ParsePriceRounding(value string) (PriceRounding, error) {
	for _, candidate := range validPriceRoundings {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price rounding %q", value)
}
