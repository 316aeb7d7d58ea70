package enums

import "fmt"

// DemandLevel buckets a candidate product by observed order volume.
type DemandLevel string

const (
	DemandLevelHot    DemandLevel = "HOT"
	DemandLevelSteady DemandLevel = "STEADY"
	DemandLevelLow    DemandLevel = "LOW"
)

var validDemandLevels = []DemandLevel{
	DemandLevelHot,
	DemandLevelSteady,
	DemandLevelLow,
}

// String implements fmt.Stringer.
func (v DemandLevel) String() string {
	return string(v)
}

// IsValid reports whether the value is a known DemandLevel.
func (v DemandLevel) IsValid() bool {
	for _, candidate := range validDemandLevels {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseDemandLevel converts raw input into a DemandLevel.
func ParseDemandLevel(value string) (DemandLevel, error) {
	for _, candidate := range validDemandLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid demand level %q", value)
}
