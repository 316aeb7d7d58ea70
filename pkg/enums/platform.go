package enums

import "fmt"

// Platform identifies a product source and fulfillment backend.
type Platform string

const (
	PlatformLocal     Platform = "local"
	PlatformCJ        Platform = "cj"
	PlatformZendrop   Platform = "zendrop"
	PlatformAppScenic Platform = "appscenic"
)

var validPlatforms = []Platform{
	PlatformLocal,
	PlatformCJ,
	PlatformZendrop,
	PlatformAppScenic,
}

// String implements fmt.Stringer.
func (v Platform) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Platform.
func (v Platform) IsValid() bool {
	for _, candidate := range validPlatforms {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePlatform converts raw input into a Platform.
func ParsePlatform(value string) (Platform, error) {
	for _, candidate := range validPlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid platform %q", value)
}

// IsVendor reports whether the platform is an external supplier.
func (v Platform) IsVendor() bool {
	return v.IsValid() && v != PlatformLocal
}

// CanBeActive reports whether the platform may be the store's active
// catalog. CJ only supplies imported products and fulfillment.
func (v Platform) CanBeActive() bool {
	return v == PlatformLocal || v == PlatformZendrop || v == PlatformAppScenic
}

// Platforms returns every known platform in display order.
func Platforms() []Platform {
	out := make([]Platform, len(validPlatforms))
	copy(out, validPlatforms)
	return out
}
