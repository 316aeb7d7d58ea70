package platforms

import (
	"strings"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

// ProductID prefixes a raw supplier product id, e.g. zendrop_123.
func ProductID(platform enums.Platform, vendorID string) string {
	if vendorID == "" {
		return ""
	}
	return string(platform) + "_" + vendorID
}

// VariantID prefixes a raw supplier variant id, e.g. zendrop_variant_7.
func VariantID(platform enums.Platform, vendorID string) string {
	if vendorID == "" {
		return ""
	}
	return string(platform) + "_variant_" + vendorID
}

// StripID removes the product or variant prefix of platform from id.
func StripID(platform enums.Platform, id string) string {
	id = strings.TrimSpace(id)
	if rest, ok := strings.CutPrefix(id, string(platform)+"_variant_"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(id, string(platform)+"_"); ok {
		return rest
	}
	return id
}
