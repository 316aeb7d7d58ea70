package enums

import "fmt"

// FulfillmentStatus is the aggregated supplier fulfillment state stored on an order.
type FulfillmentStatus string

const (
	FulfillmentStatusUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentStatusProcessing  FulfillmentStatus = "processing"
	FulfillmentStatusPartial     FulfillmentStatus = "partial"
	FulfillmentStatusShipped     FulfillmentStatus = "shipped"
	FulfillmentStatusDelivered   FulfillmentStatus = "delivered"
	FulfillmentStatusCancelled   FulfillmentStatus = "cancelled"
	FulfillmentStatusFailed      FulfillmentStatus = "failed"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentStatusUnfulfilled,
	FulfillmentStatusProcessing,
	FulfillmentStatusPartial,
	FulfillmentStatusShipped,
	FulfillmentStatusDelivered,
	FulfillmentStatusCancelled,
	FulfillmentStatusFailed,
}

// String implements fmt.Stringer.
func (v FulfillmentStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (v FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}
