package enums

import "fmt"

// FulfillmentRecordStatus tracks a single vendor order.
type FulfillmentRecordStatus string

const (
	FulfillmentRecordStatusPending    FulfillmentRecordStatus = "PENDING"
	FulfillmentRecordStatusProcessing FulfillmentRecordStatus = "PROCESSING"
	FulfillmentRecordStatusShipped    FulfillmentRecordStatus = "SHIPPED"
	FulfillmentRecordStatusDelivered  FulfillmentRecordStatus = "DELIVERED"
	FulfillmentRecordStatusCancelled  FulfillmentRecordStatus = "CANCELLED"
	FulfillmentRecordStatusRefunded   FulfillmentRecordStatus = "REFUNDED"
	FulfillmentRecordStatusFailed     FulfillmentRecordStatus = "FAILED"
	FulfillmentRecordStatusUnknown    FulfillmentRecordStatus = "UNKNOWN"
)

var validFulfillmentRecordStatuses = []FulfillmentRecordStatus{
	FulfillmentRecordStatusPending,
	FulfillmentRecordStatusProcessing,
	FulfillmentRecordStatusShipped,
	FulfillmentRecordStatusDelivered,
	FulfillmentRecordStatusCancelled,
	FulfillmentRecordStatusRefunded,
	FulfillmentRecordStatusFailed,
	FulfillmentRecordStatusUnknown,
}

// String implements fmt.Stringer.
func (v FulfillmentRecordStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known FulfillmentRecordStatus.
func (v FulfillmentRecordStatus) IsValid() bool {
	for _, candidate := range validFulfillmentRecordStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseFulfillmentRecordStatus converts raw input into a FulfillmentRecordStatus.
func ParseFulfillmentRecordStatus(value string) (FulfillmentRecordStatus, error) {
	for _, candidate := range validFulfillmentRecordStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment record status %q", value)
}
