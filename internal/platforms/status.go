package platforms

import (
	"strings"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

// vendorStatuses maps supplier order states to the local vocabulary. Anything
// not listed is reported as UNKNOWN and flagged for manual reconciliation.
var vendorStatuses = map[string]enums.FulfillmentRecordStatus{
	"pending":    enums.FulfillmentRecordStatusPending,
	"paid":       enums.FulfillmentRecordStatusProcessing,
	"processing": enums.FulfillmentRecordStatusProcessing,
	"shipped":    enums.FulfillmentRecordStatusShipped,
	"in_transit": enums.FulfillmentRecordStatusShipped,
	"delivered":  enums.FulfillmentRecordStatusDelivered,
	"cancelled":  enums.FulfillmentRecordStatusCancelled,
	"refunded":   enums.FulfillmentRecordStatusRefunded,
}

// MapVendorStatus normalises raw and looks it up. ok is false for unmapped values.
func MapVendorStatus(raw string) (status enums.FulfillmentRecordStatus, ok bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	status, ok = vendorStatuses[key]
	if !ok {
		return enums.FulfillmentRecordStatusUnknown, false
	}
	return status, true
}

func newVendorOrderStatus(vendorOrderID, raw, tracking, trackingURL, carrier string) *VendorOrderStatus {
	status, ok := MapVendorStatus(raw)
	return &VendorOrderStatus{
		VendorOrderID:       vendorOrderID,
		RawStatus:           raw,
		Status:              status,
		NeedsReconciliation: !ok,
		TrackingNumber:      tracking,
		TrackingURL:         trackingURL,
		Carrier:             carrier,
	}
}
