package fulfillment

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/types"
)

// FulfillItem overrides the order lines sent to suppliers.
type FulfillItem struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

// FulfillInput places supplier orders for a local order. Items, Address and
// Email default to the order's own values.
type FulfillInput struct {
	OrderID uuid.UUID
	Items   []FulfillItem
	Address *types.ShippingAddress
	Email   string
	Force   bool
}

// GroupResult is the outcome of one supplier order.
type GroupResult struct {
	Platform      enums.Platform           `json:"platform"`
	Success       bool                     `json:"success"`
	RecordID      uuid.UUID                `json:"record_id"`
	VendorOrderID string                   `json:"vendor_order_id,omitempty"`
	Items         []models.FulfillmentItem `json:"items"`
	Error         string                   `json:"error,omitempty"`
}

// FulfillResult summarises a fulfillment attempt. Supplier failures are
// reported here rather than as errors.
type FulfillResult struct {
	OrderID           uuid.UUID               `json:"order_id"`
	Success           bool                    `json:"success"`
	FulfillmentStatus enums.FulfillmentStatus `json:"fulfillment_status"`
	Groups            []GroupResult           `json:"groups"`
	Error             string                  `json:"error,omitempty"`
}

// PlatformUpdate is a supplier status report for one vendor order.
type PlatformUpdate struct {
	OrderID        uuid.UUID
	Platform       enums.Platform
	VendorOrderID  string
	Status         string
	TrackingNumber string
	TrackingURL    string
	Carrier        string
}

// SyncOrdersResult reports a pass over the active supplier orders.
type SyncOrdersResult struct {
	Synced        int         `json:"synced"`
	Errors        int         `json:"errors"`
	UpdatedOrders []uuid.UUID `json:"updated_orders"`
	Failures      []string    `json:"failures,omitempty"`

	errs error
}

// Err combines every per-record failure of the run.
func (r *SyncOrdersResult) Err() error {
	if r == nil {
		return nil
	}
	return r.errs
}

// AutoFulfillResult reports one scheduled auto-fulfill pass.
type AutoFulfillResult struct {
	Enabled   bool `json:"enabled"`
	Attempted int  `json:"attempted"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`

	errs error
}

func (r *AutoFulfillResult) Err() error {
	if r == nil {
		return nil
	}
	return r.errs
}

// StatusView is the fulfillment state of one order.
type StatusView struct {
	OrderID          uuid.UUID                  `json:"order_id"`
	Status           enums.FulfillmentStatus    `json:"status"`
	VendorOrderIDs   map[enums.Platform]string  `json:"vendor_order_ids,omitempty"`
	TrackingNumber   *string                    `json:"tracking_number,omitempty"`
	TrackingURL      *string                    `json:"tracking_url,omitempty"`
	Carrier          *string                    `json:"carrier,omitempty"`
	LastError        *string                    `json:"last_error,omitempty"`
	UpdatedAt        time.Time                  `json:"updated_at"`
	Records          []models.FulfillmentRecord `json:"records"`
	NeedsReconciling bool                       `json:"needs_reconciliation"`
}

// Stats counts orders by fulfillment progress.
type Stats struct {
	TotalOrders         int64 `json:"total_orders"`
	PendingFulfillment  int64 `json:"pending_fulfillment"`
	Processing          int64 `json:"processing"`
	Shipped             int64 `json:"shipped"`
	Delivered           int64 `json:"delivered"`
	Failed              int64 `json:"failed"`
	NeedsReconciliation int64 `json:"needs_reconciliation"`
}
