package platforms

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/types"
)

// UnifiedVariant is a supplier variant in the shared catalog shape.
type UnifiedVariant struct {
	ID         string            `json:"id"`
	VendorID   string            `json:"vendor_id"`
	SKU        string            `json:"sku"`
	Name       string            `json:"name"`
	Price      decimal.Decimal   `json:"price"`
	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// UnifiedProduct is a supplier product in the shared catalog shape. ID carries
// the platform prefix; VendorID is the raw supplier id.
type UnifiedProduct struct {
	ID             string           `json:"id"`
	VendorID       string           `json:"vendor_id"`
	Platform       enums.Platform   `json:"platform"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CostPrice      decimal.Decimal  `json:"cost_price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Images         []string         `json:"images"`
	Category       string           `json:"category"`
	Subcategory    string           `json:"subcategory,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
	Stock          int              `json:"stock"`
	SKU            string           `json:"sku"`
	Weight         float64          `json:"weight,omitempty"`
	Rating         float64          `json:"rating,omitempty"`
	ReviewCount    int              `json:"review_count,omitempty"`
	Variants       []UnifiedVariant `json:"variants,omitempty"`
}

// ProductQuery filters a catalog listing.
type ProductQuery struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Platform enums.Platform   `json:"platform"`
	Products []UnifiedProduct `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// VendorOrderItem is one line sent to a supplier. ProductID and VariantID may
// carry the platform prefix. VendorSKU is the supplier SKU when known.
type VendorOrderItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	VendorSKU string `json:"vendor_sku,omitempty"`
	Quantity  int    `json:"quantity"`
}

// VendorOrderRequest is a supplier order.
type VendorOrderRequest struct {
	Reference      string                `json:"reference"`
	Items          []VendorOrderItem     `json:"items"`
	Address        types.ShippingAddress `json:"shipping_address"`
	Email          string                `json:"email,omitempty"`
	Notes          string                `json:"notes,omitempty"`
	Warehouse      string                `json:"warehouse,omitempty"`
	ShippingMethod string                `json:"shipping_method,omitempty"`
}

// VendorOrderResult is what the supplier returned for a created order.
type VendorOrderResult struct {
	VendorOrderID string `json:"vendor_order_id"`
	RawStatus     string `json:"raw_status,omitempty"`
}

// VendorOrderStatus is a polled supplier order state mapped to the local vocabulary.
type VendorOrderStatus struct {
	VendorOrderID       string                        `json:"vendor_order_id"`
	RawStatus           string                        `json:"raw_status"`
	Status              enums.FulfillmentRecordStatus `json:"status"`
	NeedsReconciliation bool                          `json:"needs_reconciliation"`
	TrackingNumber      string                        `json:"tracking_number,omitempty"`
	TrackingURL         string                        `json:"tracking_url,omitempty"`
	Carrier             string                        `json:"carrier,omitempty"`
}
