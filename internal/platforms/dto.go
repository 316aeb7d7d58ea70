package platforms

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/types"
)

// InventoryItem asks whether Quantity units of ProductID can be sold.
type InventoryItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// InventoryCheck is the answer for one InventoryItem.
type InventoryCheck struct {
	ProductID string         `json:"product_id"`
	SKU       string         `json:"sku"`
	Platform  enums.Platform `json:"platform"`
	Available bool           `json:"available"`
	Quantity  int            `json:"quantity"`
	Requested int            `json:"requested"`
}

// OrderItemInput is one requested line. ProductID is a catalog UUID, or a
// supplier product id when ordering straight from a supplier catalog. UnitPrice,
// Name and SKU are only read for supplier products that were never imported.
type OrderItemInput struct {
	ProductID string           `json:"product_id" validate:"required"`
	VariantID string           `json:"variant_id,omitempty"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Name      string           `json:"name,omitempty"`
	SKU       string           `json:"sku,omitempty"`
}

// OrderInput is a storefront order.
type OrderInput struct {
	CustomerID      *uuid.UUID            `json:"customer_id,omitempty"`
	CustomerEmail   string                `json:"customer_email" validate:"required,email"`
	CustomerName    string                `json:"customer_name"`
	CustomerPhone   string                `json:"customer_phone,omitempty"`
	ShippingAddress types.ShippingAddress `json:"shipping_address" validate:"required"`
	Items           []OrderItemInput      `json:"items" validate:"required,min=1,dive"`
	ShippingCost    decimal.Decimal       `json:"shipping_cost"`
	Tax             decimal.Decimal       `json:"tax"`
	Notes           string                `json:"notes,omitempty"`
}

// OrderResult reports how order creation went. A supplier rejection yields
// Success=false with Error set and nothing persisted.
type OrderResult struct {
	Success       bool           `json:"success"`
	OrderID       string         `json:"order_id,omitempty"`
	OrderNumber   string         `json:"order_number,omitempty"`
	Platform      enums.Platform `json:"platform"`
	VendorOrderID string         `json:"vendor_order_id,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// StatusInput enables or disables a platform. Credentials are only replaced
// when provided.
type StatusInput struct {
	Platform  enums.Platform `json:"platform"`
	Enabled   bool           `json:"enabled"`
	APIKey    *string        `json:"api_key,omitempty"`
	AppKey    *string        `json:"app_key,omitempty"`
	SecretKey *string        `json:"secret_key,omitempty"`
}

// RedactedVendor is a vendor settings block safe to return to callers.
type RedactedVendor struct {
	Enabled      bool `json:"enabled"`
	APIKeySet    bool `json:"api_key_set"`
	AppKeySet    bool `json:"app_key_set,omitempty"`
	SecretKeySet bool `json:"secret_key_set,omitempty"`
}

// RedactedSettings is the platform configuration without secrets.
type RedactedSettings struct {
	ActivePlatform enums.Platform                    `json:"active_platform"`
	Platforms      map[enums.Platform]RedactedVendor `json:"platforms"`
	Automation     AutomationView                    `json:"automation"`
	Version        int64                             `json:"version"`
	UpdatedAt      time.Time                         `json:"updated_at"`
}

// AutomationView mirrors the automation block of the config row.
type AutomationView struct {
	AutoFulfill         bool       `json:"auto_fulfill"`
	AutoSync            bool       `json:"auto_sync"`
	SyncIntervalMinutes int        `json:"sync_interval_minutes"`
	MinStockThreshold   int        `json:"min_stock_threshold"`
	Warehouse           string     `json:"warehouse"`
	ShippingMethod      string     `json:"shipping_method"`
	LastProductSyncAt   *time.Time `json:"last_product_sync_at,omitempty"`
}

// AutomationInput is a partial update of the automation block.
type AutomationInput struct {
	AutoFulfill         *bool   `json:"auto_fulfill,omitempty"`
	AutoSync            *bool   `json:"auto_sync,omitempty"`
	SyncIntervalMinutes *int    `json:"sync_interval_minutes,omitempty" validate:"omitempty,gte=5"`
	MinStockThreshold   *int    `json:"min_stock_threshold,omitempty" validate:"omitempty,gte=0"`
	Warehouse           *string `json:"warehouse,omitempty"`
	ShippingMethod      *string `json:"shipping_method,omitempty"`
}

// PlatformStatus is the health summary of one platform.
type PlatformStatus struct {
	Enabled   bool   `json:"enabled"`
	Status    string `json:"status"`
	APIKeySet bool   `json:"api_key_set"`
	Connected *bool  `json:"connected,omitempty"`
	Error     string `json:"error,omitempty"`
}

const (
	StatusActive        = "active"
	StatusInactive      = "inactive"
	StatusNotConfigured = "not_configured"
)

// BatchSummary is what a bulk import reports back.
type BatchSummary struct {
	Imported int
	Skipped  int
	Failed   int
	Errors   []error
}

// SyncResult reports a catalog sync.
type SyncResult struct {
	Platform enums.Platform `json:"platform"`
	Success  bool           `json:"success"`
	Synced   int            `json:"synced"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Pages    int            `json:"pages"`
	Message  string         `json:"message"`
}
