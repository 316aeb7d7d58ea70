package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/types"
)

// FulfillmentItem is the item snapshot sent to a supplier.
type FulfillmentItem struct {
	ProductID       string `json:"product_id"`
	VendorProductID string `json:"vendor_product_id,omitempty"`
	VariantID       string `json:"variant_id,omitempty"`
	SKU             string `json:"sku"`
	Name            string `json:"name,omitempty"`
	Quantity        int    `json:"quantity"`
}

// FulfillmentRecord tracks one vendor order placed for a local order.
type FulfillmentRecord struct {
	ID                  uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID             uuid.UUID                     `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Platform            enums.Platform                `gorm:"column:platform;not null" json:"platform"`
	VendorOrderID       *string                       `gorm:"column:vendor_order_id;index" json:"vendor_order_id"`
	Status              enums.FulfillmentRecordStatus `gorm:"column:status;not null;index" json:"status"`
	VendorStatusRaw     *string                       `gorm:"column:vendor_status_raw" json:"vendor_status_raw"`
	NeedsReconciliation bool                          `gorm:"column:needs_reconciliation;not null;default:false" json:"needs_reconciliation"`
	ErrorLog            *string                       `gorm:"column:error_log" json:"error_log"`
	Items               []FulfillmentItem             `gorm:"column:items;type:jsonb;serializer:json" json:"items"`
	ShippingAddress     types.ShippingAddress         `gorm:"column:shipping_address;type:jsonb" json:"shipping_address"`
	TrackingNumber      *string                       `gorm:"column:tracking_number" json:"tracking_number"`
	TrackingURL         *string                       `gorm:"column:tracking_url" json:"tracking_url"`
	Carrier             *string                       `gorm:"column:carrier" json:"carrier"`
	LastSyncAt          *time.Time                    `gorm:"column:last_sync_at" json:"last_sync_at"`
	CreatedAt           time.Time                     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time                     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (r *FulfillmentRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
