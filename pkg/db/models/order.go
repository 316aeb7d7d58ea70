package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/types"
)

// Order is a customer purchase. Orders are never deleted; cancellation is a status.
type Order struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderNumber       string                  `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key" json:"order_number"`
	CustomerID        *uuid.UUID              `gorm:"column:customer_id;type:uuid" json:"customer_id"`
	CustomerEmail     string                  `gorm:"column:customer_email;not null" json:"customer_email"`
	CustomerName      string                  `gorm:"column:customer_name" json:"customer_name"`
	CustomerPhone     *string                 `gorm:"column:customer_phone" json:"customer_phone"`
	ShippingAddress   types.ShippingAddress   `gorm:"column:shipping_address;type:jsonb" json:"shipping_address"`
	Subtotal          decimal.Decimal         `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	ShippingCost      decimal.Decimal         `gorm:"column:shipping_cost;type:numeric(12,2);not null" json:"shipping_cost"`
	Tax               decimal.Decimal         `gorm:"column:tax;type:numeric(12,2);not null" json:"tax"`
	Total             decimal.Decimal         `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	Status            enums.OrderStatus       `gorm:"column:status;not null;index" json:"status"`
	PaymentStatus     enums.PaymentStatus     `gorm:"column:payment_status;not null" json:"payment_status"`
	FulfillmentStatus enums.FulfillmentStatus `gorm:"column:fulfillment_status;not null;index" json:"fulfillment_status"`
	Source            enums.Platform          `gorm:"column:source;not null;default:local" json:"source"`
	TrackingNumber    *string                 `gorm:"column:tracking_number" json:"tracking_number"`
	TrackingURL       *string                 `gorm:"column:tracking_url" json:"tracking_url"`
	Carrier           *string                 `gorm:"column:carrier" json:"carrier"`
	CJOrderID         *string                 `gorm:"column:cj_order_id" json:"cj_order_id"`
	ZendropOrderID    *string                 `gorm:"column:zendrop_order_id" json:"zendrop_order_id"`
	AppScenicOrderID  *string                 `gorm:"column:appscenic_order_id" json:"appscenic_order_id"`
	SyncError         *string                 `gorm:"column:sync_error" json:"sync_error"`
	Notes             *string                 `gorm:"column:notes" json:"notes"`
	InternalNotes     *string                 `gorm:"column:internal_notes" json:"internal_notes"`
	Items             []OrderItem             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// VendorOrderID returns the supplier order id stored for platform, if any.
func (o *Order) VendorOrderID(platform enums.Platform) *string {
	switch platform {
	case enums.PlatformCJ:
		return o.CJOrderID
	case enums.PlatformZendrop:
		return o.ZendropOrderID
	case enums.PlatformAppScenic:
		return o.AppScenicOrderID
	default:
		return nil
	}
}

// SetVendorOrderID stores id in the supplier order id column of platform.
func (o *Order) SetVendorOrderID(platform enums.Platform, id string) {
	switch platform {
	case enums.PlatformCJ:
		o.CJOrderID = &id
	case enums.PlatformZendrop:
		o.ZendropOrderID = &id
	case enums.PlatformAppScenic:
		o.AppScenicOrderID = &id
	}
}

// VendorOrderColumn names the supplier order id column of platform.
func VendorOrderColumn(platform enums.Platform) string {
	switch platform {
	case enums.PlatformCJ:
		return "cj_order_id"
	case enums.PlatformZendrop:
		return "zendrop_order_id"
	case enums.PlatformAppScenic:
		return "appscenic_order_id"
	default:
		return ""
	}
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid;index" json:"product_id"`
	VariantID *uuid.UUID `gorm:"column:variant_id;type:uuid" json:"variant_id"`
	// VendorProductID is set when the line was ordered straight from a supplier catalog.
	VendorProductID *string         `gorm:"column:vendor_product_id" json:"vendor_product_id"`
	SKU             string          `gorm:"column:sku;not null" json:"sku"`
	Name            string          `gorm:"column:name;not null" json:"name"`
	Quantity        int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Total           decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
