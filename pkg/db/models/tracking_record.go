package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

// TrackingRecord is a carrier shipment attached to an order.
type TrackingRecord struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID           uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Carrier           enums.Carrier        `gorm:"column:carrier;not null" json:"carrier"`
	TrackingNumber    string               `gorm:"column:tracking_number;not null;index" json:"tracking_number"`
	TrackingURL       string               `gorm:"column:tracking_url" json:"tracking_url"`
	Status            enums.TrackingStatus `gorm:"column:status;not null" json:"status"`
	Notes             *string              `gorm:"column:notes" json:"notes"`
	EstimatedDelivery *time.Time           `gorm:"column:estimated_delivery" json:"estimated_delivery"`
	DeliveredAt       *time.Time           `gorm:"column:delivered_at" json:"delivered_at"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (t *TrackingRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
