package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

// Review is a customer rating of a product, moderated before it is public.
type Review struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID        uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index;uniqueIndex:product_reviews_customer_product_key,priority:2" json:"product_id"`
	CustomerID       *uuid.UUID         `gorm:"column:customer_id;type:uuid;uniqueIndex:product_reviews_customer_product_key,priority:1" json:"customer_id"`
	OrderID          *uuid.UUID         `gorm:"column:order_id;type:uuid" json:"order_id"`
	Rating           int                `gorm:"column:rating;not null" json:"rating"`
	Title            string             `gorm:"column:title" json:"title"`
	Comment          string             `gorm:"column:comment" json:"comment"`
	CustomerName     string             `gorm:"column:customer_name" json:"customer_name"`
	VerifiedPurchase bool               `gorm:"column:verified_purchase;not null;default:false" json:"verified_purchase"`
	HelpfulCount     int                `gorm:"column:helpful_count;not null;default:0" json:"helpful_count"`
	Status           enums.ReviewStatus `gorm:"column:status;not null;index" json:"status"`
	ModerationReason *string            `gorm:"column:moderation_reason" json:"moderation_reason"`
	ModeratedBy      *uuid.UUID         `gorm:"column:moderated_by;type:uuid" json:"moderated_by"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Review) TableName() string {
	return "product_reviews"
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
