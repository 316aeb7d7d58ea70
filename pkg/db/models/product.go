package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/types"
)

// Product is a catalog entry, either created locally or imported from a supplier.
type Product struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name               string              `gorm:"column:name;not null" json:"name"`
	Slug               string              `gorm:"column:slug;not null;index" json:"slug"`
	Description        string              `gorm:"column:description" json:"description"`
	Price              decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	CostPrice          decimal.Decimal     `gorm:"column:cost_price;type:numeric(12,2);not null" json:"cost_price"`
	CompareAtPrice     decimal.NullDecimal `gorm:"column:compare_at_price;type:numeric(12,2)" json:"compare_at_price"`
	Images             types.StringList    `gorm:"column:images;type:jsonb" json:"images"`
	Category           string              `gorm:"column:category;index" json:"category"`
	Subcategory        *string             `gorm:"column:subcategory" json:"subcategory"`
	Tags               types.StringList    `gorm:"column:tags;type:jsonb" json:"tags"`
	StockQuantity      int                 `gorm:"column:stock_quantity;not null;default:0" json:"stock_quantity"`
	Status             enums.ProductStatus `gorm:"column:status;not null;index" json:"status"`
	SKU                string              `gorm:"column:sku;not null;uniqueIndex:products_sku_key" json:"sku"`
	Source             enums.Platform      `gorm:"column:source;not null;index" json:"source"`
	CJProductID        *string             `gorm:"column:cj_product_id;uniqueIndex:products_cj_product_id_key" json:"cj_product_id"`
	ZendropProductID   *string             `gorm:"column:zendrop_product_id;uniqueIndex:products_zendrop_product_id_key" json:"zendrop_product_id"`
	AppScenicProductID *string             `gorm:"column:appscenic_product_id;uniqueIndex:products_appscenic_product_id_key" json:"appscenic_product_id"`
	SEOTitle           string              `gorm:"column:seo_title" json:"seo_title"`
	SEODescription     string              `gorm:"column:seo_description" json:"seo_description"`
	SEOKeywords        types.StringList    `gorm:"column:seo_keywords;type:jsonb" json:"seo_keywords"`
	Rating             float64             `gorm:"column:rating;not null;default:0" json:"rating"`
	ReviewCount        int                 `gorm:"column:review_count;not null;default:0" json:"review_count"`
	Variants           []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// VendorProductID returns the supplier id the product was imported under.
func (p *Product) VendorProductID() *string {
	switch p.Source {
	case enums.PlatformCJ:
		return p.CJProductID
	case enums.PlatformZendrop:
		return p.ZendropProductID
	case enums.PlatformAppScenic:
		return p.AppScenicProductID
	default:
		return nil
	}
}

// SetVendorProductID stores id in the column owned by platform.
func (p *Product) SetVendorProductID(platform enums.Platform, id string) {
	switch platform {
	case enums.PlatformCJ:
		p.CJProductID = &id
	case enums.PlatformZendrop:
		p.ZendropProductID = &id
	case enums.PlatformAppScenic:
		p.AppScenicProductID = &id
	}
}

// ProductVariant is a purchasable option of a product.
type ProductVariant struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	SKU             string          `gorm:"column:sku;not null;uniqueIndex:product_variants_sku_key" json:"sku"`
	Name            string          `gorm:"column:name;not null" json:"name"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	StockQuantity   int             `gorm:"column:stock_quantity;not null;default:0" json:"stock_quantity"`
	Attributes      types.JSONMap   `gorm:"column:attributes;type:jsonb" json:"attributes"`
	VendorVariantID *string         `gorm:"column:vendor_variant_id" json:"vendor_variant_id"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
