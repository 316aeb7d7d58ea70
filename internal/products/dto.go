package products

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

// ListFilters narrows catalog listings.
type ListFilters struct {
	Status   *enums.ProductStatus
	Source   *enums.Platform
	Category string
	Search   string
}

// ProductList is a page of products.
type ProductList struct {
	Products   []models.Product `json:"products"`
	Pagination pagination.Meta  `json:"pagination"`
}

// CreateInput is a manual admin product entry. SKU is generated when empty.
type CreateInput struct {
	Name           string           `json:"name" validate:"required,min=2"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CostPrice      decimal.Decimal  `json:"cost_price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Images         []string         `json:"images"`
	Category       string           `json:"category" validate:"required"`
	Subcategory    *string          `json:"subcategory,omitempty"`
	Tags           []string         `json:"tags"`
	StockQuantity  int              `json:"stock_quantity" validate:"gte=0"`
	Status         string           `json:"status"`
	SKU            string           `json:"sku"`
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	Name           *string          `json:"name,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	CostPrice      *decimal.Decimal `json:"cost_price,omitempty"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Images         *[]string        `json:"images,omitempty"`
	Category       *string          `json:"category,omitempty"`
	Subcategory    *string          `json:"subcategory,omitempty"`
	Tags           *[]string        `json:"tags,omitempty"`
	StockQuantity  *int             `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	Status         *string          `json:"status,omitempty"`
	SEOTitle       *string          `json:"seo_title,omitempty"`
	SEODescription *string          `json:"seo_description,omitempty"`
	SEOKeywords    *[]string        `json:"seo_keywords,omitempty"`
}

// BulkAction names a bulk catalog operation.
type BulkAction string

const (
	BulkActivate BulkAction = "activate"
	BulkDraft    BulkAction = "draft"
	BulkArchive  BulkAction = "archive"
	BulkDelete   BulkAction = "delete"
)

// BulkResult reports how many rows a bulk action touched.
type BulkResult struct {
	Action   BulkAction `json:"action"`
	Affected int64      `json:"affected"`
}
