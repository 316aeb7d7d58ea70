package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

// Repository defines persistence operations for the catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	CreateVariants(ctx context.Context, variants []models.ProductVariant) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	FindByVendorID(ctx context.Context, platform enums.Platform, vendorID string) (*models.Product, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Product, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateStatus(ctx context.Context, ids []uuid.UUID, status enums.ProductStatus) (int64, error)
	Delete(ctx context.Context, ids []uuid.UUID) (int64, error)
}
