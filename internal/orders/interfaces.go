package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, number string) (*models.Order, error)
	FindByVendorOrderID(ctx context.Context, platform enums.Platform, vendorOrderID string) (*models.Order, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, int64, error)
	ListAwaitingFulfillment(ctx context.Context, params pagination.Params) ([]models.Order, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
	CustomerReceivedProduct(ctx context.Context, customerID, productID uuid.UUID) (bool, error)
}
