package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/dbtest"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	db := dbtest.Open(t, "orders_create")
	repo := NewRepository(db)
	ctx := context.Background()
	product := dbtest.Product(t, db, nil)

	order := dbtest.Order(t, db, []*models.Product{product}, nil)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, product.SKU, found.Items[0].SKU)
	assert.Equal(t, "73301", found.ShippingAddress.PostalCode)

	byNumber, err := repo.FindByOrderNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
}

func TestRepositoryFindByVendorOrderID(t *testing.T) {
	db := dbtest.Open(t, "orders_vendor_id")
	repo := NewRepository(db)
	ctx := context.Background()
	product := dbtest.Product(t, db, nil)
	vendorID := "8812"
	order := dbtest.Order(t, db, []*models.Product{product}, func(o *models.Order) { o.ZendropOrderID = &vendorID })

	found, err := repo.FindByVendorOrderID(ctx, enums.PlatformZendrop, "8812")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = repo.FindByVendorOrderID(ctx, enums.PlatformCJ, "8812")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.FindByVendorOrderID(ctx, enums.PlatformLocal, "8812")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDecrementStockIsConditional(t *testing.T) {
	db := dbtest.Open(t, "orders_stock")
	repo := NewRepository(db)
	ctx := context.Background()
	product := dbtest.Product(t, db, func(p *models.Product) { p.StockQuantity = 2 })

	ok, err := repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, product.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 0, reloaded.StockQuantity)

	ok, err = repo.DecrementStock(ctx, uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryTransitionStatusRequiresExpectedState(t *testing.T) {
	db := dbtest.Open(t, "orders_transition")
	repo := NewRepository(db)
	ctx := context.Background()
	order := dbtest.Order(t, db, nil, nil)

	ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPaid, enums.OrderStatusProcessing, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPaid, enums.OrderStatusCancelled, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryListFiltersAndAwaitingFulfillment(t *testing.T) {
	db := dbtest.Open(t, "orders_list")
	repo := NewRepository(db)
	ctx := context.Background()

	dbtest.Order(t, db, nil, func(o *models.Order) { o.CustomerEmail = "first@example.com" })
	dbtest.Order(t, db, nil, func(o *models.Order) {
		o.Status = enums.OrderStatusProcessing
		o.FulfillmentStatus = enums.FulfillmentStatusProcessing
	})
	dbtest.Order(t, db, nil, func(o *models.Order) {
		o.Status = enums.OrderStatusPending
		o.PaymentStatus = enums.PaymentStatusPending
	})

	status := enums.OrderStatusProcessing
	rows, total, err := repo.List(ctx, ListFilters{Status: &status}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, rows, 1)

	rows, total, err = repo.List(ctx, ListFilters{Search: "FIRST@"}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "first@example.com", rows[0].CustomerEmail)

	pending, total, err := repo.ListAwaitingFulfillment(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "first@example.com", pending[0].CustomerEmail)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[enums.OrderStatusPaid])
	assert.Equal(t, int64(1), counts[enums.OrderStatusPending])
}

func TestRepositoryCustomerReceivedProduct(t *testing.T) {
	db := dbtest.Open(t, "orders_received")
	repo := NewRepository(db)
	ctx := context.Background()
	product := dbtest.Product(t, db, nil)
	customer := uuid.New()

	dbtest.Order(t, db, []*models.Product{product}, func(o *models.Order) {
		o.CustomerID = &customer
		o.Status = enums.OrderStatusPaid
	})
	got, err := repo.CustomerReceivedProduct(ctx, customer, product.ID)
	require.NoError(t, err)
	assert.False(t, got)

	dbtest.Order(t, db, []*models.Product{product}, func(o *models.Order) {
		o.CustomerID = &customer
		o.Status = enums.OrderStatusDelivered
	})
	got, err = repo.CustomerReceivedProduct(ctx, customer, product.ID)
	require.NoError(t, err)
	assert.True(t, got)
}
