package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/types"
)

// Product inserts an active local product. mutate may adjust fields before insert.
func Product(t testing.TB, db *gorm.DB, mutate func(*models.Product)) *models.Product {
	t.Helper()
	id := uuid.New()
	p := &models.Product{
		ID:            id,
		Name:          "Test Product",
		Slug:          "test-product-" + id.String()[:8],
		Description:   "A product used in tests",
		Price:         decimal.RequireFromString("19.99"),
		CostPrice:     decimal.RequireFromString("8.00"),
		Category:      "Electronics",
		StockQuantity: 10,
		Status:        enums.ProductStatusActive,
		SKU:           "TST-PRD-" + id.String()[:4],
		Source:        enums.PlatformLocal,
	}
	if mutate != nil {
		mutate(p)
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// Address returns a complete shipping address.
func Address() types.ShippingAddress {
	return types.ShippingAddress{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Address1:   "12 Analytical Way",
		City:       "Austin",
		State:      "TX",
		PostalCode: "73301",
		Country:    "US",
		Phone:      "+15125550100",
	}
}

// Order inserts an order with one line per product at quantity 1.
func Order(t testing.TB, db *gorm.DB, products []*models.Product, mutate func(*models.Order)) *models.Order {
	t.Helper()
	o := &models.Order{
		OrderNumber:       "ORD-TEST-" + uuid.NewString()[:8],
		CustomerEmail:     "ada@example.com",
		CustomerName:      "Ada Lovelace",
		ShippingAddress:   Address(),
		ShippingCost:      decimal.Zero,
		Tax:               decimal.Zero,
		Status:            enums.OrderStatusPaid,
		PaymentStatus:     enums.PaymentStatusPaid,
		FulfillmentStatus: enums.FulfillmentStatusUnfulfilled,
		Source:            enums.PlatformLocal,
	}
	subtotal := decimal.Zero
	for _, p := range products {
		productID := p.ID
		o.Items = append(o.Items, models.OrderItem{
			ProductID: &productID,
			SKU:       p.SKU,
			Name:      p.Name,
			Quantity:  1,
			UnitPrice: p.Price,
			Total:     p.Price,
		})
		subtotal = subtotal.Add(p.Price)
	}
	o.Subtotal = subtotal
	o.Total = subtotal
	if mutate != nil {
		mutate(o)
	}
	if err := db.Create(o).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}
