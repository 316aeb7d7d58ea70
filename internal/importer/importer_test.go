package importer

import (
	"context"
	"io"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/platforms"
	"github.com/angelmondragon/dropship-backend/internal/products"
	"github.com/angelmondragon/dropship-backend/pkg/db/dbtest"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

var skuPattern = regexp.MustCompile(`^[A-Z]{3}-[A-Z]{3}-\d{4}(-[A-Z]{1,3})?$`)

func newTestService(t *testing.T, name string, catalog Catalog) (Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, name)
	svc, err := NewService(ServiceParams{
		Products: products.NewRepository(db),
		Catalog:  catalog,
		SEO:      NewSEOGenerator("Test Store", "https://shop.test"),
		Defaults: DefaultImportConfig(),
		Logger:   logger.New(logger.Options{ServiceName: "importer-test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, db
}

func headphones() platforms.UnifiedProduct {
	return platforms.UnifiedProduct{
		ID:          "zendrop_771",
		VendorID:    "771",
		Platform:    enums.PlatformZendrop,
		Name:        "Wireless Bluetooth Headphones",
		Description: "<p>Crisp sound with deep bass for daily listening.</p> https://cdn.example.com/spec",
		Price:       decimal.RequireFromString("25.00"),
		CostPrice:   decimal.RequireFromString("11.00"),
		Images:      []string{"https://img.example.com/1.jpg", " "},
		Category:    "Electronics",
		Stock:       5,
		Variants: []platforms.UnifiedVariant{
			{ID: "zendrop_variant_9", VendorID: "9", Name: "Black", Price: decimal.RequireFromString("25.00"), Stock: 3, Attributes: map[string]string{"color": "black"}},
			{ID: "zendrop_variant_10", VendorID: "10", Name: "White", Price: decimal.RequireFromString("26.00"), Stock: 2, Attributes: map[string]string{"color": "white"}},
		},
	}
}

func TestImportProductWithinFilters(t *testing.T) {
	svc, db := newTestService(t, "import_ok", nil)
	cfg := DefaultImportConfig()
	cfg.MinPrice = decimal.NewFromInt(10)
	cfg.MaxPrice = decimal.NewFromInt(50)
	cfg.Categories = []string{"electronics"}

	res, err := svc.ImportProduct(context.Background(), headphones(), cfg)
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.False(t, res.Skipped)
	require.NotNil(t, res.ProductID)
	assert.Regexp(t, skuPattern, res.SKU)

	var stored models.Product
	require.NoError(t, db.Preload("Variants").First(&stored, "id = ?", *res.ProductID).Error)
	assert.Equal(t, enums.ProductStatusActive, stored.Status)
	assert.Equal(t, enums.PlatformZendrop, stored.Source)
	require.NotNil(t, stored.ZendropProductID)
	assert.Equal(t, "771", *stored.ZendropProductID)
	assert.Equal(t, "25.00", stored.Price.StringFixed(2))
	assert.Equal(t, "11.00", stored.CostPrice.StringFixed(2))
	assert.Equal(t, "32.50", stored.CompareAtPrice.Decimal.StringFixed(2))
	assert.NotContains(t, stored.Description, "<p>")
	assert.NotContains(t, stored.Description, "https://")
	assert.Len(t, stored.Images, 1)
	assert.NotEmpty(t, stored.SEOTitle)
	assert.NotEmpty(t, stored.SEOKeywords)

	require.Len(t, stored.Variants, 2)
	skus := []string{stored.Variants[0].SKU, stored.Variants[1].SKU}
	assert.ElementsMatch(t, []string{res.SKU + "-VAR1", res.SKU + "-VAR2"}, skus)
	for _, v := range stored.Variants {
		require.NotNil(t, v.VendorVariantID)
	}
}

func TestImportProductRejectsBannedKeyword(t *testing.T) {
	svc, db := newTestService(t, "import_banned", nil)
	cfg := DefaultImportConfig()
	cfg.BannedWords = []string{"Replica"}
	item := headphones()
	item.Description = "A replica of a famous design."

	res, err := svc.ImportProduct(context.Background(), item, cfg)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Skipped)
	assert.Equal(t, SkipBannedWord, res.Reason)
	assert.Nil(t, res.ProductID)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFilterOrderFirstFailureWins(t *testing.T) {
	item := headphones()
	item.Price = decimal.NewFromInt(5)
	item.Category = "Garden"
	item.Stock = 0

	cases := []struct {
		name string
		cfg  ImportConfig
		want SkipReason
	}{
		{"min price first", ImportConfig{MinPrice: decimal.NewFromInt(10), Categories: []string{"electronics"}}, SkipMinPrice},
		{"max price", ImportConfig{MaxPrice: decimal.NewFromInt(4), Categories: []string{"electronics"}}, SkipMaxPrice},
		{"category", ImportConfig{Categories: []string{"electronics"}, BannedWords: []string{"wireless"}}, SkipCategory},
		{"banned", ImportConfig{BannedWords: []string{"wireless"}}, SkipBannedWord},
		{"stock", ImportConfig{}, SkipOutOfStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reason, ok := filter(item, tc.cfg)
			assert.False(t, ok)
			assert.Equal(t, tc.want, reason)
		})
	}
}

func TestImportProductIsIdempotentOnVendorID(t *testing.T) {
	svc, db := newTestService(t, "import_twice", nil)
	ctx := context.Background()

	first, err := svc.ImportProduct(ctx, headphones(), DefaultImportConfig())
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.ImportProduct(ctx, headphones(), DefaultImportConfig())
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.True(t, second.Skipped)
	assert.Equal(t, SkipAlreadyHave, second.Reason)
	assert.Equal(t, *first.ProductID, *second.ProductID)
	assert.Equal(t, first.SKU, second.SKU)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestImportProductAppliesPricingRules(t *testing.T) {
	svc, db := newTestService(t, "import_pricing", nil)
	pricing := DefaultPricing()
	cfg := DefaultImportConfig()
	cfg.Pricing = &pricing
	item := headphones()
	item.Variants = nil

	res, err := svc.ImportProduct(context.Background(), item, cfg)
	require.NoError(t, err)
	require.True(t, res.Success)

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", *res.ProductID).Error)
	// 11.00 cost at 50% is 16.50, floored to 16.99
	assert.Equal(t, "16.99", stored.Price.StringFixed(2))
}

func TestImportBatchCountsEveryOutcome(t *testing.T) {
	svc, _ := newTestService(t, "import_batch", nil)

	ok := headphones()
	empty := headphones()
	empty.VendorID, empty.ID, empty.Stock = "772", "zendrop_772", 0
	broken := headphones()
	broken.VendorID, broken.ID, broken.Name = "773", "zendrop_773", ""

	summary := svc.ImportBatch(context.Background(), []platforms.UnifiedProduct{ok, empty, broken})
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0].Error(), "773")
}

func TestImportProductsRejectsInvalidConfig(t *testing.T) {
	svc, _ := newTestService(t, "import_cfg", nil)
	cfg := ImportConfig{MinPrice: decimal.NewFromInt(50), MaxPrice: decimal.NewFromInt(10)}
	_, err := svc.ImportProducts(context.Background(), []platforms.UnifiedProduct{headphones()}, cfg)
	require.Error(t, err)
}

type stubCatalog struct {
	adapter platforms.Adapter
	err     error
}

func (s stubCatalog) Adapter(context.Context, enums.Platform) (platforms.Adapter, error) {
	return s.adapter, s.err
}

type stubAdapter struct {
	platforms.Adapter
	items map[string]platforms.UnifiedProduct
}

func (s stubAdapter) GetProduct(_ context.Context, id string) (*platforms.UnifiedProduct, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, assert.AnError
	}
	return &item, nil
}

func TestImportByIDsFetchesThroughAdapter(t *testing.T) {
	item := headphones()
	catalog := stubCatalog{adapter: stubAdapter{items: map[string]platforms.UnifiedProduct{"771": item}}}
	svc, _ := newTestService(t, "import_ids", catalog)

	batch, err := svc.ImportByIDs(context.Background(), enums.PlatformZendrop, []string{"771", "404"}, DefaultImportConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Imported)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, "404", batch.Results[1].VendorID)

	_, err = svc.ImportByIDs(context.Background(), enums.PlatformLocal, []string{"1"}, DefaultImportConfig())
	require.Error(t, err)
}
