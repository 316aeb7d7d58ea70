// Package importer turns supplier catalog entries into local products.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/platforms"
	"github.com/angelmondragon/dropship-backend/internal/products"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/types"
)

// SkipReason names the filter that rejected a product.
type SkipReason string

const (
	SkipMinPrice    SkipReason = "min_price"
	SkipMaxPrice    SkipReason = "max_price"
	SkipCategory    SkipReason = "category"
	SkipBannedWord  SkipReason = "banned_keyword"
	SkipOutOfStock  SkipReason = "out_of_stock"
	SkipAlreadyHave SkipReason = "already_imported"
)

// ImportResult reports one product. Skipped results are successful but wrote
// nothing; an already imported product is reported with its existing id.
type ImportResult struct {
	VendorID  string     `json:"vendor_id"`
	Success   bool       `json:"success"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	SKU       string     `json:"sku,omitempty"`
	Skipped   bool       `json:"skipped"`
	Reason    SkipReason `json:"reason,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// BatchResult aggregates a sequential import.
type BatchResult struct {
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Results  []ImportResult `json:"results"`
}

// Catalog resolves the adapter a product id is fetched through.
type Catalog interface {
	Adapter(ctx context.Context, platform enums.Platform) (platforms.Adapter, error)
}

type Service interface {
	ImportProduct(ctx context.Context, item platforms.UnifiedProduct, cfg ImportConfig) (ImportResult, error)
	ImportProducts(ctx context.Context, items []platforms.UnifiedProduct, cfg ImportConfig) (*BatchResult, error)
	ImportByIDs(ctx context.Context, platform enums.Platform, ids []string, cfg ImportConfig) (*BatchResult, error)
	// ImportBatch imports with the default config; catalog sync uses it.
	ImportBatch(ctx context.Context, items []platforms.UnifiedProduct) platforms.BatchSummary
}

type ServiceParams struct {
	Products products.Repository
	Catalog  Catalog
	SEO      *SEOGenerator
	Defaults ImportConfig
	Logger   *logger.Logger
}

type service struct {
	repo     products.Repository
	catalog  Catalog
	seo      *SEOGenerator
	defaults ImportConfig
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.SEO == nil {
		params.SEO = NewSEOGenerator("", "")
	}
	if err := params.Defaults.validate(); err != nil {
		return nil, err
	}
	return &service{
		repo:     params.Products,
		catalog:  params.Catalog,
		seo:      params.SEO,
		defaults: params.Defaults,
		logg:     params.Logger,
	}, nil
}

func (s *service) ImportProduct(ctx context.Context, item platforms.UnifiedProduct, cfg ImportConfig) (ImportResult, error) {
	if err := cfg.validate(); err != nil {
		return ImportResult{}, err
	}
	return s.importOne(ctx, item, cfg), nil
}

func (s *service) ImportProducts(ctx context.Context, items []platforms.UnifiedProduct, cfg ImportConfig) (*BatchResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	batch := &BatchResult{Results: make([]ImportResult, 0, len(items))}
	for _, item := range items {
		batch.add(s.importOne(ctx, item, cfg))
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"imported": batch.Imported,
		"skipped":  batch.Skipped,
		"failed":   batch.Failed,
	}), "product import finished")
	return batch, nil
}

func (s *service) ImportByIDs(ctx context.Context, platform enums.Platform, ids []string, cfg ImportConfig) (*BatchResult, error) {
	if !platform.IsVendor() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "import requires a supplier platform")
	}
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_ids are required")
	}
	if s.catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog not configured")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	adapter, err := s.catalog.Adapter(ctx, platform)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{Results: make([]ImportResult, 0, len(ids))}
	for _, id := range ids {
		item, err := adapter.GetProduct(ctx, id)
		if err != nil {
			batch.add(ImportResult{VendorID: id, Error: err.Error()})
			continue
		}
		if item.Platform == "" {
			item.Platform = platform
		}
		batch.add(s.importOne(ctx, *item, cfg))
	}
	return batch, nil
}

func (s *service) ImportBatch(ctx context.Context, items []platforms.UnifiedProduct) platforms.BatchSummary {
	batch := &BatchResult{}
	for _, item := range items {
		batch.add(s.importOne(ctx, item, s.defaults))
	}
	summary := platforms.BatchSummary{Imported: batch.Imported, Skipped: batch.Skipped, Failed: batch.Failed}
	for _, r := range batch.Results {
		if !r.Success {
			summary.Errors = append(summary.Errors, fmt.Errorf("%s: %s", r.VendorID, r.Error))
		}
	}
	return summary
}

func (b *BatchResult) add(r ImportResult) {
	switch {
	case !r.Success:
		b.Failed++
	case r.Skipped:
		b.Skipped++
	default:
		b.Imported++
	}
	b.Results = append(b.Results, r)
}

func (s *service) importOne(ctx context.Context, item platforms.UnifiedProduct, cfg ImportConfig) ImportResult {
	vendorID := strings.TrimSpace(item.VendorID)
	if vendorID == "" {
		vendorID = platforms.StripID(item.Platform, item.ID)
	}
	result := ImportResult{VendorID: vendorID}
	if !item.Platform.IsVendor() {
		result.Error = "product has no supplier platform"
		return result
	}
	if vendorID == "" {
		result.Error = "product has no supplier id"
		return result
	}
	ctx = s.logg.WithFields(s.logg.WithPlatform(ctx, string(item.Platform)), map[string]any{"vendor_product_id": vendorID})

	if existing, err := s.repo.FindByVendorID(ctx, item.Platform, vendorID); err == nil {
		return existingResult(result, existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logg.Error(ctx, "import lookup failed", err)
		result.Error = "lookup failed"
		return result
	}

	if reason, ok := filter(item, cfg); !ok {
		result.Success, result.Skipped, result.Reason = true, true, reason
		return result
	}
	if strings.TrimSpace(item.Name) == "" {
		result.Error = "product name is required"
		return result
	}
	if !item.Price.IsPositive() {
		result.Error = "product price must be greater than zero"
		return result
	}

	product := s.buildProduct(item, vendorID, cfg)
	suffix := colorSuffix(item)
	next := func() string { return products.GenerateSKU(product.Category, product.Name, suffix) }
	if err := products.CreateWithUniqueSKU(ctx, s.repo, product, next); err != nil {
		// a concurrent import of the same supplier product wins the vendor id index
		if existing, findErr := s.repo.FindByVendorID(ctx, item.Platform, vendorID); findErr == nil {
			return existingResult(result, existing)
		}
		s.logg.Error(ctx, "product import failed", err)
		result.Error = err.Error()
		return result
	}

	if err := s.repo.CreateVariants(ctx, buildVariants(product, item, cfg)); err != nil {
		s.logg.Error(ctx, "variant import failed", err)
		if _, delErr := s.repo.Delete(ctx, []uuid.UUID{product.ID}); delErr != nil {
			s.logg.Error(ctx, "rollback of partially imported product failed", delErr)
		}
		result.Error = "variants could not be saved"
		return result
	}

	id := product.ID
	result.Success, result.ProductID, result.SKU = true, &id, product.SKU
	s.logg.Info(s.logg.WithField(ctx, "sku", product.SKU), "product imported")
	return result
}

func existingResult(result ImportResult, existing *models.Product) ImportResult {
	id := existing.ID
	result.Success, result.Skipped, result.Reason = true, true, SkipAlreadyHave
	result.ProductID, result.SKU = &id, existing.SKU
	return result
}

// filter applies the import rules in order; the first failing rule wins.
func filter(item platforms.UnifiedProduct, cfg ImportConfig) (SkipReason, bool) {
	if cfg.MinPrice.IsPositive() && item.Price.LessThan(cfg.MinPrice) {
		return SkipMinPrice, false
	}
	if cfg.MaxPrice.IsPositive() && item.Price.GreaterThan(cfg.MaxPrice) {
		return SkipMaxPrice, false
	}
	if len(cfg.Categories) > 0 && !categoryAllowed(item.Category, cfg.Categories) {
		return SkipCategory, false
	}
	text := strings.ToLower(item.Name + " " + item.Description)
	for _, word := range cfg.BannedWords {
		if word = strings.ToLower(strings.TrimSpace(word)); word != "" && strings.Contains(text, word) {
			return SkipBannedWord, false
		}
	}
	minStock := cfg.MinStock
	if minStock < 1 {
		minStock = 1
	}
	if item.Stock < minStock {
		return SkipOutOfStock, false
	}
	return "", true
}

func categoryAllowed(category string, allowed []string) bool {
	category = strings.ToLower(category)
	for _, c := range allowed {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" && strings.Contains(category, c) {
			return true
		}
	}
	return false
}

func (s *service) buildProduct(item platforms.UnifiedProduct, vendorID string, cfg ImportConfig) *models.Product {
	cost := item.CostPrice
	if !cost.IsPositive() {
		cost = item.Price
	}
	price := item.Price.Round(2)
	if cfg.Pricing != nil {
		price = CalculatePrice(cost, *cfg.Pricing)
	}
	compareAt := CompareAtPrice(price)
	if item.CompareAtPrice != nil && item.CompareAtPrice.GreaterThan(price) {
		compareAt = item.CompareAtPrice.Round(2)
	}

	category := strings.TrimSpace(item.Category)
	if category == "" {
		category = "General"
	}
	product := &models.Product{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(item.Name),
		Description:    CleanDescription(item.Description),
		Price:          price,
		CostPrice:      cost.Round(2),
		CompareAtPrice: decimal.NewNullDecimal(compareAt),
		Category:       category,
		StockQuantity:  item.Stock,
		Status:         enums.ProductStatusActive,
		Source:         item.Platform,
		Rating:         item.Rating,
		ReviewCount:    item.ReviewCount,
		Tags:           types.StringList(dedupe(append([]string{}, item.Tags...))),
		Images:         types.StringList{},
	}
	if sub := strings.TrimSpace(item.Subcategory); sub != "" {
		product.Subcategory = &sub
	}
	if cfg.ImportImages {
		for _, img := range item.Images {
			if img = strings.TrimSpace(img); img != "" {
				product.Images = append(product.Images, img)
			}
		}
	}
	product.SetVendorProductID(item.Platform, vendorID)
	product.Slug = products.Slugify(product.Name) + "-" + product.ID.String()[:8]

	if !cfg.DisableSEO {
		seo := s.seo.Generate(SEOInput{
			Name:        product.Name,
			Description: product.Description,
			Category:    category,
			Price:       price,
			Images:      product.Images,
			Stock:       item.Stock,
			Rating:      item.Rating,
		})
		product.SEOTitle = seo.Title
		product.SEODescription = seo.MetaDescription
		product.SEOKeywords = types.StringList(seo.Keywords)
		product.Tags = types.StringList(dedupe(append(product.Tags, seo.Tags...)))
	}
	return product
}

func buildVariants(product *models.Product, item platforms.UnifiedProduct, cfg ImportConfig) []models.ProductVariant {
	out := make([]models.ProductVariant, 0, len(item.Variants))
	for i, v := range item.Variants {
		price := v.Price
		if !price.IsPositive() {
			price = product.Price
		} else if cfg.Pricing != nil {
			price = CalculatePrice(price, *cfg.Pricing)
		}
		attrs := types.JSONMap{}
		for k, val := range v.Attributes {
			attrs[k] = val
		}
		name := strings.TrimSpace(v.Name)
		if name == "" {
			name = fmt.Sprintf("%s %d", product.Name, i+1)
		}
		variant := models.ProductVariant{
			ProductID:     product.ID,
			SKU:           fmt.Sprintf("%s-VAR%d", product.SKU, i+1),
			Name:          name,
			Price:         price.Round(2),
			StockQuantity: v.Stock,
			Attributes:    attrs,
		}
		vendorVariantID := strings.TrimSpace(v.VendorID)
		if vendorVariantID == "" {
			vendorVariantID = platforms.StripID(item.Platform, v.ID)
		}
		if vendorVariantID != "" {
			variant.VendorVariantID = &vendorVariantID
		}
		out = append(out, variant)
	}
	return out
}

// colorSuffix tags the SKU with the first variant's color, when one exists.
func colorSuffix(item platforms.UnifiedProduct) string {
	if len(item.Variants) == 0 {
		return ""
	}
	for k, v := range item.Variants[0].Attributes {
		if strings.EqualFold(k, "color") {
			return v
		}
	}
	return ""
}
