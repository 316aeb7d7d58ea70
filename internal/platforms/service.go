// Package platforms routes catalog and order operations to the local store or
// to the active supplier. Every operation reads the configuration row itself;
// nothing about the active platform is cached between calls.
package platforms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/orders"
	"github.com/angelmondragon/dropship-backend/internal/products"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
	"github.com/angelmondragon/dropship-backend/pkg/vendors"
)

const (
	defaultSyncPageSize = 50
	defaultSyncMaxPages = 40
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductImporter writes supplier products into the catalog.
type ProductImporter interface {
	ImportBatch(ctx context.Context, items []UnifiedProduct) BatchSummary
}

// Service is the platform manager.
type Service interface {
	GetActivePlatform(ctx context.Context) (enums.Platform, error)
	SetActivePlatform(ctx context.Context, platform enums.Platform) (*RedactedSettings, error)
	SetPlatformStatus(ctx context.Context, input StatusInput) (*RedactedSettings, error)
	GetSettings(ctx context.Context) (*RedactedSettings, error)
	UpdateAutomation(ctx context.Context, input AutomationInput) (*RedactedSettings, error)
	Automation(ctx context.Context) (models.AutomationSettings, error)
	Adapter(ctx context.Context, platform enums.Platform) (Adapter, error)
	CheckInventory(ctx context.Context, items []InventoryItem) ([]InventoryCheck, error)
	CreateOrder(ctx context.Context, input OrderInput) (*OrderResult, error)
	GetProducts(ctx context.Context, query ProductQuery) (*ProductPage, error)
	SyncProducts(ctx context.Context) (*SyncResult, error)
	CheckPlatformStatus(ctx context.Context, live bool) (map[enums.Platform]PlatformStatus, error)
	TestConnection(ctx context.Context, platform enums.Platform) error
}

// ServiceParams bundles the dependencies of the platform manager.
type ServiceParams struct {
	Configs  ConfigRepository
	Factory  AdapterFactory
	Products products.Repository
	Orders   orders.Repository
	Tx       txRunner
	Importer ProductImporter
	Logger   *logger.Logger
	Now      func() time.Time

	SyncPageSize int
	SyncMaxPages int
}

type service struct {
	configs  ConfigRepository
	factory  AdapterFactory
	products products.Repository
	orders   orders.Repository
	tx       txRunner
	importer ProductImporter
	logg     *logger.Logger
	now      func() time.Time

	syncPageSize int
	syncMaxPages int
}

// NewService builds the platform manager.
func NewService(params ServiceParams) (Service, error) {
	if params.Configs == nil {
		return nil, fmt.Errorf("config repository required")
	}
	if params.Factory == nil {
		return nil, fmt.Errorf("adapter factory required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	pageSize := params.SyncPageSize
	if pageSize <= 0 {
		pageSize = defaultSyncPageSize
	}
	maxPages := params.SyncMaxPages
	if maxPages <= 0 {
		maxPages = defaultSyncMaxPages
	}
	return &service{
		configs:      params.Configs,
		factory:      params.Factory,
		products:     params.Products,
		orders:       params.Orders,
		tx:           params.Tx,
		importer:     params.Importer,
		logg:         params.Logger,
		now:          now,
		syncPageSize: pageSize,
		syncMaxPages: maxPages,
	}, nil
}

func (s *service) GetActivePlatform(ctx context.Context) (enums.Platform, error) {
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}
	return cfg.ActivePlatform, nil
}

func (s *service) SetActivePlatform(ctx context.Context, platform enums.Platform) (*RedactedSettings, error) {
	if !platform.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown platform %q", platform))
	}
	if !platform.CanBeActive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("platform %s cannot be the active platform", platform))
	}
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}
	if !cfg.Settings.For(platform).Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("platform %s is not enabled", platform))
	}
	cfg.ActivePlatform = platform
	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithPlatform(ctx, string(platform)), "active platform changed")
	return redact(cfg), nil
}

func (s *service) SetPlatformStatus(ctx context.Context, input StatusInput) (*RedactedSettings, error) {
	if !input.Platform.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown platform %q", input.Platform))
	}
	if input.Platform == enums.PlatformLocal && !input.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "local platform cannot be disabled")
	}
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}

	current := cfg.Settings.For(input.Platform)
	current.Enabled = input.Enabled
	if input.APIKey != nil {
		current.APIKey = strings.TrimSpace(*input.APIKey)
	}
	if input.AppKey != nil {
		current.AppKey = strings.TrimSpace(*input.AppKey)
	}
	if input.SecretKey != nil {
		current.SecretKey = strings.TrimSpace(*input.SecretKey)
	}
	cfg.Settings.Set(input.Platform, current)
	if !input.Enabled && cfg.ActivePlatform == input.Platform {
		cfg.ActivePlatform = enums.PlatformLocal
	}

	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"platform":    input.Platform,
		"enabled":     input.Enabled,
		"api_key_set": current.Configured(input.Platform),
	})
	s.logg.Info(ctx, "platform settings updated")
	return redact(cfg), nil
}

func (s *service) GetSettings(ctx context.Context) (*RedactedSettings, error) {
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}
	return redact(cfg), nil
}

func (s *service) UpdateAutomation(ctx context.Context, input AutomationInput) (*RedactedSettings, error) {
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}
	a := &cfg.Automation
	if input.AutoFulfill != nil {
		a.AutoFulfill = *input.AutoFulfill
	}
	if input.AutoSync != nil {
		a.AutoSync = *input.AutoSync
	}
	if input.SyncIntervalMinutes != nil {
		if *input.SyncIntervalMinutes < 5 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sync_interval_minutes must be at least 5")
		}
		a.SyncIntervalMinutes = *input.SyncIntervalMinutes
	}
	if input.MinStockThreshold != nil {
		if *input.MinStockThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_stock_threshold must not be negative")
		}
		a.MinStockThreshold = *input.MinStockThreshold
	}
	if input.Warehouse != nil {
		a.Warehouse = strings.TrimSpace(*input.Warehouse)
	}
	if input.ShippingMethod != nil {
		a.ShippingMethod = strings.TrimSpace(*input.ShippingMethod)
	}
	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	return redact(cfg), nil
}

func (s *service) Automation(ctx context.Context) (models.AutomationSettings, error) {
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return models.AutomationSettings{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}
	return cfg.Automation, nil
}

// Adapter returns the adapter of platform built from the current credentials.
func (s *service) Adapter(ctx context.Context, platform enums.Platform) (Adapter, error) {
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}
	return s.factory.For(platform, cfg.Settings.For(platform))
}

// CheckInventory never fails on unknown or malformed ids; those report as
// unavailable local products with quantity 0.
func (s *service) CheckInventory(ctx context.Context, items []InventoryItem) ([]InventoryCheck, error) {
	return checkInventory(ctx, s.products, items)
}

func checkInventory(ctx context.Context, repo products.Repository, items []InventoryItem) ([]InventoryCheck, error) {
	out := make([]InventoryCheck, 0, len(items))
	for _, item := range items {
		check := InventoryCheck{
			ProductID: item.ProductID,
			Platform:  enums.PlatformLocal,
			Requested: item.Quantity,
		}
		id, err := uuid.Parse(strings.TrimSpace(item.ProductID))
		if err != nil {
			out = append(out, check)
			continue
		}
		product, err := repo.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out = append(out, check)
			continue
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		check.SKU = product.SKU
		if product.Source != "" {
			check.Platform = product.Source
		}
		check.Quantity = product.StockQuantity
		check.Available = item.Quantity > 0 && product.StockQuantity >= item.Quantity
		out = append(out, check)
	}
	return out, nil
}

func (s *service) CreateOrder(ctx context.Context, input OrderInput) (*OrderResult, error) {
	if err := validateOrderInput(input); err != nil {
		return nil, err
	}
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}
	platform := cfg.ActivePlatform
	ctx = s.logg.WithPlatform(ctx, string(platform))
	if platform == enums.PlatformLocal {
		return s.createLocalOrder(ctx, input)
	}
	adapter, err := s.factory.For(platform, cfg.Settings.For(platform))
	if err != nil {
		return nil, err
	}
	return s.createVendorOrder(ctx, adapter, cfg.Automation, input)
}

func validateOrderInput(input OrderInput) error {
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer_email is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].product_id is required", i))
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].quantity must be positive", i))
		}
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return nil
}

// createLocalOrder inserts the order and decrements stock in one transaction.
// The decrement is conditional on enough stock remaining, so of two buyers
// racing for the last unit exactly one commits.
func (s *service) createLocalOrder(ctx context.Context, input OrderInput) (*OrderResult, error) {
	checks, err := s.CheckInventory(ctx, inventoryItems(input.Items))
	if err != nil {
		return nil, err
	}
	if short := shortSKUs(checks); len(short) > 0 {
		return nil, insufficientStock(short)
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.products.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		order := s.newOrder(input, enums.PlatformLocal)
		for _, in := range input.Items {
			id, _ := uuid.Parse(strings.TrimSpace(in.ProductID))
			product, err := productRepo.FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return insufficientStock([]string{in.ProductID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}
			order.Items = append(order.Items, localItem(product, in))
		}
		finalizeTotals(order, input)

		if err := orderRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		var short []string
		for _, item := range order.Items {
			ok, err := orderRepo.DecrementStock(ctx, *item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if !ok {
				short = append(short, item.SKU)
			}
		}
		if len(short) > 0 {
			return insufficientStock(short)
		}
		created = order
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
			s.logg.Warn(ctx, "local order rejected: insufficient stock")
		}
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, created.ID.String()), "local order created")
	return &OrderResult{
		Success:     true,
		OrderID:     created.ID.String(),
		OrderNumber: created.OrderNumber,
		Platform:    enums.PlatformLocal,
	}, nil
}

// createVendorOrder places the order with the supplier first and only stores it
// locally once the supplier accepted it.
func (s *service) createVendorOrder(ctx context.Context, adapter Adapter, automation models.AutomationSettings, input OrderInput) (*OrderResult, error) {
	platform := adapter.Platform()
	order := s.newOrder(input, platform)

	req := VendorOrderRequest{
		Reference:      order.OrderNumber,
		Address:        input.ShippingAddress,
		Email:          input.CustomerEmail,
		Notes:          input.Notes,
		Warehouse:      automation.Warehouse,
		ShippingMethod: automation.ShippingMethod,
	}
	for _, in := range input.Items {
		line, item, err := s.resolveVendorItem(ctx, platform, in)
		if err != nil {
			return nil, err
		}
		req.Items = append(req.Items, line)
		order.Items = append(order.Items, item)
	}
	finalizeTotals(order, input)

	result, err := adapter.CreateOrder(ctx, req)
	if err != nil {
		s.logg.Error(ctx, "vendor order creation failed", err)
		return &OrderResult{Success: false, Platform: platform, Error: vendors.Message(err)}, nil
	}
	order.SetVendorOrderID(platform, result.VendorOrderID)

	if err := s.orders.Create(ctx, order); err != nil {
		ctx = s.logg.WithField(ctx, "vendor_order_id", result.VendorOrderID)
		s.logg.Error(ctx, "vendor order accepted but local persist failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist vendor order")
	}

	ctx = s.logg.WithFields(s.logg.WithOrderID(ctx, order.ID.String()), map[string]any{"vendor_order_id": result.VendorOrderID})
	s.logg.Info(ctx, "vendor order created")
	return &OrderResult{
		Success:       true,
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		Platform:      platform,
		VendorOrderID: result.VendorOrderID,
	}, nil
}

// resolveVendorItem maps a requested line to the supplier line and the stored
// order item. Catalog UUIDs must belong to platform; anything else is taken as
// a supplier product id.
func (s *service) resolveVendorItem(ctx context.Context, platform enums.Platform, in OrderItemInput) (VendorOrderItem, models.OrderItem, error) {
	item := models.OrderItem{Quantity: in.Quantity}
	line := VendorOrderItem{Quantity: in.Quantity}

	var product *models.Product
	if id, err := uuid.Parse(strings.TrimSpace(in.ProductID)); err == nil {
		p, err := s.products.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return line, item, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", in.ProductID))
		}
		if err != nil {
			return line, item, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if p.Source != platform || p.VendorProductID() == nil {
			return line, item, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is not sourced from %s", p.SKU, platform))
		}
		product = p
	} else {
		vendorID := StripID(platform, in.ProductID)
		p, err := s.products.FindByVendorID(ctx, platform, vendorID)
		switch {
		case err == nil:
			product = p
		case errors.Is(err, gorm.ErrRecordNotFound):
			if in.UnitPrice == nil {
				return line, item, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("unit_price is required for supplier product %s", in.ProductID))
			}
			line.ProductID = vendorID
			line.VariantID = StripID(platform, in.VariantID)
			line.VendorSKU = in.SKU
			item.VendorProductID = &vendorID
			item.SKU = firstNonEmpty(in.SKU, vendorID)
			item.Name = firstNonEmpty(in.Name, vendorID)
			item.UnitPrice = in.UnitPrice.Round(2)
			item.Total = item.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
			return line, item, nil
		default:
			return line, item, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
	}

	vendorID := *product.VendorProductID()
	productID := product.ID
	line.ProductID = vendorID
	item.ProductID = &productID
	item.VendorProductID = &vendorID
	item.SKU = product.SKU
	item.Name = product.Name
	item.UnitPrice = product.Price
	if variant := findVariant(product, in.VariantID); variant != nil {
		variantID := variant.ID
		item.VariantID = &variantID
		item.SKU = variant.SKU
		item.UnitPrice = variant.Price
		if variant.VendorVariantID != nil {
			line.VariantID = *variant.VendorVariantID
		}
	} else if in.VariantID != "" {
		line.VariantID = StripID(platform, in.VariantID)
	}
	item.Total = item.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
	return line, item, nil
}

func (s *service) newOrder(input OrderInput, source enums.Platform) *models.Order {
	order := &models.Order{
		ID:                uuid.New(),
		OrderNumber:       orders.NewOrderNumber(s.now()),
		CustomerID:        input.CustomerID,
		CustomerEmail:     strings.TrimSpace(input.CustomerEmail),
		CustomerName:      firstNonEmpty(strings.TrimSpace(input.CustomerName), input.ShippingAddress.FullName()),
		ShippingAddress:   input.ShippingAddress,
		Status:            enums.OrderStatusPending,
		PaymentStatus:     enums.PaymentStatusPending,
		FulfillmentStatus: enums.FulfillmentStatusUnfulfilled,
		Source:            source,
	}
	if phone := strings.TrimSpace(input.CustomerPhone); phone != "" {
		order.CustomerPhone = &phone
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		order.Notes = &notes
	}
	return order
}

func localItem(product *models.Product, in OrderItemInput) models.OrderItem {
	productID := product.ID
	item := models.OrderItem{
		ProductID: &productID,
		SKU:       product.SKU,
		Name:      product.Name,
		Quantity:  in.Quantity,
		UnitPrice: product.Price,
	}
	if variant := findVariant(product, in.VariantID); variant != nil {
		variantID := variant.ID
		item.VariantID = &variantID
		item.SKU = variant.SKU
		item.UnitPrice = variant.Price
	}
	item.Total = item.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
	return item
}

func findVariant(product *models.Product, variantID string) *models.ProductVariant {
	if variantID == "" {
		return nil
	}
	id, err := uuid.Parse(strings.TrimSpace(variantID))
	if err != nil {
		return nil
	}
	for i := range product.Variants {
		if product.Variants[i].ID == id {
			return &product.Variants[i]
		}
	}
	return nil
}

func finalizeTotals(order *models.Order, input OrderInput) {
	subtotal := decimal.Zero
	for _, item := range order.Items {
		subtotal = subtotal.Add(item.Total)
	}
	order.Subtotal = subtotal.Round(2)
	order.ShippingCost = input.ShippingCost.Round(2)
	order.Tax = input.Tax.Round(2)
	order.Total = order.Subtotal.Add(order.ShippingCost).Add(order.Tax).Round(2)
}

func inventoryItems(items []OrderItemInput) []InventoryItem {
	out := make([]InventoryItem, 0, len(items))
	for _, item := range items {
		out = append(out, InventoryItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

func shortSKUs(checks []InventoryCheck) []string {
	var short []string
	for _, c := range checks {
		if c.Available {
			continue
		}
		short = append(short, firstNonEmpty(c.SKU, c.ProductID))
	}
	return short
}

func insufficientStock(skus []string) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for: %s", strings.Join(skus, ", "))).
		WithDetails(map[string]any{"skus": skus})
}

// GetProducts lists the catalog of the active platform. A supplier without
// credentials yields an empty page.
func (s *service) GetProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	query = normalizeQuery(query)
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}
	platform := cfg.ActivePlatform
	if platform == enums.PlatformLocal {
		return s.localProducts(ctx, query)
	}

	adapter, err := s.factory.For(platform, cfg.Settings.For(platform))
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotConfigured {
			return &ProductPage{Platform: platform, Products: []UnifiedProduct{}, Page: query.Page, Limit: query.Limit}, nil
		}
		return nil, err
	}
	page, err := adapter.ListProducts(ctx, query)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *service) localProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	source := enums.PlatformLocal
	status := enums.ProductStatusActive
	rows, total, err := s.products.List(ctx, products.ListFilters{
		Status:   &status,
		Source:   &source,
		Category: query.Category,
		Search:   query.Search,
	}, pagination.Params{Page: query.Page, Limit: query.Limit})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	out := &ProductPage{
		Platform: enums.PlatformLocal,
		Products: make([]UnifiedProduct, 0, len(rows)),
		Total:    total,
		Page:     query.Page,
		Limit:    pagination.NormalizeLimit(query.Limit),
	}
	for i := range rows {
		out.Products = append(out.Products, localProduct(&rows[i]))
	}
	return out, nil
}

func localProduct(p *models.Product) UnifiedProduct {
	out := UnifiedProduct{
		ID:          p.ID.String(),
		VendorID:    p.ID.String(),
		Platform:    enums.PlatformLocal,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CostPrice:   p.CostPrice,
		Images:      p.Images,
		Category:    p.Category,
		Tags:        p.Tags,
		Stock:       p.StockQuantity,
		SKU:         p.SKU,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
	}
	if p.CompareAtPrice.Valid {
		v := p.CompareAtPrice.Decimal
		out.CompareAtPrice = &v
	}
	if p.Subcategory != nil {
		out.Subcategory = *p.Subcategory
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, UnifiedVariant{
			ID:       v.ID.String(),
			VendorID: v.ID.String(),
			SKU:      v.SKU,
			Name:     v.Name,
			Price:    v.Price,
			Stock:    v.StockQuantity,
		})
	}
	return out
}

// SyncProducts pages through the active supplier catalog and imports every
// page. Page failures are counted and the sync keeps whatever it imported.
func (s *service) SyncProducts(ctx context.Context) (*SyncResult, error) {
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}
	platform := cfg.ActivePlatform
	result := &SyncResult{Platform: platform}
	if platform == enums.PlatformLocal {
		result.Message = "local platform needs no sync"
		return result, nil
	}
	if s.importer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product importer not configured")
	}
	adapter, err := s.factory.For(platform, cfg.Settings.For(platform))
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithPlatform(ctx, string(platform))
	var errs error
	for pageNum := 1; pageNum <= s.syncMaxPages; pageNum++ {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			result.Errors++
			break
		}
		page, err := adapter.ListProducts(ctx, ProductQuery{Page: pageNum, Limit: s.syncPageSize})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("page %d: %w", pageNum, err))
			result.Errors++
			break
		}
		result.Pages++
		if len(page.Products) == 0 {
			break
		}
		summary := s.importer.ImportBatch(ctx, page.Products)
		result.Synced += summary.Imported
		result.Skipped += summary.Skipped
		result.Errors += summary.Failed
		errs = multierr.Append(errs, multierr.Combine(summary.Errors...))
		if len(page.Products) < s.syncPageSize {
			break
		}
		if page.Total > 0 && int64(pageNum*s.syncPageSize) >= page.Total {
			break
		}
	}
	if errs != nil {
		s.logg.Error(ctx, "product sync finished with errors", errs)
	}

	if err := s.recordSync(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to record product sync time")
	}

	result.Success = result.Errors == 0
	result.Message = fmt.Sprintf("synced %d products, %d skipped, %d errors", result.Synced, result.Skipped, result.Errors)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"synced":  result.Synced,
		"skipped": result.Skipped,
		"errors":  result.Errors,
	}), "product sync finished")
	return result, nil
}

func (s *service) recordSync(ctx context.Context) error {
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return err
	}
	at := s.now().UTC()
	cfg.Automation.LastProductSyncAt = &at
	return s.configs.Save(ctx, cfg)
}

// CheckPlatformStatus summarises every platform. With live set, configured
// suppliers are also asked to verify their credentials.
func (s *service) CheckPlatformStatus(ctx context.Context, live bool) (map[enums.Platform]PlatformStatus, error) {
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}
	out := make(map[enums.Platform]PlatformStatus, len(enums.Platforms()))
	for _, platform := range enums.Platforms() {
		if platform == enums.PlatformLocal {
			out[platform] = PlatformStatus{Enabled: true, Status: StatusActive}
			continue
		}
		settings := cfg.Settings.For(platform)
		status := PlatformStatus{
			Enabled:   settings.Enabled,
			APIKeySet: settings.Configured(platform),
		}
		switch {
		case settings.Enabled:
			status.Status = StatusActive
		case status.APIKeySet:
			status.Status = StatusInactive
		default:
			status.Status = StatusNotConfigured
		}
		if live && status.APIKeySet {
			connected := true
			if err := s.testWith(ctx, platform, settings); err != nil {
				connected = false
				status.Error = vendors.Message(err)
			}
			status.Connected = &connected
		}
		out[platform] = status
	}
	return out, nil
}

func (s *service) TestConnection(ctx context.Context, platform enums.Platform) error {
	if platform == enums.PlatformLocal {
		return nil
	}
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load platform config")
	}
	return s.testWith(ctx, platform, cfg.Settings.For(platform))
}

func (s *service) testWith(ctx context.Context, platform enums.Platform, settings models.VendorSettings) error {
	adapter, err := s.factory.For(platform, settings)
	if err != nil {
		return err
	}
	return adapter.TestConnection(ctx)
}

func (s *service) save(ctx context.Context, cfg *models.PlatformConfig) error {
	if err := s.configs.Save(ctx, cfg); err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save platform config")
	}
	return nil
}

func redact(cfg *models.PlatformConfig) *RedactedSettings {
	out := &RedactedSettings{
		ActivePlatform: cfg.ActivePlatform,
		Platforms:      make(map[enums.Platform]RedactedVendor, len(enums.Platforms())),
		Automation:     AutomationView(cfg.Automation),
		Version:        cfg.Version,
		UpdatedAt:      cfg.UpdatedAt,
	}
	for _, platform := range enums.Platforms() {
		settings := cfg.Settings.For(platform)
		out.Platforms[platform] = RedactedVendor{
			Enabled:      settings.Enabled,
			APIKeySet:    settings.Configured(platform),
			AppKeySet:    settings.AppKey != "",
			SecretKeySet: settings.SecretKey != "",
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
