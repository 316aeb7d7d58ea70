package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
	"github.com/angelmondragon/dropship-backend/pkg/types"
)

// Service exposes admin catalog operations.
type Service interface {
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*ProductList, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Bulk(ctx context.Context, action BulkAction, ids []uuid.UUID) (*BulkResult, error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*ProductList, error) {
	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	if rows == nil {
		rows = []models.Product{}
	}
	return &ProductList{Products: rows, Pagination: pagination.NewMeta(params, total)}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if input.CostPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost_price cannot be negative")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_quantity cannot be negative")
	}
	status := enums.ProductStatusDraft
	if input.Status != "" {
		parsed, err := enums.ParseProductStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
		}
		status = parsed
	}

	product := &models.Product{
		Name:          name,
		Slug:          Slugify(name),
		Description:   input.Description,
		Price:         input.Price.Round(2),
		CostPrice:     input.CostPrice.Round(2),
		Images:        types.StringList(input.Images),
		Category:      strings.TrimSpace(input.Category),
		Subcategory:   input.Subcategory,
		Tags:          types.StringList(input.Tags),
		StockQuantity: input.StockQuantity,
		Status:        status,
		SKU:           strings.ToUpper(strings.TrimSpace(input.SKU)),
		Source:        enums.PlatformLocal,
	}
	if input.CompareAtPrice != nil {
		product.CompareAtPrice = decimal.NewNullDecimal(input.CompareAtPrice.Round(2))
	}

	if product.SKU != "" {
		if err := s.repo.Create(ctx, product); err != nil {
			if IsSKUConflict(err) {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
		}
		return s.Get(ctx, product.ID)
	}

	next := func() string { return GenerateSKU(product.Category, product.Name, "") }
	if err := CreateWithUniqueSKU(ctx, s.repo, product, next); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return s.Get(ctx, product.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
		updates["slug"] = Slugify(name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
		}
		updates["price"] = input.Price.Round(2)
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost_price cannot be negative")
		}
		updates["cost_price"] = input.CostPrice.Round(2)
	}
	if input.CompareAtPrice != nil {
		updates["compare_at_price"] = decimal.NewNullDecimal(input.CompareAtPrice.Round(2))
	}
	if input.Images != nil {
		updates["images"] = types.StringList(*input.Images)
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.Subcategory != nil {
		updates["subcategory"] = *input.Subcategory
	}
	if input.Tags != nil {
		updates["tags"] = types.StringList(*input.Tags)
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_quantity cannot be negative")
		}
		updates["stock_quantity"] = *input.StockQuantity
	}
	if input.Status != nil {
		status, err := enums.ParseProductStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
		}
		updates["status"] = status
	}
	if input.SEOTitle != nil {
		updates["seo_title"] = *input.SEOTitle
	}
	if input.SEODescription != nil {
		updates["seo_description"] = *input.SEODescription
	}
	if input.SEOKeywords != nil {
		updates["seo_keywords"] = types.StringList(*input.SEOKeywords)
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, []uuid.UUID{id})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) Bulk(ctx context.Context, action BulkAction, ids []uuid.UUID) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_ids is required")
	}
	var (
		affected int64
		err      error
	)
	switch action {
	case BulkActivate:
		affected, err = s.repo.UpdateStatus(ctx, ids, enums.ProductStatusActive)
	case BulkDraft:
		affected, err = s.repo.UpdateStatus(ctx, ids, enums.ProductStatusDraft)
	case BulkArchive:
		affected, err = s.repo.UpdateStatus(ctx, ids, enums.ProductStatusArchived)
	case BulkDelete:
		affected, err = s.repo.Delete(ctx, ids)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown bulk action %q", action))
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bulk product action")
	}
	return &BulkResult{Action: action, Affected: affected}, nil
}
