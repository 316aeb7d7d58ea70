// Package webhooks applies order and inventory callbacks pushed by suppliers.
package webhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/fulfillment"
	"github.com/angelmondragon/dropship-backend/internal/orders"
	"github.com/angelmondragon/dropship-backend/internal/products"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

const (
	ActionOrderUpdated = "order_updated"
	ActionStockUpdated = "stock_updated"
	ActionIgnored      = "ignored"
)

// Result says what a callback changed.
type Result struct {
	Event     string     `json:"event"`
	Action    string     `json:"action"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
}

type Service interface {
	Handle(ctx context.Context, event *Event) (*Result, error)
}

// StatusUpdater is the fulfillment entry point supplier statuses flow through.
type StatusUpdater interface {
	UpdateStatusFromPlatform(ctx context.Context, input fulfillment.PlatformUpdate) (*fulfillment.StatusView, error)
}

// Records finds the fulfillment record a supplier order id belongs to.
type Records interface {
	FindByVendorOrderID(ctx context.Context, platform enums.Platform, vendorOrderID string) (*models.FulfillmentRecord, error)
}

type ServiceParams struct {
	Fulfillment StatusUpdater
	Records     Records
	Orders      orders.Repository
	Products    products.Repository
	Logger      *logger.Logger
}

type service struct {
	fulfillment StatusUpdater
	records     Records
	orders      orders.Repository
	products    products.Repository
	logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Fulfillment == nil {
		return nil, fmt.Errorf("fulfillment service required")
	}
	if params.Records == nil {
		return nil, fmt.Errorf("fulfillment records required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		fulfillment: params.Fulfillment,
		records:     params.Records,
		orders:      params.Orders,
		products:    params.Products,
		logg:        params.Logger,
	}, nil
}

func (s *service) Handle(ctx context.Context, event *Event) (*Result, error) {
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event is required")
	}
	ctx = s.logg.WithPlatform(ctx, string(event.Platform))
	ctx = s.logg.WithField(ctx, "webhook_event", event.Type)

	switch {
	case event.isOrder():
		return s.applyOrder(ctx, event)
	case event.isInventory():
		return s.applyInventory(ctx, event)
	}
	s.logg.Info(ctx, "unhandled supplier event")
	return &Result{Event: event.Type, Action: ActionIgnored}, nil
}

func (s *service) applyOrder(ctx context.Context, event *Event) (*Result, error) {
	order, err := s.resolveOrder(ctx, event)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if event.Message != "" {
		ctx = s.logg.WithField(ctx, "supplier_message", event.Message)
	}

	_, err = s.fulfillment.UpdateStatusFromPlatform(ctx, fulfillment.PlatformUpdate{
		OrderID:        order.ID,
		Platform:       event.Platform,
		VendorOrderID:  event.VendorOrderID,
		Status:         event.Status,
		TrackingNumber: event.TrackingNumber,
		TrackingURL:    event.TrackingURL,
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, fmt.Sprintf("supplier reported order %s as %s", event.VendorOrderID, event.Status))
	id := order.ID
	return &Result{Event: event.Type, Action: ActionOrderUpdated, OrderID: &id}, nil
}

// resolveOrder tries the fulfillment record, then the vendor id stored on the
// order, then the store order number.
func (s *service) resolveOrder(ctx context.Context, event *Event) (*models.Order, error) {
	rec, err := s.records.FindByVendorOrderID(ctx, event.Platform, event.VendorOrderID)
	switch {
	case err == nil:
		return s.loadOrder(ctx, rec.OrderID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load fulfillment record")
	}

	order, err := s.orders.FindByVendorOrderID(ctx, event.Platform, event.VendorOrderID)
	switch {
	case err == nil:
		return order, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	if event.OrderNumber != "" {
		order, err = s.orders.FindByOrderNumber(ctx, event.OrderNumber)
		switch {
		case err == nil:
			return order, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order matches supplier order").
		WithDetails(map[string]any{"platform": event.Platform, "vendor_order_id": event.VendorOrderID})
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) applyInventory(ctx context.Context, event *Event) (*Result, error) {
	product, err := s.products.FindByVendorID(ctx, event.Platform, event.VendorProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logg.Info(s.logg.WithField(ctx, "vendor_product_id", event.VendorProductID), "supplier product not in catalog")
		return &Result{Event: event.Type, Action: ActionIgnored}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	updates := map[string]any{}
	if event.OutOfStock {
		updates["stock_quantity"] = 0
		updates["status"] = enums.ProductStatusDraft
	} else {
		updates["stock_quantity"] = max(*event.Inventory, 0)
	}
	if err := s.products.Update(ctx, product.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update stock")
	}
	if event.OutOfStock {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", product.ID.String()), "supplier product out of stock, unpublished")
	}
	id := product.ID
	return &Result{Event: event.Type, Action: ActionStockUpdated, ProductID: &id}, nil
}
