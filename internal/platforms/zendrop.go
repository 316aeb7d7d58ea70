package platforms

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/vendors"
	"github.com/angelmondragon/dropship-backend/pkg/vendors/zendrop"
)

type zendropAdapter struct {
	client *zendrop.Client
}

// NewZendropAdapter wraps a Zendrop client.
func NewZendropAdapter(client *zendrop.Client) Adapter {
	return &zendropAdapter{client: client}
}

func (a *zendropAdapter) Platform() enums.Platform { return enums.PlatformZendrop }

func (a *zendropAdapter) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	q = normalizeQuery(q)
	page, err := a.client.ListProducts(ctx, zendrop.ListProductsRequest{
		Page:     q.Page,
		PerPage:  q.Limit,
		Category: q.Category,
		Search:   q.Search,
	})
	if err != nil {
		return nil, err
	}
	out := &ProductPage{
		Platform: enums.PlatformZendrop,
		Products: make([]UnifiedProduct, 0, len(page.Data)),
		Total:    int64(page.Pagination.Total),
		Page:     q.Page,
		Limit:    q.Limit,
	}
	if page.Pagination.Page > 0 {
		out.Page = page.Pagination.Page
	}
	for _, p := range page.Data {
		out.Products = append(out.Products, zendropProduct(p))
	}
	return out, nil
}

func (a *zendropAdapter) GetProduct(ctx context.Context, productID string) (*UnifiedProduct, error) {
	p, err := a.client.GetProduct(ctx, StripID(enums.PlatformZendrop, productID))
	if err != nil {
		return nil, err
	}
	unified := zendropProduct(*p)
	return &unified, nil
}

func (a *zendropAdapter) GetInventory(ctx context.Context, productID, variantID string) (int, error) {
	p, err := a.client.GetProduct(ctx, StripID(enums.PlatformZendrop, productID))
	if err != nil {
		return 0, err
	}
	if variantID == "" {
		return p.Inventory, nil
	}
	raw := StripID(enums.PlatformZendrop, variantID)
	for _, v := range p.Variants {
		if strconv.FormatInt(v.ID, 10) == raw {
			return v.Inventory, nil
		}
	}
	return 0, nil
}

func (a *zendropAdapter) CreateOrder(ctx context.Context, req VendorOrderRequest) (*VendorOrderResult, error) {
	items := make([]zendrop.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := parseZendropID(item.ProductID)
		if err != nil {
			return nil, err
		}
		line := zendrop.OrderItem{ProductID: productID, Quantity: item.Quantity}
		if item.VariantID != "" {
			variantID, err := parseZendropID(item.VariantID)
			if err != nil {
				return nil, err
			}
			line.VariantID = &variantID
		}
		items = append(items, line)
	}
	addr := req.Address
	order, err := a.client.CreateOrder(ctx, zendrop.CreateOrderRequest{
		Items: items,
		ShippingAddress: zendrop.Address{
			FirstName: addr.FirstName,
			LastName:  addr.LastName,
			Address1:  addr.Address1,
			Address2:  addr.Address2,
			City:      addr.City,
			State:     addr.State,
			Zip:       addr.PostalCode,
			Country:   addr.Country,
			Phone:     addr.Phone,
		},
		ShippingMethod: req.ShippingMethod,
		Notes:          req.Notes,
		CustomerEmail:  req.Email,
	})
	if err != nil {
		return nil, err
	}
	return &VendorOrderResult{VendorOrderID: strconv.FormatInt(order.ID, 10), RawStatus: order.Status}, nil
}

func (a *zendropAdapter) GetOrderStatus(ctx context.Context, vendorOrderID string) (*VendorOrderStatus, error) {
	order, err := a.client.GetOrder(ctx, vendorOrderID)
	if err != nil {
		return nil, err
	}
	status := newVendorOrderStatus(vendorOrderID, order.Status, deref(order.TrackingNumber), deref(order.TrackingURL), "")
	if status.TrackingNumber != "" {
		if tracking, err := a.client.GetTracking(ctx, vendorOrderID); err == nil {
			status.Carrier = tracking.Carrier
			if status.TrackingURL == "" {
				status.TrackingURL = tracking.TrackingURL
			}
		}
	}
	return status, nil
}

func (a *zendropAdapter) CancelOrder(ctx context.Context, vendorOrderID, reason string) error {
	_, err := a.client.CancelOrder(ctx, vendorOrderID, reason)
	return err
}

func (a *zendropAdapter) TestConnection(ctx context.Context) error {
	ok, err := a.client.VerifyConnection(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return vendors.NewAPIError("zendrop", http.StatusOK, "connection not verified")
	}
	return nil
}

func parseZendropID(id string) (int64, error) {
	raw := StripID(enums.PlatformZendrop, id)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid zendrop id %q", id))
	}
	return n, nil
}

func zendropProduct(p zendrop.Product) UnifiedProduct {
	vendorID := strconv.FormatInt(p.ID, 10)
	out := UnifiedProduct{
		ID:          ProductID(enums.PlatformZendrop, vendorID),
		VendorID:    vendorID,
		Platform:    enums.PlatformZendrop,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CostPrice:   p.Price,
		Images:      p.Images,
		Category:    p.Category,
		Stock:       p.Inventory,
		SKU:         p.SKU,
		Weight:      p.Weight,
	}
	if p.CompareAtPrice.Valid {
		v := p.CompareAtPrice.Decimal
		out.CompareAtPrice = &v
	}
	for _, v := range p.Variants {
		id := strconv.FormatInt(v.ID, 10)
		out.Variants = append(out.Variants, UnifiedVariant{
			ID:       VariantID(enums.PlatformZendrop, id),
			VendorID: id,
			SKU:      v.SKU,
			Name:     v.Name,
			Price:    v.Price,
			Stock:    v.Inventory,
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
