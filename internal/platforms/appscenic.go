package platforms

import (
	"context"
	"fmt"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/vendors/appscenic"
)

type appScenicAdapter struct {
	client *appscenic.Client
}

// NewAppScenicAdapter wraps an AppScenic client.
func NewAppScenicAdapter(client *appscenic.Client) Adapter {
	return &appScenicAdapter{client: client}
}

func (a *appScenicAdapter) Platform() enums.Platform { return enums.PlatformAppScenic }

func (a *appScenicAdapter) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	q = normalizeQuery(q)
	page, err := a.client.ListProducts(ctx, appscenic.ListProductsRequest{
		Page:     q.Page,
		Limit:    q.Limit,
		Category: q.Category,
		Search:   q.Search,
	})
	if err != nil {
		return nil, err
	}
	out := &ProductPage{
		Platform: enums.PlatformAppScenic,
		Products: make([]UnifiedProduct, 0, len(page.Products)),
		Total:    int64(page.Total),
		Page:     q.Page,
		Limit:    q.Limit,
	}
	if page.Page > 0 {
		out.Page = page.Page
	}
	for _, p := range page.Products {
		out.Products = append(out.Products, appScenicProduct(p))
	}
	return out, nil
}

func (a *appScenicAdapter) GetProduct(ctx context.Context, productID string) (*UnifiedProduct, error) {
	p, err := a.client.GetProduct(ctx, StripID(enums.PlatformAppScenic, productID))
	if err != nil {
		return nil, err
	}
	unified := appScenicProduct(*p)
	return &unified, nil
}

func (a *appScenicAdapter) GetInventory(ctx context.Context, productID, variantID string) (int, error) {
	p, err := a.client.GetProduct(ctx, StripID(enums.PlatformAppScenic, productID))
	if err != nil {
		return 0, err
	}
	if variantID == "" {
		return p.Inventory, nil
	}
	raw := StripID(enums.PlatformAppScenic, variantID)
	for _, v := range p.Variants {
		if v.ID == raw {
			return v.Inventory, nil
		}
	}
	return 0, nil
}

// CreateOrder resolves each line to a supplier SKU, fetching the product when
// the caller did not supply one.
func (a *appScenicAdapter) CreateOrder(ctx context.Context, req VendorOrderRequest) (*VendorOrderResult, error) {
	items := make([]appscenic.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		sku := item.VendorSKU
		if sku == "" {
			resolved, err := a.resolveSKU(ctx, item)
			if err != nil {
				return nil, err
			}
			sku = resolved
		}
		items = append(items, appscenic.OrderItem{SKU: sku, Quantity: item.Quantity})
	}
	addr := req.Address
	order, err := a.client.CreateOrder(ctx, appscenic.CreateOrderRequest{
		Items: items,
		ShippingAddress: appscenic.Address{
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
		ShippingMethodID: req.ShippingMethod,
	})
	if err != nil {
		return nil, err
	}
	return &VendorOrderResult{VendorOrderID: order.ID, RawStatus: order.Status}, nil
}

func (a *appScenicAdapter) resolveSKU(ctx context.Context, item VendorOrderItem) (string, error) {
	p, err := a.client.GetProduct(ctx, StripID(enums.PlatformAppScenic, item.ProductID))
	if err != nil {
		return "", err
	}
	if item.VariantID != "" {
		raw := StripID(enums.PlatformAppScenic, item.VariantID)
		for _, v := range p.Variants {
			if v.ID == raw && v.SKU != "" {
				return v.SKU, nil
			}
		}
	}
	if p.SKU == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("appscenic product %s has no sku", p.ID))
	}
	return p.SKU, nil
}

func (a *appScenicAdapter) GetOrderStatus(ctx context.Context, vendorOrderID string) (*VendorOrderStatus, error) {
	order, err := a.client.GetOrder(ctx, vendorOrderID)
	if err != nil {
		return nil, err
	}
	return newVendorOrderStatus(vendorOrderID, order.Status, order.TrackingNumber, order.TrackingURL, order.Carrier), nil
}

func (a *appScenicAdapter) CancelOrder(ctx context.Context, vendorOrderID, _ string) error {
	return a.client.CancelOrder(ctx, vendorOrderID)
}

func (a *appScenicAdapter) TestConnection(ctx context.Context) error {
	return a.client.TestConnection(ctx)
}

func appScenicProduct(p appscenic.Product) UnifiedProduct {
	out := UnifiedProduct{
		ID:          ProductID(enums.PlatformAppScenic, p.ID),
		VendorID:    p.ID,
		Platform:    enums.PlatformAppScenic,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CostPrice:   p.Price,
		Images:      p.Images,
		Category:    p.Category,
		Tags:        p.Tags,
		Stock:       p.Inventory,
		SKU:         p.SKU,
		Weight:      p.Weight,
	}
	if p.CompareAtPrice.Valid {
		v := p.CompareAtPrice.Decimal
		out.CompareAtPrice = &v
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, UnifiedVariant{
			ID:         VariantID(enums.PlatformAppScenic, v.ID),
			VendorID:   v.ID,
			SKU:        v.SKU,
			Name:       v.Name,
			Price:      v.Price,
			Stock:      v.Inventory,
			Attributes: v.Options,
		})
	}
	return out
}
