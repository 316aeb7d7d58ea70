package platforms

import (
	"context"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/vendors/cj"
)

type cjAdapter struct {
	client *cj.Client
}

// NewCJAdapter wraps a CJ client.
func NewCJAdapter(client *cj.Client) Adapter {
	return &cjAdapter{client: client}
}

func (a *cjAdapter) Platform() enums.Platform { return enums.PlatformCJ }

func (a *cjAdapter) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	q = normalizeQuery(q)
	page, err := a.client.ListProducts(ctx, cj.ListProductsRequest{
		Page:       q.Page,
		Limit:      q.Limit,
		CategoryID: q.Category,
		Keyword:    q.Search,
	})
	if err != nil {
		return nil, err
	}
	out := &ProductPage{
		Platform: enums.PlatformCJ,
		Products: make([]UnifiedProduct, 0, len(page.Products)),
		Total:    int64(page.Total),
		Page:     page.Page,
		Limit:    q.Limit,
	}
	for _, p := range page.Products {
		out.Products = append(out.Products, cjProduct(p))
	}
	return out, nil
}

func (a *cjAdapter) GetProduct(ctx context.Context, productID string) (*UnifiedProduct, error) {
	p, err := a.client.GetProduct(ctx, StripID(enums.PlatformCJ, productID))
	if err != nil {
		return nil, err
	}
	unified := cjProduct(*p)
	return &unified, nil
}

func (a *cjAdapter) GetInventory(ctx context.Context, productID, variantID string) (int, error) {
	return a.client.GetStock(ctx, StripID(enums.PlatformCJ, productID), StripID(enums.PlatformCJ, variantID))
}

func (a *cjAdapter) CreateOrder(ctx context.Context, req VendorOrderRequest) (*VendorOrderResult, error) {
	items := make([]cj.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, cj.OrderItem{
			ProductID: StripID(enums.PlatformCJ, item.ProductID),
			VariantID: StripID(enums.PlatformCJ, item.VariantID),
			SKU:       item.VendorSKU,
			Quantity:  item.Quantity,
		})
	}
	addr := req.Address
	resp, err := a.client.CreateOrder(ctx, cj.CreateOrderRequest{
		OrderNumber:    req.Reference,
		FirstName:      addr.FirstName,
		LastName:       addr.LastName,
		Address1:       addr.Address1,
		Address2:       addr.Address2,
		City:           addr.City,
		State:          addr.State,
		PostalCode:     addr.PostalCode,
		Country:        addr.Country,
		Phone:          addr.Phone,
		Email:          req.Email,
		Items:          items,
		Warehouse:      req.Warehouse,
		ShippingMethod: req.ShippingMethod,
	})
	if err != nil {
		return nil, err
	}
	return &VendorOrderResult{VendorOrderID: resp.ID(), RawStatus: resp.Status}, nil
}

func (a *cjAdapter) GetOrderStatus(ctx context.Context, vendorOrderID string) (*VendorOrderStatus, error) {
	detail, err := a.client.GetOrder(ctx, vendorOrderID)
	if err != nil {
		return nil, err
	}
	return newVendorOrderStatus(vendorOrderID, detail.Status, detail.Tracking(), detail.URL(), detail.CarrierName()), nil
}

func (a *cjAdapter) CancelOrder(ctx context.Context, vendorOrderID, _ string) error {
	return a.client.CancelOrder(ctx, vendorOrderID)
}

func (a *cjAdapter) TestConnection(ctx context.Context) error {
	_, err := a.client.Categories(ctx)
	return err
}

func cjProduct(p cj.Product) UnifiedProduct {
	images := p.Images
	if len(images) == 0 && p.Image != "" {
		images = []string{p.Image}
	}
	out := UnifiedProduct{
		ID:          ProductID(enums.PlatformCJ, p.ID),
		VendorID:    p.ID,
		Platform:    enums.PlatformCJ,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CostPrice:   p.Price,
		Images:      images,
		Category:    p.Category,
		Stock:       p.Stock,
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, UnifiedVariant{
			ID:         VariantID(enums.PlatformCJ, v.ID),
			VendorID:   v.ID,
			SKU:        v.SKU,
			Name:       v.Name,
			Price:      v.Price,
			Stock:      v.Stock,
			Attributes: v.Attributes,
		})
	}
	if len(out.Variants) > 0 {
		out.SKU = out.Variants[0].SKU
	}
	return out
}

func normalizeQuery(q ProductQuery) ProductQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	return q
}
