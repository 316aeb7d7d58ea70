// Package appscenic is a client for the AppScenic v1 REST API.
package appscenic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/metrics"
	"github.com/angelmondragon/dropship-backend/pkg/vendors"
)

const (
	vendorName     = "appscenic"
	DefaultBaseURL = "https://api.appscenic.com/v1"
)

// ErrCancelUnsupported is returned because AppScenic exposes no cancel endpoint.
var ErrCancelUnsupported = errors.New("appscenic does not support order cancellation")

type Client struct {
	req    *vendors.Requester
	apiKey string
}

// Option configures optional client behavior.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.req.HTTPClient = client
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.req.BaseURL = trimmed
		}
	}
}

func WithMetrics(m *metrics.VendorMetrics) Option {
	return func(c *Client) {
		c.req.Metrics = m
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("appscenic: %w", vendors.ErrMissingCredentials)
	}
	c := &Client{
		req: &vendors.Requester{
			Vendor:     vendorName,
			BaseURL:    DefaultBaseURL,
			HTTPClient: &http.Client{Timeout: vendors.DefaultTimeout},
			DecodeErr: func(status int, body []byte) string {
				return fmt.Sprintf("AppScenic API Error: %d - %s", status, strings.TrimSpace(string(body)))
			},
		},
		apiKey: apiKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	return c.req.DoJSON(ctx, vendors.Request{
		Operation: op,
		Method:    method,
		Path:      path,
		Headers:   vendors.BearerHeaders(c.apiKey),
		Body:      body,
	}, out)
}

type Variant struct {
	ID        string            `json:"id"`
	SKU       string            `json:"sku"`
	Name      string            `json:"name"`
	Price     decimal.Decimal   `json:"price"`
	Inventory int               `json:"inventory"`
	Options   map[string]string `json:"options"`
}

type Product struct {
	ID             string              `json:"id"`
	SKU            string              `json:"sku"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Price          decimal.Decimal     `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`
	Inventory      int                 `json:"inventory"`
	Images         []string            `json:"images"`
	Weight         float64             `json:"weight"`
	WeightUnit     string              `json:"weight_unit"`
	Category       string              `json:"category"`
	Tags           []string            `json:"tags"`
	Variants       []Variant           `json:"variants"`
}

type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
}

type ListProductsRequest struct {
	Page     int
	Limit    int
	Category string
	Search   string
}

func (c *Client) ListProducts(ctx context.Context, req ListProductsRequest) (*ProductPage, error) {
	q := url.Values{}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Category != "" {
		q.Set("category", req.Category)
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	path := "/products"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out ProductPage
	if err := c.do(ctx, "list_products", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appscenic product id is required")
	}
	var out struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, "get_product", http.MethodGet, "/products/"+url.PathEscape(productID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// GetProductBySKU looks a product up by supplier SKU.
func (c *Client) GetProductBySKU(ctx context.Context, sku string) (*Product, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appscenic sku is required")
	}
	var out struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, "get_product_by_sku", http.MethodGet, "/products/sku/"+url.PathEscape(sku), nil, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out struct {
		Categories []string `json:"categories"`
	}
	if err := c.do(ctx, "categories", http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

type OrderItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Items            []OrderItem `json:"items"`
	ShippingAddress  Address     `json:"shipping_address"`
	SupplierID       string      `json:"supplier_id,omitempty"`
	ShippingMethodID string      `json:"shipping_method_id,omitempty"`
}

type Order struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
	Carrier        string `json:"carrier"`
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appscenic order requires items")
	}
	var out struct {
		Order Order `json:"order"`
	}
	if err := c.do(ctx, "create_order", http.MethodPost, "/orders", req, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appscenic order id is required")
	}
	var out struct {
		Order Order `json:"order"`
	}
	if err := c.do(ctx, "get_order", http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// CancelOrder always fails; orders must be cancelled in the AppScenic dashboard.
func (c *Client) CancelOrder(context.Context, string) error {
	return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrCancelUnsupported, ErrCancelUnsupported.Error())
}

// TestConnection issues a minimal supplier listing to validate the key.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.do(ctx, "test_connection", http.MethodGet, "/suppliers?limit=1", nil, nil)
}
