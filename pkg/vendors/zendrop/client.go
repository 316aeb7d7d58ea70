// Package zendrop is a client for the Zendrop v2 REST API.
package zendrop

import (
	"context"
	"encoding/json"
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
	vendorName     = "zendrop"
	DefaultBaseURL = "https://api.zendrop.com/v2"
)

type Client struct {
	req    *vendors.Requester
	apiKey string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.req.HTTPClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.req.BaseURL = trimmed
		}
	}
}

// WithMetrics records request outcomes.
func WithMetrics(m *metrics.VendorMetrics) Option {
	return func(c *Client) {
		c.req.Metrics = m
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("zendrop: %w", vendors.ErrMissingCredentials)
	}
	c := &Client{
		req: &vendors.Requester{
			Vendor:     vendorName,
			BaseURL:    DefaultBaseURL,
			HTTPClient: &http.Client{Timeout: vendors.DefaultTimeout},
			DecodeErr:  decodeError,
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

func decodeError(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error.Message != "" {
			return payload.Error.Message
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fmt.Sprintf("Zendrop API error: %d", status)
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
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	SKU       string          `json:"sku"`
	Inventory int             `json:"inventory"`
}

type Product struct {
	ID             int64               `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Price          decimal.Decimal     `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`
	Images         []string            `json:"images"`
	Inventory      int                 `json:"inventory"`
	Category       string              `json:"category"`
	SKU            string              `json:"sku"`
	Weight         float64             `json:"weight"`
	Variants       []Variant           `json:"variants"`
}

// Pagination is the paging block of list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type ProductPage struct {
	Data       []Product  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type ListProductsRequest struct {
	Page     int
	PerPage  int
	Category string
	Search   string
}

func (c *Client) ListProducts(ctx context.Context, req ListProductsRequest) (*ProductPage, error) {
	q := url.Values{}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(req.PerPage))
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
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "zendrop product id is required")
	}
	var out Product
	if err := c.do(ctx, "get_product", http.MethodGet, "/products/"+url.PathEscape(productID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out struct {
		Categories []string `json:"categories"`
	}
	if err := c.do(ctx, "categories", http.MethodGet, "/products/categories", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// Address is the Zendrop shipping address shape.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

type OrderItem struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Items           []OrderItem `json:"items"`
	ShippingAddress Address     `json:"shipping_address"`
	ShippingMethod  string      `json:"shipping_method,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	CustomerEmail   string      `json:"customer_email,omitempty"`
}

type Order struct {
	ID             int64   `json:"id"`
	OrderNumber    string  `json:"order_number"`
	Status         string  `json:"status"`
	TrackingNumber *string `json:"tracking_number"`
	TrackingURL    *string `json:"tracking_url"`
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "zendrop order requires items")
	}
	var out Order
	if err := c.do(ctx, "create_order", http.MethodPost, "/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "zendrop order id is required")
	}
	var out Order
	if err := c.do(ctx, "get_order", http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID, reason string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "zendrop order id is required")
	}
	var out Order
	body := map[string]string{"reason": reason}
	if err := c.do(ctx, "cancel_order", http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/cancel", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TrackingEvent is one carrier scan.
type TrackingEvent struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type Tracking struct {
	TrackingNumber string          `json:"tracking_number"`
	TrackingURL    string          `json:"tracking_url"`
	Carrier        string          `json:"carrier"`
	Status         string          `json:"status"`
	Events         []TrackingEvent `json:"events"`
}

func (c *Client) GetTracking(ctx context.Context, orderID string) (*Tracking, error) {
	var out Tracking
	if err := c.do(ctx, "get_tracking", http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/tracking", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyConnection checks the API key against /account/verify.
func (c *Client) VerifyConnection(ctx context.Context) (bool, error) {
	var out struct {
		Connected bool `json:"connected"`
	}
	if err := c.do(ctx, "verify", http.MethodGet, "/account/verify", nil, &out); err != nil {
		return false, err
	}
	return out.Connected, nil
}
