// Package cj is a client for the CJ Dropshipping open API.
package cj

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/metrics"
	"github.com/angelmondragon/dropship-backend/pkg/vendors"
)

const (
	vendorName     = "cj"
	DefaultBaseURL = "https://api.cjdropshipping.com/api/v1"
)

// Client signs every request with the account app key and secret.
type Client struct {
	req       *vendors.Requester
	appKey    string
	secretKey string
	now       func() time.Time
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

// WithClock overrides the timestamp source used for signatures.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds a CJ client for the given credentials.
func NewClient(appKey, secretKey string, opts ...Option) (*Client, error) {
	appKey = strings.TrimSpace(appKey)
	secretKey = strings.TrimSpace(secretKey)
	if appKey == "" || secretKey == "" {
		return nil, fmt.Errorf("cj: %w", vendors.ErrMissingCredentials)
	}
	c := &Client{
		req: &vendors.Requester{
			Vendor:     vendorName,
			BaseURL:    DefaultBaseURL,
			HTTPClient: &http.Client{Timeout: vendors.DefaultTimeout},
		},
		appKey:    appKey,
		secretKey: secretKey,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Sign returns hex(HMAC-SHA256(secret, "appKey"+appKey+"timestamp"+ts)).
func Sign(appKey, secretKey, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte("appKey" + appKey + "timestamp" + timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) headers() http.Header {
	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	h := http.Header{}
	h.Set("X-App-Key", c.appKey)
	h.Set("X-Timestamp", ts)
	h.Set("X-Sign", Sign(c.appKey, c.secretKey, ts))
	return h
}

// envelope is the wrapper CJ puts around every payload.
type envelope struct {
	Success *bool           `json:"success"`
	Result  *bool           `json:"result"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) ok() bool {
	if e.Success != nil {
		return *e.Success
	}
	if e.Result != nil {
		return *e.Result
	}
	return e.Code == 200
}

func (c *Client) call(ctx context.Context, op, method, path string, body any, out any) error {
	var env envelope
	err := c.req.DoJSON(ctx, vendors.Request{
		Operation: op,
		Method:    method,
		Path:      path,
		Headers:   c.headers(),
		Body:      body,
	}, &env)
	if err != nil {
		return err
	}
	if !env.ok() {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return vendors.NewAPIError(vendorName, http.StatusOK, msg)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cj payload")
	}
	return nil
}

// Variant is a purchasable CJ product variant.
type Variant struct {
	ID         string            `json:"variantId"`
	SKU        string            `json:"sku"`
	Name       string            `json:"name"`
	Price      decimal.Decimal   `json:"price"`
	Stock      int               `json:"inventory"`
	Attributes map[string]string `json:"attributes"`
}

// Product is a CJ catalog entry.
type Product struct {
	ID          string          `json:"productId"`
	Name        string          `json:"productTitle"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"productImageUrl"`
	Images      []string        `json:"productImages"`
	Description string          `json:"description"`
	Category    string          `json:"categoryName"`
	Stock       int             `json:"inventory"`
	Variants    []Variant       `json:"variants"`
}

// ProductPage is one page of the catalog listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"pageNum"`
}

// ListProductsRequest filters the catalog.
type ListProductsRequest struct {
	Page       int
	Limit      int
	CategoryID string
	Keyword    string
}

// ListProducts pages through the catalog.
func (c *Client) ListProducts(ctx context.Context, req ListProductsRequest) (*ProductPage, error) {
	q := url.Values{}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	q.Set("pageNum", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(limit))
	if req.CategoryID != "" {
		q.Set("categoryId", req.CategoryID)
	}
	if req.Keyword != "" {
		q.Set("keyword", req.Keyword)
	}
	var out ProductPage
	if err := c.call(ctx, "list_products", http.MethodGet, "/product/list?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out.Page == 0 {
		out.Page = page
	}
	return &out, nil
}

// GetProduct loads one product.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cj product id is required")
	}
	q := url.Values{}
	q.Set("id", productID)
	var out Product
	if err := c.call(ctx, "get_product", http.MethodGet, "/product/detail?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStock returns the stock CJ reports for a product or one of its variants.
func (c *Client) GetStock(ctx context.Context, productID, variantID string) (int, error) {
	if strings.TrimSpace(productID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "cj product id is required")
	}
	q := url.Values{}
	q.Set("id", productID)
	if variantID != "" {
		q.Set("vid", variantID)
	}
	var out struct {
		Stock int `json:"stock"`
	}
	if err := c.call(ctx, "get_stock", http.MethodGet, "/product/detail?"+q.Encode(), nil, &out); err != nil {
		return 0, err
	}
	return out.Stock, nil
}

// Category is a CJ catalog category.
type Category struct {
	ID       string `json:"categoryId"`
	Name     string `json:"categoryName"`
	ParentID string `json:"parentId,omitempty"`
}

// Categories lists the catalog categories. It doubles as a credential check.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.call(ctx, "categories", http.MethodGet, "/product/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OrderItem is one line of a CJ order.
type OrderItem struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId,omitempty"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CreateOrderRequest is the body of POST /order/create.
type CreateOrderRequest struct {
	OrderNumber    string      `json:"orderNumber"`
	FirstName      string      `json:"firstName"`
	LastName       string      `json:"lastName"`
	Address1       string      `json:"address1"`
	Address2       string      `json:"address2"`
	City           string      `json:"city"`
	State          string      `json:"state"`
	PostalCode     string      `json:"postalCode"`
	Country        string      `json:"country"`
	Phone          string      `json:"phone"`
	Email          string      `json:"email"`
	Items          []OrderItem `json:"items"`
	Warehouse      string      `json:"warehouse"`
	ShippingMethod string      `json:"shippingMethod"`
}

// CreateOrderResponse carries the CJ order id.
type CreateOrderResponse struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

// ID returns orderId, falling back to order_number.
func (r CreateOrderResponse) ID() string {
	if r.OrderID != "" {
		return r.OrderID
	}
	return r.OrderNumber
}

// CreateOrder places an order.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cj order requires items")
	}
	var out CreateOrderResponse
	if err := c.call(ctx, "create_order", http.MethodPost, "/order/create", req, &out); err != nil {
		return nil, err
	}
	if out.ID() == "" {
		return nil, vendors.NewAPIError(vendorName, http.StatusOK, "order created without id")
	}
	return &out, nil
}

// OrderDetail is the subset of order detail fields the store uses.
type OrderDetail struct {
	OrderID         string `json:"orderId"`
	Status          string `json:"status"`
	TrackingNumber  string `json:"trackingNumber"`
	TrackingNo      string `json:"tracking_no"`
	TrackingURL     string `json:"trackingUrl"`
	TrackingURLAlt  string `json:"tracking_url"`
	Carrier         string `json:"carrier"`
	ShippingCompany string `json:"shippingCompany"`
}

// Tracking returns the first non-empty tracking number field.
func (d OrderDetail) Tracking() string {
	if d.TrackingNumber != "" {
		return d.TrackingNumber
	}
	return d.TrackingNo
}

// URL returns the first non-empty tracking URL field.
func (d OrderDetail) URL() string {
	if d.TrackingURL != "" {
		return d.TrackingURL
	}
	return d.TrackingURLAlt
}

// CarrierName returns the first non-empty carrier field.
func (d OrderDetail) CarrierName() string {
	if d.Carrier != "" {
		return d.Carrier
	}
	return d.ShippingCompany
}

// GetOrder loads the current state of an order.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*OrderDetail, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cj order id is required")
	}
	q := url.Values{}
	q.Set("orderId", orderID)
	var out OrderDetail
	if err := c.call(ctx, "get_order", http.MethodGet, "/order/detail?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder cancels an order that has not shipped yet.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cj order id is required")
	}
	return c.call(ctx, "cancel_order", http.MethodPost, "/order/cancel", map[string]string{"orderId": orderID}, nil)
}
