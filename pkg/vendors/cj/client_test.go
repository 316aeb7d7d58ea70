package cj

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/vendors"
)

var fixedNow = time.UnixMilli(1700000000000)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient("app-key", "secret", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return c
}

func TestSignMatchesHMACSHA256(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("appKeyapp-keytimestamp1700000000000"))
	want := hex.EncodeToString(mac.Sum(nil))

	got := Sign("app-key", "secret", "1700000000000")
	assert.Equal(t, want, got)
	assert.NotEqual(t, got, Sign("app-key", "secret", "1700000000001"))
	assert.NotEqual(t, got, Sign("app-key", "other", "1700000000000"))
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient("", "secret")
	require.ErrorIs(t, err, vendors.ErrMissingCredentials)
}

func TestRequestsCarrySignedHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "app-key", r.Header.Get("X-App-Key"))
		assert.Equal(t, "1700000000000", r.Header.Get("X-Timestamp"))
		assert.Equal(t, Sign("app-key", "secret", "1700000000000"), r.Header.Get("X-Sign"))
		assert.Equal(t, "/product/detail", r.URL.Path)
		assert.Equal(t, "p1", r.URL.Query().Get("id"))
		assert.Equal(t, "v1", r.URL.Query().Get("vid"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"stock":7}}`))
	})

	stock, err := c.GetStock(context.Background(), "p1", "v1")
	require.NoError(t, err)
	assert.Equal(t, 7, stock)
}

func TestCreateOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/order/create", r.URL.Path)
		var body CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ePacket", body.ShippingMethod)
		assert.Len(t, body.Items, 1)
		_, _ = w.Write([]byte(`{"success":true,"data":{"order_number":"CJ-55"}}`))
	})

	out, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		OrderNumber:    "ORD-1",
		ShippingMethod: "ePacket",
		Items:          []OrderItem{{ProductID: "p1", SKU: "S", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "CJ-55", out.ID())
}

func TestEnvelopeFailureIsDependencyError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"insufficient balance"}`))
	})

	_, err := c.CreateOrder(context.Background(), CreateOrderRequest{Items: []OrderItem{{ProductID: "p", Quantity: 1}}})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.Equal(t, "insufficient balance", vendors.Message(err))
}

func TestGetOrderFallsBackToAlternateFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CJ-1", r.URL.Query().Get("orderId"))
		_, _ = w.Write([]byte(`{"result":true,"data":{"orderId":"CJ-1","status":"SHIPPED","tracking_no":"1Z999","shippingCompany":"UPS"}}`))
	})

	out, err := c.GetOrder(context.Background(), "CJ-1")
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", out.Status)
	assert.Equal(t, "1Z999", out.Tracking())
	assert.Equal(t, "UPS", out.CarrierName())
}

func TestListProductsDecodesStringPrices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("pageNum"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"total":1,"products":[{"productId":"p1","productTitle":"Lamp","price":"12.50","inventory":4,"variants":[{"variantId":"v1","sku":"L-1","price":13,"inventory":2}]}]}}`))
	})

	page, err := c.ListProducts(context.Background(), ListProductsRequest{Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "12.5", page.Products[0].Price.String())
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, "v1", page.Products[0].Variants[0].ID)
}

func TestCancelOrderHTTPFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`bad sign`))
	})

	err := c.CancelOrder(context.Background(), "CJ-1")
	apiErr, ok := vendors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
