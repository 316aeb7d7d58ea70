package appscenic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dropship-backend/pkg/vendors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient("as-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("  ")
	require.ErrorIs(t, err, vendors.ErrMissingCredentials)
}

func TestGetProductBySKU(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/sku/AS-100", r.URL.Path)
		assert.Equal(t, "Bearer as-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"product":{"id":"p1","sku":"AS-100","name":"Mug","price":"4.25","inventory":10,"tags":["kitchen"]}}`))
	})

	p, err := c.GetProductBySKU(context.Background(), "AS-100")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "4.25", p.Price.StringFixed(2))
	assert.Equal(t, []string{"kitchen"}, p.Tags)
}

func TestCreateOrderUnwrapsOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "AS-100", body.Items[0].SKU)
		assert.Equal(t, "94107", body.ShippingAddress.Zip)
		_, _ = w.Write([]byte(`{"order":{"id":"o-77","status":"pending"}}`))
	})

	out, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		Items:           []OrderItem{{SKU: "AS-100", Quantity: 2}},
		ShippingAddress: Address{Zip: "94107"},
	})
	require.NoError(t, err)
	assert.Equal(t, "o-77", out.ID)
}

func TestErrorFormat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`bad sku`))
	})

	_, err := c.GetOrder(context.Background(), "o-1")
	apiErr, ok := vendors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "AppScenic API Error: 400 - bad sku", apiErr.Message)
}

func TestCancelUnsupported(t *testing.T) {
	c, err := NewClient("k")
	require.NoError(t, err)
	err = c.CancelOrder(context.Background(), "o-1")
	assert.True(t, errors.Is(err, ErrCancelUnsupported))
}

func TestConnectionCheck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/suppliers", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"suppliers":[]}`))
	})
	require.NoError(t, c.TestConnection(context.Background()))
}
