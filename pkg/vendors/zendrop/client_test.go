package zendrop

import (
	"context"
	"encoding/json"
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
	c, err := NewClient("zd-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestListProductsQueryAndAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer zd-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		assert.Equal(t, "lamp", r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`{"data":[{"id":12,"name":"Desk Lamp","price":9.5,"inventory":3,"variants":[{"id":7,"sku":"DL-1","price":9.5,"inventory":3}]}],"pagination":{"page":2,"per_page":50,"total":51,"total_pages":2}}`))
	})

	page, err := c.ListProducts(context.Background(), ListProductsRequest{Page: 2, PerPage: 50, Search: "lamp"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(12), page.Data[0].ID)
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

func TestCreateOrderSendsAddress(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "12345", body.ShippingAddress.Zip)
		assert.Equal(t, int64(12), body.Items[0].ProductID)
		_, _ = w.Write([]byte(`{"id":991,"order_number":"Z-991","status":"pending"}`))
	})

	out, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		Items:           []OrderItem{{ProductID: 12, Quantity: 1}},
		ShippingAddress: Address{FirstName: "A", Zip: "12345"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(991), out.ID)
}

func TestErrorMessageExtraction(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"top level", `{"message":"invalid api key"}`, "invalid api key"},
		{"nested", `{"error":{"message":"out of stock"}}`, "out of stock"},
		{"fallback", `not json`, "Zendrop API error: 422"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.GetOrder(context.Background(), "1")
			apiErr, ok := vendors.AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tc.want, apiErr.Message)
			assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
		})
	}
}

func TestCancelAndTracking(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/5/cancel":
			_, _ = w.Write([]byte(`{"id":5,"status":"cancelled"}`))
		case "/orders/5/tracking":
			_, _ = w.Write([]byte(`{"tracking_number":"TN1","carrier":"usps","status":"in_transit"}`))
		case "/account/verify":
			_, _ = w.Write([]byte(`{"connected":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	order, err := c.CancelOrder(context.Background(), "5", "customer request")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", order.Status)

	tr, err := c.GetTracking(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "TN1", tr.TrackingNumber)

	ok, err := c.VerifyConnection(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
