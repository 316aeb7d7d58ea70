package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dropship-backend/internal/platforms"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

func TestPlatformStatusLiveFlag(t *testing.T) {
	logg := testLogger()
	var checked []bool
	svc := &stubPlatforms{statusFn: func(_ context.Context, live bool) (map[enums.Platform]platforms.PlatformStatus, error) {
		checked = append(checked, live)
		return map[enums.Platform]platforms.PlatformStatus{
			enums.PlatformLocal: {Enabled: true, Status: "active"},
		}, nil
	}}

	rec := serve(t, PlatformStatus(svc, logg), request{method: http.MethodGet, target: "/"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(t, PlatformStatus(svc, logg), request{method: http.MethodGet, target: "/?live=true"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(t, PlatformStatus(svc, logg), request{method: http.MethodGet, target: "/?live=maybe"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, []bool{false, true}, checked)
}

func TestPlatformCheckInventory(t *testing.T) {
	logg := testLogger()
	svc := &stubPlatforms{inventoryFn: func(_ context.Context, items []platforms.InventoryItem) ([]platforms.InventoryCheck, error) {
		out := make([]platforms.InventoryCheck, 0, len(items))
		for _, item := range items {
			out = append(out, platforms.InventoryCheck{ProductID: item.ProductID, Requested: item.Quantity})
		}
		return out, nil
	}}

	rec := serve(t, PlatformCheckInventory(svc, logg), request{
		method: http.MethodPost,
		target: "/",
		body:   `{"items": [{"product_id": "p-1", "quantity": 2}]}`,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Items []platforms.InventoryCheck `json:"items"`
	}
	decodeData(t, rec, &out)
	require.Len(t, out.Items, 1)
	require.Equal(t, 2, out.Items[0].Requested)

	rec = serve(t, PlatformCheckInventory(svc, logg), request{
		method: http.MethodPost,
		target: "/",
		body:   `{"items": [{"product_id": "p-1", "quantity": 0}]}`,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	items := make([]string, maxInventoryItems+1)
	for i := range items {
		items[i] = fmt.Sprintf(`{"product_id": "p-%d", "quantity": 1}`, i)
	}
	rec = serve(t, PlatformCheckInventory(svc, logg), request{
		method: http.MethodPost,
		target: "/",
		body:   `{"items": [` + strings.Join(items, ",") + `]}`,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
