package platforms

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/orders"
	"github.com/angelmondragon/dropship-backend/internal/products"
	"github.com/angelmondragon/dropship-backend/pkg/config"
	"github.com/angelmondragon/dropship-backend/pkg/db"
	"github.com/angelmondragon/dropship-backend/pkg/db/dbtest"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
)

type fakeAdapter struct {
	mu       sync.Mutex
	platform enums.Platform
	calls    []string

	listPages   map[int][]UnifiedProduct
	listErr     error
	createErr   error
	createReqs  []VendorOrderRequest
	orderID     string
	inventory   int
	status      *VendorOrderStatus
	testErr     error
	cancelErr   error
	cancelled   []string
	getProducts map[string]*UnifiedProduct
}

func (f *fakeAdapter) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAdapter) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAdapter) Platform() enums.Platform { return f.platform }

func (f *fakeAdapter) ListProducts(_ context.Context, q ProductQuery) (*ProductPage, error) {
	f.record("list_products")
	if f.listErr != nil {
		return nil, f.listErr
	}
	items := f.listPages[q.Page]
	total := 0
	for _, p := range f.listPages {
		total += len(p)
	}
	return &ProductPage{Platform: f.platform, Products: items, Total: int64(total), Page: q.Page, Limit: q.Limit}, nil
}

func (f *fakeAdapter) GetProduct(_ context.Context, id string) (*UnifiedProduct, error) {
	f.record("get_product")
	if p, ok := f.getProducts[id]; ok {
		return p, nil
	}
	return &UnifiedProduct{ID: id, Platform: f.platform}, nil
}

func (f *fakeAdapter) GetInventory(context.Context, string, string) (int, error) {
	f.record("get_inventory")
	return f.inventory, nil
}

func (f *fakeAdapter) CreateOrder(_ context.Context, req VendorOrderRequest) (*VendorOrderResult, error) {
	f.record("create_order")
	f.mu.Lock()
	f.createReqs = append(f.createReqs, req)
	f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &VendorOrderResult{VendorOrderID: f.orderID, RawStatus: "pending"}, nil
}

func (f *fakeAdapter) GetOrderStatus(_ context.Context, id string) (*VendorOrderStatus, error) {
	f.record("get_order_status")
	if f.status != nil {
		return f.status, nil
	}
	return newVendorOrderStatus(id, "processing", "", "", ""), nil
}

func (f *fakeAdapter) CancelOrder(_ context.Context, id, _ string) error {
	f.record("cancel_order")
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.mu.Lock()
	f.cancelled = append(f.cancelled, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeAdapter) TestConnection(context.Context) error {
	f.record("test_connection")
	return f.testErr
}

// fakeFactory hands out one fake per platform and enforces credentials the
// same way the HTTP factory does.
type fakeFactory struct {
	adapters map[enums.Platform]*fakeAdapter
}

func (f *fakeFactory) For(platform enums.Platform, settings models.VendorSettings) (Adapter, error) {
	if !settings.Configured(platform) {
		return nil, notConfigured(platform)
	}
	adapter, ok := f.adapters[platform]
	if !ok {
		adapter = &fakeAdapter{platform: platform}
		f.adapters[platform] = adapter
	}
	return adapter, nil
}

// spyProducts counts catalog listings so tests can assert no local query ran.
type spyProducts struct {
	products.Repository
	mu    sync.Mutex
	lists int
}

func (s *spyProducts) List(ctx context.Context, filters products.ListFilters, params pagination.Params) ([]models.Product, int64, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	return s.Repository.List(ctx, filters, params)
}

func (s *spyProducts) WithTx(tx *gorm.DB) products.Repository {
	return s.Repository.WithTx(tx)
}

type fakeImporter struct {
	batches [][]UnifiedProduct
	fail    map[string]error
}

func (f *fakeImporter) ImportBatch(_ context.Context, items []UnifiedProduct) BatchSummary {
	f.batches = append(f.batches, items)
	var summary BatchSummary
	for _, item := range items {
		if err := f.fail[item.ID]; err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, err)
			continue
		}
		summary.Imported++
	}
	return summary
}

type harness struct {
	db       *gorm.DB
	svc      Service
	configs  ConfigRepository
	factory  *fakeFactory
	products *spyProducts
	importer *fakeImporter
}

func newHarness(t *testing.T, name string) *harness {
	t.Helper()
	conn := dbtest.Open(t, name)
	h := &harness{
		db:       conn,
		configs:  NewConfigRepository(conn, config.FulfillmentConfig{AutoFulfill: true, Warehouse: "CN", ShippingMethod: "ePacket"}),
		factory:  &fakeFactory{adapters: map[enums.Platform]*fakeAdapter{}},
		products: &spyProducts{Repository: products.NewRepository(conn)},
		importer: &fakeImporter{},
	}
	svc, err := NewService(ServiceParams{
		Configs:      h.configs,
		Factory:      h.factory,
		Products:     h.products,
		Orders:       orders.NewRepository(conn),
		Tx:           db.NewFromConn(conn),
		Importer:     h.importer,
		Logger:       logger.New(logger.Options{ServiceName: "platforms-test", Output: io.Discard}),
		SyncPageSize: 2,
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

// activate enables platform with credentials and makes it the active one.
func (h *harness) activate(t *testing.T, platform enums.Platform) *fakeAdapter {
	t.Helper()
	key := "key-" + string(platform)
	ctx := context.Background()
	in := StatusInput{Platform: platform, Enabled: true, APIKey: &key}
	if platform == enums.PlatformCJ {
		in.AppKey, in.SecretKey = &key, &key
	}
	_, err := h.svc.SetPlatformStatus(ctx, in)
	require.NoError(t, err)
	_, err = h.svc.SetActivePlatform(ctx, platform)
	require.NoError(t, err)
	adapter, err := h.factory.For(platform, models.VendorSettings{APIKey: key, AppKey: key, SecretKey: key})
	require.NoError(t, err)
	return adapter.(*fakeAdapter)
}
