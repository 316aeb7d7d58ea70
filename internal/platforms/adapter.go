package platforms

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/dropship-backend/pkg/config"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/metrics"
	"github.com/angelmondragon/dropship-backend/pkg/vendors/appscenic"
	"github.com/angelmondragon/dropship-backend/pkg/vendors/cj"
	"github.com/angelmondragon/dropship-backend/pkg/vendors/zendrop"
)

// Adapter is the common surface every supplier integration exposes.
type Adapter interface {
	Platform() enums.Platform
	ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error)
	GetProduct(ctx context.Context, productID string) (*UnifiedProduct, error)
	GetInventory(ctx context.Context, productID, variantID string) (int, error)
	CreateOrder(ctx context.Context, req VendorOrderRequest) (*VendorOrderResult, error)
	GetOrderStatus(ctx context.Context, vendorOrderID string) (*VendorOrderStatus, error)
	CancelOrder(ctx context.Context, vendorOrderID, reason string) error
	TestConnection(ctx context.Context) error
}

// AdapterFactory builds an adapter from the stored settings of a platform.
type AdapterFactory interface {
	For(platform enums.Platform, settings models.VendorSettings) (Adapter, error)
}

// FactoryConfig carries the per-vendor endpoints and timeouts.
type FactoryConfig struct {
	CJ        config.CJConfig
	Zendrop   config.ZendropConfig
	AppScenic config.AppScenicConfig
}

// Factory builds HTTP-backed adapters.
type Factory struct {
	cfg     FactoryConfig
	metrics *metrics.VendorMetrics
}

// NewFactory returns a Factory. m may be nil.
func NewFactory(cfg FactoryConfig, m *metrics.VendorMetrics) *Factory {
	return &Factory{cfg: cfg, metrics: m}
}

// For returns the adapter of platform. Missing credentials yield PLATFORM_NOT_CONFIGURED.
func (f *Factory) For(platform enums.Platform, settings models.VendorSettings) (Adapter, error) {
	if !platform.IsVendor() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%q is not a supplier platform", platform))
	}
	if !settings.Configured(platform) {
		return nil, notConfigured(platform)
	}
	switch platform {
	case enums.PlatformCJ:
		client, err := cj.NewClient(settings.AppKey, settings.SecretKey,
			cj.WithBaseURL(f.cfg.CJ.BaseURL),
			cj.WithHTTPClient(httpClient(f.cfg.CJ.Timeout)),
			cj.WithMetrics(f.metrics),
		)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotConfigured, err, "cj credentials missing")
		}
		return NewCJAdapter(client), nil
	case enums.PlatformZendrop:
		client, err := zendrop.NewClient(settings.APIKey,
			zendrop.WithBaseURL(f.cfg.Zendrop.BaseURL),
			zendrop.WithHTTPClient(httpClient(f.cfg.Zendrop.Timeout)),
			zendrop.WithMetrics(f.metrics),
		)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotConfigured, err, "zendrop credentials missing")
		}
		return NewZendropAdapter(client), nil
	case enums.PlatformAppScenic:
		client, err := appscenic.NewClient(settings.APIKey,
			appscenic.WithBaseURL(f.cfg.AppScenic.BaseURL),
			appscenic.WithHTTPClient(httpClient(f.cfg.AppScenic.Timeout)),
			appscenic.WithMetrics(f.metrics),
		)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotConfigured, err, "appscenic credentials missing")
		}
		return NewAppScenicAdapter(client), nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported platform %q", platform))
}

func notConfigured(platform enums.Platform) error {
	return pkgerrors.New(pkgerrors.CodeNotConfigured, fmt.Sprintf("%s API key not configured", platform)).
		WithDetails(map[string]any{"platform": platform})
}

func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		return nil
	}
	return &http.Client{Timeout: timeout}
}
