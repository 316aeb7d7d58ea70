package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/dropship-backend/api/controllers"
	"github.com/angelmondragon/dropship-backend/api/middleware"
	"github.com/angelmondragon/dropship-backend/internal/app"
	"github.com/angelmondragon/dropship-backend/internal/webhooks"
	"github.com/angelmondragon/dropship-backend/pkg/config"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/dropship-backend/pkg/redis"
)

// Store is the Redis surface used by idempotency and rate limiting.
type Store interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Observability bundles the readiness checks and the metrics registry.
type Observability struct {
	Ready    map[string]controllers.Pinger
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	svc *app.Services,
	store Store,
	obs Observability,
) http.Handler {
	if svc == nil {
		svc = &app.Services{}
	}
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(obs.HTTP),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.LoginPolicy{
		Name:     "admin-login",
		Window:   cfg.AuthRateLimit.LoginWindow,
		PerIP:    cfg.AuthRateLimit.LoginIPLimit,
		PerEmail: cfg.AuthRateLimit.LoginEmailLimit,
	}
	publicPolicy := middleware.RateLimitPolicy{Name: "public", Limit: cfg.APIRateLimit.PublicLimit, Window: cfg.APIRateLimit.Window}
	adminPolicy := middleware.RateLimitPolicy{Name: "admin", Limit: cfg.APIRateLimit.AdminLimit, Window: cfg.APIRateLimit.Window}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, obs.Ready))
	})
	if obs.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(obs.Gatherer, promhttp.HandlerOpts{}))
	}

	r.With(middleware.LoginThrottle(loginPolicy, store, logg)).
		Post("/api/admin/auth/login", controllers.AdminLogin(svc.Admins, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(publicPolicy, store, logg))
		r.Get("/api/products", controllers.StorefrontProducts(svc.Platforms, logg))
		r.Get("/api/products/{id}", controllers.StorefrontProduct(svc.Products, logg))
		r.Get("/api/reviews", controllers.PublicReviews(svc.Reviews, logg))
		r.Post("/api/reviews", controllers.PublicReviewAction(svc.Reviews, logg))
	})

	webhookOpts := controllers.WebhookOptions{
		Secrets: map[enums.Platform]string{
			enums.PlatformZendrop: cfg.Zendrop.WebhookSecret,
			enums.PlatformCJ:      cfg.CJ.WebhookSecret,
		},
		AllowUnsigned: cfg.App.IsDev(),
		MaxBodyBytes:  cfg.Webhooks.MaxBodyBytes,
	}
	supplierWebhook := controllers.SupplierWebhook(svc.Webhooks, nil, webhookOpts, logg)
	if guard, err := webhooks.NewIdempotencyGuard(store, cfg.Webhooks.DedupeTTL, "supplier-webhook"); err == nil {
		supplierWebhook = controllers.SupplierWebhook(svc.Webhooks, guard, webhookOpts, logg)
	} else {
		logg.Warn(context.Background(), "webhook idempotency guard unavailable: "+err.Error())
	}
	r.Route("/api/webhooks", func(r chi.Router) {
		r.Get("/{platform}", controllers.SupplierWebhookHealth())
		r.Post("/{platform}", supplierWebhook)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(adminPolicy, store, logg))
		r.Use(middleware.Idempotency(store, logg))

		r.Get("/auth/me", controllers.AdminMe(svc.Admins, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(svc.Products, logg))
			r.Post("/", controllers.AdminCreateProduct(svc.Products, logg))
			r.Post("/import", controllers.AdminImportProduct(svc.Importer, logg))
			r.Post("/import/bulk", controllers.AdminBulkImport(svc.Importer, logg))
			r.Post("/bulk", controllers.AdminBulkProducts(svc.Products, logg))
			r.Put("/{id}", controllers.AdminUpdateProduct(svc.Products, logg))
			r.Delete("/{id}", controllers.AdminDeleteProduct(svc.Products, logg))
		})

		r.Route("/platforms", func(r chi.Router) {
			r.Get("/", controllers.PlatformSettings(svc.Platforms, logg))
			r.Put("/active", controllers.PlatformSetActive(svc.Platforms, logg))
			r.Put("/automation", controllers.PlatformAutomation(svc.Platforms, logg))
			r.Get("/status", controllers.PlatformStatus(svc.Platforms, logg))
			r.Post("/sync", controllers.PlatformSync(svc.Platforms, logg))
			r.Post("/inventory/check", controllers.PlatformCheckInventory(svc.Platforms, logg))
			r.Put("/{platform}", controllers.PlatformUpdate(svc.Platforms, logg))
			r.Post("/{platform}/test", controllers.PlatformTestConnection(svc.Platforms, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(svc.Orders, logg))
			r.Post("/", controllers.CreateOrder(svc.Platforms, logg))
			r.Get("/{id}", controllers.AdminGetOrder(svc.Orders, logg))
			r.Put("/{id}/status", controllers.AdminUpdateOrderStatus(svc.Orders, logg))
			r.Post("/{id}/cancel", controllers.AdminCancelOrder(svc.Orders, logg))
			r.Post("/{id}/paid", controllers.AdminMarkOrderPaid(svc.Orders, logg))
		})

		r.Route("/fulfillment", func(r chi.Router) {
			r.Get("/", controllers.FulfillmentQuery(svc.Fulfillment, logg))
			r.Post("/", controllers.FulfillmentAction(svc.Fulfillment, logg))
			r.Get("/{orderId}/history", controllers.FulfillmentHistory(svc.Fulfillment, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", controllers.AdminPendingReviews(svc.Reviews, logg))
			r.Get("/stats", controllers.AdminReviewStats(svc.Reviews, logg))
			r.Post("/{id}/approve", controllers.AdminApproveReview(svc.Reviews, logg))
			r.Post("/{id}/reject", controllers.AdminRejectReview(svc.Reviews, logg))
			r.Delete("/{id}", controllers.AdminDeleteReview(svc.Reviews, logg))
		})

		r.Route("/messaging", func(r chi.Router) {
			r.Get("/templates", controllers.ListTemplates(svc.Messaging, logg))
			r.Post("/templates", controllers.UpsertTemplate(svc.Messaging, logg))
			r.Delete("/templates", controllers.DeleteTemplate(svc.Messaging, logg))
			r.Post("/send", controllers.SendMessage(svc.Messaging, logg))
			r.Get("/orders/{orderId}", controllers.OrderCommunications(svc.Messaging, logg))
		})

		r.Route("/tracking", func(r chi.Router) {
			r.Get("/", controllers.TrackingQuery(svc.Tracking, logg))
			r.Post("/", controllers.AddTracking(svc.Tracking, logg))
			r.Get("/carriers", controllers.TrackingCarriers(svc.Tracking, logg))
			r.Put("/{id}/status", controllers.UpdateTrackingStatus(svc.Tracking, logg))
			r.Delete("/{id}", controllers.DeleteTracking(svc.Tracking, logg))
		})

		r.Route("/ai-picker", func(r chi.Router) {
			r.Post("/analyze", controllers.AnalyzeProducts(svc.Picker, logg))
			r.Get("/runs", controllers.ListAnalysisRuns(svc.Picker, logg))
			r.Get("/runs/{id}", controllers.GetAnalysisRun(svc.Picker, logg))
			r.Get("/criteria", controllers.PickerCriteria(svc.Picker, logg))
		})
	})

	return r
}
