// Package app assembles the domain services shared by the api server and the
// cron worker.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/dropship-backend/internal/admins"
	"github.com/angelmondragon/dropship-backend/internal/fulfillment"
	"github.com/angelmondragon/dropship-backend/internal/importer"
	"github.com/angelmondragon/dropship-backend/internal/messaging"
	"github.com/angelmondragon/dropship-backend/internal/orders"
	"github.com/angelmondragon/dropship-backend/internal/picker"
	"github.com/angelmondragon/dropship-backend/internal/platforms"
	"github.com/angelmondragon/dropship-backend/internal/products"
	"github.com/angelmondragon/dropship-backend/internal/reviews"
	"github.com/angelmondragon/dropship-backend/internal/tracking"
	"github.com/angelmondragon/dropship-backend/internal/webhooks"
	"github.com/angelmondragon/dropship-backend/pkg/config"
	"github.com/angelmondragon/dropship-backend/pkg/db"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/messaging/sendgrid"
	"github.com/angelmondragon/dropship-backend/pkg/messaging/twilio"
	"github.com/angelmondragon/dropship-backend/pkg/metrics"
	"github.com/angelmondragon/dropship-backend/pkg/vendors"
)

// Services holds every domain service built from one database connection.
type Services struct {
	Admins      admins.Service
	Products    products.Service
	Orders      orders.Service
	Platforms   platforms.Service
	Importer    importer.Service
	Fulfillment fulfillment.Service
	Messaging   messaging.Service
	Tracking    tracking.Service
	Reviews     reviews.Service
	Picker      picker.Service
	Webhooks    webhooks.Service

	VendorMetrics *metrics.VendorMetrics
}

type Params struct {
	Config   *config.Config
	DB       *db.Client
	Logger   *logger.Logger
	Registry prometheus.Registerer
}

// catalog resolves adapters through the platform manager once it exists. The
// importer and the platform manager depend on each other.
type catalog struct {
	platforms platforms.Service
}

func (c *catalog) Adapter(ctx context.Context, platform enums.Platform) (platforms.Adapter, error) {
	if c.platforms == nil {
		return nil, errors.New("platform manager not initialised")
	}
	return c.platforms.Adapter(ctx, platform)
}

// Build wires repositories, vendor clients and services. Missing Twilio or
// SendGrid credentials disable that channel instead of failing.
func Build(ctx context.Context, p Params) (*Services, error) {
	if p.Config == nil || p.DB == nil || p.Logger == nil {
		return nil, fmt.Errorf("config, db and logger required")
	}
	cfg, logg, conn := p.Config, p.Logger, p.DB.DB()
	reg := p.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	vendorMetrics := metrics.NewVendorMetrics(reg)

	productRepo := products.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)

	productSvc, err := products.NewService(productRepo)
	if err != nil {
		return nil, fmt.Errorf("products service: %w", err)
	}
	orderSvc, err := orders.NewService(orderRepo)
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	adminSvc, err := admins.NewService(admins.ServiceParams{
		Repo:           admins.NewRepository(conn),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return nil, fmt.Errorf("admins service: %w", err)
	}

	lazy := &catalog{}
	importerSvc, err := importer.NewService(importer.ServiceParams{
		Products: productRepo,
		Catalog:  lazy,
		SEO:      importer.NewSEOGenerator(cfg.App.StoreName, cfg.App.StoreURL),
		Defaults: importer.DefaultImportConfig(),
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("importer service: %w", err)
	}

	platformSvc, err := platforms.NewService(platforms.ServiceParams{
		Configs:  platforms.NewConfigRepository(conn, cfg.Fulfillment),
		Factory:  platforms.NewFactory(platforms.FactoryConfig{CJ: cfg.CJ, Zendrop: cfg.Zendrop, AppScenic: cfg.AppScenic}, vendorMetrics),
		Products: productRepo,
		Orders:   orderRepo,
		Tx:       p.DB,
		Importer: importerSvc,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("platforms service: %w", err)
	}
	lazy.platforms = platformSvc

	msgParams := messaging.ServiceParams{
		Repo:      messaging.NewRepository(conn),
		Orders:    orderRepo,
		StoreName: cfg.App.StoreName,
		Logger:    logg,
	}
	if sms, err := twilio.NewClient(cfg.Twilio, nil, vendorMetrics); err == nil {
		msgParams.SMS = sms
	} else if !errors.Is(err, vendors.ErrMissingCredentials) {
		return nil, fmt.Errorf("twilio client: %w", err)
	} else {
		logg.Warn(ctx, "twilio not configured, sms disabled")
	}
	if mail, err := sendgrid.NewClient(cfg.Sendgrid, nil, vendorMetrics); err == nil {
		msgParams.Email = mail
	} else if !errors.Is(err, vendors.ErrMissingCredentials) {
		return nil, fmt.Errorf("sendgrid client: %w", err)
	} else {
		logg.Warn(ctx, "sendgrid not configured, email disabled")
	}
	messagingSvc, err := messaging.NewService(msgParams)
	if err != nil {
		return nil, fmt.Errorf("messaging service: %w", err)
	}

	trackingSvc, err := tracking.NewService(tracking.ServiceParams{
		Repo:     tracking.NewRepository(conn),
		Orders:   orderRepo,
		Tx:       p.DB,
		Notifier: messagingSvc,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("tracking service: %w", err)
	}

	fulfillmentRepo := fulfillment.NewRepository(conn)
	fulfillmentSvc, err := fulfillment.NewService(fulfillment.ServiceParams{
		Repo:      fulfillmentRepo,
		Orders:    orderRepo,
		Products:  productRepo,
		Platforms: platformSvc,
		Tracker:   trackingSvc,
		Messenger: messagingSvc,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("fulfillment service: %w", err)
	}

	webhookSvc, err := webhooks.NewService(webhooks.ServiceParams{
		Fulfillment: fulfillmentSvc,
		Records:     fulfillmentRepo,
		Orders:      orderRepo,
		Products:    productRepo,
		Logger:      logg,
	})
	if err != nil {
		return nil, fmt.Errorf("webhooks service: %w", err)
	}

	reviewSvc, err := reviews.NewService(reviews.ServiceParams{
		Repo:     reviews.NewRepository(conn),
		Products: productRepo,
		Orders:   orderRepo,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("reviews service: %w", err)
	}

	pickerSvc, err := picker.NewService(picker.ServiceParams{
		Repo:     picker.NewRepository(conn),
		Importer: importerSvc,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("picker service: %w", err)
	}

	return &Services{
		Admins:        adminSvc,
		Products:      productSvc,
		Orders:        orderSvc,
		Platforms:     platformSvc,
		Importer:      importerSvc,
		Fulfillment:   fulfillmentSvc,
		Messaging:     messagingSvc,
		Tracking:      trackingSvc,
		Reviews:       reviewSvc,
		Picker:        pickerSvc,
		Webhooks:      webhookSvc,
		VendorMetrics: vendorMetrics,
	}, nil
}
