package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/dropship-backend/internal/fulfillment"
	"github.com/angelmondragon/dropship-backend/internal/platforms"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

const defaultProductSyncInterval = time.Hour

type orderSyncer interface {
	SyncAllOrders(ctx context.Context) (*fulfillment.SyncOrdersResult, error)
}

type autoFulfiller interface {
	AutoFulfillPending(ctx context.Context) (*fulfillment.AutoFulfillResult, error)
}

type productSyncer interface {
	Automation(ctx context.Context) (models.AutomationSettings, error)
	SyncProducts(ctx context.Context) (*platforms.SyncResult, error)
}

// NewOrderSyncJob polls suppliers for every open fulfillment record.
func NewOrderSyncJob(logg *logger.Logger, syncer orderSyncer) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if syncer == nil {
		return nil, fmt.Errorf("fulfillment service required")
	}
	return &orderSyncJob{logg: logg, syncer: syncer}, nil
}

type orderSyncJob struct {
	logg   *logger.Logger
	syncer orderSyncer
}

func (j *orderSyncJob) Name() string { return "order-sync" }

// Run fails only when the pass could not start. Per-record supplier errors
// are logged and retried on the next tick.
func (j *orderSyncJob) Run(ctx context.Context) error {
	result, err := j.syncer.SyncAllOrders(ctx)
	if err != nil {
		return fmt.Errorf("order sync: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"synced":         result.Synced,
		"errors":         result.Errors,
		"updated_orders": len(result.UpdatedOrders),
	})
	if recordErr := result.Err(); recordErr != nil {
		j.logg.Warn(j.logg.WithField(logCtx, "error", recordErr.Error()), "order sync finished with record failures")
		return nil
	}
	j.logg.Info(logCtx, "order sync complete")
	return nil
}

// NewAutoFulfillJob fulfills paid orders when auto-fulfill is switched on.
func NewAutoFulfillJob(logg *logger.Logger, fulfiller autoFulfiller) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if fulfiller == nil {
		return nil, fmt.Errorf("fulfillment service required")
	}
	return &autoFulfillJob{logg: logg, fulfiller: fulfiller}, nil
}

type autoFulfillJob struct {
	logg      *logger.Logger
	fulfiller autoFulfiller
}

func (j *autoFulfillJob) Name() string { return "auto-fulfill" }

func (j *autoFulfillJob) Run(ctx context.Context) error {
	result, err := j.fulfiller.AutoFulfillPending(ctx)
	if err != nil {
		return fmt.Errorf("auto fulfill: %w", err)
	}
	if !result.Enabled {
		j.logg.Debug(ctx, "auto fulfill disabled; skipping")
		return nil
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"attempted": result.Attempted,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})
	if orderErr := result.Err(); orderErr != nil {
		j.logg.Warn(j.logg.WithField(logCtx, "error", orderErr.Error()), "auto fulfill finished with failures")
		return nil
	}
	j.logg.Info(logCtx, "auto fulfill complete")
	return nil
}

// NewProductSyncJob refreshes the catalog from the active supplier once the
// configured sync interval has elapsed.
func NewProductSyncJob(logg *logger.Logger, syncer productSyncer) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if syncer == nil {
		return nil, fmt.Errorf("platform service required")
	}
	return &productSyncJob{logg: logg, syncer: syncer, now: time.Now}, nil
}

type productSyncJob struct {
	logg   *logger.Logger
	syncer productSyncer
	now    func() time.Time
}

func (j *productSyncJob) Name() string { return "product-sync" }

func (j *productSyncJob) Run(ctx context.Context) error {
	automation, err := j.syncer.Automation(ctx)
	if err != nil {
		return fmt.Errorf("load automation settings: %w", err)
	}
	if !productSyncDue(automation, j.now()) {
		j.logg.Debug(ctx, "product sync not due")
		return nil
	}
	result, err := j.syncer.SyncProducts(ctx)
	if err != nil {
		return fmt.Errorf("product sync: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"platform": string(result.Platform),
		"synced":   result.Synced,
		"skipped":  result.Skipped,
		"errors":   result.Errors,
		"pages":    result.Pages,
	}), "product sync complete")
	return nil
}

func productSyncDue(automation models.AutomationSettings, now time.Time) bool {
	if !automation.AutoSync {
		return false
	}
	if automation.LastProductSyncAt == nil {
		return true
	}
	interval := time.Duration(automation.SyncIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = defaultProductSyncInterval
	}
	return !now.Before(automation.LastProductSyncAt.Add(interval))
}
