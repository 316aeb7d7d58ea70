package platforms

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/config"
	"github.com/angelmondragon/dropship-backend/pkg/db"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
)

// ConfigRepository persists the single platform configuration row.
type ConfigRepository interface {
	WithTx(tx *gorm.DB) ConfigRepository
	// Load returns the stored row, or defaults with Version 0 when none exists.
	Load(ctx context.Context) (*models.PlatformConfig, error)
	// Save writes cfg if nobody else wrote since it was loaded and bumps Version.
	Save(ctx context.Context, cfg *models.PlatformConfig) error
}

type configRepository struct {
	db       *gorm.DB
	defaults config.FulfillmentConfig
}

// NewConfigRepository builds a ConfigRepository. defaults seeds the automation
// block of a row that was never saved.
func NewConfigRepository(conn *gorm.DB, defaults config.FulfillmentConfig) ConfigRepository {
	return &configRepository{db: conn, defaults: defaults}
}

func (r *configRepository) WithTx(tx *gorm.DB) ConfigRepository {
	if tx == nil {
		return r
	}
	return &configRepository{db: tx, defaults: r.defaults}
}

func (r *configRepository) Load(ctx context.Context) (*models.PlatformConfig, error) {
	var row models.PlatformConfig
	err := r.db.WithContext(ctx).Where("id = ?", models.DefaultPlatformConfigID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultConfig(r.defaults), nil
	}
	if err != nil {
		return nil, err
	}
	if row.ActivePlatform == "" {
		row.ActivePlatform = enums.PlatformLocal
	}
	row.Settings.Local.Enabled = true
	return &row, nil
}

func (r *configRepository) Save(ctx context.Context, cfg *models.PlatformConfig) error {
	cfg.ID = models.DefaultPlatformConfigID
	expected := cfg.Version
	if expected == 0 {
		cfg.Version = 1
		if err := r.db.WithContext(ctx).Create(cfg).Error; err != nil {
			cfg.Version = 0
			if db.IsUniqueViolation(err, "") {
				return staleConfig()
			}
			return err
		}
		return nil
	}

	cfg.Version = expected + 1
	cfg.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.PlatformConfig{ID: cfg.ID}).
		Where("version = ?", expected).
		Select("active_platform", "settings", "automation", "version", "updated_at").
		Updates(cfg)
	if res.Error != nil {
		cfg.Version = expected
		return res.Error
	}
	if res.RowsAffected == 0 {
		cfg.Version = expected
		return staleConfig()
	}
	return nil
}

func staleConfig() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "platform configuration was changed by another request; reload and retry")
}

// DefaultConfig is the configuration used before anything was saved: local
// active, every supplier disabled.
func DefaultConfig(f config.FulfillmentConfig) *models.PlatformConfig {
	interval := int(f.SyncInterval / time.Minute)
	if interval <= 0 {
		interval = 60
	}
	return &models.PlatformConfig{
		ID:             models.DefaultPlatformConfigID,
		ActivePlatform: enums.PlatformLocal,
		Settings: models.PlatformSettings{
			Local: models.VendorSettings{Enabled: true},
		},
		Automation: models.AutomationSettings{
			AutoFulfill:         f.AutoFulfill,
			AutoSync:            f.AutoSync,
			SyncIntervalMinutes: interval,
			MinStockThreshold:   f.MinStockThreshold,
			Warehouse:           f.Warehouse,
			ShippingMethod:      f.ShippingMethod,
		},
	}
}
