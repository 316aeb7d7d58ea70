package models

import (
	"time"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

// DefaultPlatformConfigID is the id of the single configuration row.
const DefaultPlatformConfigID = "default"

// VendorSettings holds the enablement flag and credentials for one supplier.
type VendorSettings struct {
	Enabled   bool   `json:"enabled"`
	APIKey    string `json:"api_key,omitempty"`
	AppKey    string `json:"app_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
}

// PlatformSettings is the per-vendor settings document.
type PlatformSettings struct {
	Local     VendorSettings `json:"local"`
	CJ        VendorSettings `json:"cj"`
	Zendrop   VendorSettings `json:"zendrop"`
	AppScenic VendorSettings `json:"appscenic"`
}

// For returns the settings of platform.
func (s PlatformSettings) For(platform enums.Platform) VendorSettings {
	switch platform {
	case enums.PlatformLocal:
		return VendorSettings{Enabled: true}
	case enums.PlatformCJ:
		return s.CJ
	case enums.PlatformZendrop:
		return s.Zendrop
	case enums.PlatformAppScenic:
		return s.AppScenic
	default:
		return VendorSettings{}
	}
}

// Set replaces the settings of platform.
func (s *PlatformSettings) Set(platform enums.Platform, v VendorSettings) {
	switch platform {
	case enums.PlatformLocal:
		s.Local = v
	case enums.PlatformCJ:
		s.CJ = v
	case enums.PlatformZendrop:
		s.Zendrop = v
	case enums.PlatformAppScenic:
		s.AppScenic = v
	}
}

// Configured reports whether the credentials required by platform are present.
func (v VendorSettings) Configured(platform enums.Platform) bool {
	switch platform {
	case enums.PlatformLocal:
		return true
	case enums.PlatformCJ:
		return v.AppKey != "" && v.SecretKey != ""
	default:
		return v.APIKey != ""
	}
}

// AutomationSettings drives the scheduled executor.
type AutomationSettings struct {
	AutoFulfill         bool       `json:"auto_fulfill"`
	AutoSync            bool       `json:"auto_sync"`
	SyncIntervalMinutes int        `json:"sync_interval_minutes"`
	MinStockThreshold   int        `json:"min_stock_threshold"`
	Warehouse           string     `json:"warehouse"`
	ShippingMethod      string     `json:"shipping_method"`
	LastProductSyncAt   *time.Time `json:"last_product_sync_at,omitempty"`
}

// PlatformConfig is the single configuration row. Writes are guarded by Version.
type PlatformConfig struct {
	ID             string             `gorm:"column:id;primaryKey" json:"id"`
	ActivePlatform enums.Platform     `gorm:"column:active_platform;not null" json:"active_platform"`
	Settings       PlatformSettings   `gorm:"column:settings;type:jsonb;serializer:json" json:"settings"`
	Automation     AutomationSettings `gorm:"column:automation;type:jsonb;serializer:json" json:"automation"`
	Version        int64              `gorm:"column:version;not null;default:1" json:"version"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
