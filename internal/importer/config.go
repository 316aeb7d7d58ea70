package importer

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
)

// PricingConfig turns a supplier cost into a storefront price.
type PricingConfig struct {
	MarginPercent    decimal.Decimal     `json:"margin_percent"`
	MinMarginPercent decimal.Decimal     `json:"min_margin_percent"`
	MaxMarginPercent decimal.Decimal     `json:"max_margin_percent"`
	Rounding         enums.PriceRounding `json:"rounding"`
}

// DefaultPricing is a 50% margin bounded to 30-200%, rounded to .99.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		MarginPercent:    decimal.NewFromInt(50),
		MinMarginPercent: decimal.NewFromInt(30),
		MaxMarginPercent: decimal.NewFromInt(200),
		Rounding:         enums.PriceRoundingNearest99,
	}
}

// ImportConfig filters and shapes imported products. Zero bounds disable the
// matching price filter and an empty Categories list accepts everything.
type ImportConfig struct {
	MinPrice     decimal.Decimal `json:"min_price"`
	MaxPrice     decimal.Decimal `json:"max_price"`
	Categories   []string        `json:"categories,omitempty"`
	BannedWords  []string        `json:"banned_words,omitempty"`
	MinStock     int             `json:"min_stock"`
	DisableSEO   bool            `json:"disable_seo"`
	ImportImages bool            `json:"import_images"`
	// Pricing re-prices from the supplier cost. Nil keeps the supplier price.
	Pricing *PricingConfig `json:"pricing,omitempty"`
}

// DefaultImportConfig accepts any in-stock product and keeps supplier prices.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{MinStock: 1, ImportImages: true}
}

func (c ImportConfig) validate() error {
	if c.MinPrice.IsNegative() || c.MaxPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price bounds cannot be negative")
	}
	if c.MinPrice.IsPositive() && c.MaxPrice.IsPositive() && c.MinPrice.GreaterThan(c.MaxPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}
	if c.MinStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min_stock cannot be negative")
	}
	if c.Pricing != nil {
		if c.Pricing.Rounding != "" && !c.Pricing.Rounding.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid rounding strategy")
		}
		if c.Pricing.MinMarginPercent.GreaterThan(c.Pricing.MaxMarginPercent) {
			return pkgerrors.New(pkgerrors.CodeValidation, "min margin cannot exceed max margin")
		}
	}
	return nil
}
