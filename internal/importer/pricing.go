package importer

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

var (
	hundred       = decimal.NewFromInt(100)
	ninetyNine    = decimal.RequireFromString("0.99")
	compareMarkup = decimal.RequireFromString("1.3")
)

// CalculatePrice applies the clamped margin to cost and rounds the result
// with cfg.Rounding. The result always has two decimal places.
func CalculatePrice(cost decimal.Decimal, cfg PricingConfig) decimal.Decimal {
	margin := cfg.MarginPercent
	if margin.LessThan(cfg.MinMarginPercent) {
		margin = cfg.MinMarginPercent
	}
	if cfg.MaxMarginPercent.IsPositive() && margin.GreaterThan(cfg.MaxMarginPercent) {
		margin = cfg.MaxMarginPercent
	}
	base := cost.Mul(decimal.NewFromInt(1).Add(margin.Div(hundred)))

	switch cfg.Rounding {
	case enums.PriceRoundingNearestDollar:
		return base.Round(0).Round(2)
	case enums.PriceRoundingNearest99:
		return base.Floor().Add(ninetyNine)
	default:
		return base.Round(2)
	}
}

// CompareAtPrice is the struck-through price shown next to an imported product.
func CompareAtPrice(price decimal.Decimal) decimal.Decimal {
	return price.Mul(compareMarkup).Round(2)
}
