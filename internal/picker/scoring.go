// Package picker ranks supplier products with a fixed scoring heuristic and
// keeps a history of analysis runs.
package picker

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
)

const (
	ratingWeight = 30
	ordersWeight = 20
	reviewWeight = 15

	// MaxScore is the highest score a candidate can reach.
	MaxScore = ratingWeight + ordersWeight + reviewWeight + 25
)

var retailMultiplier = decimal.NewFromFloat(2.5)

// Candidate is a supplier product offered for scoring. Price is the supplier
// cost of one unit.
type Candidate struct {
	ID           string          `json:"id"`
	Platform     enums.Platform  `json:"platform,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Rating       float64         `json:"rating"`
	Orders       int             `json:"orders_count"`
	Reviews      int             `json:"review_count"`
	Stock        int             `json:"stock,omitempty"`
	Images       []string        `json:"images,omitempty"`
	SupplierName string          `json:"supplier_name,omitempty"`
}

// Criteria are the thresholds a run is judged against.
type Criteria struct {
	MinRating         float64  `json:"min_rating"`
	MinProfitMargin   float64  `json:"min_profit_margin"`
	MinOrders         int      `json:"min_orders"`
	MinReviewCount    int      `json:"min_review_count"`
	MaxShippingCost   float64  `json:"max_shipping_cost"`
	BannedKeywords    []string `json:"banned_keywords"`
	ExcludeCategories []string `json:"exclude_categories"`
	RequiredKeywords  []string `json:"required_keywords"`
	MaxProductsPerRun int      `json:"max_products_per_run"`
}

func DefaultCriteria() Criteria {
	return Criteria{
		MinRating:         4.5,
		MinProfitMargin:   35,
		MinOrders:         100,
		MinReviewCount:    20,
		MaxShippingCost:   5,
		BannedKeywords:    []string{"fake", "replica", "knockoff", "defective", "broken"},
		ExcludeCategories: []string{"Used", "Refurbished", "Clearance"},
		RequiredKeywords:  []string{},
		MaxProductsPerRun: 50,
	}
}

// CriteriaOverrides changes selected thresholds of the defaults.
type CriteriaOverrides struct {
	MinRating         *float64 `json:"min_rating,omitempty"`
	MinProfitMargin   *float64 `json:"min_profit_margin,omitempty"`
	MinOrders         *int     `json:"min_orders,omitempty"`
	MinReviewCount    *int     `json:"min_review_count,omitempty"`
	MaxShippingCost   *float64 `json:"max_shipping_cost,omitempty"`
	BannedKeywords    []string `json:"banned_keywords,omitempty"`
	ExcludeCategories []string `json:"exclude_categories,omitempty"`
	RequiredKeywords  []string `json:"required_keywords,omitempty"`
	MaxProductsPerRun *int     `json:"max_products_per_run,omitempty"`
}

// Apply returns c with every set override copied over it.
func (o *CriteriaOverrides) Apply(c Criteria) Criteria {
	if o == nil {
		return c
	}
	if o.MinRating != nil {
		c.MinRating = *o.MinRating
	}
	if o.MinProfitMargin != nil {
		c.MinProfitMargin = *o.MinProfitMargin
	}
	if o.MinOrders != nil {
		c.MinOrders = *o.MinOrders
	}
	if o.MinReviewCount != nil {
		c.MinReviewCount = *o.MinReviewCount
	}
	if o.MaxShippingCost != nil {
		c.MaxShippingCost = *o.MaxShippingCost
	}
	if o.BannedKeywords != nil {
		c.BannedKeywords = o.BannedKeywords
	}
	if o.ExcludeCategories != nil {
		c.ExcludeCategories = o.ExcludeCategories
	}
	if o.RequiredKeywords != nil {
		c.RequiredKeywords = o.RequiredKeywords
	}
	if o.MaxProductsPerRun != nil {
		c.MaxProductsPerRun = *o.MaxProductsPerRun
	}
	return c
}

func (c Criteria) Validate() error {
	details := map[string]string{}
	if c.MinRating < 0 || c.MinRating > 5 {
		details["min_rating"] = "must be between 0 and 5"
	}
	if c.MinProfitMargin < 0 || c.MinProfitMargin >= 100 {
		details["min_profit_margin"] = "must be at least 0 and below 100"
	}
	if c.MinOrders < 0 {
		details["min_orders"] = "must not be negative"
	}
	if c.MinReviewCount < 0 {
		details["min_review_count"] = "must not be negative"
	}
	if c.MaxShippingCost < 0 {
		details["max_shipping_cost"] = "must not be negative"
	}
	if c.MaxProductsPerRun < 1 || c.MaxProductsPerRun > 500 {
		details["max_products_per_run"] = "must be between 1 and 500"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid selection criteria").WithDetails(details)
	}
	return nil
}

// Analysis is the verdict on one candidate.
type Analysis struct {
	Candidate    Candidate         `json:"product"`
	Score        int               `json:"ai_score"`
	ProfitMargin float64           `json:"profit_margin"`
	Demand       enums.DemandLevel `json:"demand_level"`
	Winner       bool              `json:"is_winner"`
	Reason       string            `json:"reason"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// Score judges a single candidate. It has no side effects.
func Score(p Candidate, c Criteria) Analysis {
	a := Analysis{Candidate: p, Demand: enums.DemandLevelLow}
	if kw, ok := containsAny(p.Name, c.BannedKeywords); ok {
		a.Reason = fmt.Sprintf("name contains banned keyword %q", kw)
		return a
	}

	a.Demand = demandLevel(p)
	total := ratingWeight*clamp(p.Rating/5, 0, 1) +
		ordersWeight*clamp(float64(p.Orders)/1000, 0, 1) +
		reviewWeight*clamp(float64(p.Reviews)/100, 0, 1) +
		float64(demandPoints(a.Demand))
	a.Score = int(math.Round(total))
	margin := exactMargin(p.Price, p.ShippingCost)
	a.ProfitMargin = margin.Round(1).InexactFloat64()

	if p.Reviews < c.MinReviewCount {
		a.Warnings = append(a.Warnings, fmt.Sprintf("only %d reviews, %d expected", p.Reviews, c.MinReviewCount))
	}
	if p.ShippingCost.GreaterThan(decimal.NewFromFloat(c.MaxShippingCost)) {
		a.Warnings = append(a.Warnings, fmt.Sprintf("shipping %s exceeds %.2f", p.ShippingCost.StringFixed(2), c.MaxShippingCost))
	}

	switch {
	case p.Rating < c.MinRating:
		a.Reason = fmt.Sprintf("rating %.2f below minimum %.2f", p.Rating, c.MinRating)
	case margin.LessThan(decimal.NewFromFloat(c.MinProfitMargin)):
		a.Reason = fmt.Sprintf("profit margin %s%% below minimum %.1f%%", margin.StringFixed(2), c.MinProfitMargin)
	case p.Orders < c.MinOrders:
		a.Reason = fmt.Sprintf("%d orders below minimum %d", p.Orders, c.MinOrders)
	default:
		a.Winner = true
		a.Reason = fmt.Sprintf("%s demand, %.1f%% margin", strings.ToLower(string(a.Demand)), a.ProfitMargin)
	}
	return a
}

// ProfitMargin is the margin in percent, rounded to one decimal, when the
// product retails at 2.5 times its cost.
func ProfitMargin(cost, shipping decimal.Decimal) float64 {
	return exactMargin(cost, shipping).Round(1).InexactFloat64()
}

// exactMargin is the unrounded margin thresholds are checked against.
func exactMargin(cost, shipping decimal.Decimal) decimal.Decimal {
	retail := cost.Mul(retailMultiplier)
	if !retail.IsPositive() {
		return decimal.Zero
	}
	return retail.Sub(cost).Sub(shipping).Div(retail).Mul(decimal.NewFromInt(100))
}

func demandLevel(p Candidate) enums.DemandLevel {
	switch {
	case p.Orders > 5000 && p.Rating >= 4.8:
		return enums.DemandLevelHot
	case p.Orders > 1000:
		return enums.DemandLevelSteady
	}
	return enums.DemandLevelLow
}

func demandPoints(d enums.DemandLevel) int {
	switch d {
	case enums.DemandLevelHot:
		return 25
	case enums.DemandLevelSteady:
		return 15
	}
	return 5
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func containsAny(s string, keywords []string) (string, bool) {
	s = strings.ToLower(s)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(s, kw) {
			return kw, true
		}
	}
	return "", false
}

// RunStats summarises an analysis run.
type RunStats struct {
	TotalAnalyzed        int     `json:"total_analyzed"`
	Approved             int     `json:"approved"`
	Rejected             int     `json:"rejected"`
	HotTrends            int     `json:"hot_trends"`
	AverageScore         int     `json:"average_score"`
	TotalProfitPotential float64 `json:"total_profit_potential"`
}

type RunResult struct {
	Stats    RunStats   `json:"stats"`
	Winners  []Analysis `json:"winners"`
	Rejected []Analysis `json:"rejected"`
}

// Analyze scores every candidate. Winners are ordered best first and capped
// at MaxProductsPerRun; the overflow is reported as rejected.
func Analyze(candidates []Candidate, c Criteria) RunResult {
	res := RunResult{Winners: []Analysis{}, Rejected: []Analysis{}}
	for _, p := range candidates {
		if cat, ok := containsAny(p.Category, c.ExcludeCategories); ok {
			res.Rejected = append(res.Rejected, Analysis{
				Candidate: p,
				Demand:    enums.DemandLevelLow,
				Reason:    fmt.Sprintf("category %q is excluded", cat),
			})
			continue
		}
		a := Score(p, c)
		if a.Winner && len(c.RequiredKeywords) > 0 {
			if _, ok := containsAny(p.Name, c.RequiredKeywords); !ok {
				a.Winner = false
				a.Reason = "name has none of the required keywords"
			}
		}
		if a.Winner {
			res.Winners = append(res.Winners, a)
		} else {
			res.Rejected = append(res.Rejected, a)
		}
	}

	sort.SliceStable(res.Winners, func(i, j int) bool { return res.Winners[i].Score > res.Winners[j].Score })
	if c.MaxProductsPerRun > 0 && len(res.Winners) > c.MaxProductsPerRun {
		for _, a := range res.Winners[c.MaxProductsPerRun:] {
			a.Winner = false
			a.Reason = "per-run product limit reached"
			res.Rejected = append(res.Rejected, a)
		}
		res.Winners = res.Winners[:c.MaxProductsPerRun]
	}

	res.Stats = RunStats{
		TotalAnalyzed: len(candidates),
		Approved:      len(res.Winners),
		Rejected:      len(res.Rejected),
	}
	var scoreSum int
	profit := decimal.Zero
	for _, w := range res.Winners {
		scoreSum += w.Score
		if w.Demand == enums.DemandLevelHot {
			res.Stats.HotTrends++
		}
		// rough estimate: ten units sold at the winner's margin
		profit = profit.Add(decimal.NewFromFloat(w.ProfitMargin).Mul(decimal.NewFromInt(10)))
	}
	if len(res.Winners) > 0 {
		res.Stats.AverageScore = int(math.Round(float64(scoreSum) / float64(len(res.Winners))))
	}
	res.Stats.TotalProfitPotential = profit.Round(2).InexactFloat64()
	return res
}
