package picker

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
)

func candidate(mutate func(*Candidate)) Candidate {
	c := Candidate{
		ID:           "cj_1001",
		Platform:     enums.PlatformCJ,
		Name:         "Wireless Earbuds",
		Category:     "Electronics",
		Price:        decimal.NewFromInt(10),
		ShippingCost: decimal.NewFromInt(1),
		Rating:       4.6,
		Orders:       800,
		Reviews:      120,
		Stock:        40,
	}
	if mutate != nil {
		mutate(&c)
	}
	return c
}

func TestScoreHotWinner(t *testing.T) {
	c := DefaultCriteria()
	c.MinRating, c.MinProfitMargin, c.MinOrders = 4.5, 35, 100

	a := Score(candidate(func(p *Candidate) {
		p.Rating, p.Orders, p.Reviews = 4.9, 6000, 2000
	}), c)

	assert.Equal(t, enums.DemandLevelHot, a.Demand)
	assert.True(t, a.Winner)
	assert.Equal(t, 56.0, a.ProfitMargin)
	// 4.9/5*30 + 20 + 15 + 25
	assert.Equal(t, 89, a.Score)
}

func TestScoreBannedKeyword(t *testing.T) {
	a := Score(candidate(func(p *Candidate) {
		p.Name = "Designer REPLICA watch"
		p.Rating, p.Orders = 5, 10000
	}), DefaultCriteria())

	assert.False(t, a.Winner)
	assert.Zero(t, a.Score)
	assert.Zero(t, a.ProfitMargin)
	assert.Equal(t, enums.DemandLevelLow, a.Demand)
	assert.Contains(t, a.Reason, "replica")
}

func TestScoreStaysInRange(t *testing.T) {
	c := DefaultCriteria()
	inputs := []Candidate{
		candidate(func(p *Candidate) { p.Rating, p.Orders, p.Reviews = 0, 0, 0 }),
		candidate(func(p *Candidate) { p.Rating, p.Orders, p.Reviews = 5, 1_000_000, 1_000_000 }),
		candidate(func(p *Candidate) { p.Rating, p.Orders, p.Reviews = 9, -5, -1 }),
		candidate(func(p *Candidate) { p.Price = decimal.Zero }),
	}
	for i, in := range inputs {
		a := Score(in, c)
		assert.GreaterOrEqual(t, a.Score, 0, i)
		assert.LessOrEqual(t, a.Score, MaxScore, i)
	}
	assert.Equal(t, 90, MaxScore)
	assert.Equal(t, 90, Score(inputs[1], c).Score)
}

func TestScoreThresholdBoundaries(t *testing.T) {
	c := DefaultCriteria()

	atMin := Score(candidate(func(p *Candidate) { p.Rating = c.MinRating }), c)
	assert.True(t, atMin.Winner, atMin.Reason)

	below := Score(candidate(func(p *Candidate) { p.Rating = c.MinRating - 0.01 }), c)
	assert.False(t, below.Winner)
	assert.Contains(t, below.Reason, "rating")

	// 8.75 of 25 retail is exactly 35%
	atMargin := Score(candidate(func(p *Candidate) { p.ShippingCost = decimal.RequireFromString("6.25") }), c)
	assert.True(t, atMargin.Winner, atMargin.Reason)

	// 34.952% displays as 35.0 but is below the minimum
	underMargin := Score(candidate(func(p *Candidate) { p.ShippingCost = decimal.RequireFromString("6.262") }), c)
	assert.False(t, underMargin.Winner)
	assert.Equal(t, 35.0, underMargin.ProfitMargin)
	assert.Contains(t, underMargin.Reason, "profit margin 34.95%")

	orders := Score(candidate(func(p *Candidate) { p.Orders = c.MinOrders }), c)
	assert.True(t, orders.Winner)
	orders = Score(candidate(func(p *Candidate) { p.Orders = c.MinOrders - 1 }), c)
	assert.False(t, orders.Winner)
	assert.Contains(t, orders.Reason, "orders")
}

func TestScoreReportsFirstFailingThreshold(t *testing.T) {
	c := DefaultCriteria()
	// rating, margin and orders all fail: rating is named
	a := Score(candidate(func(p *Candidate) {
		p.Rating, p.Orders, p.ShippingCost = 3, 1, decimal.NewFromInt(14)
	}), c)
	assert.Contains(t, a.Reason, "rating")

	// margin and orders fail: margin is named
	a = Score(candidate(func(p *Candidate) {
		p.Orders, p.ShippingCost = 1, decimal.NewFromInt(14)
	}), c)
	assert.Contains(t, a.Reason, "profit margin")
	assert.NotEmpty(t, a.Warnings)
}

func TestProfitMargin(t *testing.T) {
	assert.Equal(t, 56.0, ProfitMargin(decimal.NewFromInt(10), decimal.NewFromInt(1)))
	assert.Equal(t, 60.0, ProfitMargin(decimal.NewFromInt(10), decimal.Zero))
	assert.Equal(t, 46.7, ProfitMargin(decimal.RequireFromString("7.50"), decimal.RequireFromString("2.50")))
	assert.Zero(t, ProfitMargin(decimal.Zero, decimal.NewFromInt(3)))
}

func TestAnalyzeRanksAndCapsWinners(t *testing.T) {
	c := DefaultCriteria()
	c.MaxProductsPerRun = 2
	var items []Candidate
	for i, orders := range []int{200, 6000, 1500, 900} {
		items = append(items, candidate(func(p *Candidate) {
			p.ID = fmt.Sprintf("cj_%d", i)
			p.Orders = orders
			p.Rating = 4.9
		}))
	}
	items = append(items,
		candidate(func(p *Candidate) { p.ID, p.Category = "cj_used", "Used Electronics" }),
		candidate(func(p *Candidate) { p.ID, p.Name = "cj_broken", "broken phone" }),
	)

	res := Analyze(items, c)
	require.Len(t, res.Winners, 2)
	assert.Equal(t, "cj_1", res.Winners[0].Candidate.ID)
	assert.Equal(t, "cj_2", res.Winners[1].Candidate.ID)
	assert.GreaterOrEqual(t, res.Winners[0].Score, res.Winners[1].Score)

	assert.Equal(t, 6, res.Stats.TotalAnalyzed)
	assert.Equal(t, 2, res.Stats.Approved)
	assert.Equal(t, 4, res.Stats.Rejected)
	assert.Equal(t, 1, res.Stats.HotTrends)
	assert.Equal(t, 1120.0, res.Stats.TotalProfitPotential)

	reasons := map[string]string{}
	for _, r := range res.Rejected {
		reasons[r.Candidate.ID] = r.Reason
	}
	assert.Contains(t, reasons["cj_used"], "excluded")
	assert.Contains(t, reasons["cj_broken"], "banned")
	assert.Equal(t, "per-run product limit reached", reasons["cj_3"])
}

func TestAnalyzeRequiredKeywords(t *testing.T) {
	c := DefaultCriteria()
	c.RequiredKeywords = []string{"wireless"}
	res := Analyze([]Candidate{
		candidate(nil),
		candidate(func(p *Candidate) { p.ID, p.Name = "cj_2", "Desk Lamp" }),
	}, c)
	require.Len(t, res.Winners, 1)
	assert.Equal(t, "cj_1001", res.Winners[0].Candidate.ID)
}

func TestCriteriaOverridesAndValidation(t *testing.T) {
	rating, limit := 4.0, 0
	c := (&CriteriaOverrides{MinRating: &rating}).Apply(DefaultCriteria())
	assert.Equal(t, 4.0, c.MinRating)
	assert.Equal(t, 35.0, c.MinProfitMargin)
	require.NoError(t, c.Validate())

	bad := (&CriteriaOverrides{MaxProductsPerRun: &limit}).Apply(DefaultCriteria())
	bad.MinRating = 6
	err := bad.Validate()
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	var none *CriteriaOverrides
	assert.Equal(t, DefaultCriteria(), none.Apply(DefaultCriteria()))
}
