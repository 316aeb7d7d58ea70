package importer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

func TestCalculatePrice(t *testing.T) {
	cases := []struct {
		name     string
		cost     string
		margin   int64
		rounding enums.PriceRounding
		want     string
	}{
		{"nearest 99", "10", 50, enums.PriceRoundingNearest99, "15.99"},
		{"nearest dollar", "10.40", 50, enums.PriceRoundingNearestDollar, "16.00"},
		{"fixed", "10.33", 50, enums.PriceRoundingFixed, "15.50"},
		{"margin clamped to max", "10", 500, enums.PriceRoundingNearest99, "30.99"},
		{"margin clamped to min", "10", 10, enums.PriceRoundingNone, "13.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultPricing()
			cfg.MarginPercent = decimal.NewFromInt(tc.margin)
			cfg.Rounding = tc.rounding
			got := CalculatePrice(decimal.RequireFromString(tc.cost), cfg)
			assert.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func TestCompareAtPrice(t *testing.T) {
	assert.Equal(t, "32.50", CompareAtPrice(decimal.NewFromInt(25)).StringFixed(2))
	assert.Equal(t, "12.99", CompareAtPrice(decimal.RequireFromString("9.99")).StringFixed(2))
}

func TestCleanDescription(t *testing.T) {
	raw := "<p>Soft cotton tee.</p><br/>\n\n\n<div>Ships fast https://cdn.example.com/a.png</div> ref 12345678901"
	got := CleanDescription(raw)
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, "https://")
	assert.NotContains(t, got, "12345678901")
	assert.Contains(t, got, "Soft cotton tee.")
	assert.Contains(t, got, "Ships fast")
	assert.NotContains(t, got, "\n\n\n")
}

func TestCleanProductName(t *testing.T) {
	assert.Equal(t, "Pcs Wireless Headphones Sony", CleanProductName("2 PCS New Wireless Headphones for Sony!!"))
	assert.Equal(t, "Yoga Mat", CleanProductName("the BEST yoga mat, freee"))
}

func TestSEOGenerate(t *testing.T) {
	g := NewSEOGenerator("Test Store", "https://shop.test/")
	data := g.Generate(SEOInput{
		Name:        "2 PCS New Wireless Headphones for Sony!!",
		Description: "These headphones deliver rich sound all day long. Short one. Foldable design fits in every travel bag easily.",
		Category:    "Electronics",
		SKU:         "ELE-WIR-1234",
		Price:       decimal.NewFromInt(150),
		Images:      []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"},
		Stock:       4,
	})

	assert.Equal(t, "Sony", data.Brand)
	assert.Equal(t, "Pcs Wireless Headphones Sony - Sony | Test Store", data.Title)
	assert.Equal(t, "/products/pcs-wireless-headphones-sony-ele-wir-1234", data.URL)
	assert.Equal(t, "Pcs Wireless Headphones Sony by Sony", data.OGTitle)
	assert.True(t, strings.HasPrefix(data.MetaDescription, "These headphones deliver rich sound all day long. Foldable design"))
	assert.True(t, strings.HasSuffix(data.MetaDescription, "Shop now at Test Store!"))
	assert.Contains(t, data.Keywords, "premium")
	assert.Contains(t, data.Keywords, "electronics")
	assert.LessOrEqual(t, len(data.Keywords), maxKeywords)
	assert.Contains(t, data.Tags, "dropshipping")
	assert.Contains(t, data.Tags, "sony")

	require.Len(t, data.AltTexts, 5)
	assert.Equal(t, "Sony Pcs Wireless Headphones Sony - Main Image - View Product", data.AltTexts[0])
	assert.True(t, strings.HasSuffix(data.AltTexts[3], "Image 4"))
	assert.True(t, strings.HasSuffix(data.AltTexts[4], "All Angles"))

	offers := data.Schema["offers"].(map[string]any)
	assert.Equal(t, "https://shop.test/products/pcs-wireless-headphones-sony-ele-wir-1234", offers["url"])
	assert.Equal(t, "https://schema.org/InStock", offers["availability"])
}

func TestSEOTruncatesLongCopy(t *testing.T) {
	g := NewSEOGenerator("Test Store", "")
	long := strings.Repeat("Ergonomic Adjustable Standing Desk Converter ", 4)
	data := g.Generate(SEOInput{
		Name:        long,
		Description: strings.Repeat("This desk converter lifts smoothly and holds two monitors securely. ", 5),
		Price:       decimal.NewFromInt(60),
	})
	assert.LessOrEqual(t, utf8.RuneCountInString(data.Title), maxTitleLength)
	assert.True(t, strings.HasSuffix(data.Title, "..."))
	assert.LessOrEqual(t, utf8.RuneCountInString(data.MetaDescription), maxDescriptionLength)
	assert.Equal(t, "Ergonomic", data.Brand)
}
