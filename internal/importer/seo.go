package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/angelmondragon/dropship-backend/internal/products"
)

const (
	maxTitleLength       = 60
	maxDescriptionLength = 160
	maxOGDescription     = 200
	maxKeywords          = 10
	minSentenceLength    = 20
)

var (
	nameSymbols    = regexp.MustCompile(`[$#@!%^&*()_+=\[\]{};':"\\|,.<>/?]`)
	nameStopwords  = regexp.MustCompile(`(?i)\b(for|and|or|the|a|an|with|free|cheap|hot|sale|new|best)\b`)
	nameMisspelled = regexp.MustCompile(`(?i)\b(freee|freeee|chep|cheep)\b`)
	leadingNumber  = regexp.MustCompile(`^\d+\s*`)
	sentenceBreak  = regexp.MustCompile(`[.!?]+`)
	whitespace     = regexp.MustCompile(`\s+`)

	knownBrands = []string{
		"Apple", "Samsung", "Nike", "Adidas", "Puma", "Guess",
		"Michael Kors", "Coach", "Calvin Klein", "Levis", "Zara",
		"H&M", "Uniqlo", "Xiaomi", "Huawei", "Sony", "Bose",
	}
	storeKeywords = []string{"online shopping", "buy online", "best quality", "fast shipping"}
	storeTags     = []string{"dropshipping", "free shipping", "new arrival"}

	budgetCeiling = decimal.NewFromInt(20)
	premiumFloor  = decimal.NewFromInt(100)
)

// SEOInput is the product data SEO copy is derived from.
type SEOInput struct {
	Name        string
	Description string
	Category    string
	Brand       string
	SKU         string
	Price       decimal.Decimal
	Images      []string
	Stock       int
	Rating      float64
}

// SEOData is the generated search metadata for one product.
type SEOData struct {
	Title           string         `json:"title"`
	MetaDescription string         `json:"meta_description"`
	Keywords        []string       `json:"keywords"`
	Tags            []string       `json:"tags"`
	URL             string         `json:"url"`
	OGTitle         string         `json:"og_title"`
	OGDescription   string         `json:"og_description"`
	AltTexts        []string       `json:"alt_texts"`
	CleanName       string         `json:"clean_name"`
	Brand           string         `json:"brand"`
	Schema          map[string]any `json:"schema"`
}

// SEOGenerator builds template based SEO copy. It makes no network calls.
type SEOGenerator struct {
	siteName string
	siteURL  string
}

func NewSEOGenerator(siteName, siteURL string) *SEOGenerator {
	siteName = strings.TrimSpace(siteName)
	if siteName == "" {
		siteName = "Store"
	}
	return &SEOGenerator{siteName: siteName, siteURL: strings.TrimRight(siteURL, "/")}
}

func (g *SEOGenerator) Generate(in SEOInput) SEOData {
	name := CleanProductName(in.Name)
	if name == "" {
		name = strings.TrimSpace(in.Name)
	}
	brand := strings.TrimSpace(in.Brand)
	if brand == "" {
		brand = g.extractBrand(name)
	}
	meta := g.metaDescription(in.Description)
	url := productURL(name, in.SKU)

	data := SEOData{
		Title:           g.title(name, brand),
		MetaDescription: meta,
		Keywords:        keywords(name, in.Category, in.Price),
		Tags:            tags(name, in.Category, brand),
		URL:             url,
		OGTitle:         name,
		OGDescription:   truncate(meta, maxOGDescription),
		AltTexts:        g.altTexts(name, brand, len(in.Images)),
		CleanName:       name,
		Brand:           brand,
	}
	if brand != g.siteName {
		data.OGTitle = name + " by " + brand
	}
	data.Schema = g.schema(in, data.Title, brand, url)
	return data
}

// CleanProductName drops symbols, filler words and leading counts from a
// supplier title and title-cases what is left.
func CleanProductName(name string) string {
	out := nameSymbols.ReplaceAllString(name, " ")
	out = nameStopwords.ReplaceAllString(out, " ")
	out = nameMisspelled.ReplaceAllString(out, "")
	out = whitespace.ReplaceAllString(out, " ")
	out = leadingNumber.ReplaceAllString(strings.TrimSpace(out), "")
	// a Caser keeps state, so one per call
	title := cases.Title(language.English)
	words := strings.Fields(out)
	for i, word := range words {
		words[i] = title.String(word)
	}
	return strings.Join(words, " ")
}

func (g *SEOGenerator) extractBrand(name string) string {
	lower := strings.ToLower(name)
	for _, brand := range knownBrands {
		if strings.Contains(lower, strings.ToLower(brand)) {
			return brand
		}
	}
	if words := strings.Fields(name); len(words) >= 2 {
		return words[0]
	}
	return g.siteName
}

func (g *SEOGenerator) title(name, brand string) string {
	title := name
	if brand != g.siteName {
		title = name + " - " + brand
	}
	return truncate(title+" | "+g.siteName, maxTitleLength)
}

func (g *SEOGenerator) metaDescription(description string) string {
	var sentences []string
	for _, part := range sentenceBreak.Split(CleanDescription(description), -1) {
		part = strings.TrimSpace(whitespace.ReplaceAllString(part, " "))
		if len(part) > minSentenceLength {
			sentences = append(sentences, part)
		}
		if len(sentences) == 2 {
			break
		}
	}
	meta := strings.Join(sentences, ". ")
	lower := strings.ToLower(meta)
	if !strings.Contains(lower, "shop") && !strings.Contains(lower, "buy") {
		meta = strings.TrimSpace(meta + " Shop now at " + g.siteName + "!")
	}
	return truncate(meta, maxDescriptionLength)
}

func keywords(name, category string, price decimal.Decimal) []string {
	var out []string
	for _, word := range strings.Fields(name) {
		if len(word) > 3 && len(out) < 5 {
			out = append(out, word)
		}
	}
	if category = strings.TrimSpace(category); category != "" {
		out = append(out, strings.ToLower(category))
	}
	out = append(out, storeKeywords...)
	switch {
	case price.LessThan(budgetCeiling):
		out = append(out, "affordable", "budget friendly")
	case price.GreaterThan(premiumFloor):
		out = append(out, "premium", "luxury")
	}
	out = dedupe(out)
	if len(out) > maxKeywords {
		out = out[:maxKeywords]
	}
	return out
}

func tags(name, category, brand string) []string {
	var out []string
	for _, word := range strings.Fields(name) {
		if len(word) > 3 {
			out = append(out, strings.ToLower(word))
		}
	}
	for _, extra := range []string{category, brand} {
		if extra = strings.TrimSpace(extra); extra != "" {
			out = append(out, strings.ToLower(extra))
		}
	}
	return dedupe(append(out, storeTags...))
}

func productURL(name, sku string) string {
	slug := products.Slugify(name)
	if sku = strings.TrimSpace(sku); sku != "" {
		slug += "-" + sku
	}
	return strings.ToLower("/products/" + slug)
}

func (g *SEOGenerator) altTexts(name, brand string, count int) []string {
	base := name
	if brand != g.siteName {
		base = brand + " " + name
	}
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var suffix string
		switch {
		case i == 0:
			suffix = "Main Image - View Product"
		case i == 1:
			suffix = "Side View"
		case i == 2:
			suffix = "Detail View"
		case i == count-1:
			suffix = "All Angles"
		default:
			suffix = fmt.Sprintf("Image %d", i+1)
		}
		out = append(out, base+" - "+suffix)
	}
	return out
}

// schema renders schema.org Product JSON-LD.
func (g *SEOGenerator) schema(in SEOInput, title, brand, url string) map[string]any {
	availability := "https://schema.org/OutOfStock"
	if in.Stock > 0 {
		availability = "https://schema.org/InStock"
	}
	out := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Product",
		"name":        title,
		"description": in.Description,
		"sku":         in.SKU,
		"brand":       map[string]any{"@type": "Brand", "name": brand},
		"offers": map[string]any{
			"@type":         "Offer",
			"url":           g.siteURL + url,
			"priceCurrency": "USD",
			"price":         in.Price.StringFixed(2),
			"availability":  availability,
			"seller":        map[string]any{"@type": "Organization", "name": g.siteName},
		},
		"image": in.Images,
	}
	if in.Rating > 0 {
		out["aggregateRating"] = map[string]any{"@type": "AggregateRating", "ratingValue": in.Rating, "reviewCount": 1}
	}
	return out
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
