package products

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"

	"github.com/angelmondragon/dropship-backend/pkg/db"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
)

// MaxSKUAttempts bounds how often a colliding SKU is regenerated.
const MaxSKUAttempts = 5

const skuConstraint = "products_sku_key"

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// GenerateSKU builds CAT-NAM-#### from the category, the first word of the
// name longer than three letters and a random four digit number. suffix is
// appended as -SUFFIX when present. Uniqueness is enforced by the products_sku_key index.
func GenerateSKU(category, name, suffix string) string {
	categoryCode := lettersCode(category, "XXX")
	nameCode := "PRD"
	for _, word := range strings.Fields(name) {
		if len([]rune(word)) > 3 {
			if code := lettersCode(word, ""); len(code) == 3 {
				nameCode = code
				break
			}
		}
	}
	sku := fmt.Sprintf("%s-%s-%d", categoryCode, nameCode, 1000+rand.IntN(9000))
	if suffix = lettersCode(suffix, ""); suffix != "" {
		sku += "-" + suffix
	}
	return sku
}

// lettersCode upper-cases the first three ASCII letters of s, padding with X.
// An empty input yields fallback.
func lettersCode(s, fallback string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() == 3 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	code := b.String()
	if fallback != "" {
		code += strings.Repeat("X", 3-len(code))
	}
	return code
}

// Slugify turns a product name into a URL segment.
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = strings.TrimSpace(slug)
	slug = slugSpaces.ReplaceAllString(slug, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// IsSKUConflict reports whether err was raised by the product SKU unique index.
func IsSKUConflict(err error) bool {
	if err == nil {
		return false
	}
	if db.IsUniqueViolation(err, skuConstraint) {
		return true
	}
	return db.IsUniqueViolation(err, "") && strings.Contains(err.Error(), "products.sku")
}

// CreateWithUniqueSKU inserts product, regenerating its SKU with next whenever
// the unique index rejects it. It gives up after MaxSKUAttempts. On postgres
// it must run outside a transaction since a failed insert aborts the transaction.
func CreateWithUniqueSKU(ctx context.Context, repo Repository, product *models.Product, next func() string) error {
	if product.SKU == "" {
		product.SKU = next()
	}
	for attempt := 1; ; attempt++ {
		err := repo.Create(ctx, product)
		if err == nil {
			return nil
		}
		if !IsSKUConflict(err) {
			return err
		}
		if attempt >= MaxSKUAttempts {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("could not allocate a unique sku after %d attempts", MaxSKUAttempts))
		}
		product.SKU = next()
	}
}
