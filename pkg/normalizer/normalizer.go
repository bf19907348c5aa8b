package normalizer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Normalizer cleans source records ahead of matching. It is a pure transform
// with no side effects beyond logging, and it never fails: internal errors
// degrade to the original record with NormalizationError set so the pipeline
// can still attempt a load with unmodified data.
type Normalizer struct {
	logger       ectologger.Logger
	dicts        Dictionaries
	namePipeline []FieldRule
}

// New creates a Normalizer bound to an immutable dictionary set.
func New(logger ectologger.Logger, dicts Dictionaries) *Normalizer {
	return &Normalizer{
		logger: logger,
		dicts:  dicts,
		namePipeline: []FieldRule{
			{Name: "collapse_whitespace", Kind: RuleKindCleanup, Priority: 10, Apply: CollapseWhitespace},
			{Name: "fix_typos", Kind: RuleKindMapping, Priority: 20, Apply: WordReplacer(dicts.Typos)},
			{Name: "standardize_units", Kind: RuleKindNormalize, Priority: 30, Apply: UnitStandardizer(dicts.Units)},
			{Name: "strip_promo", Kind: RuleKindCleanup, Priority: 40, Apply: PhraseStripper(dicts.PromoPhrases)},
			{Name: "normalize_casing", Kind: RuleKindNormalize, Priority: 50, Apply: NormalizeCasing},
		},
	}
}

// Normalize returns a cleaned copy of the record. (Source, ExternalSKU) is
// preserved exactly.
func (n *Normalizer) Normalize(rec models.SourceRecord) (out models.SourceRecord) {
	source, sku := rec.Source, rec.ExternalSKU

	defer func() {
		if r := recover(); r != nil {
			n.logger.WithFields(map[string]any{
				"source":       source,
				"external_sku": sku,
				"panic":        fmt.Sprintf("%v", r),
			}).Error("Normalization failed; passing record through unmodified")
			out = rec
			out.NormalizationError = fmt.Sprintf("normalization failed: %v", r)
		}
		// identity fields are a hard invariant regardless of what happened above
		out.Source = source
		out.ExternalSKU = sku
	}()

	out = rec
	out.Name = RunPipeline(rec.Name, n.namePipeline)
	out.Brand = n.normalizeBrand(rec.Brand, out.Name)
	out.Category = n.normalizeCategory(rec.Category, out.Name, rec.Description)
	out.Price = n.normalizePrice(rec.Price, source, sku)
	out.Description = n.normalizeDescription(rec.Description)
	out.Attributes = n.normalizeAttributes(rec.Attributes)

	if out.Name != rec.Name || out.Brand != rec.Brand || out.Category != rec.Category {
		n.logger.WithFields(map[string]any{
			"source":       source,
			"external_sku": sku,
			"name":         out.Name,
			"brand":        out.Brand,
			"category":     out.Category,
		}).Debug("Normalized record fields")
	}

	return out
}

// normalizeBrand maps aliases to the canonical spelling, extracts a brand from
// the name when absent, and falls back to the unknown-brand sentinel.
func (n *Normalizer) normalizeBrand(brand, name string) string {
	brand = CollapseWhitespace(brand)

	if brand == "" {
		brand = firstSignificantToken(name)
	}
	if brand == "" {
		return BrandUnknown
	}

	if canonical, ok := n.dicts.BrandAliases[strings.ToLower(brand)]; ok {
		return canonical
	}
	return brand
}

// normalizeCategory canonicalizes known aliases and infers a category from
// free text when the source provided none.
func (n *Normalizer) normalizeCategory(category, name, description string) string {
	category = strings.ToLower(CollapseWhitespace(category))

	if canonical, ok := n.dicts.CategoryAliases[category]; ok {
		return canonical
	}
	if category != "" {
		return category
	}

	text := strings.ToLower(name + " " + description)
	for canonical, keywords := range n.dicts.CategoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return canonical
			}
		}
	}
	return CategoryUncategorized
}

func (n *Normalizer) normalizePrice(price float64, source, sku string) float64 {
	if price < 0 {
		return 0
	}
	if price > n.dicts.SuspiciousPrice {
		n.logger.WithFields(map[string]any{
			"source":       source,
			"external_sku": sku,
			"price":        price,
		}).Warn("Suspiciously large price")
	}
	return price
}

func (n *Normalizer) normalizeDescription(desc string) string {
	desc = ApplyChain(desc, "strip_markup", "decode_entities", "collapse_whitespace")
	// cap on a rune boundary so multi-byte text stays valid
	if runes := []rune(desc); len(runes) > n.dicts.MaxDescriptionLength {
		desc = string(runes[:n.dicts.MaxDescriptionLength]) + "..."
	}
	return desc
}

// normalizeAttributes rewrites keys to snake_case word characters, trims and
// caps values, and drops entries that end up empty on either side.
func (n *Normalizer) normalizeAttributes(attrs map[string]string) models.Attributes {
	if len(attrs) == 0 {
		return nil
	}

	out := make(models.Attributes, len(attrs))
	for k, v := range attrs {
		key := NormalizeKey(k)
		value := CollapseWhitespace(v)
		if runes := []rune(value); len(runes) > n.dicts.MaxAttributeValueLength {
			value = string(runes[:n.dicts.MaxAttributeValueLength])
		}
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// firstSignificantToken returns the first name token longer than two
// characters that starts with a letter, the usual position of a brand.
func firstSignificantToken(name string) string {
	for _, tok := range strings.Fields(name) {
		if len(tok) > 2 && unicode.IsLetter([]rune(tok)[0]) {
			return tok
		}
	}
	return ""
}
