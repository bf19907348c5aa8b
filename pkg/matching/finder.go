package matching

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// CandidateSource is the catalog lookup surface the finder needs. The product
// repository implements it.
type CandidateSource interface {
	FindByName(ctx context.Context, name string, limit int) ([]models.CanonicalProduct, error)
	FindByBrandCategory(ctx context.Context, brand, category string, limit int) ([]models.CanonicalProduct, error)
	SearchNameTokens(ctx context.Context, tokens []string, limit int) ([]models.CanonicalProduct, error)
}

// Query limits per candidate pass. The passes run broadest-last so cheap
// exact lookups come back first.
const (
	exactNameLimit     = 5
	brandCategoryLimit = 10
	tokenSearchLimit   = 20
	maxQueryTokens     = 3
)

// Finder gathers canonical candidates for a normalized record
type Finder struct {
	source CandidateSource
	logger ectologger.Logger
}

// NewFinder creates a new Finder
func NewFinder(source CandidateSource, logger ectologger.Logger) *Finder {
	return &Finder{source: source, logger: logger}
}

// Find returns the union of the three candidate passes, deduplicated by
// product ID with first occurrence winning.
func (f *Finder) Find(ctx context.Context, rec models.SourceRecord) ([]models.CanonicalProduct, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Finder.Find")
	defer span.End()

	seen := make(map[string]bool)
	var candidates []models.CanonicalProduct

	add := func(products []models.CanonicalProduct) {
		for _, p := range products {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			candidates = append(candidates, p)
		}
	}

	exact, err := f.source.FindByName(ctx, rec.Name, exactNameLimit)
	if err != nil {
		return nil, err
	}
	add(exact)

	if rec.Brand != "" && rec.Category != "" {
		byGroup, err := f.source.FindByBrandCategory(ctx, rec.Brand, rec.Category, brandCategoryLimit)
		if err != nil {
			return nil, err
		}
		add(byGroup)
	}

	tokens := queryTokens(rec.Name)
	if len(tokens) > 0 {
		byToken, err := f.source.SearchNameTokens(ctx, tokens, tokenSearchLimit)
		if err != nil {
			return nil, err
		}
		add(byToken)
	}

	f.logger.WithContext(ctx).WithFields(map[string]any{
		"source":       rec.Source,
		"external_sku": rec.ExternalSKU,
		"candidates":   len(candidates),
	}).Debug("Gathered match candidates")

	return candidates, nil
}

// queryTokens picks the first few name tokens long enough to be selective
func queryTokens(name string) []string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		if len(tok) <= 2 {
			continue
		}
		tokens = append(tokens, tok)
		if len(tokens) == maxQueryTokens {
			break
		}
	}
	return tokens
}
