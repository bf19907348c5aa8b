package matching

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Config tunes match acceptance
type Config struct {
	// AcceptThreshold is the minimum composite score to treat the top
	// candidate as a match
	AcceptThreshold float64
	// AutoVerifyThreshold is the minimum score for a match to skip human
	// review
	AutoVerifyThreshold float64
	// MaxCandidates caps how many scored candidates are kept in the result
	MaxCandidates int
}

// DefaultConfig returns the standard acceptance thresholds
func DefaultConfig() Config {
	return Config{
		AcceptThreshold:     0.7,
		AutoVerifyThreshold: 0.9,
		MaxCandidates:       5,
	}
}

// Resolver finds and scores candidates for a record and decides whether the
// best one is an acceptable match
type Resolver struct {
	finder *Finder
	scorer *Scorer
	config Config
	logger ectologger.Logger
}

// NewResolver creates a new Resolver
func NewResolver(finder *Finder, scorer *Scorer, config Config, logger ectologger.Logger) *Resolver {
	return &Resolver{
		finder: finder,
		scorer: scorer,
		config: config,
		logger: logger,
	}
}

// AutoVerifyThreshold exposes the configured auto-verification cutoff
func (r *Resolver) AutoVerifyThreshold() float64 {
	return r.config.AutoVerifyThreshold
}

// Resolve gathers candidates, scores them, and returns the ranked result.
// Best is set only when the top score clears the acceptance threshold; Score
// always carries the top candidate's score so callers can band on it.
func (r *Resolver) Resolve(ctx context.Context, rec models.SourceRecord) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Resolver.Resolve")
	defer span.End()

	candidates, err := r.finder.Find(ctx, rec)
	if err != nil {
		return nil, err
	}

	result := &models.MatchResult{}
	if len(candidates) == 0 {
		return result, nil
	}

	type scored struct {
		product models.CanonicalProduct
		info    models.CandidateInfo
	}

	ranked := make([]scored, 0, len(candidates))
	for _, product := range candidates {
		score, fieldScores := r.scorer.Score(rec, &product)
		ranked = append(ranked, scored{
			product: product,
			info: models.CandidateInfo{
				ProductID:   product.ID,
				Name:        product.Name,
				Brand:       product.Brand,
				Category:    product.Category,
				Score:       score,
				FieldScores: fieldScores,
			},
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].info.Score > ranked[j].info.Score })

	if len(ranked) > r.config.MaxCandidates {
		ranked = ranked[:r.config.MaxCandidates]
	}

	for _, c := range ranked {
		result.Candidates = append(result.Candidates, c.info)
	}
	result.Score = ranked[0].info.Score

	if result.Score >= r.config.AcceptThreshold {
		best := ranked[0].product
		result.Best = &best
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"source":       rec.Source,
		"external_sku": rec.ExternalSKU,
		"top_score":    result.Score,
		"matched":      result.Best != nil,
	}).Debug("Resolved record against catalog")

	return result, nil
}
