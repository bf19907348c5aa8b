package matching

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Field weights for product similarity. They sum to 1.0 so the composite
// score stays in [0, 1].
const (
	WeightName       = 0.4
	WeightBrand      = 0.3
	WeightCategory   = 0.2
	WeightAttributes = 0.1
)

// Scorer computes similarity between a normalized source record and a
// canonical product
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns the weighted composite similarity between a record and a
// candidate, plus the per-field breakdown used for review UIs.
func (s *Scorer) Score(rec models.SourceRecord, product *models.CanonicalProduct) (float64, map[string]float64) {
	fieldScores := map[string]float64{
		"name":       s.Levenshtein(strings.ToLower(rec.Name), strings.ToLower(product.Name)),
		"brand":      s.exactNonEmpty(rec.Brand, product.Brand),
		"category":   s.exactNonEmpty(rec.Category, product.Category),
		"attributes": s.AttributeOverlap(rec.Attributes, product.Attributes),
	}

	total := fieldScores["name"]*WeightName +
		fieldScores["brand"]*WeightBrand +
		fieldScores["category"]*WeightCategory +
		fieldScores["attributes"]*WeightAttributes

	return total, fieldScores
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string, caseSensitive bool) float64 {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// exactNonEmpty is ExactMatch with blank values scored as no evidence
func (s *Scorer) exactNonEmpty(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	return s.ExactMatch(a, b, false)
}

// AttributeOverlap scores the fraction of shared keys whose values agree,
// case-insensitively. No shared keys means no evidence either way, scored 0.
func (s *Scorer) AttributeOverlap(a map[string]string, b map[string]string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	shared := 0
	agreeing := 0
	for key, av := range a {
		bv, ok := b[key]
		if !ok {
			continue
		}
		shared++
		if strings.EqualFold(av, bv) {
			agreeing++
		}
	}

	if shared == 0 {
		return 0.0
	}
	return float64(agreeing) / float64(shared)
}

// Levenshtein calculates the Levenshtein distance between two strings
// Returns a similarity score between 0.0 and 1.0
func (s *Scorer) Levenshtein(a, b string) float64 {
	distance := s.LevenshteinDistance(a, b)
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Create two rows for dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}
