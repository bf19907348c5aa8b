package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestLevenshtein(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 1.0, s.Levenshtein("wireless mouse", "wireless mouse"))
	assert.Equal(t, 1.0, s.Levenshtein("", ""))
	assert.Equal(t, 0.0, s.Levenshtein("abc", "xyz"))

	// one edit over 5 characters
	assert.InDelta(t, 0.8, s.Levenshtein("mouse", "house"), 0.0001)
}

func TestLevenshteinDistance(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 0, s.LevenshteinDistance("same", "same"))
	assert.Equal(t, 4, s.LevenshteinDistance("", "abcd"))
	assert.Equal(t, 3, s.LevenshteinDistance("kitten", "sitting"))
}

func TestAttributeOverlap(t *testing.T) {
	s := NewScorer()

	t.Run("no shared keys scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, s.AttributeOverlap(
			map[string]string{"color": "red"},
			map[string]string{"size": "M"},
		))
	})

	t.Run("fraction of agreeing shared keys", func(t *testing.T) {
		score := s.AttributeOverlap(
			map[string]string{"color": "red", "size": "M", "material": "cotton"},
			map[string]string{"color": "red", "size": "L", "weight": "1kg"},
		)
		assert.InDelta(t, 0.5, score, 0.0001)
	})

	t.Run("values compared case-insensitively", func(t *testing.T) {
		assert.Equal(t, 1.0, s.AttributeOverlap(
			map[string]string{"color": "Red"},
			map[string]string{"color": "red"},
		))
	})

	t.Run("empty sides score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, s.AttributeOverlap(nil, map[string]string{"a": "b"}))
		assert.Equal(t, 0.0, s.AttributeOverlap(map[string]string{"a": "b"}, nil))
	})
}

func TestScoreWeighting(t *testing.T) {
	s := NewScorer()

	rec := models.SourceRecord{
		Name:       "Wireless Mouse",
		Brand:      "Logitech",
		Category:   "electronics",
		Attributes: map[string]string{"color": "black"},
	}

	t.Run("identical product scores 1.0", func(t *testing.T) {
		product := &models.CanonicalProduct{
			Name:       "Wireless Mouse",
			Brand:      "Logitech",
			Category:   "electronics",
			Attributes: models.Attributes{"color": "black"},
		}
		total, fields := s.Score(rec, product)
		assert.InDelta(t, 1.0, total, 0.0001)
		assert.Equal(t, 1.0, fields["name"])
		assert.Equal(t, 1.0, fields["brand"])
		assert.Equal(t, 1.0, fields["category"])
		assert.Equal(t, 1.0, fields["attributes"])
	})

	t.Run("brand mismatch drops exactly its weight", func(t *testing.T) {
		product := &models.CanonicalProduct{
			Name:       "Wireless Mouse",
			Brand:      "Razer",
			Category:   "electronics",
			Attributes: models.Attributes{"color": "black"},
		}
		total, fields := s.Score(rec, product)
		assert.Equal(t, 0.0, fields["brand"])
		assert.InDelta(t, 1.0-WeightBrand, total, 0.0001)
	})

	t.Run("empty brand on either side scores zero evidence", func(t *testing.T) {
		product := &models.CanonicalProduct{
			Name:     "Wireless Mouse",
			Category: "electronics",
		}
		_, fields := s.Score(rec, product)
		assert.Equal(t, 0.0, fields["brand"])
	})

	t.Run("name compared case-insensitively", func(t *testing.T) {
		product := &models.CanonicalProduct{Name: "WIRELESS MOUSE"}
		_, fields := s.Score(rec, product)
		assert.Equal(t, 1.0, fields["name"])
	})
}
