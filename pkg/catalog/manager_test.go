package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestNewProduct(t *testing.T) {
	m := NewManager()

	rec := models.SourceRecord{
		Source:      "shopmart",
		ExternalSKU: "SKU-1",
		Name:        "Wireless Mouse",
		Brand:       "Logitech",
		Category:    "electronics",
		Description: "A mouse",
		Attributes:  map[string]string{"color": "black"},
	}

	product := m.NewProduct(rec)

	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "Wireless Mouse", product.Name)
	assert.Equal(t, "Logitech", product.Brand)
	assert.Equal(t, "electronics", product.Category)
	assert.Equal(t, models.ProductStatusActive, product.Status)
	assert.Equal(t, models.Attributes{"color": "black"}, product.Attributes)

	// attribute map is copied, not shared
	rec.Attributes["color"] = "white"
	assert.Equal(t, "black", product.Attributes["color"])

	other := m.NewProduct(rec)
	assert.NotEqual(t, product.ID, other.ID)
}

func TestEnrichDescription(t *testing.T) {
	m := NewManager()

	t.Run("fills empty description", func(t *testing.T) {
		existing := &models.CanonicalProduct{}
		update := m.Enrich(existing, models.SourceRecord{Description: "short"})
		require.NotNil(t, update)
		require.NotNil(t, update.Description)
		assert.Equal(t, "short", *update.Description)
	})

	t.Run("replaces with strictly longer description", func(t *testing.T) {
		existing := &models.CanonicalProduct{Description: "short"}
		update := m.Enrich(existing, models.SourceRecord{Description: "a much longer description"})
		require.NotNil(t, update)
		assert.Equal(t, "a much longer description", *update.Description)
	})

	t.Run("keeps equal or shorter description", func(t *testing.T) {
		existing := &models.CanonicalProduct{Description: "existing text"}
		assert.Nil(t, m.Enrich(existing, models.SourceRecord{Description: "shorter"}))
		assert.Nil(t, m.Enrich(existing, models.SourceRecord{Description: "existing text"}))
	})
}

func TestEnrichAttributes(t *testing.T) {
	m := NewManager()

	t.Run("first write wins per key", func(t *testing.T) {
		existing := &models.CanonicalProduct{Attributes: models.Attributes{"color": "red"}}
		update := m.Enrich(existing, models.SourceRecord{
			Attributes: map[string]string{"color": "blue", "size": "M"},
		})
		require.NotNil(t, update)
		assert.Equal(t, models.Attributes{"color": "red", "size": "M"}, update.Attributes)
	})

	t.Run("no new keys means no update", func(t *testing.T) {
		existing := &models.CanonicalProduct{Attributes: models.Attributes{"color": "red"}}
		assert.Nil(t, m.Enrich(existing, models.SourceRecord{
			Attributes: map[string]string{"color": "blue"},
		}))
	})

	t.Run("existing map is not mutated", func(t *testing.T) {
		existing := &models.CanonicalProduct{Attributes: models.Attributes{"color": "red"}}
		m.Enrich(existing, models.SourceRecord{Attributes: map[string]string{"size": "M"}})
		assert.Equal(t, models.Attributes{"color": "red"}, existing.Attributes)
	})
}

func TestEnrichNothingToAdd(t *testing.T) {
	m := NewManager()
	existing := &models.CanonicalProduct{Description: "text"}
	assert.Nil(t, m.Enrich(existing, models.SourceRecord{}))
}
