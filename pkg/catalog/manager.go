// Package catalog owns the construction and enrichment rules for canonical
// products. Golden-record fields only ever grow: enrichment fills gaps and
// never overwrites values a record already carries.
package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Manager builds canonical products from source records and computes
// enrichment deltas against existing ones
type Manager struct{}

// NewManager creates a new Manager
func NewManager() *Manager {
	return &Manager{}
}

// NewID mints a canonical product ID
func (m *Manager) NewID() string {
	return uuid.New().String()
}

// NewProduct builds a canonical product from a normalized source record.
// The caller persists it; the returned ID is authoritative from here on.
func (m *Manager) NewProduct(rec models.SourceRecord) *models.CanonicalProduct {
	now := time.Now().UTC()
	return &models.CanonicalProduct{
		ID:          m.NewID(),
		Name:        rec.Name,
		Brand:       rec.Brand,
		Category:    rec.Category,
		Description: rec.Description,
		Attributes:  models.Attributes(rec.Attributes).Clone(),
		Status:      models.ProductStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Enrich computes the update an incoming record contributes to an existing
// product. Description is replaced only when the product has none or the
// incoming one is strictly longer. Attributes are first-write-wins: only keys
// the product does not already carry are added. Returns nil when the record
// adds nothing.
func (m *Manager) Enrich(existing *models.CanonicalProduct, rec models.SourceRecord) *models.ProductUpdate {
	update := &models.ProductUpdate{}
	changed := false

	if rec.Description != "" &&
		(existing.Description == "" || len(rec.Description) > len(existing.Description)) {
		desc := rec.Description
		update.Description = &desc
		changed = true
	}

	if len(rec.Attributes) > 0 {
		merged := existing.Attributes.Clone()
		if merged == nil {
			merged = models.Attributes{}
		}
		added := false
		for key, value := range rec.Attributes {
			if _, ok := merged[key]; ok {
				continue
			}
			merged[key] = value
			added = true
		}
		if added {
			update.Attributes = merged
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return update
}
