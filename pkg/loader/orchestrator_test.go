package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestDeriveVerificationStatus(t *testing.T) {
	tests := []struct {
		name    string
		matched bool
		score   float64
		want    models.VerificationStatus
	}{
		{"high confidence match auto-verifies", true, 0.95, models.VerificationStatusAuto},
		{"threshold boundary auto-verifies", true, 0.9, models.VerificationStatusAuto},
		{"mid band match stays pending", true, 0.75, models.VerificationStatusPending},
		{"new canonical is always pending", false, 0.0, models.VerificationStatusPending},
		{"high score without match is still pending", false, 0.95, models.VerificationStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveVerificationStatus(tt.matched, tt.score, 0.9))
		})
	}
}

func TestPayloadMapIsStable(t *testing.T) {
	rec := models.SourceRecord{
		Source:      "shopmart",
		ExternalSKU: "SKU-1",
		Name:        "Wireless Mouse",
		Attributes:  map[string]string{"color": "black"},
	}

	m := payloadMap(rec)
	assert.Equal(t, "shopmart", m["source"])
	assert.Equal(t, "SKU-1", m["external_sku"])
	assert.Equal(t, map[string]any{"color": "black"}, m["attributes"])
}
