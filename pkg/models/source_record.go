package models

import "time"

// SourceRecord is a raw product record extracted from a marketplace.
// It is owned by the upstream extractor; fern only reads it. (Source,
// ExternalSKU) is the record's identity and survives normalization unchanged.
type SourceRecord struct {
	Source      string            `json:"source" validate:"required"`
	ExternalSKU string            `json:"external_sku" validate:"required"`
	Name        string            `json:"name"`
	Brand       string            `json:"brand,omitempty"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	Price       float64           `json:"price,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	ExtractedAt time.Time         `json:"extracted_at,omitempty"`

	// NormalizationError is set when cleaning failed and the record passed
	// through with its original field values.
	NormalizationError string `json:"normalization_error,omitempty"`
}

// LoadBatchRequest is the request for loading a batch of source records
type LoadBatchRequest struct {
	Records []SourceRecord `json:"records" validate:"required,min=1,dive"`
}
