package models

import (
	"encoding/json"
	"time"
)

// VerificationStatus describes how a sku mapping was accepted
type VerificationStatus string

const (
	// VerificationStatusAuto means the match score cleared the auto-verify band
	VerificationStatusAuto VerificationStatus = "auto"
	// VerificationStatusPending means the mapping awaits human review
	VerificationStatusPending VerificationStatus = "pending"
	// VerificationStatusManual means a human has decided the mapping
	VerificationStatusManual VerificationStatus = "manual"
)

// SkuMapping links a (source, external sku) pair to a canonical product.
// Exactly one mapping exists per pair at any time; later records for the same
// pair upsert in place.
type SkuMapping struct {
	ID            string             `json:"id" db:"id"`
	Source        string             `json:"source" db:"source"`
	ExternalSKU   string             `json:"external_sku" db:"external_sku"`
	CanonicalID   string             `json:"canonical_id" db:"canonical_id"`
	Confidence    float64            `json:"confidence" db:"confidence"`
	Status        VerificationStatus `json:"status" db:"status"`
	SourcePayload json.RawMessage    `json:"source_payload,omitempty" db:"source_payload"`
	Fingerprint   string             `json:"fingerprint" db:"fingerprint"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
	ResolvedAt    *time.Time         `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy    *string            `json:"resolved_by,omitempty" db:"resolved_by"`
	// ResolutionReason is the reviewer's free-text rationale, kept for audit
	ResolutionReason *string `json:"resolution_reason,omitempty" db:"resolution_reason"`
}

// SourceRecord rebuilds the normalized source record captured at load time.
func (m *SkuMapping) SourceRecord() (*SourceRecord, error) {
	var rec SourceRecord
	if err := json.Unmarshal(m.SourcePayload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// PendingMapping is a pending sku mapping joined with the canonical product's
// display fields, ready for side-by-side review.
type PendingMapping struct {
	SkuMapping
	ProductName     string `json:"product_name" db:"product_name"`
	ProductBrand    string `json:"product_brand" db:"product_brand"`
	ProductCategory string `json:"product_category" db:"product_category"`
}

// ConfirmMappingRequest is a human decision on a pending mapping
type ConfirmMappingRequest struct {
	Approved     bool    `json:"approved"`
	Reason       string  `json:"reason,omitempty"`
	ReassignToID *string `json:"reassign_to_id,omitempty"`
}

// BulkApproveRequest approves a set of pending mappings
type BulkApproveRequest struct {
	MappingIDs []string `json:"mapping_ids" validate:"required,min=1"`
}

// BulkApproveResult reports per-id outcomes; one failure never blocks the rest
type BulkApproveResult struct {
	Approved []string          `json:"approved"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// MappingListResponse is the response for listing pending mappings
type MappingListResponse struct {
	Items    []PendingMapping `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
