package models

import "time"

// ProductStatus is the lifecycle status of a canonical product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusMerged   ProductStatus = "merged"
	ProductStatusInactive ProductStatus = "inactive"
)

// CanonicalProduct is the golden record: the single authoritative
// representation of a real-world product across all sources. Products are
// never deleted, only status-transitioned.
type CanonicalProduct struct {
	ID          string        `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Brand       string        `json:"brand" db:"brand"`
	Category    string        `json:"category" db:"category"`
	Description string        `json:"description" db:"description"`
	Attributes  Attributes    `json:"attributes" db:"attributes"`
	Status      ProductStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// ProductUpdate holds the fields an enrichment pass decided to change.
// A nil *ProductUpdate means the incoming record adds nothing.
type ProductUpdate struct {
	Description *string    `json:"description,omitempty"`
	Attributes  Attributes `json:"attributes,omitempty"`
}

// ProductListResponse is the response for listing canonical products
type ProductListResponse struct {
	Items      []CanonicalProduct `json:"items"`
	TotalCount int                `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}
