package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Attributes is a product's key/value attribute map, stored as jsonb.
// Keys are normalized (lowercase, underscores) before they reach the catalog.
type Attributes map[string]string

func (a *Attributes) Scan(src any) error {
	if src == nil {
		*a = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("Attributes.Scan: expected []byte, got %T", src)
	}
	return json.Unmarshal(b, a)
}

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// Clone returns a copy so enrichment never mutates a loaded row in place.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
