package database

import (
	"github.com/huandu/go-sqlbuilder"
)

// NewStruct builds a query builder from a row struct's db tags, pinned to the
// PostgreSQL flavor so repositories never set it per call.
func NewStruct(v any) *sqlbuilder.Struct {
	return sqlbuilder.NewStruct(v).For(sqlbuilder.PostgreSQL)
}
