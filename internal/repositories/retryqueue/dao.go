package retryqueue

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
)

const retryTable = "load_retry_queue"

// RetryRow represents the database row for a parked record
type RetryRow struct {
	ID           sql.NullString                      `db:"id"`
	Source       sql.NullString                      `db:"source"`
	Payload      database.JSONB[models.SourceRecord] `db:"payload"`
	ErrorMessage sql.NullString                      `db:"error_message"`
	RetryAfter   sql.NullTime                        `db:"retry_after"`
	CreatedAt    sql.NullTime                        `db:"created_at"`
}

var retryStruct = database.NewStruct(new(RetryRow))

// FromEntry converts a domain model to a database row
func FromEntry(e *models.RetryEntry) *RetryRow {
	return &RetryRow{
		ID:           sql.NullString{String: e.ID, Valid: e.ID != ""},
		Source:       sql.NullString{String: e.Source, Valid: e.Source != ""},
		Payload:      database.JSONB[models.SourceRecord]{Data: e.Payload},
		ErrorMessage: sql.NullString{String: e.ErrorMessage, Valid: e.ErrorMessage != ""},
		RetryAfter:   sql.NullTime{Time: e.RetryAfter, Valid: !e.RetryAfter.IsZero()},
		CreatedAt:    sql.NullTime{Time: e.CreatedAt, Valid: !e.CreatedAt.IsZero()},
	}
}

// ToEntry converts a database row to a domain model
func ToEntry(row *RetryRow) *models.RetryEntry {
	return &models.RetryEntry{
		ID:           row.ID.String,
		Source:       row.Source.String,
		Payload:      row.Payload.Data,
		ErrorMessage: row.ErrorMessage.String,
		RetryAfter:   row.RetryAfter.Time,
		CreatedAt:    row.CreatedAt.Time,
	}
}

// ToEntries converts a slice of database rows to domain models
func ToEntries(rows []RetryRow) []models.RetryEntry {
	entries := make([]models.RetryEntry, len(rows))
	for i, row := range rows {
		entries[i] = *ToEntry(&row)
	}
	return entries
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}
