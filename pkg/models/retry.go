package models

import "time"

// RetryEntry is a per-record load failure parked for later replay by an
// external worker. The payload carries the full source record so the replay
// can re-run the whole pipeline without the extractor resending it.
type RetryEntry struct {
	ID           string       `json:"id"`
	Source       string       `json:"source"`
	Payload      SourceRecord `json:"payload"`
	ErrorMessage string       `json:"error_message"`
	RetryAfter   time.Time    `json:"retry_after"`
	CreatedAt    time.Time    `json:"created_at"`
}
