package models

// BatchResult aggregates per-batch load counters. Processed counts every
// record attempted, failed ones included. Per-record failures are counted
// under Errors but only visible in detail via the retry queue and logs.
type BatchResult struct {
	Processed        int `json:"processed"`
	Matched          int `json:"matched"`
	NewCanonical     int `json:"new_canonical"`
	UpdatedCanonical int `json:"updated_canonical"`
	Errors           int `json:"errors"`
}
