package models

// CandidateInfo is one scored canonical candidate for a source record
type CandidateInfo struct {
	ProductID   string             `json:"product_id"`
	Name        string             `json:"name"`
	Brand       string             `json:"brand"`
	Category    string             `json:"category"`
	Score       float64            `json:"score"`
	FieldScores map[string]float64 `json:"field_scores"`
}

// MatchResult is the outcome of resolving a source record against the catalog.
// Best is nil when no candidate cleared the acceptance threshold; Score still
// carries the top candidate's score (0 with no candidates) because it drives
// verification banding downstream.
type MatchResult struct {
	Best       *CanonicalProduct `json:"best,omitempty"`
	Score      float64           `json:"score"`
	Candidates []CandidateInfo   `json:"candidates"`
}
