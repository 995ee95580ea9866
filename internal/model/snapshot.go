package model

import "time"

// Category is the coarse readiness bucket derived from the final score.
type Category string

const (
	CategoryHot  Category = "HOT"
	CategoryWarm Category = "WARM"
	CategoryCool Category = "COOL"
	CategoryCold Category = "COLD"
)

// ConfidenceLevel expresses how much signal backed the final score.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// SignalScores holds the per-signal component scores that entered the
// weighted sum, after neutral-default substitution for failed validators.
type SignalScores struct {
	Conversation float64 `json:"conversation"`
	Website      float64 `json:"website"`
	Identity     float64 `json:"identity"`
	Budget       float64 `json:"budget"`
	Behavioral   float64 `json:"behavioral"`
}

// ValidationFailure records one validator that did not produce a score
// during a vetting run. Informational only; the run still scores.
type ValidationFailure struct {
	Validator ValidatorName `json:"validator"`
	Reason    string        `json:"reason"`
}

// ValidationSnapshot is the immutable record of one complete vetting run.
// A new run inserts a new row; existing snapshots are never mutated, so the
// most recent snapshot is a query rather than a destructive update.
type ValidationSnapshot struct {
	ID              string              `json:"id"`
	ProspectID      string              `json:"prospect_id"`
	FinalScore      float64             `json:"final_score"` // 0-100
	Category        Category            `json:"category"`
	ConfidenceLevel ConfidenceLevel     `json:"confidence_level"`
	Signals         SignalScores        `json:"signals"`
	Failures        []ValidationFailure `json:"failures,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}
