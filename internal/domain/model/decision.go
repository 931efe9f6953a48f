package model

import "time"

// ResultSummary is the audit record of one reporter's contribution to a
// decision. Decisions carry one entry per reporter that actually reported.
type ResultSummary struct {
	Reporter   string  `json:"reporter"`
	Verdict    Verdict `json:"verdict"`
	Confidence float64 `json:"confidence"`
}

// Decision is the single release decision for a job. The decisions table
// carries a uniqueness constraint on JobID; recording a second decision for
// the same job fails, which is what keeps concurrent arbiter instances safe.
type Decision struct {
	JobID       string          `json:"job_id"      db:"job_id"`
	Verdict     Verdict         `json:"verdict"     db:"verdict"`
	Explanation string          `json:"explanation" db:"explanation"`
	Summary     []ResultSummary `json:"summary"     db:"summary"`
	// Missing lists expected reporters that never reported before resolution.
	Missing   []string  `json:"missing,omitempty" db:"missing"`
	Score     float64   `json:"score"             db:"score"`
	CreatedAt time.Time `json:"created_at"        db:"created_at"`
}
