package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Events are the wire payloads carried on the event log. Delivery is
// at-least-once, so every consumer of these types must be idempotent.
// Validation failures are terminal: redelivery cannot fix a malformed
// payload, so consumers log, acknowledge, and drop.

// AnalysisRequestedEvent is published by the ingress collaborator after a job
// row is created. Analysis workers consume it, each in their own group.
type AnalysisRequestedEvent struct {
	JobID         string    `json:"job_id"`
	RepoName      string    `json:"repo_name"`
	CommitHash    string    `json:"commit_hash"`
	CommitMessage string    `json:"commit_message"`
	Diff          string    `json:"diff"`
	Branch        string    `json:"branch"`
	Author        string    `json:"author"`
	Timestamp     time.Time `json:"timestamp"`
}

// Validate checks the required fields of an AnalysisRequestedEvent.
func (e *AnalysisRequestedEvent) Validate() error {
	if strings.TrimSpace(e.JobID) == "" {
		return errors.New("job_id is required")
	}
	if strings.TrimSpace(e.RepoName) == "" {
		return errors.New("repo_name is required")
	}
	return nil
}

// ResultEvent is published by an analysis worker once its verdict is known.
// Payload is opaque to the coordination core and stored as-is.
type ResultEvent struct {
	JobID      string          `json:"job_id"`
	Reporter   string          `json:"reporter"`
	Verdict    Verdict         `json:"verdict"`
	Confidence float64         `json:"confidence"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Validate checks the required fields of a ResultEvent.
func (e *ResultEvent) Validate() error {
	if strings.TrimSpace(e.JobID) == "" {
		return errors.New("job_id is required")
	}
	if strings.TrimSpace(e.Reporter) == "" {
		return errors.New("reporter is required")
	}
	if !e.Verdict.Valid() {
		return errors.New("verdict must be approve, warn, or reject")
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return errors.New("confidence must be between 0.0 and 1.0")
	}
	return nil
}

// Result converts the event into the store representation.
func (e *ResultEvent) Result() *Result {
	return &Result{
		JobID:      e.JobID,
		Reporter:   e.Reporter,
		Verdict:    e.Verdict,
		Confidence: e.Confidence,
		Payload:    e.Payload,
		CreatedAt:  e.Timestamp,
	}
}

// DecisionEvent is published by the arbitration engine exactly once per job.
type DecisionEvent struct {
	JobID       string          `json:"job_id"`
	Verdict     Verdict         `json:"verdict"`
	Explanation string          `json:"explanation"`
	Summary     []ResultSummary `json:"summary"`
	Missing     []string        `json:"missing,omitempty"`
	Score       float64         `json:"score"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Validate checks the required fields of a DecisionEvent.
func (e *DecisionEvent) Validate() error {
	if strings.TrimSpace(e.JobID) == "" {
		return errors.New("job_id is required")
	}
	if !e.Verdict.Valid() {
		return errors.New("verdict must be approve, warn, or reject")
	}
	return nil
}

// Decision converts the event into the store representation.
func (e *DecisionEvent) Decision() *Decision {
	return &Decision{
		JobID:       e.JobID,
		Verdict:     e.Verdict,
		Explanation: e.Explanation,
		Summary:     e.Summary,
		Missing:     e.Missing,
		Score:       e.Score,
		CreatedAt:   e.Timestamp,
	}
}
