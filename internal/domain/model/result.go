package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Verdict is the release recommendation produced by a reporter, and also the
// type of the final decision verdict.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Verdict string

const (
	// VerdictApprove recommends releasing the change.
	VerdictApprove Verdict = "approve"
	// VerdictWarn recommends releasing with caution.
	VerdictWarn Verdict = "warn"
	// VerdictReject recommends blocking the release.
	VerdictReject Verdict = "reject"
)

// Valid returns true if the Verdict is one of the known values.
func (v Verdict) Valid() bool {
	return v == VerdictApprove || v == VerdictWarn || v == VerdictReject
}

// UnmarshalText implements encoding.TextUnmarshaler for Verdict.
func (v *Verdict) UnmarshalText(text []byte) error {
	parsed := Verdict(strings.ToLower(strings.TrimSpace(string(text))))
	if !parsed.Valid() {
		return fmt.Errorf("invalid Verdict: %q", string(text))
	}
	*v = parsed
	return nil
}

// Result is one reporter's verdict for one job. At most one effective Result
// exists per (job, reporter) pair; duplicate event deliveries collapse onto
// the same row.
type Result struct {
	JobID      string          `json:"job_id"     db:"job_id"`
	Reporter   string          `json:"reporter"   db:"reporter"`
	Verdict    Verdict         `json:"verdict"    db:"verdict"`
	Confidence float64         `json:"confidence" db:"confidence"`
	Payload    json.RawMessage `json:"payload"    db:"payload"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
