// Package model defines the core data types shared by the releasegate coordination services.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobStatus represents the lifecycle status of an analysis job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStatus string

const (
	// JobStatusPending indicates a job has been created but no reporter result has been observed yet.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates at least one reporter result has arrived.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted indicates a release decision has been recorded.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job was failed externally before completing.
	JobStatusFailed JobStatus = "failed"
)

// Valid returns true if the JobStatus is one of the known lifecycle states.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusProcessing ||
		s == JobStatusCompleted || s == JobStatusFailed
}

// Terminal returns true for statuses that admit no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// UnmarshalText implements encoding.TextUnmarshaler so statuses parse from env values.
func (s *JobStatus) UnmarshalText(text []byte) error {
	v := JobStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobStatus: %q", string(text))
	}
	*s = v
	return nil
}

// Job represents one code-change analysis job. Jobs are created by the
// ingress collaborator and mutated only through conditional status updates,
// so replayed events can never move a job backwards.
type Job struct {
	ID            string     `json:"id"                     db:"id"`
	RepoName      string     `json:"repo_name"              db:"repo_name"`
	CommitHash    string     `json:"commit_hash"            db:"commit_hash"`
	CommitMessage string     `json:"commit_message"         db:"commit_message"`
	Branch        string     `json:"branch"                 db:"branch"`
	Author        string     `json:"author"                 db:"author"`
	Status        JobStatus  `json:"status"                 db:"status"`
	CreatedAt     time.Time  `json:"created_at"             db:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// CreateJobRequest carries the fields the ingress collaborator supplies when
// registering a code change for analysis. ID is optional; one is generated
// when absent.
type CreateJobRequest struct {
	ID            string `json:"id,omitempty"`
	RepoName      string `json:"repo_name"`
	CommitHash    string `json:"commit_hash"`
	CommitMessage string `json:"commit_message"`
	Diff          string `json:"diff"`
	Branch        string `json:"branch"`
	Author        string `json:"author"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.RepoName) == "" {
		return errors.New("repo_name is required")
	}
	if strings.TrimSpace(r.CommitHash) == "" {
		return errors.New("commit_hash is required")
	}
	if strings.TrimSpace(r.Author) == "" {
		return errors.New("author is required")
	}
	return nil
}
