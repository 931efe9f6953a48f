// Package core defines the port interfaces between the service layer and the
// data/transport layers. Services depend on these interfaces, not on the
// concrete Postgres/Redis implementations.
package core

import (
	"context"
	"time"

	"github.com/target/releasegate/internal/domain/model"
)

// JobRepository defines the interface for job record operations.
type JobRepository interface {
	// Create inserts a new job. A duplicate id yields a Conflict error;
	// idempotent ingress retries treat that as success.
	Create(ctx context.Context, job *model.Job) error
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// AdvanceStatus applies the transition only when the job's current
	// status is in fromAllowed, and reports whether it applied. This is the
	// guard that keeps duplicated or out-of-order events from regressing
	// lifecycle state.
	AdvanceStatus(ctx context.Context, id string, fromAllowed []model.JobStatus, to model.JobStatus) (bool, error)
}

// ResultRepository defines the interface for reporter result operations.
type ResultRepository interface {
	// Upsert inserts or replaces the row keyed by (job, reporter) and
	// reports whether this call caused the first insert for that key.
	Upsert(ctx context.Context, res *model.Result) (bool, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.Result, error)
}

// DecisionRepository defines the interface for release decision operations.
type DecisionRepository interface {
	// Record inserts the decision. A second decision for the same job
	// yields a Conflict error; that failure is the distributed
	// mutual-exclusion signal between concurrent arbiter instances.
	Record(ctx context.Context, dec *model.Decision) error
	GetByJob(ctx context.Context, jobID string) (*model.Decision, error)
}

// AggregateRepository is the shared store for in-progress partial aggregates.
// Every arbiter instance must observe every other instance's merges, so the
// implementation lives outside process memory.
type AggregateRepository interface {
	// Merge idempotently merges the result into the job's aggregate
	// (first write per reporter wins) and returns the post-merge snapshot.
	// The first merge for a job anchors its timeout.
	Merge(ctx context.Context, res *model.Result) (*model.Aggregate, error)
	Snapshot(ctx context.Context, jobID string) (*model.Aggregate, error)
	MarkResolved(ctx context.Context, jobID string) error
	// DueJobs returns ids of unresolved jobs anchored before the cutoff,
	// oldest first. The sweeper uses this to resolve jobs that stop
	// receiving events.
	DueJobs(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	// Retire removes the job from the active index after resolution.
	Retire(ctx context.Context, jobID string) error
}
