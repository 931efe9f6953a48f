package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/target/releasegate/internal/core"
	"github.com/target/releasegate/internal/data/dbutil"
	"github.com/target/releasegate/internal/domain/model"
	apperrors "github.com/target/releasegate/internal/errors"
)

// resultTxUpserter is the optional transactional capability of a result
// repository. The Postgres implementation satisfies it; test fakes need not.
type resultTxUpserter interface {
	UpsertInTx(ctx context.Context, tx *sql.Tx, res *model.Result) (bool, error)
}

// jobTxAdvancer is the optional transactional capability of a job repository.
type jobTxAdvancer interface {
	AdvanceStatusInTx(ctx context.Context, tx *sql.Tx, id string, fromAllowed []model.JobStatus, to model.JobStatus) (bool, error)
}

// TrackerService maintains the job lifecycle from observed events: a first
// result moves a pending job to processing, a decision completes it. All
// handlers are idempotent because the event log redelivers.
type TrackerService struct {
	jobs      core.JobRepository
	results   core.ResultRepository
	decisions core.DecisionRepository
	// db enables atomic result-plus-status commits when the repositories
	// expose their transactional variants. Nil falls back to sequential
	// writes, which the conditional status update keeps safe.
	db     *sql.DB
	logger *slog.Logger
}

// NewTrackerService creates a new TrackerService.
func NewTrackerService(
	jobs core.JobRepository,
	results core.ResultRepository,
	decisions core.DecisionRepository,
	db *sql.DB,
) *TrackerService {
	return &TrackerService{
		jobs:      jobs,
		results:   results,
		decisions: decisions,
		db:        db,
		logger:    slog.Default().With("component", "tracker"),
	}
}

// HandleResult records a reporter result and advances the job from pending to
// processing. A result for an unknown job returns a ForeignKey error so the
// caller leaves the event unacknowledged; the job insert may simply not have
// landed yet.
func (s *TrackerService) HandleResult(ctx context.Context, event *model.ResultEvent) error {
	if err := event.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid result event")
	}
	res := event.Result()

	txResults, okResults := s.results.(resultTxUpserter)
	txJobs, okJobs := s.jobs.(jobTxAdvancer)
	if s.db != nil && okResults && okJobs {
		return dbutil.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
			inserted, err := txResults.UpsertInTx(ctx, tx, res)
			if err != nil {
				return err
			}
			return s.advanceOnResult(ctx, func(fromAllowed []model.JobStatus, to model.JobStatus) (bool, error) {
				return txJobs.AdvanceStatusInTx(ctx, tx, res.JobID, fromAllowed, to)
			}, res, inserted)
		})
	}

	inserted, err := s.results.Upsert(ctx, res)
	if err != nil {
		return err
	}
	return s.advanceOnResult(ctx, func(fromAllowed []model.JobStatus, to model.JobStatus) (bool, error) {
		return s.jobs.AdvanceStatus(ctx, res.JobID, fromAllowed, to)
	}, res, inserted)
}

func (s *TrackerService) advanceOnResult(
	ctx context.Context,
	advance func(fromAllowed []model.JobStatus, to model.JobStatus) (bool, error),
	res *model.Result,
	inserted bool,
) error {
	if !inserted {
		s.logger.DebugContext(ctx, "duplicate result ignored",
			"job_id", res.JobID, "reporter", res.Reporter)
	}

	// The transition is attempted on redeliveries too: a crash between the
	// result write and the status update must not strand the job in pending.
	applied, err := advance([]model.JobStatus{model.JobStatusPending}, model.JobStatusProcessing)
	if err != nil {
		return err
	}
	if applied {
		s.logger.InfoContext(ctx, "job processing",
			"job_id", res.JobID, "reporter", res.Reporter)
	}
	return nil
}

// HandleDecision records the decision and completes the job. Both writes are
// idempotent: the decision insert tolerates Conflict, and the status update
// only fires from a non-terminal state.
func (s *TrackerService) HandleDecision(ctx context.Context, event *model.DecisionEvent) error {
	if err := event.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid decision event")
	}

	if err := s.decisions.Record(ctx, event.Decision()); err != nil && !apperrors.IsConflict(err) {
		return err
	}

	applied, err := s.jobs.AdvanceStatus(ctx, event.JobID,
		[]model.JobStatus{model.JobStatusPending, model.JobStatusProcessing},
		model.JobStatusCompleted)
	if err != nil {
		return err
	}
	if applied {
		s.logger.InfoContext(ctx, "job completed",
			"job_id", event.JobID, "verdict", event.Verdict)
	}
	return nil
}
