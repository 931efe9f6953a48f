package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/target/releasegate/config"
	"github.com/target/releasegate/internal/core"
	"github.com/target/releasegate/internal/domain/model"
	"github.com/target/releasegate/internal/domain/verdict"
	apperrors "github.com/target/releasegate/internal/errors"
	"github.com/target/releasegate/internal/eventlog"
)

// sweepBatchSize bounds how many timed-out jobs one sweep pass resolves.
const sweepBatchSize = 100

// ArbiterService reduces reporter results into exactly one release decision
// per job. Results are merged into the shared aggregate store; a job resolves
// when every expected reporter has reported or when the wait timeout elapses.
// Multiple instances run the same code concurrently; the uniqueness
// constraint on recorded decisions picks a single winner.
type ArbiterService struct {
	aggregates core.AggregateRepository
	decisions  core.DecisionRepository
	log        eventlog.Log
	topics     config.EventLogConfig
	cfg        config.ArbiterConfig
	// now is swappable for timeout tests.
	now    func() time.Time
	logger *slog.Logger
}

// NewArbiterService creates a new ArbiterService.
func NewArbiterService(
	aggregates core.AggregateRepository,
	decisions core.DecisionRepository,
	log eventlog.Log,
	topics config.EventLogConfig,
	cfg config.ArbiterConfig,
) *ArbiterService {
	return &ArbiterService{
		aggregates: aggregates,
		decisions:  decisions,
		log:        log,
		topics:     topics,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     slog.Default().With("component", "arbiter"),
	}
}

// HandleResult merges one reporter result and resolves the job if it is
// complete or timed out. Safe under duplicated, reordered, and concurrently
// delivered events: the merge is first-write-wins and resolution is guarded
// by the decision record's uniqueness.
func (s *ArbiterService) HandleResult(ctx context.Context, event *model.ResultEvent) error {
	if err := event.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid result event")
	}

	agg, err := s.aggregates.Merge(ctx, event.Result())
	if err != nil {
		return err
	}
	if agg.Resolved {
		return nil
	}

	if !agg.HasAll(s.cfg.ExpectedReporters) && s.now().Sub(agg.AnchoredAt) < s.cfg.WaitTimeout {
		s.logger.DebugContext(ctx, "job still collecting",
			"job_id", agg.JobID, "reporters", len(agg.Results), "missing", agg.MissingFrom(s.cfg.ExpectedReporters))
		return nil
	}
	return s.resolve(ctx, agg)
}

// Sweep resolves jobs whose wait timeout elapsed without further events.
// Every arbiter instance sweeps; the resolution path makes concurrent sweeps
// of the same job harmless.
func (s *ArbiterService) Sweep(ctx context.Context) error {
	cutoff := s.now().Add(-s.cfg.WaitTimeout)
	jobIDs, err := s.aggregates.DueJobs(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return err
	}

	for _, jobID := range jobIDs {
		agg, err := s.aggregates.Snapshot(ctx, jobID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				// Keys expired under the index entry; nothing left to decide.
				if retireErr := s.aggregates.Retire(ctx, jobID); retireErr != nil {
					s.logger.WarnContext(ctx, "failed to retire empty aggregate", "job_id", jobID, "err", retireErr)
				}
				continue
			}
			return err
		}
		if agg.Resolved {
			if retireErr := s.aggregates.Retire(ctx, jobID); retireErr != nil {
				s.logger.WarnContext(ctx, "failed to retire resolved aggregate", "job_id", jobID, "err", retireErr)
			}
			continue
		}
		if err := s.resolve(ctx, agg); err != nil {
			return err
		}
	}
	return nil
}

// resolve computes and records the decision, then publishes it. The decision
// record is the mutual-exclusion point: a Conflict means another instance
// (or an earlier attempt of this one) already decided, so the stored decision
// is republished instead of recomputed. Decision consumers are idempotent,
// which makes the occasional duplicate publication harmless; what can never
// happen is two differing decisions for one job.
func (s *ArbiterService) resolve(ctx context.Context, agg *model.Aggregate) error {
	dec := verdict.Decide(verdict.Input{
		JobID:    agg.JobID,
		Results:  agg.Results,
		Expected: s.cfg.ExpectedReporters,
		Weights:  s.cfg.Weights,
		Blocking: s.cfg.BlockingAuthorities,
	})

	if err := s.decisions.Record(ctx, dec); err != nil {
		if !apperrors.IsConflict(err) {
			return err
		}
		stored, getErr := s.decisions.GetByJob(ctx, agg.JobID)
		if getErr != nil {
			return getErr
		}
		dec = stored
	} else {
		s.logger.InfoContext(ctx, "decision recorded",
			"job_id", dec.JobID, "verdict", dec.Verdict, "score", dec.Score, "missing", dec.Missing)
	}

	event := model.DecisionEvent{
		JobID:       dec.JobID,
		Verdict:     dec.Verdict,
		Explanation: dec.Explanation,
		Summary:     dec.Summary,
		Missing:     dec.Missing,
		Score:       dec.Score,
		Timestamp:   dec.CreatedAt,
	}
	if err := publishJSON(ctx, s.log, s.topics.DecisionTopic, &event); err != nil {
		// The record is durable; leaving the trigger unacknowledged retries
		// the publish without recomputing the decision.
		return err
	}

	if err := s.aggregates.MarkResolved(ctx, agg.JobID); err != nil {
		s.logger.WarnContext(ctx, "failed to mark aggregate resolved", "job_id", agg.JobID, "err", err)
	}
	if err := s.aggregates.Retire(ctx, agg.JobID); err != nil {
		s.logger.WarnContext(ctx, "failed to retire aggregate", "job_id", agg.JobID, "err", err)
	}
	return nil
}
