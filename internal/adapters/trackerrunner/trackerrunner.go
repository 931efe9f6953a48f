// Package trackerrunner runs the lifecycle tracker's consumer loops: one on
// the result topic and one on the decision topic, both in the tracker group.
package trackerrunner

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/target/releasegate/config"
	"github.com/target/releasegate/internal/adapters/consume"
	"github.com/target/releasegate/internal/core"
	"github.com/target/releasegate/internal/data"
	"github.com/target/releasegate/internal/eventlog"
	"github.com/target/releasegate/internal/service"
	"golang.org/x/sync/errgroup"
)

// RunnerOptions configures the tracker runner adapter.
type RunnerOptions struct {
	DB       *sql.DB
	EventLog eventlog.Log
	Logger   *slog.Logger

	Topics  config.EventLogConfig
	Tracker config.TrackerConfig

	// Optional dependency injections (useful for tests/decoupling)
	JobsRepo      core.JobRepository
	ResultsRepo   core.ResultRepository
	DecisionsRepo core.DecisionRepository
}

// Runner consumes result and decision events and maintains job lifecycle state.
type Runner struct {
	results   *consume.Loop
	decisions *consume.Loop
	logger    *slog.Logger
}

// NewRunner creates a new tracker runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.EventLog == nil {
		return nil, errors.New("event log is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jobs := opts.JobsRepo
	if jobs == nil {
		if opts.DB == nil {
			return nil, errors.New("tracker runner requires a DB handle or an explicit JobRepository")
		}
		jobs = data.NewJobRepo(opts.DB)
	}
	results := opts.ResultsRepo
	if results == nil {
		if opts.DB == nil {
			return nil, errors.New("tracker runner requires a DB handle or an explicit ResultRepository")
		}
		results = data.NewResultRepo(opts.DB)
	}
	decisions := opts.DecisionsRepo
	if decisions == nil {
		if opts.DB == nil {
			return nil, errors.New("tracker runner requires a DB handle or an explicit DecisionRepository")
		}
		decisions = data.NewDecisionRepo(opts.DB)
	}

	tracker := service.NewTrackerService(jobs, results, decisions, opts.DB)

	resultLoop, err := consume.NewLoop(consume.Options{
		Log:               opts.EventLog,
		Topic:             opts.Topics.ResultTopic,
		Group:             opts.Tracker.Group,
		BatchSize:         opts.Topics.BatchSize,
		BlockTimeout:      opts.Topics.BlockTimeout,
		VisibilityTimeout: opts.Topics.VisibilityTimeout,
		ReclaimInterval:   opts.Topics.ReclaimInterval,
		Concurrency:       opts.Tracker.Concurrency,
		Handler:           consume.JSON(tracker.HandleResult),
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	decisionLoop, err := consume.NewLoop(consume.Options{
		Log:               opts.EventLog,
		Topic:             opts.Topics.DecisionTopic,
		Group:             opts.Tracker.Group,
		BatchSize:         opts.Topics.BatchSize,
		BlockTimeout:      opts.Topics.BlockTimeout,
		VisibilityTimeout: opts.Topics.VisibilityTimeout,
		ReclaimInterval:   opts.Topics.ReclaimInterval,
		Concurrency:       opts.Tracker.Concurrency,
		Handler:           consume.JSON(tracker.HandleDecision),
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	return &Runner{
		results:   resultLoop,
		decisions: decisionLoop,
		logger:    logger,
	}, nil
}

// Run starts both consumer loops and blocks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting tracker runner")

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return r.results.Run(gctx) })
	group.Go(func() error { return r.decisions.Run(gctx) })
	return group.Wait()
}
