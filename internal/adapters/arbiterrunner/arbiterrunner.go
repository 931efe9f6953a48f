// Package arbiterrunner runs the arbitration engine: a consumer loop on the
// result topic plus a periodic sweeper that resolves timed-out jobs.
package arbiterrunner

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/releasegate/config"
	"github.com/target/releasegate/internal/adapters/consume"
	"github.com/target/releasegate/internal/core"
	"github.com/target/releasegate/internal/data"
	"github.com/target/releasegate/internal/eventlog"
	"github.com/target/releasegate/internal/service"
)

// RunnerOptions configures the arbiter runner adapter.
type RunnerOptions struct {
	DB          *sql.DB
	RedisClient redis.UniversalClient
	EventLog    eventlog.Log
	Logger      *slog.Logger

	Topics  config.EventLogConfig
	Arbiter config.ArbiterConfig

	// Optional dependency injections (useful for tests/decoupling)
	AggregatesRepo core.AggregateRepository
	DecisionsRepo  core.DecisionRepository
}

// Runner consumes result events, reduces them to decisions, and sweeps
// timed-out jobs.
type Runner struct {
	results       *consume.Loop
	arbiter       *service.ArbiterService
	sweepInterval time.Duration
	logger        *slog.Logger
}

// NewRunner creates a new arbiter runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.EventLog == nil {
		return nil, errors.New("event log is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	aggregates := opts.AggregatesRepo
	if aggregates == nil {
		if opts.RedisClient == nil {
			return nil, errors.New("arbiter runner requires a Redis client or an explicit AggregateRepository")
		}
		aggregates = data.NewAggregateRepo(opts.RedisClient)
	}
	decisions := opts.DecisionsRepo
	if decisions == nil {
		if opts.DB == nil {
			return nil, errors.New("arbiter runner requires a DB handle or an explicit DecisionRepository")
		}
		decisions = data.NewDecisionRepo(opts.DB)
	}

	arbiter := service.NewArbiterService(aggregates, decisions, opts.EventLog, opts.Topics, opts.Arbiter)

	resultLoop, err := consume.NewLoop(consume.Options{
		Log:               opts.EventLog,
		Topic:             opts.Topics.ResultTopic,
		Group:             opts.Arbiter.Group,
		BatchSize:         opts.Topics.BatchSize,
		BlockTimeout:      opts.Topics.BlockTimeout,
		VisibilityTimeout: opts.Topics.VisibilityTimeout,
		ReclaimInterval:   opts.Topics.ReclaimInterval,
		Concurrency:       opts.Arbiter.Concurrency,
		Handler:           consume.JSON(arbiter.HandleResult),
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	return &Runner{
		results:       resultLoop,
		arbiter:       arbiter,
		sweepInterval: opts.Arbiter.SweepInterval,
		logger:        logger,
	}, nil
}

// Run starts the consumer loop and the sweeper and blocks until the context
// is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting arbiter runner", "sweep_interval", r.sweepInterval)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return r.results.Run(gctx) })
	group.Go(func() error { return r.sweepLoop(gctx) })
	return group.Wait()
}

func (r *Runner) sweepLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := r.arbiter.Sweep(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Transient store failures retry on the next tick.
			r.logger.ErrorContext(ctx, "sweep failed", "error", err)
		}
	}
}
