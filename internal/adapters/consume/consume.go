// Package consume provides the shared consumer-group read loop used by the
// runner adapters: blocking batch reads, handler dispatch, acknowledgement
// policy, and periodic reclaim of entries stranded by crashed consumers.
package consume

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/target/releasegate/internal/errors"
	"github.com/target/releasegate/internal/eventlog"
)

// Handler processes one entry's payload. The returned error drives the
// acknowledgement policy: nil and Validation errors acknowledge (redelivery
// cannot fix a malformed payload, so it is logged and dropped); anything else
// leaves the entry pending for redelivery.
type Handler func(ctx context.Context, payload []byte) error

// Options configures a consumer loop.
type Options struct {
	Log   eventlog.Log
	Topic string
	Group string
	// Consumer is the group-member name; defaults to hostname-pid.
	Consumer string

	BatchSize         int
	BlockTimeout      time.Duration
	VisibilityTimeout time.Duration
	ReclaimInterval   time.Duration
	// Concurrency is the number of reader goroutines; defaults to 1.
	Concurrency int

	Handler Handler
	Logger  *slog.Logger
}

// Loop reads a topic on behalf of one consumer group and dispatches entries
// to the handler.
type Loop struct {
	log      eventlog.Log
	topic    string
	group    string
	consumer string

	batchSize   int
	block       time.Duration
	visibility  time.Duration
	reclaimTick time.Duration
	workers     int

	handler Handler
	logger  *slog.Logger
}

// NewLoop creates a consumer loop from the given options.
func NewLoop(opts Options) (*Loop, error) {
	if opts.Log == nil {
		return nil, fmt.Errorf("event log is required")
	}
	if opts.Handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if opts.Topic == "" || opts.Group == "" {
		return nil, fmt.Errorf("topic and group are required")
	}

	consumer := opts.Consumer
	if consumer == "" {
		host, _ := os.Hostname()
		if host == "" {
			host = "consumer"
		}
		consumer = fmt.Sprintf("%s-%d", host, os.Getpid())
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l := &Loop{
		log:         opts.Log,
		topic:       opts.Topic,
		group:       opts.Group,
		consumer:    consumer,
		batchSize:   opts.BatchSize,
		block:       opts.BlockTimeout,
		visibility:  opts.VisibilityTimeout,
		reclaimTick: opts.ReclaimInterval,
		workers:     opts.Concurrency,
		handler:     opts.Handler,
		logger:      logger.With("topic", opts.Topic, "group", opts.Group),
	}
	if l.batchSize < 1 {
		l.batchSize = 1
	}
	if l.block <= 0 {
		l.block = 5 * time.Second
	}
	if l.workers < 1 {
		l.workers = 1
	}
	return l, nil
}

// Run reads and dispatches until the context is cancelled. Reader goroutines
// share the group; a separate goroutine periodically reclaims entries whose
// visibility timeout elapsed.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.InfoContext(ctx, "starting consumer loop", "consumer", l.consumer, "workers", l.workers)

	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < l.workers; i++ {
		consumer := fmt.Sprintf("%s-%d", l.consumer, i)
		group.Go(func() error { return l.readLoop(gctx, consumer) })
	}
	if l.visibility > 0 && l.reclaimTick > 0 {
		group.Go(func() error { return l.reclaimLoop(gctx) })
	}
	return group.Wait()
}

func (l *Loop) readLoop(ctx context.Context, consumer string) error {
	for ctx.Err() == nil {
		entries, err := l.log.ReadGroup(ctx, eventlog.ReadRequest{
			Topic:    l.topic,
			Group:    l.group,
			Consumer: consumer,
			Count:    l.batchSize,
			Block:    l.block,
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			l.logger.ErrorContext(ctx, "read failed", "consumer", consumer, "error", err)
			if !sleepCtx(ctx, time.Second) {
				break
			}
			continue
		}
		l.dispatch(ctx, consumer, entries)
	}
	return ctx.Err()
}

func (l *Loop) reclaimLoop(ctx context.Context) error {
	ticker := time.NewTicker(l.reclaimTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		entries, err := l.log.Reclaim(ctx, eventlog.ReclaimRequest{
			Topic:    l.topic,
			Group:    l.group,
			Consumer: l.consumer + "-reclaim",
			MinIdle:  l.visibility,
			Count:    l.batchSize,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.ErrorContext(ctx, "reclaim failed", "error", err)
			continue
		}
		if len(entries) > 0 {
			l.logger.InfoContext(ctx, "reclaimed idle entries", "count", len(entries))
		}
		l.dispatch(ctx, l.consumer+"-reclaim", entries)
	}
}

func (l *Loop) dispatch(ctx context.Context, consumer string, entries []eventlog.Entry) {
	for _, entry := range entries {
		err := l.handler(ctx, entry.Payload)
		switch {
		case err == nil:
		case apperrors.IsValidation(err):
			l.logger.WarnContext(ctx, "dropping malformed entry", "entry_id", entry.ID, "error", err)
		default:
			// Left unacknowledged; redelivered after the visibility timeout.
			l.logger.ErrorContext(ctx, "handler failed", "entry_id", entry.ID, "error", err)
			continue
		}
		if ackErr := l.log.Ack(ctx, l.topic, l.group, entry.ID); ackErr != nil {
			l.logger.ErrorContext(ctx, "ack failed", "entry_id", entry.ID, "consumer", consumer, "error", ackErr)
		}
	}
}

// JSON adapts a typed event handler to a raw-payload Handler. Undecodable
// payloads become Validation errors so the loop acknowledges and drops them.
func JSON[E any](handle func(ctx context.Context, event *E) error) Handler {
	return func(ctx context.Context, payload []byte) error {
		var event E
		if err := json.Unmarshal(payload, &event); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeValidation, "decode event")
		}
		return handle(ctx, &event)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
