package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/releasegate/internal/domain/model"
	apperrors "github.com/target/releasegate/internal/errors"
)

// AggregateRepo implements the shared partial-aggregate store on Redis.
//
// Layout per job:
//
//	agg:<job>:results   hash  reporter -> result JSON (HSETNX, first write wins)
//	agg:<job>:anchor    string RFC3339Nano first-result arrival time (SETNX)
//	agg:<job>:resolved  string "1" once resolved (advisory)
//	agg:active          zset  job id scored by anchor unix time (sweep index)
//
// Correctness does not depend on this store being exact: the decisions
// table's uniqueness constraint is what guarantees a single decision. The
// aggregate store only has to be idempotent under duplicate merges and
// visible to every arbiter instance, which HSETNX/SETNX give us.
type AggregateRepo struct {
	client redis.UniversalClient
	prefix string
	// retireTTL bounds how long resolved aggregate keys linger for debugging.
	retireTTL time.Duration
}

// NewAggregateRepo creates a Redis-backed aggregate repository.
func NewAggregateRepo(client redis.UniversalClient) *AggregateRepo {
	return &AggregateRepo{
		client:    client,
		prefix:    "agg:",
		retireTTL: 24 * time.Hour,
	}
}

func (r *AggregateRepo) resultsKey(jobID string) string  { return r.prefix + jobID + ":results" }
func (r *AggregateRepo) anchorKey(jobID string) string   { return r.prefix + jobID + ":anchor" }
func (r *AggregateRepo) resolvedKey(jobID string) string { return r.prefix + jobID + ":resolved" }
func (r *AggregateRepo) activeKey() string               { return r.prefix + "active" }

// Merge idempotently merges the result into the job's aggregate and returns
// the post-merge snapshot. The first merge for a job also anchors its
// timeout and registers the job in the sweep index; both writes are NX so
// concurrent instances agree on the anchor.
func (r *AggregateRepo) Merge(ctx context.Context, res *model.Result) (*model.Aggregate, error) {
	if res == nil {
		return nil, errors.New("result is required")
	}

	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	now := time.Now().UTC()
	pipe := r.client.Pipeline()
	pipe.HSetNX(ctx, r.resultsKey(res.JobID), res.Reporter, data)
	pipe.SetNX(ctx, r.anchorKey(res.JobID), now.Format(time.RFC3339Nano), 0)
	pipe.ZAddNX(ctx, r.activeKey(), redis.Z{Score: float64(now.Unix()), Member: res.JobID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "merge aggregate for job %s", res.JobID)
	}

	return r.Snapshot(ctx, res.JobID)
}

// Snapshot returns the current aggregate state for a job. A job with no
// merged results yields a NotFound error.
func (r *AggregateRepo) Snapshot(ctx context.Context, jobID string) (*model.Aggregate, error) {
	pipe := r.client.Pipeline()
	resultsCmd := pipe.HGetAll(ctx, r.resultsKey(jobID))
	anchorCmd := pipe.Get(ctx, r.anchorKey(jobID))
	resolvedCmd := pipe.Exists(ctx, r.resolvedKey(jobID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "snapshot aggregate for job %s", jobID)
	}

	raw := resultsCmd.Val()
	if len(raw) == 0 {
		return nil, apperrors.NotFoundf("no aggregate for job %s", jobID)
	}

	agg := &model.Aggregate{
		JobID:    jobID,
		Results:  make(map[string]model.Result, len(raw)),
		Resolved: resolvedCmd.Val() > 0,
	}
	for reporter, data := range raw {
		var res model.Result
		if err := json.Unmarshal([]byte(data), &res); err != nil {
			return nil, fmt.Errorf("unmarshal result for reporter %s: %w", reporter, err)
		}
		agg.Results[reporter] = res
	}

	if anchor := anchorCmd.Val(); anchor != "" {
		t, err := time.Parse(time.RFC3339Nano, anchor)
		if err != nil {
			return nil, fmt.Errorf("parse anchor for job %s: %w", jobID, err)
		}
		agg.AnchoredAt = t
	}

	return agg, nil
}

// MarkResolved flags the aggregate so other instances can short-circuit.
func (r *AggregateRepo) MarkResolved(ctx context.Context, jobID string) error {
	if err := r.client.Set(ctx, r.resolvedKey(jobID), "1", r.retireTTL).Err(); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "mark resolved for job %s", jobID)
	}
	return nil
}

// DueJobs returns ids of jobs anchored before the cutoff, oldest first.
func (r *AggregateRepo) DueJobs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	ids, err := r.client.ZRangeByScore(ctx, r.activeKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(cutoff.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "list due jobs")
	}
	return ids, nil
}

// Retire drops the job from the sweep index and lets its keys expire.
func (r *AggregateRepo) Retire(ctx context.Context, jobID string) error {
	pipe := r.client.Pipeline()
	pipe.ZRem(ctx, r.activeKey(), jobID)
	pipe.Expire(ctx, r.resultsKey(jobID), r.retireTTL)
	pipe.Expire(ctx, r.anchorKey(jobID), r.retireTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "retire aggregate for job %s", jobID)
	}
	return nil
}
