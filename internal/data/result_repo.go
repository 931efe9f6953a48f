package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/target/releasegate/internal/domain/model"
	apperrors "github.com/target/releasegate/internal/errors"
)

// ResultRepo provides database operations for reporter result records.
type ResultRepo struct {
	DB *sql.DB
}

// NewResultRepo creates a new ResultRepo.
func NewResultRepo(db *sql.DB) *ResultRepo {
	return &ResultRepo{DB: db}
}

// Redelivered result events must never double-count, so the upsert keeps the
// first row's verdict and only bumps updated_at on conflict (first-write
// wins, matching the aggregate store's merge policy). The DO UPDATE arm
// exists so RETURNING yields a row either way; xmax = 0 distinguishes a
// fresh insert from a conflict.
const upsertResultSQL = `
	INSERT INTO results (job_id, reporter, verdict, confidence, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (job_id, reporter) DO UPDATE SET updated_at = now()
	RETURNING (xmax = 0) AS inserted
`

// Upsert inserts or acknowledges the row keyed by (job, reporter) and
// reports whether this call caused the first insert for that key.
func (r *ResultRepo) Upsert(ctx context.Context, res *model.Result) (bool, error) {
	return upsertResult(ctx, r.DB, res)
}

// UpsertInTx is the transactional variant of Upsert.
func (r *ResultRepo) UpsertInTx(ctx context.Context, tx *sql.Tx, res *model.Result) (bool, error) {
	return upsertResult(ctx, tx, res)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsertResult(ctx context.Context, q queryRower, res *model.Result) (bool, error) {
	if res == nil {
		return false, errors.New("result is required")
	}

	payload := res.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var inserted bool
	err := q.QueryRowContext(ctx, upsertResultSQL,
		res.JobID, res.Reporter, res.Verdict, res.Confidence, []byte(payload), createdAt,
	).Scan(&inserted)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return inserted, nil
}

// ListByJob returns all effective results for a job ordered by reporter name.
func (r *ResultRepo) ListByJob(ctx context.Context, jobID string) ([]*model.Result, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT job_id, reporter, verdict, confidence, payload, created_at
		FROM results
		WHERE job_id = $1
		ORDER BY reporter
	`, jobID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []*model.Result
	for rows.Next() {
		var res model.Result
		if scanErr := rows.Scan(
			&res.JobID, &res.Reporter, &res.Verdict, &res.Confidence, &res.Payload, &res.CreatedAt,
		); scanErr != nil {
			return nil, apperrors.MapDBError(scanErr)
		}
		results = append(results, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return results, nil
}
