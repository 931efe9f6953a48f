// Package data provides the Postgres and Redis repository implementations
// behind the releasegate store ports.
package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/target/releasegate/internal/domain/model"
	apperrors "github.com/target/releasegate/internal/errors"
)

// JobRepo provides database operations for analysis job records.
type JobRepo struct {
	DB *sql.DB
}

// NewJobRepo creates a new JobRepo.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{DB: db}
}

const jobColumns = `
  id,
  repo_name,
  commit_hash,
  commit_message,
  branch,
  author,
  status,
  created_at,
  completed_at
`

// Create inserts a new job row. A duplicate id surfaces as a Conflict error;
// ingress retries treat that as success.
func (r *JobRepo) Create(ctx context.Context, job *model.Job) error {
	if job == nil {
		return errors.New("job is required")
	}
	if !job.Status.Valid() {
		job.Status = model.JobStatusPending
	}

	createdAt := job.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO jobs (id, repo_name, commit_hash, commit_message, branch, author, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, job.ID, job.RepoName, job.CommitHash, job.CommitMessage, job.Branch, job.Author, job.Status, createdAt)
	if err != nil {
		return apperrors.MapDBError(err)
	}

	job.CreatedAt = createdAt
	return nil
}

// GetByID retrieves a job by its id.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

// AdvanceStatus applies the status transition only when the job's current
// status is in fromAllowed, and reports whether a row was updated. Terminal
// transitions stamp completed_at. The conditional WHERE clause is what makes
// replayed and out-of-order events harmless.
func (r *JobRepo) AdvanceStatus(
	ctx context.Context,
	id string,
	fromAllowed []model.JobStatus,
	to model.JobStatus,
) (bool, error) {
	return advanceStatus(ctx, r.DB, id, fromAllowed, to)
}

// AdvanceStatusInTx is the transactional variant of AdvanceStatus, used by
// the tracker to commit a result upsert and its status transition atomically.
func (r *JobRepo) AdvanceStatusInTx(
	ctx context.Context,
	tx *sql.Tx,
	id string,
	fromAllowed []model.JobStatus,
	to model.JobStatus,
) (bool, error) {
	return advanceStatus(ctx, tx, id, fromAllowed, to)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func advanceStatus(
	ctx context.Context,
	ex execer,
	id string,
	fromAllowed []model.JobStatus,
	to model.JobStatus,
) (bool, error) {
	if !to.Valid() {
		return false, apperrors.Validationf("invalid target status: %q", to)
	}
	if len(fromAllowed) == 0 {
		return false, apperrors.Validation("fromAllowed must not be empty")
	}

	from := make([]string, len(fromAllowed))
	for i, s := range fromAllowed {
		if !s.Valid() {
			return false, apperrors.Validationf("invalid source status: %q", s)
		}
		from[i] = string(s)
	}

	res, err := ex.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2,
		    completed_at = CASE WHEN $2 IN ('completed', 'failed') THEN COALESCE(completed_at, now()) ELSE completed_at END
		WHERE id = $1 AND status = ANY($3)
	`, id, to, from)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var job model.Job
	err := row.Scan(
		&job.ID,
		&job.RepoName,
		&job.CommitHash,
		&job.CommitMessage,
		&job.Branch,
		&job.Author,
		&job.Status,
		&job.CreatedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &job, nil
}
