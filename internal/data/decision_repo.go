package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/target/releasegate/internal/domain/model"
	apperrors "github.com/target/releasegate/internal/errors"
)

// DecisionRepo provides database operations for release decision records.
// The primary key on decisions.job_id is the system's distributed
// mutual-exclusion point: whichever arbiter instance inserts first wins, and
// every other instance observes a Conflict error.
type DecisionRepo struct {
	DB *sql.DB
}

// NewDecisionRepo creates a new DecisionRepo.
func NewDecisionRepo(db *sql.DB) *DecisionRepo {
	return &DecisionRepo{DB: db}
}

// Record inserts the decision for a job. A decision that already exists
// surfaces as a Conflict error; callers treat that as success-no-op.
func (r *DecisionRepo) Record(ctx context.Context, dec *model.Decision) error {
	if dec == nil {
		return errors.New("decision is required")
	}

	summary, err := json.Marshal(dec.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	missing, err := json.Marshal(dec.Missing)
	if err != nil {
		return fmt.Errorf("marshal missing: %w", err)
	}
	createdAt := dec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO decisions (job_id, verdict, explanation, summary, missing, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, dec.JobID, dec.Verdict, dec.Explanation, summary, missing, dec.Score, createdAt)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// GetByJob retrieves the decision for a job, or a NotFound error.
func (r *DecisionRepo) GetByJob(ctx context.Context, jobID string) (*model.Decision, error) {
	var (
		dec     model.Decision
		summary []byte
		missing []byte
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT job_id, verdict, explanation, summary, missing, score, created_at
		FROM decisions
		WHERE job_id = $1
	`, jobID).Scan(&dec.JobID, &dec.Verdict, &dec.Explanation, &summary, &missing, &dec.Score, &dec.CreatedAt)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	if err := json.Unmarshal(summary, &dec.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if len(missing) > 0 {
		if err := json.Unmarshal(missing, &dec.Missing); err != nil {
			return nil, fmt.Errorf("unmarshal missing: %w", err)
		}
	}
	return &dec, nil
}
