package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/releasegate/internal/domain/model"
	apperrors "github.com/target/releasegate/internal/errors"
	"github.com/target/releasegate/internal/testutil"
)

func newTestJob() *model.Job {
	return &model.Job{
		ID:         uuid.NewString(),
		RepoName:   "payments-api",
		CommitHash: "abc123",
		Branch:     "main",
		Author:     "dev@example.com",
		Status:     model.JobStatusPending,
	}
}

func TestJobRepoCreateAndGet(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		job := newTestJob()
		require.NoError(t, repo.Create(ctx, job))
		assert.False(t, job.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, model.JobStatusPending, got.Status)
		assert.Nil(t, got.CompletedAt)

		_, err = repo.GetByID(ctx, uuid.NewString())
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestJobRepoCreateDuplicateConflicts(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		job := newTestJob()
		require.NoError(t, repo.Create(ctx, job))

		err := repo.Create(ctx, job)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestJobRepoAdvanceStatusIsMonotone(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		job := newTestJob()
		require.NoError(t, repo.Create(ctx, job))

		applied, err := repo.AdvanceStatus(ctx, job.ID,
			[]model.JobStatus{model.JobStatusPending}, model.JobStatusProcessing)
		require.NoError(t, err)
		assert.True(t, applied)

		// Replay of the same transition finds no matching row.
		applied, err = repo.AdvanceStatus(ctx, job.ID,
			[]model.JobStatus{model.JobStatusPending}, model.JobStatusProcessing)
		require.NoError(t, err)
		assert.False(t, applied)

		applied, err = repo.AdvanceStatus(ctx, job.ID,
			[]model.JobStatus{model.JobStatusPending, model.JobStatusProcessing}, model.JobStatusCompleted)
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
		firstCompletion := *got.CompletedAt

		// A late result event must not drag the job back to processing, and
		// a replayed decision must not move completed_at.
		applied, err = repo.AdvanceStatus(ctx, job.ID,
			[]model.JobStatus{model.JobStatusPending}, model.JobStatusProcessing)
		require.NoError(t, err)
		assert.False(t, applied)

		got, err = repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
		assert.Equal(t, firstCompletion, *got.CompletedAt)
	})
}

func TestJobRepoAdvanceStatusValidatesInput(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		_, err := repo.AdvanceStatus(ctx, uuid.NewString(), nil, model.JobStatusProcessing)
		assert.True(t, apperrors.IsValidation(err))

		_, err = repo.AdvanceStatus(ctx, uuid.NewString(),
			[]model.JobStatus{model.JobStatusPending}, model.JobStatus("limbo"))
		assert.True(t, apperrors.IsValidation(err))
	})
}
