package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/releasegate/internal/domain/model"
	apperrors "github.com/target/releasegate/internal/errors"
	"github.com/target/releasegate/internal/testutil"
)

func TestResultRepoUpsertFirstWriteWins(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs := NewJobRepo(db)
		results := NewResultRepo(db)

		job := newTestJob()
		require.NoError(t, jobs.Create(ctx, job))

		first := &model.Result{
			JobID:      job.ID,
			Reporter:   "security",
			Verdict:    model.VerdictApprove,
			Confidence: 0.9,
			Payload:    json.RawMessage(`{"findings":0}`),
		}
		inserted, err := results.Upsert(ctx, first)
		require.NoError(t, err)
		assert.True(t, inserted)

		// A redelivered (or even conflicting) second write changes nothing.
		second := &model.Result{
			JobID:      job.ID,
			Reporter:   "security",
			Verdict:    model.VerdictReject,
			Confidence: 0.1,
		}
		inserted, err = results.Upsert(ctx, second)
		require.NoError(t, err)
		assert.False(t, inserted)

		stored, err := results.ListByJob(ctx, job.ID)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, model.VerdictApprove, stored[0].Verdict)
		assert.InDelta(t, 0.9, stored[0].Confidence, 1e-9)
	})
}

func TestResultRepoUpsertUnknownJobIsForeignKey(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		results := NewResultRepo(db)

		_, err := results.Upsert(context.Background(), &model.Result{
			JobID:      uuid.NewString(),
			Reporter:   "security",
			Verdict:    model.VerdictApprove,
			Confidence: 0.9,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsForeignKey(err))
	})
}

func TestResultRepoListByJobOrdersByReporter(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		jobs := NewJobRepo(db)
		results := NewResultRepo(db)

		job := newTestJob()
		require.NoError(t, jobs.Create(ctx, job))

		for _, reporter := range []string{"test", "diff", "security"} {
			_, err := results.Upsert(ctx, &model.Result{
				JobID:      job.ID,
				Reporter:   reporter,
				Verdict:    model.VerdictApprove,
				Confidence: 0.5,
			})
			require.NoError(t, err)
		}

		stored, err := results.ListByJob(ctx, job.ID)
		require.NoError(t, err)
		require.Len(t, stored, 3)
		assert.Equal(t, "diff", stored[0].Reporter)
		assert.Equal(t, "security", stored[1].Reporter)
		assert.Equal(t, "test", stored[2].Reporter)

		empty, err := results.ListByJob(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
