package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/releasegate/internal/domain/model"
	apperrors "github.com/target/releasegate/internal/errors"
	"github.com/target/releasegate/internal/mocks"
)

func resultEvent(jobID, reporter string) *model.ResultEvent {
	return &model.ResultEvent{
		JobID:      jobID,
		Reporter:   reporter,
		Verdict:    model.VerdictApprove,
		Confidence: 0.9,
		Timestamp:  time.Now().UTC(),
	}
}

func TestTrackerHandleResultAdvancesPendingJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	results := mocks.NewMockResultRepository(ctrl)
	decisions := mocks.NewMockDecisionRepository(ctrl)
	svc := NewTrackerService(jobs, results, decisions, nil)

	results.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(true, nil)
	jobs.EXPECT().
		AdvanceStatus(gomock.Any(), "job-1", []model.JobStatus{model.JobStatusPending}, model.JobStatusProcessing).
		Return(true, nil)

	err := svc.HandleResult(context.Background(), resultEvent("job-1", "security"))
	require.NoError(t, err)
}

func TestTrackerHandleResultDuplicateStillSafe(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	results := mocks.NewMockResultRepository(ctrl)
	decisions := mocks.NewMockDecisionRepository(ctrl)
	svc := NewTrackerService(jobs, results, decisions, nil)

	// Redelivered event: upsert reports no fresh insert and the job already
	// left pending, so the conditional update applies nothing.
	results.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(false, nil)
	jobs.EXPECT().
		AdvanceStatus(gomock.Any(), "job-1", gomock.Any(), model.JobStatusProcessing).
		Return(false, nil)

	err := svc.HandleResult(context.Background(), resultEvent("job-1", "security"))
	require.NoError(t, err)
}

func TestTrackerHandleResultInvalidEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewTrackerService(
		mocks.NewMockJobRepository(ctrl),
		mocks.NewMockResultRepository(ctrl),
		mocks.NewMockDecisionRepository(ctrl),
		nil,
	)

	err := svc.HandleResult(context.Background(), &model.ResultEvent{JobID: "job-1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestTrackerHandleResultUnknownJobPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	results := mocks.NewMockResultRepository(ctrl)
	decisions := mocks.NewMockDecisionRepository(ctrl)
	svc := NewTrackerService(jobs, results, decisions, nil)

	// The result raced the job insert; the error must not be a validation
	// error so the event stays unacknowledged and redelivers.
	fkErr := &apperrors.AppError{Code: apperrors.ErrCodeForeignKey, Message: "job missing"}
	results.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(false, fkErr)

	err := svc.HandleResult(context.Background(), resultEvent("job-x", "intent"))
	require.Error(t, err)
	assert.False(t, apperrors.IsValidation(err))
	assert.True(t, apperrors.IsForeignKey(err))
}

func TestTrackerHandleDecisionCompletesJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	results := mocks.NewMockResultRepository(ctrl)
	decisions := mocks.NewMockDecisionRepository(ctrl)
	svc := NewTrackerService(jobs, results, decisions, nil)

	decisions.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
	jobs.EXPECT().
		AdvanceStatus(gomock.Any(), "job-1",
			[]model.JobStatus{model.JobStatusPending, model.JobStatusProcessing},
			model.JobStatusCompleted).
		Return(true, nil)

	err := svc.HandleDecision(context.Background(), &model.DecisionEvent{
		JobID:     "job-1",
		Verdict:   model.VerdictApprove,
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestTrackerHandleDecisionReplayIgnoresConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	results := mocks.NewMockResultRepository(ctrl)
	decisions := mocks.NewMockDecisionRepository(ctrl)
	svc := NewTrackerService(jobs, results, decisions, nil)

	decisions.EXPECT().Record(gomock.Any(), gomock.Any()).
		Return(apperrors.Conflict("decision exists"))
	jobs.EXPECT().
		AdvanceStatus(gomock.Any(), "job-1", gomock.Any(), model.JobStatusCompleted).
		Return(false, nil)

	err := svc.HandleDecision(context.Background(), &model.DecisionEvent{
		JobID:   "job-1",
		Verdict: model.VerdictWarn,
	})
	require.NoError(t, err)
}

func TestTrackerHandleDecisionInvalidVerdict(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewTrackerService(
		mocks.NewMockJobRepository(ctrl),
		mocks.NewMockResultRepository(ctrl),
		mocks.NewMockDecisionRepository(ctrl),
		nil,
	)

	err := svc.HandleDecision(context.Background(), &model.DecisionEvent{
		JobID:   "job-1",
		Verdict: model.Verdict("maybe"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
