package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/releasegate/config"
	"github.com/target/releasegate/internal/domain/model"
	apperrors "github.com/target/releasegate/internal/errors"
	"github.com/target/releasegate/internal/eventlog"
	"github.com/target/releasegate/internal/mocks"
)

func ingestTopics() config.EventLogConfig {
	return config.EventLogConfig{
		RequestTopic:  "code_analysis_requested",
		ResultTopic:   "agent_results",
		DecisionTopic: "release_decisions",
	}
}

func readRequestEvents(t *testing.T, log *eventlog.MemoryLog) []model.AnalysisRequestedEvent {
	t.Helper()
	entries, err := log.ReadGroup(context.Background(), eventlog.ReadRequest{
		Topic:    "code_analysis_requested",
		Group:    "test-reader",
		Consumer: "t",
		Count:    100,
	})
	require.NoError(t, err)

	events := make([]model.AnalysisRequestedEvent, 0, len(entries))
	for _, e := range entries {
		var ev model.AnalysisRequestedEvent
		require.NoError(t, json.Unmarshal(e.Payload, &ev))
		events = append(events, ev)
	}
	return events
}

func TestIngestCreateJobPublishesRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	log := eventlog.NewMemoryLog()
	svc := NewIngestService(jobs, log, ingestTopics())

	jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	job, err := svc.CreateJob(context.Background(), &model.CreateJobRequest{
		RepoName:   "payments-api",
		CommitHash: "abc123",
		Author:     "dev@example.com",
		Diff:       "--- a/main.go\n+++ b/main.go\n",
	})
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Equal(t, "main", job.Branch)

	events := readRequestEvents(t, log)
	require.Len(t, events, 1)
	assert.Equal(t, job.ID, events[0].JobID)
	assert.Equal(t, "payments-api", events[0].RepoName)
	assert.Contains(t, events[0].Diff, "main.go")
}

func TestIngestCreateJobDuplicateIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	log := eventlog.NewMemoryLog()
	svc := NewIngestService(jobs, log, ingestTopics())

	existing := &model.Job{
		ID:         "job-1",
		RepoName:   "payments-api",
		CommitHash: "abc123",
		Branch:     "main",
		Author:     "dev@example.com",
		Status:     model.JobStatusProcessing,
		CreatedAt:  time.Now().UTC().Add(-time.Minute),
	}
	jobs.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(apperrors.Conflict("job exists"))
	jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(existing, nil)

	job, err := svc.CreateJob(context.Background(), &model.CreateJobRequest{
		ID:         "job-1",
		RepoName:   "payments-api",
		CommitHash: "abc123",
		Author:     "dev@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, existing.Status, job.Status)

	// The request is still announced so a lost first publish gets retried.
	events := readRequestEvents(t, log)
	require.Len(t, events, 1)
	assert.Equal(t, "job-1", events[0].JobID)
}

func TestIngestCreateJobValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewIngestService(mocks.NewMockJobRepository(ctrl), eventlog.NewMemoryLog(), ingestTopics())

	_, err := svc.CreateJob(context.Background(), &model.CreateJobRequest{
		RepoName: "payments-api",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.CreateJob(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
