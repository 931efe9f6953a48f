package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisRequestedEventValidate(t *testing.T) {
	valid := AnalysisRequestedEvent{
		JobID:      "job-1",
		RepoName:   "payments-api",
		CommitHash: "abc123",
		Author:     "dev@example.com",
	}
	require.NoError(t, valid.Validate())

	missingJob := valid
	missingJob.JobID = "  "
	assert.Error(t, missingJob.Validate())

	missingRepo := valid
	missingRepo.RepoName = ""
	assert.Error(t, missingRepo.Validate())
}

func TestResultEventValidate(t *testing.T) {
	valid := ResultEvent{
		JobID:      "job-1",
		Reporter:   "security",
		Verdict:    VerdictApprove,
		Confidence: 0.85,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*ResultEvent)
	}{
		{"missing job id", func(e *ResultEvent) { e.JobID = "" }},
		{"missing reporter", func(e *ResultEvent) { e.Reporter = " " }},
		{"unknown verdict", func(e *ResultEvent) { e.Verdict = "maybe" }},
		{"confidence below range", func(e *ResultEvent) { e.Confidence = -0.1 }},
		{"confidence above range", func(e *ResultEvent) { e.Confidence = 1.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := valid
			tt.mutate(&ev)
			assert.Error(t, ev.Validate())
		})
	}
}

func TestResultEventConversion(t *testing.T) {
	now := time.Now().UTC()
	ev := ResultEvent{
		JobID:      "job-1",
		Reporter:   "security",
		Verdict:    VerdictWarn,
		Confidence: 0.6,
		Payload:    json.RawMessage(`{"findings":2}`),
		Timestamp:  now,
	}

	res := ev.Result()
	assert.Equal(t, "job-1", res.JobID)
	assert.Equal(t, "security", res.Reporter)
	assert.Equal(t, VerdictWarn, res.Verdict)
	assert.InDelta(t, 0.6, res.Confidence, 1e-9)
	assert.JSONEq(t, `{"findings":2}`, string(res.Payload))
	assert.Equal(t, now, res.CreatedAt)
}

func TestDecisionEventValidateAndConversion(t *testing.T) {
	ev := DecisionEvent{
		JobID:       "job-1",
		Verdict:     VerdictReject,
		Explanation: "blocked",
		Summary:     []ResultSummary{{Reporter: "security", Verdict: VerdictReject, Confidence: 0.9}},
		Missing:     []string{"diff"},
		Score:       0.1,
	}
	require.NoError(t, ev.Validate())

	dec := ev.Decision()
	assert.Equal(t, ev.JobID, dec.JobID)
	assert.Equal(t, ev.Verdict, dec.Verdict)
	assert.Equal(t, ev.Summary, dec.Summary)
	assert.Equal(t, ev.Missing, dec.Missing)

	invalid := ev
	invalid.Verdict = ""
	assert.Error(t, invalid.Validate())
}

func TestJobStatusTransitionsAndParsing(t *testing.T) {
	assert.True(t, JobStatusPending.Valid())
	assert.False(t, JobStatus("limbo").Valid())

	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())

	var s JobStatus
	require.NoError(t, s.UnmarshalText([]byte(" Processing ")))
	assert.Equal(t, JobStatusProcessing, s)
	assert.Error(t, s.UnmarshalText([]byte("nope")))
}

func TestVerdictParsing(t *testing.T) {
	var v Verdict
	require.NoError(t, v.UnmarshalText([]byte("APPROVE")))
	assert.Equal(t, VerdictApprove, v)
	assert.Error(t, v.UnmarshalText([]byte("ship it")))
}

func TestAggregateHasAllAndMissing(t *testing.T) {
	agg := &Aggregate{
		JobID: "job-1",
		Results: map[string]Result{
			"security": {Reporter: "security"},
			"intent":   {Reporter: "intent"},
		},
	}

	assert.True(t, agg.HasAll([]string{"security", "intent"}))
	assert.False(t, agg.HasAll([]string{"security", "intent", "test"}))
	// An empty expected set never counts as complete.
	assert.False(t, agg.HasAll(nil))

	assert.Equal(t, []string{"test", "diff"}, agg.MissingFrom([]string{"security", "test", "diff"}))
	assert.Empty(t, agg.MissingFrom([]string{"security", "intent"}))
}

func TestCreateJobRequestValidate(t *testing.T) {
	valid := CreateJobRequest{
		RepoName:   "payments-api",
		CommitHash: "abc123",
		Author:     "dev@example.com",
	}
	require.NoError(t, valid.Validate())

	for _, mutate := range []func(*CreateJobRequest){
		func(r *CreateJobRequest) { r.RepoName = "" },
		func(r *CreateJobRequest) { r.CommitHash = " " },
		func(r *CreateJobRequest) { r.Author = "" },
	} {
		req := valid
		mutate(&req)
		assert.Error(t, req.Validate())
	}
}
