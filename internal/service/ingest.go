// Package service implements the releasegate application services: job
// ingress, lifecycle tracking, arbitration, and status reads. Services depend
// on the core ports and the event log abstraction, never on the concrete
// Postgres/Redis types, so tests can swap in fakes and mocks.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/target/releasegate/config"
	"github.com/target/releasegate/internal/core"
	"github.com/target/releasegate/internal/domain/model"
	apperrors "github.com/target/releasegate/internal/errors"
	"github.com/target/releasegate/internal/eventlog"
)

const (
	publishAttempts = 3
	publishBackoff  = 250 * time.Millisecond
)

// IngestService registers code changes for analysis: it creates the job row
// and announces the job on the request topic.
type IngestService struct {
	jobs   core.JobRepository
	log    eventlog.Log
	topics config.EventLogConfig
	logger *slog.Logger
}

// NewIngestService creates a new IngestService.
func NewIngestService(jobs core.JobRepository, log eventlog.Log, topics config.EventLogConfig) *IngestService {
	return &IngestService{
		jobs:   jobs,
		log:    log,
		topics: topics,
		logger: slog.Default().With("component", "ingest"),
	}
}

// CreateJob creates a job row and publishes the analysis request. Supplying
// the same id twice is idempotent: the duplicate create is tolerated and the
// request is announced again, which at-least-once consumers already handle.
func (s *IngestService) CreateJob(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid job request")
	}

	job := &model.Job{
		ID:            req.ID,
		RepoName:      req.RepoName,
		CommitHash:    req.CommitHash,
		CommitMessage: req.CommitMessage,
		Branch:        req.Branch,
		Author:        req.Author,
		Status:        model.JobStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Branch == "" {
		job.Branch = "main"
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		if !apperrors.IsConflict(err) {
			return nil, err
		}
		existing, getErr := s.jobs.GetByID(ctx, job.ID)
		if getErr != nil {
			return nil, getErr
		}
		job = existing
		s.logger.InfoContext(ctx, "job already registered, republishing request", "job_id", job.ID)
	}

	event := model.AnalysisRequestedEvent{
		JobID:         job.ID,
		RepoName:      job.RepoName,
		CommitHash:    job.CommitHash,
		CommitMessage: job.CommitMessage,
		Diff:          req.Diff,
		Branch:        job.Branch,
		Author:        job.Author,
		Timestamp:     job.CreatedAt,
	}
	if err := publishJSON(ctx, s.log, s.topics.RequestTopic, &event); err != nil {
		return nil, fmt.Errorf("publish analysis request for job %s: %w", job.ID, err)
	}

	s.logger.InfoContext(ctx, "job registered",
		"job_id", job.ID, "repo", job.RepoName, "commit", job.CommitHash)
	return job, nil
}

// publishJSON serializes the event and appends it to the topic, retrying
// transient failures a few times before giving up.
func publishJSON(ctx context.Context, log eventlog.Log, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < publishAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(publishBackoff * time.Duration(attempt)):
			}
		}
		if _, lastErr = log.Publish(ctx, topic, payload); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
