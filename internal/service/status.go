package service

import (
	"context"

	"github.com/target/releasegate/internal/core"
	"github.com/target/releasegate/internal/domain/model"
	apperrors "github.com/target/releasegate/internal/errors"
)

// JobStatusView is the combined read model for one job: the lifecycle row,
// every effective reporter result, and the decision once one exists.
type JobStatusView struct {
	Job      *model.Job      `json:"job"`
	Results  []*model.Result `json:"results"`
	Decision *model.Decision `json:"decision,omitempty"`
}

// StatusService serves read-only job status queries.
type StatusService struct {
	jobs      core.JobRepository
	results   core.ResultRepository
	decisions core.DecisionRepository
}

// NewStatusService creates a new StatusService.
func NewStatusService(
	jobs core.JobRepository,
	results core.ResultRepository,
	decisions core.DecisionRepository,
) *StatusService {
	return &StatusService{jobs: jobs, results: results, decisions: decisions}
}

// GetJob returns the full status view for a job. An unknown job yields a
// NotFound error; a job without a decision yet has a nil Decision.
func (s *StatusService) GetJob(ctx context.Context, jobID string) (*JobStatusView, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	results, err := s.results.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	view := &JobStatusView{Job: job, Results: results}

	dec, err := s.decisions.GetByJob(ctx, jobID)
	switch {
	case err == nil:
		view.Decision = dec
	case apperrors.IsNotFound(err):
		// Still collecting.
	default:
		return nil, err
	}
	return view, nil
}
