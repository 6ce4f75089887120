package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seasonalbox/boxsync/internal/core"
	"github.com/seasonalbox/boxsync/internal/domain/model"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo       core.JobRepository // Required
	MaxRetries int                // Default retry budget for enqueued jobs
	Logger     *slog.Logger       // Optional
}

// JobService is the enqueue-side facade over the job queue. The worker
// adapter owns the consume side.
type JobService struct {
	repo       core.JobRepository
	maxRetries int
	logger     *slog.Logger
}

// NewJobService constructs a JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		repo:       opts.Repo,
		maxRetries: opts.MaxRetries,
		logger:     logger.With("component", "job_service"),
	}, nil
}

// MustNewJobService constructs a JobService and panics on error.
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// EnqueueRechargeQuery queues a billing API call for async execution. The
// sessionID, when non-empty, routes completion notices back to the caller's
// realtime session.
func (s *JobService) EnqueueRechargeQuery(
	ctx context.Context,
	q model.RechargeQuery,
	sessionID string,
) (*model.Job, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode query payload: %w", err)
	}

	req := &model.CreateJobRequest{
		Type:       model.JobTypeRechargeQuery,
		Payload:    payload,
		MaxRetries: s.maxRetries,
	}
	if sessionID != "" {
		req.SessionID = &sessionID
	}

	job, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	s.logger.InfoContext(ctx, "job enqueued",
		"job_id", job.ID, "type", job.Type, "method", q.Method, "path", q.Path)
	return job, nil
}

// Enqueue queues a job by name. Names outside the closed job-type set are
// rejected outright so misspelled submissions fail loudly at the boundary
// instead of rotting in the queue.
func (s *JobService) Enqueue(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if req.MaxRetries == 0 {
		req.MaxRetries = s.maxRetries
	}
	job, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "job enqueued", "job_id", job.ID, "type", job.Type)
	return job, nil
}

// EnqueueAt queues a job for execution no earlier than runAt.
func (s *JobService) EnqueueAt(
	ctx context.Context,
	req *model.CreateJobRequest,
	runAt time.Time,
) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	req.ScheduledAt = &runAt
	return s.Enqueue(ctx, req)
}

// Get returns a job by id.
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	return s.repo.GetByID(ctx, id)
}

// Stats returns queue depth counters for the billing query queue.
func (s *JobService) Stats(ctx context.Context) (*model.JobStats, error) {
	return s.repo.Stats(ctx, model.JobTypeRechargeQuery)
}
