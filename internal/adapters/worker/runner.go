// Package worker pulls queued billing jobs and executes them against the
// billing API, reporting outcomes back to the requester's realtime session.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/seasonalbox/boxsync/config"
	"github.com/seasonalbox/boxsync/internal/adapters/recharge"
	"github.com/seasonalbox/boxsync/internal/core"
	"github.com/seasonalbox/boxsync/internal/domain/model"
	obserrors "github.com/seasonalbox/boxsync/internal/observability/errors"
)

// errLeaseLost means the job's lease expired and the queue requeued it while
// this worker still held it. The next reservation owns the outcome.
var errLeaseLost = errors.New("job lease lost")

// HandlerFunc processes a job and returns a result payload. An error marks the
// attempt failed; retry policy lives in the job repository.
type HandlerFunc func(ctx context.Context, job *model.Job) (json.RawMessage, error)

const defaultPollInterval = 2 * time.Second

// RunnerOptions configures the worker runner.
type RunnerOptions struct {
	Jobs     core.JobRepository
	Billing  core.BillingClient
	Notifier core.SessionNotifier
	Logger   *slog.Logger

	Worker       config.WorkerConfig
	PollInterval time.Duration // how long to sleep when the queue is empty
}

// Runner reserves jobs and executes them with registered handlers.
type Runner struct {
	jobs     core.JobRepository
	billing  core.BillingClient
	notifier core.SessionNotifier
	logger   *slog.Logger

	limiter      *rate.Limiter
	lease        time.Duration
	workers      int
	pollInterval time.Duration
	handlers     map[model.JobType]HandlerFunc
}

// NewRunner wires the worker runner. The recharge_query handler is built in;
// jobs of any other type fail outright rather than lingering in the queue.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Jobs == nil {
		return nil, errors.New("job repository is required")
	}
	if opts.Billing == nil {
		return nil, errors.New("billing client is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lease := opts.Worker.Lease
	if lease <= 0 {
		lease = 60 * time.Second
	}
	workers := opts.Worker.Concurrency
	if workers <= 0 {
		workers = 1
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	perMinute := opts.Worker.RatePerMinute
	if perMinute <= 0 {
		perMinute = 100
	}
	burst := opts.Worker.RateBurst
	if burst <= 0 {
		burst = 1
	}

	r := &Runner{
		jobs:         opts.Jobs,
		billing:      opts.Billing,
		notifier:     opts.Notifier,
		logger:       logger.With("component", "job_worker"),
		limiter:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		lease:        lease,
		workers:      workers,
		pollInterval: poll,
		handlers:     make(map[model.JobType]HandlerFunc),
	}
	r.handlers[model.JobTypeRechargeQuery] = r.handleRechargeQuery
	return r, nil
}

// Run starts worker goroutines and processes jobs until the context is
// cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting job worker",
		"workers", r.workers, "lease", r.lease, "poll_interval", r.pollInterval)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	for range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.workerLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
				select {
				case errCh <- err:
					cancel()
				default:
				}
			}
		}()
	}

	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return ctx.Err()
	}
}

func (r *Runner) workerLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		job, err := r.jobs.ReserveNext(ctx, model.JobTypeRechargeQuery, int(r.lease.Seconds()))
		switch {
		case err == nil:
			if job != nil {
				r.processJob(ctx, job)
			}
		case errors.Is(err, model.ErrNoJobsAvailable):
			if !r.sleep(ctx) {
				return nil
			}
		default:
			return fmt.Errorf("reserve next: %w", err)
		}
	}
	return ctx.Err()
}

func (r *Runner) sleep(ctx context.Context) bool {
	timer := time.NewTimer(r.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (r *Runner) processJob(ctx context.Context, job *model.Job) {
	r.emit(ctx, job, "progress", map[string]any{
		"job_id": job.ID,
		"status": string(model.JobStatusRunning),
	})

	h, ok := r.handlers[job.Type]
	if !ok {
		err := fmt.Errorf("no handler for job type %s", job.Type)
		r.logger.WarnContext(ctx, "job attempt failed",
			"job_id", job.ID,
			"error_class", obserrors.Classify(err),
			"error", err)
		r.failPermanent(ctx, job, err)
		return
	}

	result, err := h(ctx, job)
	if err != nil {
		if errors.Is(err, errLeaseLost) {
			r.logger.WarnContext(ctx, "job lease lost before execution", "job_id", job.ID)
			return
		}
		r.fail(ctx, job, err)
		return
	}

	completed, err := r.jobs.Complete(ctx, job.ID, result)
	if err != nil {
		r.logger.ErrorContext(ctx, "complete job error", "job_id", job.ID, "error", err)
		return
	}
	if !completed {
		// Lease was reaped mid-flight; another attempt owns the outcome.
		r.logger.WarnContext(ctx, "job no longer running at completion", "job_id", job.ID)
		return
	}
	r.emit(ctx, job, "completed", map[string]any{
		"job_id": job.ID,
		"result": result,
	})
	r.emit(ctx, job, "finished", map[string]any{"job_id": job.ID})
}

func (r *Runner) fail(ctx context.Context, job *model.Job, jobErr error) {
	r.logger.WarnContext(ctx, "job attempt failed",
		"job_id", job.ID,
		"retry_count", job.RetryCount,
		"error_class", obserrors.Classify(jobErr),
		"error", jobErr)

	// A rejected billing request (4xx other than 429) will be rejected again
	// on every retry; fail it now instead of burning the budget.
	var apiErr *recharge.APIError
	if errors.As(jobErr, &apiErr) && !apiErr.Retryable() {
		r.failPermanent(ctx, job, jobErr)
		return
	}

	failed, err := r.jobs.Fail(ctx, job.ID, jobErr.Error())
	if err != nil {
		r.logger.ErrorContext(ctx, "fail job error", "job_id", job.ID, "error", err, "original_error", jobErr)
		return
	}
	if !failed {
		return
	}
	// Only announce failure once the retry budget is spent.
	if job.RetryCount >= job.MaxRetries {
		r.emit(ctx, job, "failed", map[string]any{
			"job_id": job.ID,
			"error":  jobErr.Error(),
		})
		r.emit(ctx, job, "finished", map[string]any{"job_id": job.ID})
	}
}

func (r *Runner) failPermanent(ctx context.Context, job *model.Job, jobErr error) {
	failed, err := r.jobs.FailPermanent(ctx, job.ID, jobErr.Error())
	if err != nil {
		r.logger.ErrorContext(ctx, "fail job error", "job_id", job.ID, "error", err, "original_error", jobErr)
		return
	}
	if !failed {
		return
	}
	r.emit(ctx, job, "failed", map[string]any{
		"job_id": job.ID,
		"error":  jobErr.Error(),
	})
	r.emit(ctx, job, "finished", map[string]any{"job_id": job.ID})
}

func (r *Runner) emit(ctx context.Context, job *model.Job, event string, payload any) {
	if r.notifier == nil || job.SessionID == nil || *job.SessionID == "" {
		return
	}
	if err := r.notifier.Emit(ctx, *job.SessionID, event, payload); err != nil {
		r.logger.ErrorContext(ctx, "emit session notice", "job_id", job.ID, "event", event, "error", err)
	}
}

// handleRechargeQuery decodes the job payload and executes the billing call
// behind the shared rate limiter.
func (r *Runner) handleRechargeQuery(ctx context.Context, job *model.Job) (json.RawMessage, error) {
	var q model.RechargeQuery
	if err := json.Unmarshal(job.Payload, &q); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	// The limiter wait can consume most of the lease; extend it before the
	// billing call so the queue does not hand the job to another worker.
	alive, err := r.jobs.Heartbeat(ctx, job.ID, int(r.lease.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("extend lease: %w", err)
	}
	if !alive {
		return nil, errLeaseLost
	}

	out, err := r.billing.Do(ctx, q)
	if err != nil {
		return nil, err
	}
	return out, nil
}
