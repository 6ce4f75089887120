package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"time"

	"github.com/seasonalbox/boxsync/internal/domain/model"
)

const defaultRetryDelaySeconds = 30

// JobRepoConfig holds configuration options for the job repository.
type JobRepoConfig struct {
	RetryDelaySeconds int
	Logger            *slog.Logger
	TimeProvider      TimeProvider
}

// JobRepo provides database operations for the job queue.
type JobRepo struct {
	DB           *sql.DB
	cfg          JobRepoConfig
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database
// connection and configuration.
func NewJobRepo(db *sql.DB, cfg JobRepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &JobRepo{DB: db, cfg: cfg, timeProvider: tp, logger: cfg.Logger}
}

func (r *JobRepo) retryDelay() int {
	if r.cfg.RetryDelaySeconds > 0 {
		return r.cfg.RetryDelaySeconds
	}
	return defaultRetryDelaySeconds
}

const jobColumns = `
  id,
  type,
  status,
  payload,
  session_id,
  scheduled_at,
  started_at,
  completed_at,
  retry_count,
  max_retries,
  last_error,
  result,
  lease_expires_at,
  created_at,
  updated_at
`

// SQL used by ReserveNext to atomically reserve the next job.
const reserveNextSQL = `
  WITH cte AS (
    SELECT id FROM jobs
    WHERE type = $1 AND status = 'pending' AND scheduled_at <= $2
    ORDER BY scheduled_at ASC, created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE jobs j
  SET
    status = 'running',
    started_at = COALESCE(j.started_at, $3),
    lease_expires_at = $4,
    updated_at = $3
  FROM cte
  WHERE j.id = cte.id
  RETURNING j.id, j.type, j.status, j.payload, j.session_id, j.scheduled_at, j.started_at,
    j.completed_at, j.retry_count, j.max_retries, j.last_error, j.result, j.lease_expires_at,
    j.created_at, j.updated_at`

// Create creates a new job in the queue.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	scheduledAt := now
	if req.ScheduledAt != nil {
		scheduledAt = req.ScheduledAt.UTC()
	}

	query := `
		INSERT INTO jobs (type, status, payload, session_id, scheduled_at, max_retries, created_at, updated_at)
		VALUES ($1, 'pending', $2, $3, $4, $5, $6, $6)
		RETURNING ` + jobColumns

	job, err := scanJob(r.DB.QueryRowContext(ctx, query,
		req.Type, []byte(req.Payload), req.SessionID, scheduledAt, req.MaxRetries, now,
	))
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// GetByID retrieves a job by its id.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Advisory lock namespace for requeueExpired so concurrent workers do not
// stampede the same job type.
const requeueLockMajor int32 = 1001

func requeueLockMinor(jobType model.JobType) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(jobType))
	return int32(h.Sum32() & math.MaxInt32)
}

// requeueExpired returns running jobs of the given type whose lease has
// expired to pending, so a crashed worker cannot strand them. Returns the
// number of jobs requeued. Skipping when another worker holds the advisory
// lock is fine; that worker is doing the same sweep.
func (r *JobRepo) requeueExpired(ctx context.Context, jobType model.JobType) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin requeue tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var locked bool
	if err := tx.QueryRowContext(ctx,
		"SELECT pg_try_advisory_xact_lock($1::integer, $2::integer)",
		requeueLockMajor, requeueLockMinor(jobType),
	).Scan(&locked); err != nil {
		return 0, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !locked {
		return 0, tx.Commit()
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'pending', lease_expires_at = NULL
		WHERE type = $1 AND status = 'running'
		  AND lease_expires_at IS NOT NULL
		  AND lease_expires_at < $2
	`, jobType, r.timeProvider.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("requeue expired: %w", err)
	}
	requeued, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit requeue tx: %w", err)
	}
	if requeued > 0 && r.logger != nil {
		r.logger.InfoContext(ctx, "requeued expired jobs", "type", jobType, "count", requeued)
	}
	return requeued, nil
}

// ReserveNext atomically reserves the next pending job of the given type,
// marking it running with a lease. Expired leases of the same type are
// requeued first. Returns model.ErrNoJobsAvailable when nothing is eligible.
func (r *JobRepo) ReserveNext(
	ctx context.Context,
	jobType model.JobType,
	leaseSeconds int,
) (*model.Job, error) {
	if leaseSeconds < 1 {
		leaseSeconds = 1
	}
	if _, err := r.requeueExpired(ctx, jobType); err != nil {
		return nil, fmt.Errorf("requeue expired jobs: %w", err)
	}
	now := r.timeProvider.Now().UTC()
	leaseExpiry := now.Add(time.Duration(leaseSeconds) * time.Second)

	job, err := scanJob(r.DB.QueryRowContext(ctx, reserveNextSQL, jobType, now, now, leaseExpiry))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoJobsAvailable
		}
		return nil, fmt.Errorf("reserve next job: %w", err)
	}
	return job, nil
}

// Heartbeat extends the lease of a running job. Returns false when the job is
// no longer running (completed, failed, or reaped by another worker).
func (r *JobRepo) Heartbeat(ctx context.Context, id string, leaseSeconds int) (bool, error) {
	if leaseSeconds < 1 {
		leaseSeconds = 1
	}
	now := r.timeProvider.Now().UTC()
	leaseExpiry := now.Add(time.Duration(leaseSeconds) * time.Second)

	query := `
		UPDATE jobs
		SET lease_expires_at = $2, updated_at = $3
		WHERE id = $1 AND status = 'running'
		RETURNING id
	`

	var heartbeatID string
	if err := r.DB.QueryRowContext(ctx, query, id, leaseExpiry, now).Scan(&heartbeatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("heartbeat job: %w", err)
	}
	return true, nil
}

// Complete marks a running job as completed, storing its result. Returns
// false when the job was not running (already completed, failed, or reaped).
func (r *JobRepo) Complete(ctx context.Context, id string, result json.RawMessage) (bool, error) {
	now := r.timeProvider.Now().UTC()

	query := `
		UPDATE jobs
		SET status = 'completed',
		    completed_at = $2,
		    updated_at = $2,
		    result = $3,
		    lease_expires_at = NULL,
		    last_error = NULL
		WHERE id = $1 AND status = 'running'
		RETURNING id
	`

	var completedID string
	if err := r.DB.QueryRowContext(ctx, query, id, now, []byte(result)).Scan(&completedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("complete job: %w", err)
	}
	return true, nil
}

// Fail records a failed attempt. The job returns to pending (with a retry
// delay) until its retry budget is exhausted, then lands in failed.
func (r *JobRepo) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	retryScheduledAt := now.Add(time.Duration(r.retryDelay()) * time.Second)

	query := `
		UPDATE jobs
		SET
		  last_error = $2,
		  retry_count = retry_count + 1,
		  status = CASE WHEN retry_count + 1 > max_retries THEN 'failed' ELSE 'pending' END,
		  completed_at = CASE WHEN retry_count + 1 > max_retries THEN $3::timestamptz ELSE NULL END,
		  lease_expires_at = NULL,
		  scheduled_at = CASE WHEN retry_count + 1 > max_retries THEN scheduled_at
		                      ELSE $4::timestamptz END,
		  updated_at = $3
		WHERE id = $1 AND status = 'running'
		RETURNING status
	`

	var status string
	if err := r.DB.QueryRowContext(ctx, query, id, errMsg, now, retryScheduledAt).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("fail job: %w", err)
	}

	if r.logger != nil && status == string(model.JobStatusFailed) {
		r.logger.WarnContext(ctx, "job exhausted retries", "job_id", id, "error", errMsg)
	}
	return true, nil
}

// FailPermanent marks a running job failed immediately, bypassing the retry
// budget. Used for errors a retry cannot fix (rejected requests, unknown job
// types).
func (r *JobRepo) FailPermanent(ctx context.Context, id, errMsg string) (bool, error) {
	now := r.timeProvider.Now().UTC()

	query := `
		UPDATE jobs
		SET status = 'failed',
		    last_error = $2,
		    completed_at = $3,
		    lease_expires_at = NULL,
		    updated_at = $3
		WHERE id = $1 AND status = 'running'
		RETURNING id
	`

	var failedID string
	if err := r.DB.QueryRowContext(ctx, query, id, errMsg, now).Scan(&failedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("fail job permanently: %w", err)
	}

	if r.logger != nil {
		r.logger.WarnContext(ctx, "job failed permanently", "job_id", id, "error", errMsg)
	}
	return true, nil
}

// Stats returns counts of jobs per status for the given type.
func (r *JobRepo) Stats(ctx context.Context, jobType model.JobType) (*model.JobStats, error) {
	query := `
		SELECT
		  COUNT(*) FILTER (WHERE status = 'pending'),
		  COUNT(*) FILTER (WHERE status = 'running'),
		  COUNT(*) FILTER (WHERE status = 'completed'),
		  COUNT(*) FILTER (WHERE status = 'failed')
		FROM jobs WHERE type = $1
	`
	var stats model.JobStats
	if err := r.DB.QueryRowContext(ctx, query, jobType).Scan(
		&stats.Pending, &stats.Running, &stats.Completed, &stats.Failed,
	); err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return &stats, nil
}

func scanJob(row rowScanner) (*model.Job, error) {
	var (
		job       model.Job
		payload   []byte
		result    []byte
		lastError sql.NullString
	)
	err := row.Scan(
		&job.ID,
		&job.Type,
		&job.Status,
		&payload,
		&job.SessionID,
		&job.ScheduledAt,
		&job.StartedAt,
		&job.CompletedAt,
		&job.RetryCount,
		&job.MaxRetries,
		&lastError,
		&result,
		&job.LeaseExpiresAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Payload = json.RawMessage(payload)
	if len(result) > 0 {
		job.Result = json.RawMessage(result)
	}
	if lastError.Valid {
		job.LastError = &lastError.String
	}
	return &job, nil
}
