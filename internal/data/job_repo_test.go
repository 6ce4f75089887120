package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seasonalbox/boxsync/internal/domain/model"
	"github.com/seasonalbox/boxsync/internal/testutil"
)

func newTestJobRepo(t *testing.T, clock TimeProvider) *JobRepo {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewJobRepo(db, JobRepoConfig{RetryDelaySeconds: 30, TimeProvider: clock})
}

func createQueryJob(t *testing.T, repo *JobRepo, maxRetries int) *model.Job {
	t.Helper()
	job, err := repo.Create(context.Background(), &model.CreateJobRequest{
		Type:       model.JobTypeRechargeQuery,
		Payload:    json.RawMessage(`{"method":"GET","path":"/subscriptions/1"}`),
		MaxRetries: maxRetries,
	})
	require.NoError(t, err)
	return job
}

func TestJobReserveNextRequeuesExpiredLease(t *testing.T) {
	clock := NewFixedTimeProvider(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	repo := newTestJobRepo(t, clock)
	ctx := context.Background()

	created := createQueryJob(t, repo, 2)

	first, err := repo.ReserveNext(ctx, model.JobTypeRechargeQuery, 5)
	require.NoError(t, err)
	assert.Equal(t, created.ID, first.ID)
	assert.Equal(t, model.JobStatusRunning, first.Status)

	// Lease still live: nothing else to hand out.
	_, err = repo.ReserveNext(ctx, model.JobTypeRechargeQuery, 5)
	assert.ErrorIs(t, err, model.ErrNoJobsAvailable)

	// Past the lease, the stranded job is requeued and reservable again.
	clock.AddTime(10 * time.Second)
	second, err := repo.ReserveNext(ctx, model.JobTypeRechargeQuery, 5)
	require.NoError(t, err)
	assert.Equal(t, created.ID, second.ID)
	assert.Equal(t, model.JobStatusRunning, second.Status)
}

func TestJobHeartbeatExtendsLease(t *testing.T) {
	clock := NewFixedTimeProvider(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	repo := newTestJobRepo(t, clock)
	ctx := context.Background()

	createQueryJob(t, repo, 0)
	job, err := repo.ReserveNext(ctx, model.JobTypeRechargeQuery, 5)
	require.NoError(t, err)

	clock.AddTime(4 * time.Second)
	alive, err := repo.Heartbeat(ctx, job.ID, 10)
	require.NoError(t, err)
	assert.True(t, alive)

	// 12s after reservation the original lease is long gone, but the
	// heartbeat moved expiry to 14s; the job must not be requeued.
	clock.AddTime(8 * time.Second)
	_, err = repo.ReserveNext(ctx, model.JobTypeRechargeQuery, 5)
	assert.ErrorIs(t, err, model.ErrNoJobsAvailable)

	// A completed job answers heartbeats with false.
	done, err := repo.Complete(ctx, job.ID, json.RawMessage(`{}`))
	require.NoError(t, err)
	require.True(t, done)
	alive, err = repo.Heartbeat(ctx, job.ID, 10)
	require.NoError(t, err)
	assert.False(t, alive)
}

func TestJobFailReturnsToPendingUntilBudgetSpent(t *testing.T) {
	clock := NewFixedTimeProvider(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	repo := newTestJobRepo(t, clock)
	ctx := context.Background()

	created := createQueryJob(t, repo, 1)

	job, err := repo.ReserveNext(ctx, model.JobTypeRechargeQuery, 60)
	require.NoError(t, err)
	ok, err := repo.Fail(ctx, job.ID, "boom")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)

	// The retry delay keeps it out of reach until the clock catches up.
	_, err = repo.ReserveNext(ctx, model.JobTypeRechargeQuery, 60)
	assert.ErrorIs(t, err, model.ErrNoJobsAvailable)

	clock.AddTime(31 * time.Second)
	job, err = repo.ReserveNext(ctx, model.JobTypeRechargeQuery, 60)
	require.NoError(t, err)
	ok, err = repo.Fail(ctx, job.ID, "boom again")
	require.NoError(t, err)
	require.True(t, ok)

	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "boom again", *got.LastError)
}

func TestJobFailPermanentBypassesRetryBudget(t *testing.T) {
	clock := NewFixedTimeProvider(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	repo := newTestJobRepo(t, clock)
	ctx := context.Background()

	created := createQueryJob(t, repo, 3)

	job, err := repo.ReserveNext(ctx, model.JobTypeRechargeQuery, 60)
	require.NoError(t, err)
	ok, err := repo.FailPermanent(ctx, job.ID, "billing api status 404: not found")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Zero(t, got.RetryCount)
	require.NotNil(t, got.CompletedAt)

	// Nothing left to reserve: the retries were never consumed.
	clock.AddTime(time.Hour)
	_, err = repo.ReserveNext(ctx, model.JobTypeRechargeQuery, 60)
	assert.ErrorIs(t, err, model.ErrNoJobsAvailable)

	// FailPermanent on a job that is no longer running reports false.
	ok, err = repo.FailPermanent(ctx, job.ID, "late")
	require.NoError(t, err)
	assert.False(t, ok)
}
