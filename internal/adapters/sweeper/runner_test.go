package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/seasonalbox/boxsync/config"
	"github.com/seasonalbox/boxsync/internal/domain/model"
	"github.com/seasonalbox/boxsync/internal/mocks"
	"github.com/seasonalbox/boxsync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestRunner(t *testing.T, interval time.Duration) (*Runner, *mocks.MockPendingUpdateRepository, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	pending := mocks.NewMockPendingUpdateRepository(ctrl)
	faulty := mocks.NewMockFaultySubscriptionRepository(ctrl)
	svc := service.MustNewReconciliationService(service.ReconciliationServiceOptions{
		Pending: pending,
		Faulty:  faulty,
	})
	runner, err := NewRunner(RunnerOptions{
		Reconciliation: svc,
		Config:         config.SweeperConfig{Interval: interval, MaxAge: time.Hour},
	})
	require.NoError(t, err)
	return runner, pending, ctrl
}

func TestRunnerRequiresReconciliationService(t *testing.T) {
	_, err := NewRunner(RunnerOptions{
		Config: config.SweeperConfig{Interval: time.Minute, MaxAge: time.Hour},
	})
	assert.Error(t, err)
}

func TestRunnerRejectsInvalidInterval(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := service.MustNewReconciliationService(service.ReconciliationServiceOptions{
		Pending: mocks.NewMockPendingUpdateRepository(ctrl),
		Faulty:  mocks.NewMockFaultySubscriptionRepository(ctrl),
	})
	_, err := NewRunner(RunnerOptions{
		Reconciliation: svc,
		Config:         config.SweeperConfig{Interval: 0, MaxAge: time.Hour},
	})
	assert.Error(t, err)
}

func TestRunnerSweepsAndStopsOnCancel(t *testing.T) {
	runner, pending, ctrl := newTestRunner(t, 20*time.Millisecond)
	defer ctrl.Finish()

	swept := make(chan struct{}, 1)
	pending.EXPECT().
		ListOlderThan(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) ([]*model.PendingUpdate, error) {
			select {
			case swept <- struct{}{}:
			default:
			}
			return nil, nil
		}).
		MinTimes(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never ran")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunnerKeepsRunningAfterSweepError(t *testing.T) {
	runner, pending, ctrl := newTestRunner(t, 10*time.Millisecond)
	defer ctrl.Finish()

	calls := make(chan struct{}, 4)
	pending.EXPECT().
		ListOlderThan(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) ([]*model.PendingUpdate, error) {
			select {
			case calls <- struct{}{}:
			default:
			}
			return nil, assert.AnError
		}).
		MinTimes(2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	for range 2 {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("sweep did not retry after failure")
		}
	}

	cancel()
	require.NoError(t, <-done)
}
