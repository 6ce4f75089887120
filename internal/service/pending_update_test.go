package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/seasonalbox/boxsync/internal/data"
	"github.com/seasonalbox/boxsync/internal/domain/model"
	"github.com/seasonalbox/boxsync/internal/mocks"
)

type capturedNotice struct {
	SessionID string
	Event     string
	Payload   any
}

type captureNotifier struct {
	mu      sync.Mutex
	notices []capturedNotice
	err     error
}

func (c *captureNotifier) Emit(_ context.Context, sessionID, event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, capturedNotice{SessionID: sessionID, Event: event, Payload: payload})
	return c.err
}

func (c *captureNotifier) all() []capturedNotice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]capturedNotice(nil), c.notices...)
}

func int64Ptr(v int64) *int64 { return &v }

func TestHandleChargeDeletedConfirmsAndNotifies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockPendingUpdateRepository(ctrl)
	notifier := &captureNotifier{}
	svc := MustNewPendingUpdateService(PendingUpdateServiceOptions{Repo: repo, Notifier: notifier})

	scheduledAt := "2026-09-03"
	confirmed := &model.PendingUpdate{
		ID:             "pu-1",
		Action:         model.ActionCancel,
		ChargeID:       int64Ptr(555),
		SubscriptionID: 42,
		AddressID:      91,
		CustomerID:     7,
		ScheduledAt:    &scheduledAt,
		SessionID:      "sess-1",
	}
	repo.EXPECT().
		DeleteMatching(gomock.Any(), int64(555), model.ActionCancel).
		Return(confirmed, nil)

	ok, err := svc.HandleChargeDeleted(context.Background(), 555)
	require.NoError(t, err)
	assert.True(t, ok)

	notices := notifier.all()
	require.Len(t, notices, 2)
	assert.Equal(t, "sess-1", notices[0].SessionID)
	assert.Equal(t, "completed", notices[0].Event)
	assert.Equal(t, string(model.ActionCancel), notices[0].Payload)
	assert.Equal(t, "finished", notices[1].Event)
	finished, isNotice := notices[1].Payload.(correlationNotice)
	require.True(t, isNotice)
	assert.Equal(t, "pu-1", finished.PendingUpdateID)
	assert.Equal(t, int64(42), finished.SubscriptionID)
	assert.Equal(t, int64(91), finished.AddressID)
	assert.Equal(t, int64(7), finished.CustomerID)
	require.NotNil(t, finished.ScheduledAt)
	assert.Equal(t, "2026-09-03", *finished.ScheduledAt)

	// The wire payload carries the full correlation record for the UI.
	wire, err := json.Marshal(finished)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"pending_update_id": "pu-1",
		"action": "cancel",
		"charge_id": 555,
		"subscription_id": 42,
		"address_id": 91,
		"customer_id": 7,
		"scheduled_at": "2026-09-03"
	}`, string(wire))
}

func TestHandleChargeDeletedUnmatchedIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockPendingUpdateRepository(ctrl)
	notifier := &captureNotifier{}
	svc := MustNewPendingUpdateService(PendingUpdateServiceOptions{Repo: repo, Notifier: notifier})

	repo.EXPECT().
		DeleteMatching(gomock.Any(), int64(777), model.ActionCancel).
		Return(nil, data.ErrPendingUpdateNotFound)

	ok, err := svc.HandleChargeDeleted(context.Background(), 777)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, notifier.all())
}

func TestHandleChargeDeletedDuplicateDeliveryNotifiesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockPendingUpdateRepository(ctrl)
	notifier := &captureNotifier{}
	svc := MustNewPendingUpdateService(PendingUpdateServiceOptions{Repo: repo, Notifier: notifier})

	confirmed := &model.PendingUpdate{
		ID:             "pu-1",
		Action:         model.ActionCancel,
		SubscriptionID: 42,
		SessionID:      "sess-1",
	}
	gomock.InOrder(
		repo.EXPECT().
			DeleteMatching(gomock.Any(), int64(555), model.ActionCancel).
			Return(confirmed, nil),
		repo.EXPECT().
			DeleteMatching(gomock.Any(), int64(555), model.ActionCancel).
			Return(nil, data.ErrPendingUpdateNotFound),
	)

	first, err := svc.HandleChargeDeleted(context.Background(), 555)
	require.NoError(t, err)
	second, err := svc.HandleChargeDeleted(context.Background(), 555)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.Len(t, notifier.all(), 2) // completed + finished from the first delivery only
}

func TestHandleChargeDeletedRepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockPendingUpdateRepository(ctrl)
	svc := MustNewPendingUpdateService(PendingUpdateServiceOptions{Repo: repo})

	repo.EXPECT().
		DeleteMatching(gomock.Any(), int64(555), model.ActionCancel).
		Return(nil, errors.New("connection reset"))

	_, err := svc.HandleChargeDeleted(context.Background(), 555)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "correlate charge deletion")
}

func TestHandleChargeDeletedNoSessionSkipsNotify(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockPendingUpdateRepository(ctrl)
	notifier := &captureNotifier{}
	svc := MustNewPendingUpdateService(PendingUpdateServiceOptions{Repo: repo, Notifier: notifier})

	repo.EXPECT().
		DeleteMatching(gomock.Any(), int64(555), model.ActionCancel).
		Return(&model.PendingUpdate{ID: "pu-1", Action: model.ActionCancel, SubscriptionID: 42}, nil)

	ok, err := svc.HandleChargeDeleted(context.Background(), 555)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, notifier.all())
}

func TestOpenRejectsDuplicateIntent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockPendingUpdateRepository(ctrl)
	svc := MustNewPendingUpdateService(PendingUpdateServiceOptions{Repo: repo})

	req := &model.CreatePendingUpdateRequest{
		Action:         model.ActionCancel,
		SubscriptionID: 42,
		CustomerID:     7,
	}
	repo.EXPECT().Create(gomock.Any(), req).Return(nil, data.ErrPendingUpdateExists)

	_, err := svc.Open(context.Background(), req)
	assert.ErrorIs(t, err, data.ErrPendingUpdateExists)
}
