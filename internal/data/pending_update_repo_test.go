package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seasonalbox/boxsync/internal/domain/model"
	"github.com/seasonalbox/boxsync/internal/testutil"
)

func int64Ptr(v int64) *int64 { return &v }

func cancelIntent(chargeID, subscriptionID int64) *model.CreatePendingUpdateRequest {
	scheduled := "2026-09-03"
	return &model.CreatePendingUpdateRequest{
		Action:         model.ActionCancel,
		ChargeID:       int64Ptr(chargeID),
		SubscriptionID: subscriptionID,
		AddressID:      91,
		CustomerID:     7,
		ScheduledAt:    &scheduled,
		SessionID:      "sess-1",
	}
}

func TestPendingUpdateCreateAndDeleteMatching(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewPendingUpdateRepo(db, nil)
	ctx := context.Background()

	created, err := repo.Create(ctx, cancelIntent(555, 42))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	deleted, err := repo.DeleteMatching(ctx, 555, model.ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, int64(42), deleted.SubscriptionID)
	assert.Equal(t, int64(91), deleted.AddressID)
	assert.Equal(t, int64(7), deleted.CustomerID)
	require.NotNil(t, deleted.ScheduledAt)
	assert.Equal(t, "2026-09-03", *deleted.ScheduledAt)

	// A duplicate webhook delivery finds nothing.
	_, err = repo.DeleteMatching(ctx, 555, model.ActionCancel)
	assert.ErrorIs(t, err, ErrPendingUpdateNotFound)
}

func TestPendingUpdateDeleteMatchingWrongActionIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewPendingUpdateRepo(db, nil)
	ctx := context.Background()

	req := cancelIntent(555, 42)
	req.Action = model.ActionUpdate
	_, err := repo.Create(ctx, req)
	require.NoError(t, err)

	// The charge matches but the action does not: the row must survive.
	_, err = repo.DeleteMatching(ctx, 555, model.ActionCancel)
	assert.ErrorIs(t, err, ErrPendingUpdateNotFound)

	still, err := repo.GetByChargeID(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, model.ActionUpdate, still.Action)
}

func TestPendingUpdateDuplicateIntentRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewPendingUpdateRepo(db, nil)
	ctx := context.Background()

	_, err := repo.Create(ctx, cancelIntent(555, 42))
	require.NoError(t, err)

	// Same (subscription, action) pair: the unique index rejects it even
	// with a different charge id.
	_, err = repo.Create(ctx, cancelIntent(556, 42))
	assert.ErrorIs(t, err, ErrPendingUpdateExists)

	// A different action on the same subscription is a separate intent.
	other := cancelIntent(557, 42)
	other.Action = model.ActionUpdate
	_, err = repo.Create(ctx, other)
	assert.NoError(t, err)
}

func TestPendingUpdateListOlderThan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	clock := NewFixedTimeProvider(time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC))
	repo := NewPendingUpdateRepo(db, clock)
	ctx := context.Background()

	old, err := repo.Create(ctx, cancelIntent(555, 42))
	require.NoError(t, err)

	clock.AddTime(48 * time.Hour)
	fresh := cancelIntent(556, 43)
	_, err = repo.Create(ctx, fresh)
	require.NoError(t, err)

	stale, err := repo.ListOlderThan(ctx, clock.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, old.ID, stale[0].ID)
}
