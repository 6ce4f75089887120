package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seasonalbox/boxsync/internal/domain/webhook"
)

type auditLogStub struct {
	mu     sync.Mutex
	events []*webhook.Event
	err    error
}

func (a *auditLogStub) Insert(_ context.Context, event *webhook.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return a.err
}

func chargeEvent(topic webhook.Topic, chargeID int64) *webhook.Event {
	return &webhook.Event{
		Topic:  topic,
		Source: webhook.SourceBilling,
		Meta: map[webhook.Family]any{
			webhook.FamilyCharge: webhook.ChargeMeta{ID: chargeID},
		},
	}
}

func TestDispatchRoutesToExactlyOneHandler(t *testing.T) {
	d := NewWebhookDispatcher(WebhookDispatcherOptions{})

	var deletedCalls, createdCalls int
	d.MustRegister(webhook.TopicChargeDeleted, func(context.Context, *webhook.Event) (bool, error) {
		deletedCalls++
		return true, nil
	})
	d.MustRegister(webhook.TopicChargeCreated, func(context.Context, *webhook.Event) (bool, error) {
		createdCalls++
		return false, nil
	})

	affected, err := d.Dispatch(context.Background(), chargeEvent(webhook.TopicChargeDeleted, 1))
	require.NoError(t, err)
	assert.True(t, affected)
	assert.Equal(t, 1, deletedCalls)
	assert.Equal(t, 0, createdCalls)
}

func TestRegisterRejectsDuplicateTopic(t *testing.T) {
	d := NewWebhookDispatcher(WebhookDispatcherOptions{})
	noop := func(context.Context, *webhook.Event) (bool, error) { return false, nil }

	require.NoError(t, d.Register(webhook.TopicChargeDeleted, noop))
	err := d.Register(webhook.TopicChargeDeleted, noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has a handler")
}

func TestRegisterRejectsUndeclaredTopic(t *testing.T) {
	d := NewWebhookDispatcher(WebhookDispatcherOptions{})
	noop := func(context.Context, *webhook.Event) (bool, error) { return false, nil }

	err := d.Register(webhook.Topic("charge/mystery"), noop)
	assert.ErrorIs(t, err, webhook.ErrUnknownTopic)
}

func TestDispatchUnboundTopicIsNoop(t *testing.T) {
	d := NewWebhookDispatcher(WebhookDispatcherOptions{})

	affected, err := d.Dispatch(context.Background(), chargeEvent(webhook.TopicChargeUpcoming, 1))
	require.NoError(t, err)
	assert.False(t, affected)
}

func TestDispatchWritesAuditTrail(t *testing.T) {
	audit := &auditLogStub{}
	d := NewWebhookDispatcher(WebhookDispatcherOptions{AuditLog: audit})
	d.MustRegister(webhook.TopicChargeDeleted, func(context.Context, *webhook.Event) (bool, error) {
		return true, nil
	})

	event := chargeEvent(webhook.TopicChargeDeleted, 1)
	_, err := d.Dispatch(context.Background(), event)
	require.NoError(t, err)
	require.Len(t, audit.events, 1)
	assert.Equal(t, event, audit.events[0])
}

func TestDispatchAuditFailureDoesNotBlockHandler(t *testing.T) {
	audit := &auditLogStub{err: errors.New("disk full")}
	d := NewWebhookDispatcher(WebhookDispatcherOptions{AuditLog: audit})

	handled := false
	d.MustRegister(webhook.TopicChargeDeleted, func(context.Context, *webhook.Event) (bool, error) {
		handled = true
		return true, nil
	})

	affected, err := d.Dispatch(context.Background(), chargeEvent(webhook.TopicChargeDeleted, 1))
	require.NoError(t, err)
	assert.True(t, affected)
	assert.True(t, handled)
}

func TestDispatchWrapsHandlerError(t *testing.T) {
	d := NewWebhookDispatcher(WebhookDispatcherOptions{})
	d.MustRegister(webhook.TopicChargeDeleted, func(context.Context, *webhook.Event) (bool, error) {
		return false, errors.New("db down")
	})

	_, err := d.Dispatch(context.Background(), chargeEvent(webhook.TopicChargeDeleted, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "charge/deleted")
}
