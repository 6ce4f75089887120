package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/seasonalbox/boxsync/internal/data"
	"github.com/seasonalbox/boxsync/internal/domain/model"
	"github.com/seasonalbox/boxsync/internal/domain/webhook"
	"github.com/seasonalbox/boxsync/internal/mocks"
)

type orderRepoStub struct {
	upserted []*model.Order
	err      error
}

func (s *orderRepoStub) GetByShopifyID(context.Context, int64) (*model.Order, error) {
	return nil, data.ErrOrderNotFound
}

func (s *orderRepoStub) Upsert(_ context.Context, order *model.Order) (*model.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.upserted = append(s.upserted, order)
	return order, nil
}

type boxRepoStub struct {
	boxes []*model.Box
	err   error
}

func (s *boxRepoStub) ListByProductID(context.Context, int64) ([]*model.Box, error) {
	return s.boxes, s.err
}

type settingsRepoStub struct {
	values map[string]string
}

func (s *settingsRepoStub) Get(_ context.Context, key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", data.ErrSettingNotFound
	}
	return v, nil
}

func newHandlers(t *testing.T, ctrl *gomock.Controller, orders *orderRepoStub, boxes *boxRepoStub, settings *settingsRepoStub) (*WebhookHandlers, *mocks.MockPendingUpdateRepository) {
	t.Helper()
	repo := mocks.NewMockPendingUpdateRepository(ctrl)
	pending := MustNewPendingUpdateService(PendingUpdateServiceOptions{Repo: repo})
	h, err := NewWebhookHandlers(WebhookHandlersOptions{
		Pending:  pending,
		Orders:   orders,
		Boxes:    boxes,
		Settings: settings,
	})
	require.NoError(t, err)
	return h, repo
}

func TestChargeDeletedHandlerCorrelates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, repo := newHandlers(t, ctrl, &orderRepoStub{}, &boxRepoStub{}, nil)
	repo.EXPECT().
		DeleteMatching(gomock.Any(), int64(555), model.ActionCancel).
		Return(&model.PendingUpdate{ID: "pu-1", Action: model.ActionCancel, SubscriptionID: 42}, nil)

	affected, err := h.ChargeDeleted(context.Background(), chargeEvent(webhook.TopicChargeDeleted, 555))
	require.NoError(t, err)
	assert.True(t, affected)
}

func TestChargeDeletedHandlerRejectsMismatchedTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No repo expectations: a mismatched topic must not reach storage.
	h, _ := newHandlers(t, ctrl, &orderRepoStub{}, &boxRepoStub{}, nil)

	affected, err := h.ChargeDeleted(context.Background(), chargeEvent(webhook.TopicChargeCreated, 555))
	require.NoError(t, err)
	assert.False(t, affected)
}

func TestOrderChangedUpsertsLocalOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orders := &orderRepoStub{}
	h, _ := newHandlers(t, ctrl, orders, &boxRepoStub{}, nil)

	event := &webhook.Event{
		Topic:  webhook.TopicOrderCreated,
		Source: webhook.SourcePlatform,
		Meta: map[webhook.Family]any{
			webhook.FamilyOrder: webhook.OrderMeta{
				ID:         9001,
				CustomerID: 7,
				Boxes: webhook.BoxSummary{
					Titles:          []string{"Spring Box"},
					SubscriptionIDs: []string{"42"},
					DeliverAt:       "2026-09-19",
				},
			},
		},
	}

	affected, err := h.OrderChanged(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, affected)
	require.Len(t, orders.upserted, 1)
	stored := orders.upserted[0]
	assert.Equal(t, int64(9001), stored.ShopifyOrderID)
	assert.Equal(t, []string{"Spring Box"}, stored.BoxTitles)
	require.NotNil(t, stored.BoxSubscriptionID)
	assert.Equal(t, int64(42), *stored.BoxSubscriptionID)
	assert.Equal(t, "2026-09-19", stored.DeliverAt.Format("2006-01-02"))
}

func TestOrderChangedMissingIDFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newHandlers(t, ctrl, &orderRepoStub{}, &boxRepoStub{}, nil)

	event := &webhook.Event{
		Topic:  webhook.TopicOrderCreated,
		Source: webhook.SourcePlatform,
		Meta:   map[webhook.Family]any{webhook.FamilyOrder: webhook.OrderMeta{}},
	}
	_, err := h.OrderChanged(context.Background(), event)
	require.Error(t, err)
}

func productEvent(topic webhook.Topic, id int64, tags string) *webhook.Event {
	return &webhook.Event{
		Topic:  topic,
		Source: webhook.SourcePlatform,
		Meta: map[webhook.Family]any{
			webhook.FamilyProduct: webhook.ProductMeta{ID: id, Title: "Winter Box", Tags: tags},
		},
	}
}

func TestProductChangedChecksBoxDefinitions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boxes := &boxRepoStub{boxes: []*model.Box{{ID: "b-1", ShopifyProductID: 31}}}
	settings := &settingsRepoStub{values: map[string]string{weekdayTagsSettingKey: "tuesday, thursday"}}
	h, _ := newHandlers(t, ctrl, &orderRepoStub{}, boxes, settings)

	affected, err := h.ProductChanged(context.Background(), productEvent(webhook.TopicProductUpdated, 31, "Thursday"))
	require.NoError(t, err)
	assert.False(t, affected)
}

func TestProductChangedBoxListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boxes := &boxRepoStub{err: errors.New("db down")}
	h, _ := newHandlers(t, ctrl, &orderRepoStub{}, boxes, nil)

	_, err := h.ProductChanged(context.Background(), productEvent(webhook.TopicProductCreated, 31, ""))
	require.Error(t, err)
}

func TestSubscriptionChangedIsObservational(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newHandlers(t, ctrl, &orderRepoStub{}, &boxRepoStub{}, nil)

	event := &webhook.Event{
		Topic:  webhook.TopicSubscriptionUpdated,
		Source: webhook.SourceBilling,
		Meta: map[webhook.Family]any{
			webhook.FamilySubscription: webhook.SubscriptionMeta{
				ID:         42,
				Properties: map[string]string{webhook.PropDeliveryDate: "2026-09-19"},
			},
		},
	}
	affected, err := h.SubscriptionChanged(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, affected)
}

func TestRegisterAllBindsEveryDeclaredTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newHandlers(t, ctrl, &orderRepoStub{}, &boxRepoStub{}, nil)
	d := NewWebhookDispatcher(WebhookDispatcherOptions{})
	h.RegisterAll(d)

	for _, topic := range []webhook.Topic{
		webhook.TopicChargeDeleted,
		webhook.TopicChargeCreated,
		webhook.TopicChargeUpcoming,
		webhook.TopicOrderCreated,
		webhook.TopicOrderUpdated,
		webhook.TopicOrderProcessed,
		webhook.TopicSubscriptionCreated,
		webhook.TopicSubscriptionUpdated,
		webhook.TopicProductCreated,
		webhook.TopicProductUpdated,
		webhook.TopicAsyncBatch,
	} {
		assert.Contains(t, d.handlers, topic, "topic %s should be bound", topic)
	}
}
