package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/seasonalbox/boxsync/internal/core"
	"github.com/seasonalbox/boxsync/internal/data"
	"github.com/seasonalbox/boxsync/internal/domain/model"
	"github.com/seasonalbox/boxsync/internal/domain/webhook"
)

// weekdayTagsSettingKey holds the comma-separated weekday tags that mark a
// catalog product as delivery-weekday-variant aware.
const weekdayTagsSettingKey = "weekday_tags"

// WebhookHandlersOptions groups dependencies for WebhookHandlers.
type WebhookHandlersOptions struct {
	Pending  *PendingUpdateService   // Required
	Orders   core.OrderRepository    // Required for order topics
	Boxes    core.BoxRepository      // Required for product topics
	Settings core.SettingsRepository // Optional: weekday tag lookups
	Logger   *slog.Logger            // Optional
}

// WebhookHandlers implements the per-topic handlers wired into the
// dispatcher. Every handler re-checks its topic constant before acting so a
// wiring mistake degrades to a logged no-op instead of corrupting state.
type WebhookHandlers struct {
	pending  *PendingUpdateService
	orders   core.OrderRepository
	boxes    core.BoxRepository
	settings core.SettingsRepository
	logger   *slog.Logger
}

// NewWebhookHandlers constructs the handler set.
func NewWebhookHandlers(opts WebhookHandlersOptions) (*WebhookHandlers, error) {
	if opts.Pending == nil {
		return nil, errors.New("PendingUpdateService is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandlers{
		pending:  opts.Pending,
		orders:   opts.Orders,
		boxes:    opts.Boxes,
		settings: opts.Settings,
		logger:   logger.With("component", "webhook_handlers"),
	}, nil
}

// RegisterAll binds every handler to its topic on the dispatcher.
func (h *WebhookHandlers) RegisterAll(d *WebhookDispatcher) {
	d.MustRegister(webhook.TopicChargeDeleted, h.ChargeDeleted)
	d.MustRegister(webhook.TopicChargeCreated, h.ChargeObserved)
	d.MustRegister(webhook.TopicChargeUpcoming, h.ChargeObserved)
	d.MustRegister(webhook.TopicOrderCreated, h.OrderChanged)
	d.MustRegister(webhook.TopicOrderUpdated, h.OrderChanged)
	d.MustRegister(webhook.TopicOrderProcessed, h.OrderChanged)
	d.MustRegister(webhook.TopicSubscriptionCreated, h.SubscriptionChanged)
	d.MustRegister(webhook.TopicSubscriptionUpdated, h.SubscriptionChanged)
	d.MustRegister(webhook.TopicProductCreated, h.ProductChanged)
	d.MustRegister(webhook.TopicProductUpdated, h.ProductChanged)
	d.MustRegister(webhook.TopicAsyncBatch, h.AsyncBatchProcessed)
}

func (h *WebhookHandlers) topicMismatch(ctx context.Context, event *webhook.Event, want ...webhook.Topic) bool {
	for _, t := range want {
		if event.Topic == t {
			return false
		}
	}
	h.logger.WarnContext(ctx, "handler received mismatched topic",
		"topic", event.Topic, "handles", want)
	return true
}

// ChargeDeleted correlates the deletion with the pending cancel intent for
// that charge. Duplicate deliveries and unmatched charges are no-ops.
func (h *WebhookHandlers) ChargeDeleted(ctx context.Context, event *webhook.Event) (bool, error) {
	if h.topicMismatch(ctx, event, webhook.TopicChargeDeleted) {
		return false, nil
	}
	charge, ok := event.Charge()
	if !ok {
		return false, errors.New("charge/deleted event carries no charge meta")
	}
	return h.pending.HandleChargeDeleted(ctx, charge.ID)
}

// ChargeObserved records non-deletion charge lifecycle topics. They carry no
// reconciliation state transition; the audit row written by the dispatcher is
// the only effect.
func (h *WebhookHandlers) ChargeObserved(ctx context.Context, event *webhook.Event) (bool, error) {
	if h.topicMismatch(ctx, event, webhook.TopicChargeCreated, webhook.TopicChargeUpcoming) {
		return false, nil
	}
	charge, ok := event.Charge()
	if !ok {
		return false, errors.New("charge event carries no charge meta")
	}
	h.logger.InfoContext(ctx, "charge observed",
		"topic", event.Topic,
		"charge_id", charge.ID,
		"scheduled_at", charge.ScheduledAt,
		"boxes", len(charge.Boxes.Titles))
	return false, nil
}

// OrderChanged upserts the local order record from the normalized digest,
// keyed by the platform order id so replays and updates converge.
func (h *WebhookHandlers) OrderChanged(ctx context.Context, event *webhook.Event) (bool, error) {
	if h.topicMismatch(ctx, event,
		webhook.TopicOrderCreated, webhook.TopicOrderUpdated, webhook.TopicOrderProcessed) {
		return false, nil
	}
	if h.orders == nil {
		return false, errors.New("order repository not configured")
	}
	meta, ok := event.Order()
	if !ok {
		return false, errors.New("order event carries no order meta")
	}
	if meta.ID == 0 {
		return false, errors.New("order event missing order id")
	}

	order := &model.Order{
		ShopifyOrderID: meta.ID,
		CustomerID:     meta.CustomerID,
		BoxTitles:      meta.Boxes.Titles,
	}
	if meta.Boxes.DeliverAt != "" {
		deliverAt, err := parseDeliveryDate(meta.Boxes.DeliverAt)
		if err != nil {
			return false, fmt.Errorf("parse deliver_at: %w", err)
		}
		order.DeliverAt = deliverAt
	}
	if len(meta.Boxes.SubscriptionIDs) > 0 {
		// A mixed-cart order can carry several box subscriptions; the order
		// record tracks the first, the rest stay visible in the audit trail.
		if id, err := strconv.ParseInt(meta.Boxes.SubscriptionIDs[0], 10, 64); err == nil {
			order.BoxSubscriptionID = &id
		}
	}

	stored, err := h.orders.Upsert(ctx, order)
	if err != nil {
		return false, err
	}
	h.logger.InfoContext(ctx, "order reconciled",
		"topic", event.Topic,
		"order_id", stored.ShopifyOrderID,
		"boxes", len(stored.BoxTitles),
		"deliver_at", stored.DeliverAt)
	return true, nil
}

// SubscriptionChanged logs the subscription digest. Subscription state lives
// with the billing provider; local state only changes through the pending
// update flow.
func (h *WebhookHandlers) SubscriptionChanged(ctx context.Context, event *webhook.Event) (bool, error) {
	if h.topicMismatch(ctx, event,
		webhook.TopicSubscriptionCreated, webhook.TopicSubscriptionUpdated) {
		return false, nil
	}
	sub, ok := event.Subscription()
	if !ok {
		return false, errors.New("subscription event carries no subscription meta")
	}
	h.logger.InfoContext(ctx, "subscription observed",
		"topic", event.Topic,
		"subscription_id", sub.ID,
		"next_charge_scheduled_at", sub.NextChargeScheduledAt,
		"delivery_date", sub.Properties[webhook.PropDeliveryDate])
	return false, nil
}

// ProductChanged checks a catalog change against the box definitions built
// from that product. A weekday-tagged product with no boxes is flagged: it
// means the catalog moved ahead of the box schedule.
func (h *WebhookHandlers) ProductChanged(ctx context.Context, event *webhook.Event) (bool, error) {
	if h.topicMismatch(ctx, event, webhook.TopicProductCreated, webhook.TopicProductUpdated) {
		return false, nil
	}
	if h.boxes == nil {
		return false, errors.New("box repository not configured")
	}
	product, ok := event.Product()
	if !ok {
		return false, errors.New("product event carries no product meta")
	}

	weekdayTagged := h.productIsWeekdayTagged(ctx, product.Tags)
	boxes, err := h.boxes.ListByProductID(ctx, product.ID)
	if err != nil {
		return false, err
	}

	if weekdayTagged && len(boxes) == 0 {
		h.logger.WarnContext(ctx, "weekday-tagged product has no box definitions",
			"product_id", product.ID, "title", product.Title)
		return false, nil
	}
	h.logger.InfoContext(ctx, "product change reconciled",
		"topic", event.Topic,
		"product_id", product.ID,
		"weekday_tagged", weekdayTagged,
		"boxes", len(boxes))
	return false, nil
}

// productIsWeekdayTagged reports whether any of the product's tags appears in
// the configured weekday tag set. Missing settings mean no products are
// weekday-tagged, which is a valid configuration.
func (h *WebhookHandlers) productIsWeekdayTagged(ctx context.Context, tags string) bool {
	if h.settings == nil || tags == "" {
		return false
	}
	configured, err := h.settings.Get(ctx, weekdayTagsSettingKey)
	if err != nil {
		if !errors.Is(err, data.ErrSettingNotFound) {
			h.logger.ErrorContext(ctx, "load weekday tags setting", "error", err)
		}
		return false
	}

	want := make(map[string]struct{})
	for _, tag := range strings.Split(configured, ",") {
		if tag = strings.TrimSpace(strings.ToLower(tag)); tag != "" {
			want[tag] = struct{}{}
		}
	}
	for _, tag := range strings.Split(tags, ",") {
		if _, ok := want[strings.TrimSpace(strings.ToLower(tag))]; ok {
			return true
		}
	}
	return false
}

// AsyncBatchProcessed logs batch completion notices from the billing provider.
func (h *WebhookHandlers) AsyncBatchProcessed(ctx context.Context, event *webhook.Event) (bool, error) {
	if h.topicMismatch(ctx, event, webhook.TopicAsyncBatch) {
		return false, nil
	}
	batch, ok := event.AsyncBatch()
	if !ok {
		return false, errors.New("async batch event carries no batch meta")
	}
	h.logger.InfoContext(ctx, "async batch processed",
		"batch_id", batch.ID,
		"batch_type", batch.BatchType,
		"status", batch.Status)
	return false, nil
}

// parseDeliveryDate accepts the date formats seen on Delivery Date
// properties: date-only and RFC 3339.
func parseDeliveryDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
