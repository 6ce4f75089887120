package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seasonalbox/boxsync/internal/core"
	"github.com/seasonalbox/boxsync/internal/domain/webhook"
)

// TopicHandler processes one normalized webhook event. The returned bool
// reports state-affecting success: true only when the handler changed local
// state (confirmed a pending update, upserted an order, and so on).
type TopicHandler func(ctx context.Context, event *webhook.Event) (bool, error)

// WebhookDispatcherOptions groups dependencies for WebhookDispatcher.
type WebhookDispatcherOptions struct {
	AuditLog core.WebhookLogRepository // Optional: nil disables the audit trail
	Logger   *slog.Logger              // Optional
}

// WebhookDispatcher routes normalized events to exactly one handler per
// topic. Registration is closed at startup; there is no fallback handler.
type WebhookDispatcher struct {
	handlers map[webhook.Topic]TopicHandler
	auditLog core.WebhookLogRepository
	logger   *slog.Logger
}

// NewWebhookDispatcher constructs an empty dispatcher.
func NewWebhookDispatcher(opts WebhookDispatcherOptions) *WebhookDispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookDispatcher{
		handlers: make(map[webhook.Topic]TopicHandler),
		auditLog: opts.AuditLog,
		logger:   logger.With("component", "webhook_dispatcher"),
	}
}

// Register binds a handler to a topic. A topic can be bound at most once.
func (d *WebhookDispatcher) Register(topic webhook.Topic, handler TopicHandler) error {
	if handler == nil {
		return errors.New("handler is required")
	}
	if !topic.Valid() {
		return fmt.Errorf("%w: %q", webhook.ErrUnknownTopic, topic)
	}
	if _, exists := d.handlers[topic]; exists {
		return fmt.Errorf("topic %q already has a handler", topic)
	}
	d.handlers[topic] = handler
	return nil
}

// MustRegister binds a handler to a topic and panics on error. Registration
// happens once at startup where a failure is a programming error.
func (d *WebhookDispatcher) MustRegister(topic webhook.Topic, handler TopicHandler) {
	if err := d.Register(topic, handler); err != nil {
		panic(fmt.Sprintf("register webhook handler: %v", err))
	}
}

// Dispatch records the event in the audit trail and routes it to the handler
// registered for its topic. An unbound topic is a logged no-op, not an error:
// providers ship topics the reconciliation core does not care about.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *webhook.Event) (bool, error) {
	if event == nil {
		return false, errors.New("event is required")
	}

	if d.auditLog != nil {
		if err := d.auditLog.Insert(ctx, event); err != nil {
			// The audit trail is advisory; never block reconciliation on it.
			d.logger.ErrorContext(ctx, "webhook audit insert failed",
				"topic", event.Topic, "error", err)
		}
	}

	handler, ok := d.handlers[event.Topic]
	if !ok {
		d.logger.InfoContext(ctx, "no handler registered for topic",
			"topic", event.Topic, "source", event.Source)
		return false, nil
	}

	affected, err := handler(ctx, event)
	if err != nil {
		return false, fmt.Errorf("handle %s: %w", event.Topic, err)
	}
	return affected, nil
}
