package httpx

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/seasonalbox/boxsync/internal/domain/webhook"
	"github.com/seasonalbox/boxsync/internal/service"
)

// Provider webhook topic headers.
const (
	shopifyTopicHeader  = "X-Shopify-Topic"
	rechargeTopicHeader = "X-Recharge-Topic"
)

// WebhookHandlers terminates provider webhook POSTs: topic from the provider
// header, raw body already signature-verified by middleware, normalized and
// dispatched to exactly one topic handler.
type WebhookHandlers struct {
	Dispatcher *service.WebhookDispatcher
	Logger     *slog.Logger
}

// Shopify handles platform webhooks.
func (h *WebhookHandlers) Shopify(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, webhook.SourcePlatform, r.Header.Get(shopifyTopicHeader))
}

// Recharge handles billing provider webhooks.
func (h *WebhookHandlers) Recharge(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, webhook.SourceBilling, r.Header.Get(rechargeTopicHeader))
}

func (h *WebhookHandlers) handle(w http.ResponseWriter, r *http.Request, source webhook.Source, topic string) {
	if topic == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_topic",
			Err:     errors.New("webhook topic header is required"),
		})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "read_failed", Err: err})
		return
	}

	event, err := webhook.Normalize(webhook.Topic(topic), source, body)
	if err != nil {
		if errors.Is(err, webhook.ErrUnknownTopic) {
			// Providers ship topics outside the reconciliation set. Answer 200
			// so they do not retry what we will never handle.
			h.logger().InfoContext(r.Context(), "ignoring undeclared webhook topic",
				"topic", topic, "source", source)
			WriteJSON(w, http.StatusOK, map[string]bool{"ok": true, "affected": false})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "malformed_payload", Err: err})
		return
	}

	affected, err := h.Dispatcher.Dispatch(r.Context(), event)
	if err != nil {
		// A 5xx makes the provider redeliver; handlers are idempotent.
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "dispatch_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true, "affected": affected})
}

func (h *WebhookHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
