package redisrt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// channelPrefix namespaces realtime messages per socket. The socket gateway
// subscribes to its own socket channels and forwards messages verbatim.
const channelPrefix = "rt:socket:"

// Message is the wire format published to socket channels.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NotifierOptions configures a Notifier.
type NotifierOptions struct {
	Client   redis.UniversalClient
	Registry *SocketRegistry
	Logger   *slog.Logger
}

// Notifier publishes job lifecycle events to the socket bound to a session.
// Delivery is fire-and-forget: an unregistered session drops the notice
// without error, matching the semantics callers rely on.
type Notifier struct {
	client   redis.UniversalClient
	registry *SocketRegistry
	logger   *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(opts NotifierOptions) (*Notifier, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewSocketRegistry(opts.Client)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		client:   opts.Client,
		registry: registry,
		logger:   logger.With("component", "session_notifier"),
	}, nil
}

// Emit publishes an event to the socket registered for sessionID. A session
// with no registered socket is a silent no-op; only transport failures are
// reported.
func (n *Notifier) Emit(ctx context.Context, sessionID, event string, payload any) error {
	if sessionID == "" {
		return nil
	}

	socketID, err := n.registry.Lookup(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSocketNotRegistered) {
			n.logger.DebugContext(ctx, "dropping notice for unregistered session", "event", event)
			return nil
		}
		return fmt.Errorf("lookup socket: %w", err)
	}

	var raw json.RawMessage
	if payload != nil {
		raw, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}
	data, err := json.Marshal(Message{Event: event, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := n.client.Publish(ctx, channelPrefix+socketID, data).Err(); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}
	return nil
}
