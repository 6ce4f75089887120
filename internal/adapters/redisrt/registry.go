// Package redisrt provides Redis-based realtime adapters: the session-to-socket
// registry and the pub/sub notifier used to push async job outcomes back to the
// browser session that requested them.
package redisrt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRegistrationTTL bounds how long a socket binding survives without
// being refreshed. Reconnecting sockets re-register and reset the clock.
const DefaultRegistrationTTL = 24 * time.Hour

// ErrSocketNotRegistered is returned when no socket is bound to a session.
type notRegisteredError struct{}

func (notRegisteredError) Error() string { return "no socket registered for session" }

var ErrSocketNotRegistered error = notRegisteredError{}

// SocketRegistry maps browser session ids to their realtime socket ids so the
// worker can address completion notices without a direct connection.
type SocketRegistry struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSocketRegistry creates a registry with the default key prefix and TTL.
func NewSocketRegistry(client redis.UniversalClient) *SocketRegistry {
	return &SocketRegistry{
		client: client,
		prefix: "rt:session:",
		ttl:    DefaultRegistrationTTL,
	}
}

// Register binds a socket id to a session id, replacing any previous binding.
func (r *SocketRegistry) Register(ctx context.Context, sessionID, socketID string) error {
	if sessionID == "" {
		return errors.New("session id cannot be empty")
	}
	if socketID == "" {
		return errors.New("socket id cannot be empty")
	}
	return r.client.Set(ctx, r.prefix+sessionID, socketID, r.ttl).Err()
}

// Lookup returns the socket id bound to a session, or ErrSocketNotRegistered.
func (r *SocketRegistry) Lookup(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrSocketNotRegistered
	}
	socketID, err := r.client.Get(ctx, r.prefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSocketNotRegistered
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return socketID, nil
}

// Deregister removes the binding for a session. Removing an absent binding is
// not an error.
func (r *SocketRegistry) Deregister(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return r.client.Del(ctx, r.prefix+sessionID).Err()
}
