// Package testutil holds shared helpers for integration-style tests that need
// external services. Tests skip when the service is unavailable unless
// BOXSYNC_REQUIRE_TEST_DEPS is set.
package testutil

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func requireDeps() bool {
	return os.Getenv("BOXSYNC_REQUIRE_TEST_DEPS") != ""
}

// GetTestRedisAddr returns the Redis address for tests and whether one is
// reachable. TEST_REDIS_ADDR overrides the default localhost address.
func GetTestRedisAddr(t *testing.T) (string, bool) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		return addr, false
	}
	if closeErr := conn.Close(); closeErr != nil {
		t.Logf("warning: failed to close probe connection: %v", closeErr)
	}
	return addr, true
}

// SetupTestRedis returns a Redis client bound to the test database, skipping
// the test when no server is reachable.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr, ok := GetTestRedisAddr(t)
	if !ok {
		if requireDeps() {
			t.Fatalf("Redis not available for testing at %s", addr)
		}
		t.Skipf("Redis not available for testing at %s", addr)
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: failed to close redis client after ping error: %v", cerr)
		}
		if requireDeps() {
			t.Fatalf("Redis not available for testing at %s: %v", addr, err)
		}
		t.Skipf("Redis not available for testing at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			t.Logf("warning: failed to flush test redis db: %v", err)
		}
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
	})
	return client
}
