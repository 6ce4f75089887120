package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/seasonalbox/boxsync/internal/migrate"
)

// Tables cleaned between tests, dependents first.
var testTables = []string{
	"webhook_log",
	"jobs",
	"orders",
	"boxes",
	"updates_pending",
	"faulty_subscriptions",
	"customers",
	"settings",
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testDBDSN() string {
	hostPort := net.JoinHostPort(
		getEnvOrDefault("TEST_DB_HOST", "localhost"),
		getEnvOrDefault("TEST_DB_PORT", "5432"),
	)
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		getEnvOrDefault("TEST_DB_USER", "boxsync"),
		getEnvOrDefault("TEST_DB_PASSWORD", "boxsync"),
		hostPort,
		getEnvOrDefault("TEST_DB_NAME", "boxsync"),
	)
}

// SetupTestDB opens the test database, applies the production migrations, and
// registers cleanup that truncates all tables after the test. The test skips
// when no database is reachable unless BOXSYNC_REQUIRE_TEST_DEPS is set.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDBDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		if cerr := db.Close(); cerr != nil {
			t.Logf("warning: failed to close test db after ping error: %v", cerr)
		}
		if requireDeps() {
			t.Fatalf("Postgres not available for testing at %s: %v", dsn, pingErr)
		}
		t.Skipf("Postgres not available for testing: %v", pingErr)
	}

	if migrateErr := migrate.Run(ctx, db); migrateErr != nil {
		t.Fatalf("run migrations: %v", migrateErr)
	}

	CleanupTestDB(t, db)
	t.Cleanup(func() {
		CleanupTestDB(t, db)
		if cerr := db.Close(); cerr != nil {
			t.Logf("warning: failed to close test db: %v", cerr)
		}
	})
	return db
}

// CleanupTestDB removes all rows written by tests.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, table := range testTables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clean up table %s: %v", table, err)
		}
	}
}
