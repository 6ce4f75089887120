package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/seasonalbox/boxsync/internal/domain/model"
)

// PendingUpdateRepo provides database operations for in-flight update intents.
type PendingUpdateRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewPendingUpdateRepo creates a new PendingUpdateRepo. A nil tp falls back
// to real system time.
func NewPendingUpdateRepo(db *sql.DB, tp TimeProvider) *PendingUpdateRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &PendingUpdateRepo{DB: db, timeProvider: tp}
}

const pendingUpdateColumns = `
  id,
  action,
  charge_id,
  subscription_id,
  address_id,
  customer_id,
  scheduled_at,
  session_id,
  created_at
`

// Create opens a pending update. A partial unique index on
// (subscription_id, action) guarantees at most one open record per in-flight
// action; violations surface as ErrPendingUpdateExists so callers can reject
// the second request instead of silently merging.
func (r *PendingUpdateRepo) Create(
	ctx context.Context,
	req *model.CreatePendingUpdateRequest,
) (*model.PendingUpdate, error) {
	if req == nil {
		return nil, errors.New("create pending update request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO updates_pending
		  (action, charge_id, subscription_id, address_id, customer_id, scheduled_at, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + pendingUpdateColumns

	row := r.DB.QueryRowContext(ctx, query,
		req.Action, req.ChargeID, req.SubscriptionID, req.AddressID,
		req.CustomerID, req.ScheduledAt, req.SessionID, r.timeProvider.Now().UTC(),
	)

	pu, err := scanPendingUpdate(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrPendingUpdateExists
		}
		return nil, fmt.Errorf("create pending update: %w", err)
	}
	return pu, nil
}

// GetByChargeID looks up the pending update correlated to a billing charge.
func (r *PendingUpdateRepo) GetByChargeID(ctx context.Context, chargeID int64) (*model.PendingUpdate, error) {
	query := `SELECT ` + pendingUpdateColumns + ` FROM updates_pending WHERE charge_id = $1`
	pu, err := scanPendingUpdate(r.DB.QueryRowContext(ctx, query, chargeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPendingUpdateNotFound
		}
		return nil, fmt.Errorf("get pending update by charge id: %w", err)
	}
	return pu, nil
}

// DeleteMatching atomically removes the pending update for (chargeID, action)
// and returns the deleted record. A single conditional DELETE ... RETURNING
// closes the find-then-delete race: two webhook deliveries racing on the same
// charge see at most one row between them.
func (r *PendingUpdateRepo) DeleteMatching(
	ctx context.Context,
	chargeID int64,
	action model.UpdateAction,
) (*model.PendingUpdate, error) {
	query := `
		DELETE FROM updates_pending
		WHERE charge_id = $1 AND action = $2
		RETURNING ` + pendingUpdateColumns

	pu, err := scanPendingUpdate(r.DB.QueryRowContext(ctx, query, chargeID, action))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPendingUpdateNotFound
		}
		return nil, fmt.Errorf("delete matching pending update: %w", err)
	}
	return pu, nil
}

// DeleteByID removes a pending update by primary key, returning the deleted
// record. Used by the manual quarantine path.
func (r *PendingUpdateRepo) DeleteByID(ctx context.Context, id string) (*model.PendingUpdate, error) {
	query := `DELETE FROM updates_pending WHERE id = $1 RETURNING ` + pendingUpdateColumns
	pu, err := scanPendingUpdate(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPendingUpdateNotFound
		}
		return nil, fmt.Errorf("delete pending update: %w", err)
	}
	return pu, nil
}

// List returns all open pending updates, oldest first.
func (r *PendingUpdateRepo) List(ctx context.Context) ([]*model.PendingUpdate, error) {
	query := `SELECT ` + pendingUpdateColumns + ` FROM updates_pending ORDER BY created_at ASC`
	return r.queryPendingUpdates(ctx, query)
}

// ListOlderThan returns pending updates created before cutoff, oldest first.
func (r *PendingUpdateRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*model.PendingUpdate, error) {
	query := `SELECT ` + pendingUpdateColumns + ` FROM updates_pending WHERE created_at < $1 ORDER BY created_at ASC`
	return r.queryPendingUpdates(ctx, query, cutoff.UTC())
}

func (r *PendingUpdateRepo) queryPendingUpdates(
	ctx context.Context,
	query string,
	args ...any,
) ([]*model.PendingUpdate, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending updates: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*model.PendingUpdate
	for rows.Next() {
		pu, scanErr := scanPendingUpdate(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan pending update: %w", scanErr)
		}
		out = append(out, pu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending updates: %w", err)
	}
	return out, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPendingUpdate(row rowScanner) (*model.PendingUpdate, error) {
	var pu model.PendingUpdate
	err := row.Scan(
		&pu.ID,
		&pu.Action,
		&pu.ChargeID,
		&pu.SubscriptionID,
		&pu.AddressID,
		&pu.CustomerID,
		&pu.ScheduledAt,
		&pu.SessionID,
		&pu.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pu, nil
}
