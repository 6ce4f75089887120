package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/seasonalbox/boxsync/internal/domain/model"
)

// FaultySubscriptionRepo provides database operations for the quarantine
// store. The reconciliation engine only ever appends and lists; rows are
// removed by manual operator action outside this service.
type FaultySubscriptionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewFaultySubscriptionRepo creates a new FaultySubscriptionRepo.
func NewFaultySubscriptionRepo(db *sql.DB, tp TimeProvider) *FaultySubscriptionRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &FaultySubscriptionRepo{DB: db, timeProvider: tp}
}

const faultyColumns = `
  id,
  action,
  charge_id,
  subscription_id,
  address_id,
  customer_id,
  scheduled_at,
  reason,
  quarantined_at
`

// Append writes a quarantine entry and returns the stored row.
func (r *FaultySubscriptionRepo) Append(
	ctx context.Context,
	entry *model.FaultySubscription,
) (*model.FaultySubscription, error) {
	if entry == nil {
		return nil, errors.New("faulty subscription entry is required")
	}
	if entry.SubscriptionID == 0 {
		return nil, errors.New("subscription_id is required")
	}

	query := `
		INSERT INTO faulty_subscriptions
		  (action, charge_id, subscription_id, address_id, customer_id, scheduled_at, reason, quarantined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + faultyColumns

	row := r.DB.QueryRowContext(ctx, query,
		entry.Action, entry.ChargeID, entry.SubscriptionID, entry.AddressID,
		entry.CustomerID, entry.ScheduledAt, entry.Reason, r.timeProvider.Now().UTC(),
	)

	var out model.FaultySubscription
	if err := row.Scan(
		&out.ID, &out.Action, &out.ChargeID, &out.SubscriptionID, &out.AddressID,
		&out.CustomerID, &out.ScheduledAt, &out.Reason, &out.QuarantinedAt,
	); err != nil {
		return nil, fmt.Errorf("append faulty subscription: %w", err)
	}
	return &out, nil
}

// List returns all quarantined entries, newest first.
func (r *FaultySubscriptionRepo) List(ctx context.Context) ([]*model.FaultySubscription, error) {
	query := `SELECT ` + faultyColumns + ` FROM faulty_subscriptions ORDER BY quarantined_at DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list faulty subscriptions: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*model.FaultySubscription
	for rows.Next() {
		var fs model.FaultySubscription
		if scanErr := rows.Scan(
			&fs.ID, &fs.Action, &fs.ChargeID, &fs.SubscriptionID, &fs.AddressID,
			&fs.CustomerID, &fs.ScheduledAt, &fs.Reason, &fs.QuarantinedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan faulty subscription: %w", scanErr)
		}
		out = append(out, &fs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faulty subscriptions: %w", err)
	}
	return out, nil
}
