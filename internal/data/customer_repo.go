package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/seasonalbox/boxsync/internal/domain/model"
)

// CustomerRepo provides the read-only customer join used by the
// reconciliation report.
type CustomerRepo struct {
	DB *sql.DB
}

// NewCustomerRepo creates a new CustomerRepo.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{DB: db}
}

// GetByRechargeIDs returns customers keyed by billing customer id. Missing
// ids are simply absent from the result; callers render entries without
// customer context rather than failing the whole report.
func (r *CustomerRepo) GetByRechargeIDs(
	ctx context.Context,
	ids []int64,
) (map[int64]*model.Customer, error) {
	out := make(map[int64]*model.Customer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `
		SELECT recharge_id, shopify_id, email, first_name, last_name
		FROM customers
		WHERE recharge_id = ANY($1)
	`
	rows, err := r.DB.QueryContext(ctx, query, int64Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get customers: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	for rows.Next() {
		var c model.Customer
		if scanErr := rows.Scan(&c.RechargeID, &c.ShopifyID, &c.Email, &c.FirstName, &c.LastName); scanErr != nil {
			return nil, fmt.Errorf("scan customer: %w", scanErr)
		}
		out[c.RechargeID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return out, nil
}

// int64Array adapts a Go slice to a Postgres bigint[] parameter via the pgx
// stdlib driver.
func int64Array(ids []int64) any {
	arr := make([]int64, len(ids))
	copy(arr, ids)
	return arr
}
