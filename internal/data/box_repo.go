package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/seasonalbox/boxsync/internal/domain/model"
)

// BoxRepo provides read access to box definitions. The reconciliation core
// only reads boxes (catalog-change webhooks); box CRUD lives elsewhere.
type BoxRepo struct {
	DB *sql.DB
}

// NewBoxRepo creates a new BoxRepo.
func NewBoxRepo(db *sql.DB) *BoxRepo {
	return &BoxRepo{DB: db}
}

// ListByProductID returns the boxes built from the given platform product,
// soonest delivery first.
func (r *BoxRepo) ListByProductID(ctx context.Context, shopifyProductID int64) ([]*model.Box, error) {
	query := `
		SELECT id, shopify_product_id, title, deliver_at, included_products, addon_products,
		       active, created_at, updated_at
		FROM boxes
		WHERE shopify_product_id = $1
		ORDER BY deliver_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, shopifyProductID)
	if err != nil {
		return nil, fmt.Errorf("list boxes by product: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*model.Box
	for rows.Next() {
		var (
			box      model.Box
			included []byte
			addons   []byte
		)
		if scanErr := rows.Scan(
			&box.ID, &box.ShopifyProductID, &box.Title, &box.DeliverAt,
			&included, &addons, &box.Active, &box.CreatedAt, &box.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan box: %w", scanErr)
		}
		if err := json.Unmarshal(included, &box.IncludedProducts); err != nil {
			return nil, fmt.Errorf("decode included products: %w", err)
		}
		if err := json.Unmarshal(addons, &box.AddOnProducts); err != nil {
			return nil, fmt.Errorf("decode addon products: %w", err)
		}
		out = append(out, &box)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boxes: %w", err)
	}
	return out, nil
}
