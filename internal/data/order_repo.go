package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/seasonalbox/boxsync/internal/domain/model"
)

// OrderRepo provides order reads plus the webhook-driven upsert.
type OrderRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *sql.DB, tp TimeProvider) *OrderRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &OrderRepo{DB: db, timeProvider: tp}
}

const orderColumns = `
  id,
  shopify_order_id,
  recharge_charge_id,
  customer_id,
  deliver_at,
  box_titles,
  box_subscription_id,
  created_at,
  updated_at
`

// GetByShopifyID retrieves an order by its platform order id.
func (r *OrderRepo) GetByShopifyID(ctx context.Context, shopifyOrderID int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE shopify_order_id = $1`
	order, err := scanOrder(r.DB.QueryRowContext(ctx, query, shopifyOrderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// Upsert inserts or refreshes the local order record keyed by the platform
// order id. Order webhooks are delivered at least once; the upsert keeps
// duplicate deliveries idempotent.
func (r *OrderRepo) Upsert(ctx context.Context, order *model.Order) (*model.Order, error) {
	if order == nil {
		return nil, errors.New("order is required")
	}
	if order.ShopifyOrderID == 0 {
		return nil, errors.New("shopify_order_id is required")
	}

	titles, err := json.Marshal(order.BoxTitles)
	if err != nil {
		return nil, fmt.Errorf("encode box titles: %w", err)
	}
	now := r.timeProvider.Now().UTC()

	query := `
		INSERT INTO orders
		  (shopify_order_id, recharge_charge_id, customer_id, deliver_at, box_titles, box_subscription_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (shopify_order_id) DO UPDATE
		SET recharge_charge_id = EXCLUDED.recharge_charge_id,
		    deliver_at = EXCLUDED.deliver_at,
		    box_titles = EXCLUDED.box_titles,
		    box_subscription_id = EXCLUDED.box_subscription_id,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + orderColumns

	stored, err := scanOrder(r.DB.QueryRowContext(ctx, query,
		order.ShopifyOrderID, order.RechargeChargeID, order.CustomerID,
		order.DeliverAt.UTC(), titles, order.BoxSubscriptionID, now,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert order: %w", err)
	}
	return stored, nil
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		order  model.Order
		titles []byte
	)
	err := row.Scan(
		&order.ID,
		&order.ShopifyOrderID,
		&order.RechargeChargeID,
		&order.CustomerID,
		&order.DeliverAt,
		&titles,
		&order.BoxSubscriptionID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(titles, &order.BoxTitles); err != nil {
		return nil, fmt.Errorf("decode box titles: %w", err)
	}
	return &order, nil
}
