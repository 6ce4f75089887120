package model

import "time"

// Box is a recurring product bundle definition: the included and add-on
// product lines offered for a given delivery date.
type Box struct {
	ID               string    `json:"id"                db:"id"`
	ShopifyProductID int64     `json:"shopify_product_id" db:"shopify_product_id"`
	Title            string    `json:"title"             db:"title"`
	DeliverAt        time.Time `json:"deliver_at"        db:"deliver_at"`
	IncludedProducts []string  `json:"included_products" db:"included_products"`
	AddOnProducts    []string  `json:"addon_products"    db:"addon_products"`
	Active           bool      `json:"active"            db:"active"`
	CreatedAt        time.Time `json:"created_at"        db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"        db:"updated_at"`
}

// Order is the local record of a placed box order, kept for reconciliation
// against provider-side order webhooks.
type Order struct {
	ID                string    `json:"id"                  db:"id"`
	ShopifyOrderID    int64     `json:"shopify_order_id"    db:"shopify_order_id"`
	RechargeChargeID  *int64    `json:"recharge_charge_id"  db:"recharge_charge_id"`
	CustomerID        int64     `json:"customer_id"         db:"customer_id"`
	DeliverAt         time.Time `json:"deliver_at"          db:"deliver_at"`
	BoxTitles         []string  `json:"box_titles"          db:"box_titles"`
	BoxSubscriptionID *int64    `json:"box_subscription_id" db:"box_subscription_id"`
	CreatedAt         time.Time `json:"created_at"          db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"          db:"updated_at"`
}

// Setting is a single key/value row from the settings collection. The
// reconciliation engine reads weekday tag settings when processing catalog
// change webhooks; it never writes settings.
type Setting struct {
	Key   string `json:"key"   db:"key"`
	Value string `json:"value" db:"value"`
}
