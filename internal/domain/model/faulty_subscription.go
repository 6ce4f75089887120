package model

import "time"

// FaultySubscription is a quarantined copy of a subscription/update whose
// reconciliation could not be completed automatically. Rows are append-only
// from the reconciliation engine's perspective and are cleared only by manual
// operator action.
type FaultySubscription struct {
	ID             string       `json:"id"                  db:"id"`
	Action         UpdateAction `json:"action"              db:"action"`
	ChargeID       *int64       `json:"charge_id,omitempty" db:"charge_id"`
	SubscriptionID int64        `json:"subscription_id"     db:"subscription_id"`
	AddressID      int64        `json:"address_id"          db:"address_id"`
	CustomerID     int64        `json:"customer_id"         db:"customer_id"`
	ScheduledAt    *string      `json:"scheduled_at"        db:"scheduled_at"`
	Reason         string       `json:"reason"              db:"reason"`
	QuarantinedAt  time.Time    `json:"quarantined_at"      db:"quarantined_at"`
}

// Customer is the read-only slice of a billing customer used to give
// operators context when reviewing pending and faulty entries.
type Customer struct {
	RechargeID int64  `json:"recharge_id" db:"recharge_id"`
	ShopifyID  *int64 `json:"shopify_id"  db:"shopify_id"`
	Email      string `json:"email"       db:"email"`
	FirstName  string `json:"first_name"  db:"first_name"`
	LastName   string `json:"last_name"   db:"last_name"`
}

// PendingWithCustomer joins a pending update to its customer for display.
type PendingWithCustomer struct {
	PendingUpdate
	Customer *Customer `json:"customer,omitempty"`
}

// FaultyWithCustomer joins a faulty subscription to its customer for display.
type FaultyWithCustomer struct {
	FaultySubscription
	Customer *Customer `json:"customer,omitempty"`
}

// ReconciliationReport is the operator-facing read surface: the two parallel
// lists of in-flight and quarantined entries.
type ReconciliationReport struct {
	Pending []*PendingWithCustomer `json:"pending"`
	Faulty  []*FaultyWithCustomer  `json:"faulty"`
}
