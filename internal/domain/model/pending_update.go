// Package model defines the core data types shared across the boxsync
// reconciliation system.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpdateAction represents the kind of mutation an in-flight pending update is
// waiting to have confirmed by the billing provider.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type UpdateAction string

const (
	// ActionCancel cancels a subscription charge.
	ActionCancel UpdateAction = "cancel"
	// ActionReactivate reactivates a previously cancelled subscription.
	ActionReactivate UpdateAction = "reactivate"
	// ActionDelete deletes a subscription entirely.
	ActionDelete UpdateAction = "delete"
	// ActionUpdate changes subscription properties (delivery weekday, dates).
	ActionUpdate UpdateAction = "update"
)

// Valid returns true if the UpdateAction is one of the known actions.
func (a UpdateAction) Valid() bool {
	return a == ActionCancel || a == ActionReactivate || a == ActionDelete || a == ActionUpdate
}

// UnmarshalText implements encoding.TextUnmarshaler for UpdateAction.
func (a *UpdateAction) UnmarshalText(text []byte) error {
	v := UpdateAction(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid update action: %q", string(text))
	}
	*a = v
	return nil
}

// PendingUpdate is the durable record of an in-flight intent awaiting
// confirmation from the billing provider. The correlation key is ChargeID when
// the provider has assigned a charge, otherwise SubscriptionID.
//
// Exactly one open PendingUpdate may exist per (subscription, action); the
// data layer enforces this with a unique index and surfaces violations as
// ErrPendingUpdateExists.
type PendingUpdate struct {
	ID             string       `json:"id"                  db:"id"`
	Action         UpdateAction `json:"action"              db:"action"`
	ChargeID       *int64       `json:"charge_id,omitempty" db:"charge_id"`
	SubscriptionID int64        `json:"subscription_id"     db:"subscription_id"`
	AddressID      int64        `json:"address_id"          db:"address_id"`
	CustomerID     int64        `json:"customer_id"         db:"customer_id"`
	ScheduledAt    *string      `json:"scheduled_at"        db:"scheduled_at"`
	SessionID      string       `json:"session_id"          db:"session_id"`
	CreatedAt      time.Time    `json:"created_at"          db:"created_at"`
}

// CreatePendingUpdateRequest carries the fields needed to open a pending update.
type CreatePendingUpdateRequest struct {
	Action         UpdateAction `json:"action"`
	ChargeID       *int64       `json:"charge_id,omitempty"`
	SubscriptionID int64        `json:"subscription_id"`
	AddressID      int64        `json:"address_id"`
	CustomerID     int64        `json:"customer_id"`
	ScheduledAt    *string      `json:"scheduled_at,omitempty"`
	SessionID      string       `json:"session_id"`
}

// Validate validates the CreatePendingUpdateRequest fields.
func (r *CreatePendingUpdateRequest) Validate() error {
	if !r.Action.Valid() {
		return errors.New("invalid update action")
	}
	if r.SubscriptionID == 0 {
		return errors.New("subscription_id is required")
	}
	if r.CustomerID == 0 {
		return errors.New("customer_id is required")
	}
	return nil
}
