package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/seasonalbox/boxsync/internal/domain/model"
	"github.com/seasonalbox/boxsync/internal/domain/webhook"
)

// This file contains repository and adapter interface definitions (ports in
// hexagonal architecture). Service implementations depend on these
// interfaces, not concrete implementations.

// PendingUpdateRepository defines data operations for in-flight update intents.
type PendingUpdateRepository interface {
	Create(ctx context.Context, req *model.CreatePendingUpdateRequest) (*model.PendingUpdate, error)
	GetByChargeID(ctx context.Context, chargeID int64) (*model.PendingUpdate, error)

	// DeleteMatching atomically deletes the pending update correlated to
	// chargeID whose action equals action, returning the deleted record.
	// Returns ErrPendingUpdateNotFound when nothing matches; concurrent
	// deliveries of the same webhook observe at most one hit.
	DeleteMatching(ctx context.Context, chargeID int64, action model.UpdateAction) (*model.PendingUpdate, error)

	// DeleteByID removes a pending update by primary key, returning the
	// deleted record (used by the manual quarantine path).
	DeleteByID(ctx context.Context, id string) (*model.PendingUpdate, error)

	List(ctx context.Context) ([]*model.PendingUpdate, error)
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]*model.PendingUpdate, error)
}

// FaultySubscriptionRepository defines data operations for the quarantine store.
// Append-only from the reconciliation engine's perspective.
type FaultySubscriptionRepository interface {
	Append(ctx context.Context, entry *model.FaultySubscription) (*model.FaultySubscription, error)
	List(ctx context.Context) ([]*model.FaultySubscription, error)
}

// CustomerRepository provides the read-only customer join used by the
// reconciliation report.
type CustomerRepository interface {
	GetByRechargeIDs(ctx context.Context, ids []int64) (map[int64]*model.Customer, error)
}

// JobRepository defines the interface for job queue data operations.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	ReserveNext(ctx context.Context, jobType model.JobType, leaseSeconds int) (*model.Job, error)
	Heartbeat(ctx context.Context, id string, leaseSeconds int) (bool, error)
	Complete(ctx context.Context, id string, result json.RawMessage) (bool, error)
	Fail(ctx context.Context, id, errMsg string) (bool, error)

	// FailPermanent fails a running job without consuming retries; used when
	// the error cannot succeed on a later attempt.
	FailPermanent(ctx context.Context, id, errMsg string) (bool, error)
	Stats(ctx context.Context, jobType model.JobType) (*model.JobStats, error)
}

// BoxRepository provides read access to box definitions for catalog-change
// reconciliation.
type BoxRepository interface {
	ListByProductID(ctx context.Context, shopifyProductID int64) ([]*model.Box, error)
}

// OrderRepository provides order reads and the webhook-driven upsert.
type OrderRepository interface {
	GetByShopifyID(ctx context.Context, shopifyOrderID int64) (*model.Order, error)
	Upsert(ctx context.Context, order *model.Order) (*model.Order, error)
}

// SettingsRepository provides read-only settings lookups (weekday tags).
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
}

// WebhookLogRepository records normalized webhook events as an audit side
// effect. Log rows are never read back by the reconciliation engine.
type WebhookLogRepository interface {
	Insert(ctx context.Context, event *webhook.Event) error
}

// SessionNotifier routes asynchronous completion notices back to the
// realtime session of the original requester. Delivery is fire-and-forget:
// when no socket is registered for the session the notice is dropped
// silently and Emit returns without error.
type SessionNotifier interface {
	Emit(ctx context.Context, sessionID, event string, payload any) error
}

// BillingClient executes a single billing-provider API call. The job worker
// is the only caller; rate limiting happens in the worker, not the client.
type BillingClient interface {
	Do(ctx context.Context, q model.RechargeQuery) (json.RawMessage, error)
}
