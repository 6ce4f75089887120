// Package service contains the application services that tie the domain
// packages to storage, the job queue, and the realtime channel.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seasonalbox/boxsync/internal/core"
	"github.com/seasonalbox/boxsync/internal/data"
	"github.com/seasonalbox/boxsync/internal/domain/model"
)

// PendingUpdateServiceOptions groups dependencies for PendingUpdateService.
type PendingUpdateServiceOptions struct {
	Repo     core.PendingUpdateRepository // Required
	Notifier core.SessionNotifier         // Optional: nil disables realtime notices
	Logger   *slog.Logger                 // Optional
}

// PendingUpdateService tracks in-flight update intents: opened when an async
// billing mutation is submitted, closed when the matching charge/deleted
// webhook confirms it.
type PendingUpdateService struct {
	repo     core.PendingUpdateRepository
	notifier core.SessionNotifier
	logger   *slog.Logger
}

// NewPendingUpdateService constructs a PendingUpdateService.
func NewPendingUpdateService(opts PendingUpdateServiceOptions) (*PendingUpdateService, error) {
	if opts.Repo == nil {
		return nil, errors.New("PendingUpdateRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PendingUpdateService{
		repo:     opts.Repo,
		notifier: opts.Notifier,
		logger:   logger.With("component", "pending_update_service"),
	}, nil
}

// MustNewPendingUpdateService constructs a PendingUpdateService and panics on error.
func MustNewPendingUpdateService(opts PendingUpdateServiceOptions) *PendingUpdateService {
	svc, err := NewPendingUpdateService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create PendingUpdateService: %v", err))
	}
	return svc
}

// Open records a new in-flight update intent. A second open intent for the
// same (subscription, action) pair is rejected with ErrPendingUpdateExists.
func (s *PendingUpdateService) Open(
	ctx context.Context,
	req *model.CreatePendingUpdateRequest,
) (*model.PendingUpdate, error) {
	created, err := s.repo.Create(ctx, req)
	if err != nil {
		if errors.Is(err, data.ErrPendingUpdateExists) {
			return nil, err
		}
		return nil, fmt.Errorf("open pending update: %w", err)
	}
	s.logger.InfoContext(ctx, "pending update opened",
		"pending_update_id", created.ID,
		"action", created.Action,
		"subscription_id", created.SubscriptionID)
	return created, nil
}

// correlationNotice is the structured payload sent on the finished event.
type correlationNotice struct {
	PendingUpdateID string             `json:"pending_update_id"`
	Action          model.UpdateAction `json:"action"`
	ChargeID        *int64             `json:"charge_id,omitempty"`
	SubscriptionID  int64              `json:"subscription_id"`
	AddressID       int64              `json:"address_id"`
	CustomerID      int64              `json:"customer_id"`
	ScheduledAt     *string            `json:"scheduled_at"`
}

// HandleChargeDeleted correlates a charge/deleted webhook with the pending
// cancel intent for that charge. The delete-and-return is a single atomic
// statement, so concurrent duplicate deliveries confirm at most once. An
// unmatched charge id (or a pending record with a different action) is a
// logged no-op. Returns true when a pending update was confirmed.
func (s *PendingUpdateService) HandleChargeDeleted(ctx context.Context, chargeID int64) (bool, error) {
	confirmed, err := s.repo.DeleteMatching(ctx, chargeID, model.ActionCancel)
	if err != nil {
		if errors.Is(err, data.ErrPendingUpdateNotFound) {
			s.logger.InfoContext(ctx, "charge deletion did not match a pending cancel",
				"charge_id", chargeID)
			return false, nil
		}
		return false, fmt.Errorf("correlate charge deletion: %w", err)
	}

	s.logger.InfoContext(ctx, "pending update confirmed",
		"pending_update_id", confirmed.ID,
		"charge_id", chargeID,
		"subscription_id", confirmed.SubscriptionID)

	s.notify(ctx, confirmed.SessionID, "completed", string(confirmed.Action))
	s.notify(ctx, confirmed.SessionID, "finished", correlationNotice{
		PendingUpdateID: confirmed.ID,
		Action:          confirmed.Action,
		ChargeID:        confirmed.ChargeID,
		SubscriptionID:  confirmed.SubscriptionID,
		AddressID:       confirmed.AddressID,
		CustomerID:      confirmed.CustomerID,
		ScheduledAt:     confirmed.ScheduledAt,
	})
	return true, nil
}

// GetByChargeID returns the open pending update correlated to a charge.
func (s *PendingUpdateService) GetByChargeID(ctx context.Context, chargeID int64) (*model.PendingUpdate, error) {
	return s.repo.GetByChargeID(ctx, chargeID)
}

// List returns all open pending updates, oldest first.
func (s *PendingUpdateService) List(ctx context.Context) ([]*model.PendingUpdate, error) {
	return s.repo.List(ctx)
}

func (s *PendingUpdateService) notify(ctx context.Context, sessionID, event string, payload any) {
	if s.notifier == nil || sessionID == "" {
		return
	}
	if err := s.notifier.Emit(ctx, sessionID, event, payload); err != nil {
		s.logger.ErrorContext(ctx, "emit session notice", "event", event, "error", err)
	}
}
