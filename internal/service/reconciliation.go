package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seasonalbox/boxsync/internal/core"
	"github.com/seasonalbox/boxsync/internal/data"
	"github.com/seasonalbox/boxsync/internal/domain/model"
)

// ReconciliationServiceOptions groups dependencies for ReconciliationService.
type ReconciliationServiceOptions struct {
	Pending   core.PendingUpdateRepository      // Required
	Faulty    core.FaultySubscriptionRepository // Required
	Customers core.CustomerRepository           // Optional: nil renders entries without customer context
	Logger    *slog.Logger                      // Optional
}

// ReconciliationService owns the operator-facing read surface and the
// quarantine path for updates that cannot be confirmed automatically.
type ReconciliationService struct {
	pending   core.PendingUpdateRepository
	faulty    core.FaultySubscriptionRepository
	customers core.CustomerRepository
	logger    *slog.Logger
}

// NewReconciliationService constructs a ReconciliationService.
func NewReconciliationService(opts ReconciliationServiceOptions) (*ReconciliationService, error) {
	if opts.Pending == nil {
		return nil, errors.New("PendingUpdateRepository is required")
	}
	if opts.Faulty == nil {
		return nil, errors.New("FaultySubscriptionRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationService{
		pending:   opts.Pending,
		faulty:    opts.Faulty,
		customers: opts.Customers,
		logger:    logger.With("component", "reconciliation_service"),
	}, nil
}

// MustNewReconciliationService constructs a ReconciliationService and panics on error.
func MustNewReconciliationService(opts ReconciliationServiceOptions) *ReconciliationService {
	svc, err := NewReconciliationService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create ReconciliationService: %v", err))
	}
	return svc
}

// Report returns the pending and faulty lists as two parallel lists, each
// entry joined to its billing customer when one is known locally.
func (s *ReconciliationService) Report(ctx context.Context) (*model.ReconciliationReport, error) {
	var (
		pending []*model.PendingUpdate
		faulty  []*model.FaultySubscription
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = s.pending.List(gctx)
		if err != nil {
			return fmt.Errorf("list pending updates: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		faulty, err = s.faulty.List(gctx)
		if err != nil {
			return fmt.Errorf("list faulty subscriptions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	customers, err := s.lookupCustomers(ctx, pending, faulty)
	if err != nil {
		return nil, err
	}

	report := &model.ReconciliationReport{
		Pending: make([]*model.PendingWithCustomer, 0, len(pending)),
		Faulty:  make([]*model.FaultyWithCustomer, 0, len(faulty)),
	}
	for _, p := range pending {
		report.Pending = append(report.Pending, &model.PendingWithCustomer{
			PendingUpdate: *p,
			Customer:      customers[p.CustomerID],
		})
	}
	for _, f := range faulty {
		report.Faulty = append(report.Faulty, &model.FaultyWithCustomer{
			FaultySubscription: *f,
			Customer:           customers[f.CustomerID],
		})
	}
	return report, nil
}

func (s *ReconciliationService) lookupCustomers(
	ctx context.Context,
	pending []*model.PendingUpdate,
	faulty []*model.FaultySubscription,
) (map[int64]*model.Customer, error) {
	if s.customers == nil {
		return nil, nil
	}

	seen := make(map[int64]struct{}, len(pending)+len(faulty))
	ids := make([]int64, 0, len(pending)+len(faulty))
	add := func(id int64) {
		if id == 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, p := range pending {
		add(p.CustomerID)
	}
	for _, f := range faulty {
		add(f.CustomerID)
	}

	customers, err := s.customers.GetByRechargeIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("join customers: %w", err)
	}
	return customers, nil
}

// Quarantine moves a pending update into the faulty store by id. The pending
// row is removed first so a late-arriving webhook cannot confirm an entry an
// operator already gave up on.
func (s *ReconciliationService) Quarantine(
	ctx context.Context,
	pendingUpdateID, reason string,
) (*model.FaultySubscription, error) {
	removed, err := s.pending.DeleteByID(ctx, pendingUpdateID)
	if err != nil {
		if errors.Is(err, data.ErrPendingUpdateNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("remove pending update: %w", err)
	}
	return s.appendFaulty(ctx, removed, reason)
}

// SweepStale quarantines every pending update older than maxAge. It backs the
// optional sweeper loop and returns the number of entries moved.
func (s *ReconciliationService) SweepStale(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	stale, err := s.pending.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale pending updates: %w", err)
	}

	moved := 0
	for _, p := range stale {
		if ctx.Err() != nil {
			return moved, ctx.Err()
		}
		removed, err := s.pending.DeleteByID(ctx, p.ID)
		if err != nil {
			// A matching webhook confirmed it between list and delete.
			if errors.Is(err, data.ErrPendingUpdateNotFound) {
				continue
			}
			return moved, fmt.Errorf("remove stale pending update: %w", err)
		}
		if _, err := s.appendFaulty(ctx, removed, "no confirmation received within retention window"); err != nil {
			return moved, err
		}
		moved++
	}

	if moved > 0 {
		s.logger.InfoContext(ctx, "quarantined stale pending updates", "count", moved, "max_age", maxAge)
	}
	return moved, nil
}

func (s *ReconciliationService) appendFaulty(
	ctx context.Context,
	removed *model.PendingUpdate,
	reason string,
) (*model.FaultySubscription, error) {
	entry, err := s.faulty.Append(ctx, &model.FaultySubscription{
		Action:         removed.Action,
		ChargeID:       removed.ChargeID,
		SubscriptionID: removed.SubscriptionID,
		AddressID:      removed.AddressID,
		CustomerID:     removed.CustomerID,
		ScheduledAt:    removed.ScheduledAt,
		Reason:         reason,
	})
	if err != nil {
		return nil, fmt.Errorf("append faulty subscription: %w", err)
	}
	s.logger.WarnContext(ctx, "pending update quarantined",
		"pending_update_id", removed.ID,
		"faulty_id", entry.ID,
		"subscription_id", removed.SubscriptionID,
		"reason", reason)
	return entry, nil
}
