package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seasonalbox/boxsync/internal/domain/dateshift"
	"github.com/seasonalbox/boxsync/internal/domain/model"
)

// dateOnly is the wire format the billing API uses for charge dates.
const dateOnly = "2006-01-02"

// DeliveryServiceOptions groups dependencies for DeliveryService.
type DeliveryServiceOptions struct {
	Calculator *dateshift.Calculator // Required
	Pending    *PendingUpdateService // Required
	Jobs       *JobService           // Required
	Logger     *slog.Logger          // Optional
}

// DeliveryService turns a requested weekday change into the full async
// mutation: compute the shifted dates, open the pending-update intent, and
// queue the billing API call that applies the new charge date.
type DeliveryService struct {
	calc    *dateshift.Calculator
	pending *PendingUpdateService
	jobs    *JobService
	logger  *slog.Logger
}

// NewDeliveryService constructs a DeliveryService.
func NewDeliveryService(opts DeliveryServiceOptions) (*DeliveryService, error) {
	if opts.Calculator == nil {
		return nil, errors.New("dateshift calculator is required")
	}
	if opts.Pending == nil {
		return nil, errors.New("PendingUpdateService is required")
	}
	if opts.Jobs == nil {
		return nil, errors.New("JobService is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryService{
		calc:    opts.Calculator,
		pending: opts.Pending,
		jobs:    opts.Jobs,
		logger:  logger.With("component", "delivery_service"),
	}, nil
}

// ChangeWeekdayRequest describes a subscriber moving to a new delivery weekday.
type ChangeWeekdayRequest struct {
	SubscriptionID  int64  `json:"subscription_id"`
	AddressID       int64  `json:"address_id"`
	CustomerID      int64  `json:"customer_id"`
	ChargeID        *int64 `json:"charge_id,omitempty"`
	CurrentDelivery string `json:"current_delivery"` // date-only, subscriber's current delivery date
	CurrentVariant  string `json:"current_variant"`  // weekday name of the current variant
	NewVariant      string `json:"new_variant"`      // weekday name of the requested variant
	SessionID       string `json:"session_id,omitempty"`
}

// ChangeWeekdayResult is returned synchronously; the billing mutation itself
// completes asynchronously via the job queue.
type ChangeWeekdayResult struct {
	DeliveryDate    string `json:"delivery_date"`
	ChargeDate      string `json:"charge_date"`
	OrderDayOfWeek  int    `json:"order_day_of_week"`
	PendingUpdateID string `json:"pending_update_id"`
	JobID           string `json:"job_id"`
}

// ChangeWeekday computes the shifted schedule for the request, opens the
// pending-update record, and enqueues the billing call that moves the next
// charge date. The pending update is confirmed later by the charge/deleted
// webhook or quarantined by an operator.
func (s *DeliveryService) ChangeWeekday(
	ctx context.Context,
	now time.Time,
	req ChangeWeekdayRequest,
) (*ChangeWeekdayResult, error) {
	if req.SubscriptionID == 0 {
		return nil, errors.New("subscription_id is required")
	}
	currentDelivery, err := time.Parse(dateOnly, req.CurrentDelivery)
	if err != nil {
		return nil, fmt.Errorf("parse current delivery date: %w", err)
	}

	shift, err := s.calc.Compute(now, currentDelivery, req.CurrentVariant, req.NewVariant)
	if err != nil {
		return nil, err
	}
	chargeDate := shift.ChargeDate.Format(dateOnly)

	opened, err := s.pending.Open(ctx, &model.CreatePendingUpdateRequest{
		Action:         model.ActionUpdate,
		ChargeID:       req.ChargeID,
		SubscriptionID: req.SubscriptionID,
		AddressID:      req.AddressID,
		CustomerID:     req.CustomerID,
		ScheduledAt:    &chargeDate,
		SessionID:      req.SessionID,
	})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{"date": chargeDate})
	if err != nil {
		return nil, fmt.Errorf("encode charge date body: %w", err)
	}
	job, err := s.jobs.EnqueueRechargeQuery(ctx, model.RechargeQuery{
		Method: "POST",
		Path:   fmt.Sprintf("/subscriptions/%d/set_next_charge_date", req.SubscriptionID),
		Body:   body,
	}, req.SessionID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "weekday change submitted",
		"subscription_id", req.SubscriptionID,
		"new_variant", req.NewVariant,
		"delivery_date", shift.DeliveryDate.Format(dateOnly),
		"charge_date", chargeDate,
		"pending_update_id", opened.ID,
		"job_id", job.ID)

	return &ChangeWeekdayResult{
		DeliveryDate:    shift.DeliveryDate.Format(dateOnly),
		ChargeDate:      chargeDate,
		OrderDayOfWeek:  shift.OrderDayOfWeek,
		PendingUpdateID: opened.ID,
		JobID:           job.ID,
	}, nil
}
