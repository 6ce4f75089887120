package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/seasonalbox/boxsync/internal/domain/webhook"
)

// WebhookLogRepo records normalized webhook events for audit and operator
// display. Rows are never read back by the reconciliation engine itself.
type WebhookLogRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewWebhookLogRepo creates a new WebhookLogRepo.
func NewWebhookLogRepo(db *sql.DB, tp TimeProvider) *WebhookLogRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &WebhookLogRepo{DB: db, timeProvider: tp}
}

// Insert appends an audit row for a normalized event.
func (r *WebhookLogRepo) Insert(ctx context.Context, event *webhook.Event) error {
	if event == nil {
		return errors.New("event is required")
	}

	meta, err := json.Marshal(event.Meta)
	if err != nil {
		return fmt.Errorf("encode event meta: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO webhook_log (topic, source, meta, received_at)
		VALUES ($1, $2, $3, $4)
	`, string(event.Topic), string(event.Source), meta, r.timeProvider.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert webhook log: %w", err)
	}
	return nil
}
