package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/seasonalbox/boxsync/internal/domain/model"
)

// SettingsRepo provides read-only access to the settings collection. The
// reconciliation core only reads weekday tag settings; settings CRUD lives
// elsewhere.
type SettingsRepo struct {
	DB *sql.DB
}

// NewSettingsRepo creates a new SettingsRepo.
func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{DB: db}
}

// Get returns the value for key, or ErrSettingNotFound.
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// GetAll returns every settings row. Used by operator surfaces.
func (r *SettingsRepo) GetAll(ctx context.Context) ([]*model.Setting, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*model.Setting
	for rows.Next() {
		var s model.Setting
		if scanErr := rows.Scan(&s.Key, &s.Value); scanErr != nil {
			return nil, fmt.Errorf("scan setting: %w", scanErr)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return out, nil
}
