package storage

import (
	"context"
	"database/sql"
	"errors"
)

// GetSetting returns a persisted setting. ok is false when it was never set.
func (s *Storage) GetSetting(ctx context.Context, name string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, NewInfrastructureError("failed to get setting", err)
	}
	return value, true, nil
}

// SetSetting persists a setting, replacing any previous value.
func (s *Storage) SetSetting(ctx context.Context, name, value string) error {
	if name == "" {
		return NewInvalidDataError("setting has no name")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		name, value, s.unixNow(),
	)
	if err != nil {
		return NewInfrastructureError("failed to set setting", err)
	}
	return nil
}
