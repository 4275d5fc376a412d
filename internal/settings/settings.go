// Package settings owns the upstream API key and platform region: the live
// in-memory copy used by every request and its persisted counterpart.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Persisted setting names.
const (
	NameAPIKey = "riot_api_key"
	NameRegion = "riot_region"
)

// Store persists small named values.
type Store interface {
	GetSetting(ctx context.Context, name string) (value string, ok bool, err error)
	SetSetting(ctx context.Context, name, value string) error
}

// Manager keeps a Cell and its persisted copy in step.
type Manager struct {
	store       Store
	cell        *Cell
	validRegion func(string) bool
	logger      *slog.Logger
}

// NewManager creates a Manager. validRegion may be nil to accept any region.
func NewManager(store Store, cell *Cell, validRegion func(string) bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, cell: cell, validRegion: validRegion, logger: logger}
}

// Cell returns the live credentials cell.
func (m *Manager) Cell() *Cell {
	return m.cell
}

// Bootstrap loads persisted settings into the cell. When nothing is
// persisted yet, envKey and envRegion seed both the store and the cell.
func (m *Manager) Bootstrap(ctx context.Context, envKey, envRegion string) error {
	key, ok, err := m.store.GetSetting(ctx, NameAPIKey)
	if err != nil {
		return fmt.Errorf("failed to load api key: %w", err)
	}
	switch {
	case ok:
		m.cell.SetAPIKey(key)
	case strings.TrimSpace(envKey) != "":
		if err := m.SetAPIKey(ctx, envKey); err != nil {
			return fmt.Errorf("failed to seed api key: %w", err)
		}
		m.logger.Info("api key seeded from environment", "key", Redact(envKey))
	}

	region, ok, err := m.store.GetSetting(ctx, NameRegion)
	if err != nil {
		return fmt.Errorf("failed to load region: %w", err)
	}
	switch {
	case ok:
		m.cell.SetRegion(region)
	case strings.TrimSpace(envRegion) != "":
		if err := m.SetRegion(ctx, envRegion); err != nil {
			return fmt.Errorf("failed to seed region: %w", err)
		}
	}
	return nil
}

// APIKey returns the persisted API key, or ErrNotConfigured.
func (m *Manager) APIKey(ctx context.Context) (string, error) {
	key, ok, err := m.store.GetSetting(ctx, NameAPIKey)
	if err != nil {
		return "", err
	}
	if !ok || key == "" {
		return "", ErrNotConfigured
	}
	return key, nil
}

// SetAPIKey validates, persists and activates a new API key.
func (m *Manager) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := m.store.SetSetting(ctx, NameAPIKey, key); err != nil {
		return err
	}
	m.cell.SetAPIKey(key)
	return nil
}

// Region returns the active platform region.
func (m *Manager) Region() string {
	return m.cell.Snapshot().Region
}

// SetRegion validates, persists and activates a platform region.
func (m *Manager) SetRegion(ctx context.Context, region string) error {
	region = normalizeRegion(region)
	if region == "" || (m.validRegion != nil && !m.validRegion(region)) {
		return fmt.Errorf("%w: %q", ErrInvalidRegion, region)
	}
	if err := m.store.SetSetting(ctx, NameRegion, region); err != nil {
		return err
	}
	m.cell.SetRegion(region)
	return nil
}
