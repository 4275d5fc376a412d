package settings

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const testKey = "RGAPI-0b6c1f4e-8a52-4d5e-9a3f-2f7c1d9e4b10"

type memoryStore struct {
	values map[string]string
	failOn string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) GetSetting(_ context.Context, name string) (string, bool, error) {
	if name == m.failOn {
		return "", false, errors.New("boom")
	}
	v, ok := m.values[name]
	return v, ok, nil
}

func (m *memoryStore) SetSetting(_ context.Context, name, value string) error {
	if name == m.failOn {
		return errors.New("boom")
	}
	m.values[name] = value
	return nil
}

func TestValidateKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid", key: testKey},
		{name: "surrounding space", key: "  " + testKey + "\n"},
		{name: "empty", key: "", wantErr: true},
		{name: "missing prefix", key: strings.TrimPrefix(testKey, "RGAPI-"), wantErr: true},
		{name: "bad uuid", key: "RGAPI-not-a-uuid", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateKey(tc.key)
			if tc.wantErr && !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("expected ErrInvalidKey, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	t.Parallel()

	if got := Redact(testKey); got != "RGAPI-0b6c…" {
		t.Fatalf("Redact = %q", got)
	}
	if got := Redact("short"); got != "*****" {
		t.Fatalf("Redact short = %q", got)
	}
	if got := Redact(""); got != "" {
		t.Fatalf("Redact empty = %q", got)
	}
}

func TestCellSnapshotReflectsLatestWrite(t *testing.T) {
	t.Parallel()

	cell := NewCell("")
	if got := cell.Snapshot(); got.Region != DefaultRegion || got.Configured() {
		t.Fatalf("unexpected initial snapshot: %+v", got)
	}

	cell.SetAPIKey(testKey)
	cell.SetRegion(" NA1 ")
	got := cell.Snapshot()
	if got.APIKey != testKey || got.Region != "na1" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestBootstrapPrefersPersistedValues(t *testing.T) {
	store := newMemoryStore()
	store.values[NameAPIKey] = testKey
	store.values[NameRegion] = "kr"

	cell := NewCell(DefaultRegion)
	m := NewManager(store, cell, nil, nil)

	if err := m.Bootstrap(context.Background(), "RGAPI-11111111-2222-3333-4444-555555555555", "na1"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	got := cell.Snapshot()
	if got.APIKey != testKey {
		t.Fatalf("expected persisted key, got %q", got.APIKey)
	}
	if got.Region != "kr" {
		t.Fatalf("expected persisted region, got %q", got.Region)
	}
}

func TestBootstrapSeedsFromEnvironment(t *testing.T) {
	store := newMemoryStore()
	cell := NewCell(DefaultRegion)
	m := NewManager(store, cell, nil, nil)

	if err := m.Bootstrap(context.Background(), testKey, "NA1"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	if store.values[NameAPIKey] != testKey {
		t.Fatalf("expected key persisted, got %q", store.values[NameAPIKey])
	}
	if store.values[NameRegion] != "na1" {
		t.Fatalf("expected region persisted, got %q", store.values[NameRegion])
	}
	if cell.Snapshot().APIKey != testKey {
		t.Fatal("expected cell to carry seeded key")
	}
}

func TestBootstrapRejectsMalformedEnvironmentKey(t *testing.T) {
	m := NewManager(newMemoryStore(), NewCell(""), nil, nil)

	err := m.Bootstrap(context.Background(), "nope", "")
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestAPIKeyNotConfigured(t *testing.T) {
	m := NewManager(newMemoryStore(), NewCell(""), nil, nil)

	if _, err := m.APIKey(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSetAPIKeyDoesNotActivateOnStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.failOn = NameAPIKey
	cell := NewCell("")
	m := NewManager(store, cell, nil, nil)

	if err := m.SetAPIKey(context.Background(), testKey); err == nil {
		t.Fatal("expected error")
	}
	if cell.Snapshot().Configured() {
		t.Fatal("expected cell to stay unconfigured")
	}
}

func TestSetRegionUsesValidator(t *testing.T) {
	store := newMemoryStore()
	valid := func(r string) bool { return r == "euw1" || r == "kr" }
	m := NewManager(store, NewCell(""), valid, nil)

	if err := m.SetRegion(context.Background(), "mars1"); !errors.Is(err, ErrInvalidRegion) {
		t.Fatalf("expected ErrInvalidRegion, got %v", err)
	}
	if err := m.SetRegion(context.Background(), "KR"); err != nil {
		t.Fatalf("set region: %v", err)
	}
	if m.Region() != "kr" {
		t.Fatalf("expected kr, got %q", m.Region())
	}
}
