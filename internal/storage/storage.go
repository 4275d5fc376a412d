package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite3"
	DriverDuckDB = "duckdb"
)

// Defaults for Config.
const (
	DefaultMaxOpenConns = 5
	DefaultRankedTTL    = 300 * time.Second
)

// Config holds storage configuration.
type Config struct {
	Driver       string
	Path         string
	MaxOpenConns int
	// RankedTTL is how long a ranked snapshot stays valid.
	RankedTTL time.Duration
	// Now overrides the clock used for timestamps and TTL checks.
	Now func() time.Time
}

// Storage provides database operations.
type Storage struct {
	db        *sql.DB
	driver    string
	path      string
	rankedTTL time.Duration
	now       func() time.Time

	sweepRunning chan struct{}
	sweepMu      sync.Mutex
	lastSweep    *SweepResult
}

// New opens the database and creates the schema.
// An empty Path uses an in-memory database.
func New(cfg Config) (*Storage, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = DefaultMaxOpenConns
	}
	if cfg.RankedTTL <= 0 {
		cfg.RankedTTL = DefaultRankedTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	inMemory := cfg.Path == "" || cfg.Path == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn, err := dataSourceName(cfg.Driver, cfg.Path, inMemory)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Driver, err)
	}

	// Each in-memory SQLite connection is its own database.
	if inMemory && cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	// Verify connection works
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Driver, err)
	}

	s := &Storage{
		db:           db,
		driver:       cfg.Driver,
		path:         cfg.Path,
		rankedTTL:    cfg.RankedTTL,
		now:          cfg.Now,
		sweepRunning: make(chan struct{}, 1),
	}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func dataSourceName(driver, path string, inMemory bool) (string, error) {
	switch driver {
	case DriverSQLite:
		if inMemory {
			return "file::memory:?_foreign_keys=on", nil
		}
		return "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", nil
	case DriverDuckDB:
		if inMemory {
			return "", nil
		}
		return path, nil
	default:
		return "", fmt.Errorf("unsupported storage driver %q", driver)
	}
}

// initSchema creates the database tables if they don't exist.
func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		identitiesSchema,
		matchesSchema, matchesIndexes,
		participantStatsSchema, participantStatsIndexes,
		rankedCacheSchema,
		syncMetadataSchema,
		settingsSchema,
	}
	for _, stmt := range statements {
		for _, part := range strings.Split(stmt, ";") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			if _, err := s.db.ExecContext(ctx, part); err != nil {
				return err
			}
		}
	}
	return nil
}

// Health checks if the database connection is healthy.
func (s *Storage) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewInfrastructureError("database unreachable", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Driver returns the configured driver name.
func (s *Storage) Driver() string {
	return s.driver
}

// RankedTTL returns the ranked snapshot TTL.
func (s *Storage) RankedTTL() time.Duration {
	return s.rankedTTL
}

func (s *Storage) unixNow() int64 {
	return s.now().UTC().Unix()
}
