// Package config loads riftcache configuration from defaults, an optional
// TOML file and RIFTCACHE_* environment variables, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "RIFTCACHE_"

// Config is the full application configuration.
type Config struct {
	DB        DBConfig        `toml:"db"`
	Riot      RiotConfig      `toml:"riot"`
	Cache     CacheConfig     `toml:"cache"`
	Log       LogConfig       `toml:"log"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

type DBConfig struct {
	Driver          string   `toml:"driver" env:"DB_DRIVER"`
	Path            string   `toml:"path" env:"DB_PATH"`
	MaxOpenConns    int      `toml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	RankedTTL       Duration `toml:"ranked_ttl" env:"RANKED_TTL"`
	RankedRetention Duration `toml:"ranked_retention" env:"RANKED_RETENTION"`
	SweepInterval   Duration `toml:"sweep_interval" env:"SWEEP_INTERVAL"`
}

type RiotConfig struct {
	// APIKey and Region seed the settings table on first run only.
	APIKey          string   `toml:"api_key" env:"API_KEY"`
	Region          string   `toml:"region" env:"REGION"`
	BaseURL         string   `toml:"base_url" env:"API_BASE_URL"`
	RequestInterval Duration `toml:"request_interval" env:"REQUEST_INTERVAL"`
	BackoffBase     Duration `toml:"backoff_base" env:"BACKOFF_BASE"`
	MaxRetries      int      `toml:"max_retries" env:"MAX_RETRIES"`
	HTTPTimeout     Duration `toml:"http_timeout" env:"HTTP_TIMEOUT"`
}

type CacheConfig struct {
	HotSize         int `toml:"hot_size" env:"HOT_SIZE"`
	SyncConcurrency int `toml:"sync_concurrency" env:"SYNC_CONCURRENCY"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level" env:"LOG_LEVEL"`
	Format    string     `toml:"format" env:"LOG_FORMAT"`
	AddSource bool       `toml:"add_source" env:"LOG_ADD_SOURCE"`
}

type TelemetryConfig struct {
	// Endpoint enables OTLP/HTTP trace export when set.
	Endpoint    string `toml:"endpoint" env:"OTEL_ENDPOINT"`
	ServiceName string `toml:"service_name" env:"OTEL_SERVICE_NAME"`
}

// Duration is a time.Duration written as a Go duration string ("1.5s").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB: DBConfig{
			Driver:          "sqlite3",
			Path:            defaultDBPath(),
			MaxOpenConns:    5,
			RankedTTL:       Duration(300 * time.Second),
			RankedRetention: Duration(7 * 24 * time.Hour),
			SweepInterval:   Duration(time.Hour),
		},
		Riot: RiotConfig{
			Region:          "euw1",
			BaseURL:         "https://{host}.api.riotgames.com",
			RequestInterval: Duration(1500 * time.Millisecond),
			BackoffBase:     Duration(2 * time.Second),
			MaxRetries:      3,
			HTTPTimeout:     Duration(10 * time.Second),
		},
		Cache: CacheConfig{
			HotSize:         256,
			SyncConcurrency: 2,
		},
		Log: LogConfig{
			Level:  slog.LevelInfo,
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "riftcache",
		},
	}
}

func defaultDBPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "riftcache.db"
	}
	return filepath.Join(dir, "riftcache", "riftcache.db")
}

// Load builds the configuration. path may be empty; a missing file at an
// explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	dec := toml.NewDecoder(file)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error

	switch c.DB.Driver {
	case "sqlite3", "duckdb":
	default:
		errs = append(errs, fmt.Errorf("db.driver must be sqlite3 or duckdb, got %q", c.DB.Driver))
	}
	if c.DB.MaxOpenConns <= 0 {
		errs = append(errs, errors.New("db.max_open_conns must be positive"))
	}
	if c.DB.RankedTTL <= 0 {
		errs = append(errs, errors.New("db.ranked_ttl must be positive"))
	}
	if c.Riot.RequestInterval < 0 || c.Riot.BackoffBase <= 0 || c.Riot.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("riot durations must be positive"))
	}
	if c.Riot.MaxRetries < 0 {
		errs = append(errs, errors.New("riot.max_retries must not be negative"))
	}
	if !strings.Contains(c.Riot.BaseURL, "{host}") {
		errs = append(errs, fmt.Errorf("riot.base_url must contain {host}, got %q", c.Riot.BaseURL))
	}
	if c.Cache.HotSize <= 0 || c.Cache.SyncConcurrency <= 0 {
		errs = append(errs, errors.New("cache sizes must be positive"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// NewLogger builds the slog logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level, AddSource: c.AddSource}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
