package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"riftcache/internal/cache"
	"riftcache/internal/config"
	"riftcache/internal/core"
	"riftcache/internal/riot"
	"riftcache/internal/settings"
	"riftcache/internal/storage"
	"riftcache/internal/telemetry"
)

// app holds what a command needs once the root pre-run has finished.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *storage.Storage
	svc      *core.Service
	shutdown func(context.Context) error
}

var (
	configPath string
	current    *app
)

var rootCmd = &cobra.Command{
	Use:           "riftcache",
	Short:         "Local cache in front of the Riot Games API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := start(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		current = a
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv(config.EnvPrefix+"CONFIG"), "path to a TOML config file")
}

// start loads configuration and wires storage, settings, client and service.
func start(ctx context.Context, path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}

	store, err := storage.New(storage.Config{
		Driver:       cfg.DB.Driver,
		Path:         cfg.DB.Path,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		RankedTTL:    cfg.DB.RankedTTL.Std(),
	})
	if err != nil {
		shutdown(ctx)
		return nil, fmt.Errorf("%s: %w", core.StagePersist, err)
	}
	logger.Debug("storage opened", "driver", cfg.DB.Driver, "path", cfg.DB.Path)

	cell := settings.NewCell(cfg.Riot.Region)
	mgr := settings.NewManager(store, cell, riot.IsPlatform, logger)
	if err := mgr.Bootstrap(ctx, cfg.Riot.APIKey, cfg.Riot.Region); err != nil {
		store.Close()
		shutdown(ctx)
		return nil, fmt.Errorf("%s: %w", core.StageConfig, err)
	}

	client := riot.NewClient(riot.Config{
		BaseURL:         cfg.Riot.BaseURL,
		RequestInterval: cfg.Riot.RequestInterval.Std(),
		BackoffBase:     cfg.Riot.BackoffBase.Std(),
		MaxRetries:      cfg.Riot.MaxRetries,
		Timeout:         cfg.Riot.HTTPTimeout.Std(),
	}, cell, riot.WithLogger(logger))

	orch, err := cache.New(client, store, cache.Config{
		HotSize:         cfg.Cache.HotSize,
		SyncConcurrency: cfg.Cache.SyncConcurrency,
	}, cache.WithLogger(logger))
	if err != nil {
		store.Close()
		shutdown(ctx)
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		svc:      core.NewService(orch, store, mgr, logger),
		shutdown: shutdown,
	}, nil
}

func (a *app) stop() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.logger.Error("failed to flush traces", "error", err)
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resolvePlayer accepts a puuid or a "name#tag" Riot ID.
func resolvePlayer(ctx context.Context, arg string) (string, error) {
	if !strings.Contains(arg, "#") {
		return arg, nil
	}
	name, tag, err := core.ParseRiotID(arg)
	if err != nil {
		return "", err
	}
	id, err := current.svc.ResolveAccount(ctx, name, tag)
	if err != nil {
		return "", err
	}
	return id.PUUID, nil
}
