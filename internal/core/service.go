// Package core is the boundary the application shell calls into. Every
// operation returns either a value or a *Failure naming the failing stage.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"riftcache/internal/cache"
	"riftcache/internal/riot"
	"riftcache/internal/settings"
	"riftcache/internal/stats"
	"riftcache/internal/storage"
)

// DefaultMatchLimit is used when a caller passes no limit.
const DefaultMatchLimit = 20

// Store is the storage the Service reads directly.
type Store interface {
	UpsertIdentity(ctx context.Context, id storage.Identity) error
	GetIdentity(ctx context.Context, puuid string) (*storage.Identity, error)
	ParticipantStatsByPlayer(ctx context.Context, puuid string, limit int) ([]storage.ParticipantStat, error)
	Stats(ctx context.Context) (*storage.Stats, error)
	Health(ctx context.Context) error
}

// PlayerStats is a player's summary plus a per-champion breakdown.
type PlayerStats struct {
	PUUID     string                  `json:"puuid"`
	Summary   stats.Summary           `json:"summary"`
	Champions []stats.ChampionSummary `json:"champions"`
}

// Service exposes the cache to callers.
type Service struct {
	orch     *cache.Orchestrator
	store    Store
	settings *settings.Manager
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(orch *cache.Orchestrator, store Store, mgr *settings.Manager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orch: orch, store: store, settings: mgr, logger: logger}
}

// ParseRiotID splits "name#tag".
func ParseRiotID(riotID string) (gameName, tagLine string, err error) {
	name, tag, ok := strings.Cut(strings.TrimSpace(riotID), "#")
	name, tag = strings.TrimSpace(name), strings.TrimSpace(tag)
	if !ok || name == "" || tag == "" {
		return "", "", inputFailure("riot id %q must look like name#tag", riotID)
	}
	return name, tag, nil
}

// SaveIdentity caches an identity record.
func (s *Service) SaveIdentity(ctx context.Context, id storage.Identity) error {
	if strings.TrimSpace(id.PUUID) == "" {
		return inputFailure("identity needs a puuid")
	}
	return classify(s.store.UpsertIdentity(ctx, id))
}

// Identity returns a cached identity.
func (s *Service) Identity(ctx context.Context, puuid string) (*storage.Identity, error) {
	if err := requirePUUID(puuid); err != nil {
		return nil, err
	}
	id, err := s.store.GetIdentity(ctx, puuid)
	if err != nil {
		return nil, classify(fmt.Errorf("identity %s: %w", puuid, err))
	}
	return id, nil
}

// ResolveAccount resolves a Riot ID upstream and caches the identity.
func (s *Service) ResolveAccount(ctx context.Context, gameName, tagLine string) (*storage.Identity, error) {
	if strings.TrimSpace(gameName) == "" || strings.TrimSpace(tagLine) == "" {
		return nil, inputFailure("game name and tag line are required")
	}
	id, err := s.orch.ResolveAccount(ctx, gameName, tagLine)
	return id, classify(err)
}

// PlayerStats summarizes the player's most recent cached games.
func (s *Service) PlayerStats(ctx context.Context, puuid string) (*PlayerStats, error) {
	if err := requirePUUID(puuid); err != nil {
		return nil, err
	}
	rows, err := s.store.ParticipantStatsByPlayer(ctx, puuid, storage.MaxStatsSample)
	if err != nil {
		return nil, classify(err)
	}
	return &PlayerStats{
		PUUID:     puuid,
		Summary:   stats.Summarize(rows),
		Champions: stats.ByChampion(rows),
	}, nil
}

// Match returns match detail, cache first.
func (s *Service) Match(ctx context.Context, matchID string) (*riot.Match, error) {
	if strings.TrimSpace(matchID) == "" {
		return nil, inputFailure("match id is required")
	}
	m, err := s.orch.Match(ctx, matchID)
	return m, classify(err)
}

// PlayerMatches lists the player's cached matches, newest first.
func (s *Service) PlayerMatches(ctx context.Context, puuid string, limit int) ([]*riot.Match, error) {
	if err := requirePUUID(puuid); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	ms, err := s.orch.PlayerMatches(ctx, puuid, limit)
	return ms, classify(err)
}

// RecentMatches lists the most recently played cached matches of any player.
func (s *Service) RecentMatches(ctx context.Context, limit int) ([]*riot.Match, error) {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	ms, err := s.orch.RecentMatches(ctx, limit)
	return ms, classify(err)
}

// SyncHistory backfills the player's most recent matches.
func (s *Service) SyncHistory(ctx context.Context, puuid string, count int) (*cache.SyncResult, error) {
	if err := requirePUUID(puuid); err != nil {
		return nil, err
	}
	if count <= 0 {
		count = DefaultMatchLimit
	}
	res, err := s.orch.SyncHistory(ctx, puuid, count)
	return res, classify(err)
}

// Ranked returns the player's ranked standing, refreshing it when stale.
func (s *Service) Ranked(ctx context.Context, puuid string) (*storage.RankedSnapshot, error) {
	if err := requirePUUID(puuid); err != nil {
		return nil, err
	}
	snap, err := s.orch.Ranked(ctx, puuid)
	return snap, classify(err)
}

// SearchIdentities fuzzy searches cached identities.
func (s *Service) SearchIdentities(ctx context.Context, query string, limit int) ([]storage.Identity, error) {
	ids, err := s.orch.SearchIdentities(ctx, query, limit)
	return ids, classify(err)
}

// APIKey returns the persisted API key.
func (s *Service) APIKey(ctx context.Context) (string, error) {
	key, err := s.settings.APIKey(ctx)
	return key, classify(err)
}

// SetAPIKey persists and activates an API key.
func (s *Service) SetAPIKey(ctx context.Context, key string) error {
	if err := s.settings.SetAPIKey(ctx, key); err != nil {
		return classify(err)
	}
	s.logger.Info("api key updated", "key", settings.Redact(key))
	return nil
}

// Region returns the active platform region.
func (s *Service) Region() string {
	return s.settings.Region()
}

// SetRegion persists and activates a platform region.
func (s *Service) SetRegion(ctx context.Context, region string) error {
	if err := s.settings.SetRegion(ctx, region); err != nil {
		return classify(err)
	}
	s.logger.Info("region updated", "region", s.settings.Region(), "cluster", riot.RegionalCluster(s.settings.Region()))
	return nil
}

// StoreStats reports table counts and database size.
func (s *Service) StoreStats(ctx context.Context) (*storage.Stats, error) {
	st, err := s.store.Stats(ctx)
	return st, classify(err)
}

// Health checks that the store answers.
func (s *Service) Health(ctx context.Context) error {
	return classify(s.store.Health(ctx))
}

func requirePUUID(puuid string) error {
	if strings.TrimSpace(puuid) == "" {
		return inputFailure("puuid is required")
	}
	return nil
}
