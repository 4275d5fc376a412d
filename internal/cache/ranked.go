package cache

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"riftcache/internal/riot"
	"riftcache/internal/storage"
)

// Ranked returns the player's ranked standing, refreshing it from upstream
// once the cached snapshot has expired. Players with no ranked entry are
// cached as unranked snapshots.
func (o *Orchestrator) Ranked(ctx context.Context, puuid string) (_ *storage.RankedSnapshot, err error) {
	ctx, span, logger := o.begin(ctx, "ranked", attribute.String("player.puuid", puuid))
	defer func() { endSpan(span, err) }()

	snap, err := o.store.GetRanked(ctx, puuid)
	if err == nil {
		logger.Debug("ranked cache hit", "puuid", puuid)
		return snap, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	logger.Debug("ranked cache miss", "puuid", puuid)
	entries, err := o.rankedEntries(ctx, logger, puuid)
	if err != nil {
		return nil, err
	}

	fresh := storage.RankedSnapshot{PUUID: puuid, QueueType: riot.QueueRankedSolo}
	if entry, ok := riot.PickEntry(entries); ok {
		fresh.Tier = entry.TierOrEmpty()
		fresh.Rank = entry.RankOrEmpty()
		fresh.LeaguePoints = entry.LP()
		fresh.Wins = entry.WinCount()
		fresh.Losses = entry.LossCount()
		fresh.QueueType = entry.Queue()
	}

	stored, err := o.store.UpsertRanked(ctx, fresh)
	if err != nil {
		logger.Warn("failed to persist ranked snapshot", "puuid", puuid, "error", err)
		fresh.CachedAt = o.now().UTC().Unix()
		return &fresh, nil
	}
	return &stored, nil
}

// rankedEntries looks entries up by summoner id when one is known and by
// puuid otherwise.
func (o *Orchestrator) rankedEntries(ctx context.Context, logger *slog.Logger, puuid string) ([]riot.LeagueEntry, error) {
	summonerID := ""
	if id, err := o.store.GetIdentity(ctx, puuid); err == nil {
		summonerID = id.SummonerID
	} else if !errors.Is(err, storage.ErrNotFound) {
		logger.Warn("failed to read cached identity", "puuid", puuid, "error", err)
	}

	if summonerID == "" {
		summoner, err := o.client.SummonerByPUUID(ctx, puuid)
		if err != nil {
			return nil, err
		}
		summonerID = summoner.ID
		o.refreshIdentity(ctx, logger, summoner)
	}

	if summonerID == "" {
		return o.client.RankedEntriesByPUUID(ctx, puuid)
	}
	return o.client.RankedEntries(ctx, summonerID)
}

// refreshIdentity folds a summoner profile into an already cached identity.
// Unknown players are left alone since the profile carries no Riot ID.
func (o *Orchestrator) refreshIdentity(ctx context.Context, logger *slog.Logger, s *riot.Summoner) {
	id, err := o.store.GetIdentity(ctx, s.PUUID)
	if err != nil {
		return
	}
	id.SummonerID = s.ID
	id.AccountID = s.AccountID
	id.SummonerLevel = s.SummonerLevel
	id.ProfileIconID = s.ProfileIconID
	id.LastUpdated = 0
	if err := o.store.UpsertIdentity(ctx, *id); err != nil {
		logger.Warn("failed to persist identity", "puuid", s.PUUID, "error", err)
	}
}
