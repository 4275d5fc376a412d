package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"riftcache/internal/riot"
	"riftcache/internal/storage"
)

// Source says where a value was served from.
type Source string

const (
	SourceMemory   Source = "memory"
	SourceStore    Source = "store"
	SourceUpstream Source = "upstream"
)

// Match returns match detail. Stored matches are served without an upstream
// call; matches are immutable, so a hit never expires. The returned value is
// shared and must not be modified.
func (o *Orchestrator) Match(ctx context.Context, matchID string) (*riot.Match, error) {
	m, _, err := o.MatchWithSource(ctx, matchID)
	return m, err
}

// MatchWithSource is Match that also reports where the match came from.
func (o *Orchestrator) MatchWithSource(ctx context.Context, matchID string) (m *riot.Match, src Source, err error) {
	ctx, span, logger := o.begin(ctx, "match", attribute.String("match.id", matchID))
	defer func() {
		span.SetAttributes(attribute.String("cache.source", string(src)))
		endSpan(span, err)
	}()

	if v, ok := o.hot.Get(matchID); ok {
		logger.Debug("match served from memory", "match_id", matchID)
		return v.(*riot.Match), SourceMemory, nil
	}

	rec, err := o.store.GetMatch(ctx, matchID)
	switch {
	case err == nil:
		m, err := rec.Decode()
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode cached match %s: %w", matchID, err)
		}
		o.hot.Add(matchID, m)
		logger.Debug("match cache hit", "match_id", matchID)
		return m, SourceStore, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, "", err
	}

	logger.Debug("match cache miss", "match_id", matchID)
	m, err = o.client.Match(ctx, matchID)
	if err != nil {
		return nil, "", err
	}

	o.persistMatch(ctx, logger, m)
	o.hot.Add(matchID, m)
	return m, SourceUpstream, nil
}

// persistMatch stores a fetched match and its participant rows. Failures are
// logged and dropped.
func (o *Orchestrator) persistMatch(ctx context.Context, logger *slog.Logger, m *riot.Match) {
	rec, err := storage.NewMatchRecord(m)
	if err != nil {
		logger.Warn("failed to persist match", "match_id", m.Metadata.MatchID, "error", err)
		return
	}
	inserted, err := o.store.InsertMatch(ctx, rec)
	if err != nil {
		logger.Warn("failed to persist match", "match_id", rec.MatchID, "error", err)
		return
	}

	res, err := o.store.InsertParticipants(ctx, storage.FlattenParticipants(m))
	if err != nil {
		logger.Warn("failed to persist participant stats", "match_id", rec.MatchID, "error", err)
		return
	}
	if res.HasRejections() {
		logger.Warn("participant stats rejected", "match_id", rec.MatchID, "rejected", res.Rejected, "error", res.ErrorMessage())
	}
	logger.Debug("match persisted", "match_id", rec.MatchID, "inserted", inserted, "participants", res.Accepted)
}

// PlayerMatches returns up to limit cached matches for a player, newest
// first. Rows whose payload does not decode are skipped.
func (o *Orchestrator) PlayerMatches(ctx context.Context, puuid string, limit int) (_ []*riot.Match, err error) {
	ctx, span, logger := o.begin(ctx, "player_matches", attribute.String("player.puuid", puuid))
	defer func() { endSpan(span, err) }()

	recs, err := o.store.MatchesByPlayer(ctx, puuid, limit)
	if err != nil {
		return nil, err
	}
	return decodeRecords(logger, recs), nil
}

// RecentMatches returns up to limit cached matches across every player,
// newest first. It never calls upstream.
func (o *Orchestrator) RecentMatches(ctx context.Context, limit int) (_ []*riot.Match, err error) {
	ctx, span, logger := o.begin(ctx, "recent_matches", attribute.Int("limit", limit))
	defer func() { endSpan(span, err) }()

	recs, err := o.store.RecentMatches(ctx, limit)
	if err != nil {
		return nil, err
	}
	return decodeRecords(logger, recs), nil
}

func decodeRecords(logger *slog.Logger, recs []storage.MatchRecord) []*riot.Match {
	out := make([]*riot.Match, 0, len(recs))
	for i := range recs {
		m, err := recs[i].Decode()
		if err != nil {
			logger.Debug("skipping malformed cached match", "match_id", recs[i].MatchID, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out
}
