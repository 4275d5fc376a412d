package storage

import (
	"context"
	"database/sql"
	"errors"
)

// RankedSnapshot is a cached ranked standing. An empty Tier means unranked.
type RankedSnapshot struct {
	PUUID        string
	Tier         string
	Rank         string
	LeaguePoints int
	Wins         int
	Losses       int
	QueueType    string
	CachedAt     int64 // unix seconds
}

// Unranked reports whether the snapshot records no placement.
func (r RankedSnapshot) Unranked() bool {
	return r.Tier == ""
}

// UpsertRanked replaces the player's snapshot, stamping CachedAt with the
// store clock. The stored snapshot is returned.
func (s *Storage) UpsertRanked(ctx context.Context, snap RankedSnapshot) (RankedSnapshot, error) {
	if snap.PUUID == "" {
		return RankedSnapshot{}, NewInvalidDataError("ranked snapshot has no puuid")
	}
	snap.CachedAt = s.unixNow()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ranked_cache (puuid, tier, rank_value, league_points, wins, losses, queue_type, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (puuid) DO UPDATE SET
			tier = excluded.tier,
			rank_value = excluded.rank_value,
			league_points = excluded.league_points,
			wins = excluded.wins,
			losses = excluded.losses,
			queue_type = excluded.queue_type,
			cached_at = excluded.cached_at`,
		snap.PUUID, nullString(snap.Tier), nullString(snap.Rank), snap.LeaguePoints,
		snap.Wins, snap.Losses, snap.QueueType, snap.CachedAt,
	)
	if err != nil {
		return RankedSnapshot{}, NewInfrastructureError("failed to upsert ranked snapshot", err)
	}
	return snap, nil
}

// GetRanked returns the player's snapshot while it is younger than the TTL.
// Expired and missing snapshots both return ErrNotFound.
func (s *Storage) GetRanked(ctx context.Context, puuid string) (*RankedSnapshot, error) {
	cutoff := s.unixNow() - int64(s.rankedTTL.Seconds())

	var (
		snap       RankedSnapshot
		tier, rank sql.NullString
		lp, w, l   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT puuid, tier, rank_value, league_points, wins, losses, queue_type, cached_at
		FROM ranked_cache
		WHERE puuid = ? AND cached_at > ?`, puuid, cutoff,
	).Scan(&snap.PUUID, &tier, &rank, &lp, &w, &l, &snap.QueueType, &snap.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewInfrastructureError("failed to get ranked snapshot", err)
	}

	snap.Tier = tier.String
	snap.Rank = rank.String
	snap.LeaguePoints = int(lp.Int64)
	snap.Wins = int(w.Int64)
	snap.Losses = int(l.Int64)
	return &snap, nil
}
