package storage

import (
	"context"
	"database/sql"
	"errors"
)

// SyncMetadata records what has been backfilled for a player.
type SyncMetadata struct {
	PUUID       string
	LastMatchID string
	LastFetched int64
	TotalCached int
}

// UpsertSyncMetadata replaces the player's sync bookkeeping.
// A zero LastFetched is stamped with the store clock.
func (s *Storage) UpsertSyncMetadata(ctx context.Context, meta SyncMetadata) error {
	if meta.PUUID == "" {
		return NewInvalidDataError("sync metadata has no puuid")
	}
	if meta.LastFetched == 0 {
		meta.LastFetched = s.unixNow()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_metadata (puuid, last_match_id, last_fetched, total_cached)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (puuid) DO UPDATE SET
			last_match_id = excluded.last_match_id,
			last_fetched = excluded.last_fetched,
			total_cached = excluded.total_cached`,
		meta.PUUID, nullString(meta.LastMatchID), meta.LastFetched, meta.TotalCached,
	)
	if err != nil {
		return NewInfrastructureError("failed to upsert sync metadata", err)
	}
	return nil
}

// GetSyncMetadata returns the player's sync bookkeeping or ErrNotFound.
func (s *Storage) GetSyncMetadata(ctx context.Context, puuid string) (*SyncMetadata, error) {
	var (
		meta   SyncMetadata
		lastID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT puuid, last_match_id, last_fetched, total_cached
		FROM sync_metadata WHERE puuid = ?`, puuid,
	).Scan(&meta.PUUID, &lastID, &meta.LastFetched, &meta.TotalCached)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewInfrastructureError("failed to get sync metadata", err)
	}
	meta.LastMatchID = lastID.String
	return &meta, nil
}
