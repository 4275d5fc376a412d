package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"riftcache/internal/riot"
)

// MatchRecord is a stored match: denormalized columns plus the upstream payload.
type MatchRecord struct {
	MatchID      string
	GameCreation int64 // unix seconds
	GameDuration int64 // seconds
	GameMode     string
	GameType     string
	QueueID      int
	MapID        int
	PlatformID   string
	GameVersion  string
	Payload      []byte
	CreatedAt    int64
}

// NewMatchRecord builds a record from a fetched match. The payload is the raw
// upstream body when available.
func NewMatchRecord(m *riot.Match) (MatchRecord, error) {
	if m == nil || m.Metadata.MatchID == "" {
		return MatchRecord{}, NewInvalidDataError("match has no id")
	}

	payload := []byte(m.Raw)
	if len(payload) == 0 {
		var err error
		payload, err = json.Marshal(m)
		if err != nil {
			return MatchRecord{}, &StorageError{Type: ErrorTypeInvalidData, Message: "failed to encode match", Cause: err}
		}
	}

	return MatchRecord{
		MatchID:      m.Metadata.MatchID,
		GameCreation: m.Info.GameCreation / 1000,
		GameDuration: m.Info.GameDuration,
		GameMode:     m.Info.GameMode,
		GameType:     m.Info.GameType,
		QueueID:      m.Info.QueueID,
		MapID:        m.Info.MapID,
		PlatformID:   m.Info.PlatformID,
		GameVersion:  m.Info.GameVersion,
		Payload:      payload,
	}, nil
}

// Decode parses the stored payload.
func (r *MatchRecord) Decode() (*riot.Match, error) {
	return riot.DecodeMatch(r.Payload)
}

// InsertMatch stores a match if its id is not already present.
// A duplicate is a no-op; inserted reports whether a row was written.
func (s *Storage) InsertMatch(ctx context.Context, rec MatchRecord) (inserted bool, err error) {
	if rec.MatchID == "" {
		return false, NewInvalidDataError("match has no id")
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = s.unixNow()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (match_id, game_creation, game_duration, game_mode, game_type,
			queue_id, map_id, platform_id, game_version, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id) DO NOTHING`,
		rec.MatchID, rec.GameCreation, rec.GameDuration, rec.GameMode, rec.GameType,
		rec.QueueID, rec.MapID, rec.PlatformID, rec.GameVersion, rec.Payload, rec.CreatedAt,
	)
	if err != nil {
		return false, NewInfrastructureError("failed to insert match", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, NewInfrastructureError("failed to insert match", err)
	}
	return n > 0, nil
}

// MatchExists reports whether a match id is stored.
func (s *Storage) MatchExists(ctx context.Context, matchID string) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE match_id = ?`, matchID).Scan(&n)
	if err != nil {
		return false, NewInfrastructureError("failed to check match", err)
	}
	return n > 0, nil
}

const matchColumns = `m.match_id, m.game_creation, m.game_duration, m.game_mode, m.game_type,
	m.queue_id, m.map_id, m.platform_id, m.game_version, m.payload, m.created_at`

// GetMatch returns a stored match or ErrNotFound.
func (s *Storage) GetMatch(ctx context.Context, matchID string) (*MatchRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches m WHERE m.match_id = ?`, matchID)
	rec, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewInfrastructureError("failed to get match", err)
	}
	return rec, nil
}

// MatchesByPlayer returns up to limit matches the player took part in,
// newest first. A non-positive limit returns nothing.
func (s *Storage) MatchesByPlayer(ctx context.Context, puuid string, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+matchColumns+`
		FROM matches m
		JOIN participant_stats p ON p.match_id = m.match_id
		WHERE p.puuid = ?
		ORDER BY m.game_creation DESC, m.match_id DESC
		LIMIT ?`, puuid, limit)
	if err != nil {
		return nil, NewInfrastructureError("failed to query player matches", err)
	}
	defer rows.Close()

	var out []MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, NewInfrastructureError("failed to scan match", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, NewInfrastructureError("failed to query player matches", err)
	}
	return out, nil
}

// RecentMatches returns up to limit stored matches across every player,
// newest first. A non-positive limit returns nothing.
func (s *Storage) RecentMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+matchColumns+`
		FROM matches m
		ORDER BY m.game_creation DESC, m.match_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, NewInfrastructureError("failed to query recent matches", err)
	}
	defer rows.Close()

	var out []MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, NewInfrastructureError("failed to scan match", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, NewInfrastructureError("failed to query recent matches", err)
	}
	return out, nil
}

func scanMatch(row rowScanner) (*MatchRecord, error) {
	var rec MatchRecord
	if err := row.Scan(&rec.MatchID, &rec.GameCreation, &rec.GameDuration, &rec.GameMode, &rec.GameType,
		&rec.QueueID, &rec.MapID, &rec.PlatformID, &rec.GameVersion, &rec.Payload, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
