package storage

import (
	"context"
	"database/sql"
	"errors"
)

// Identity is a cached player identity.
type Identity struct {
	PUUID         string
	GameName      string
	TagLine       string
	SummonerID    string // empty when upstream omits it
	AccountID     string // empty when upstream omits it
	SummonerLevel int
	ProfileIconID int
	LastUpdated   int64 // unix seconds
}

// RiotID returns "GameName#TagLine".
func (i Identity) RiotID() string {
	return i.GameName + "#" + i.TagLine
}

// UpsertIdentity inserts or fully overwrites an identity.
// A zero LastUpdated is stamped with the store clock.
func (s *Storage) UpsertIdentity(ctx context.Context, id Identity) error {
	if id.PUUID == "" {
		return NewInvalidDataError("identity has no puuid")
	}
	if id.LastUpdated == 0 {
		id.LastUpdated = s.unixNow()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (puuid, game_name, tag_line, summoner_id, account_id,
			summoner_level, profile_icon_id, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (puuid) DO UPDATE SET
			game_name = excluded.game_name,
			tag_line = excluded.tag_line,
			summoner_id = excluded.summoner_id,
			account_id = excluded.account_id,
			summoner_level = excluded.summoner_level,
			profile_icon_id = excluded.profile_icon_id,
			last_updated = excluded.last_updated`,
		id.PUUID, id.GameName, id.TagLine, nullString(id.SummonerID), nullString(id.AccountID),
		id.SummonerLevel, id.ProfileIconID, id.LastUpdated,
	)
	if err != nil {
		return NewInfrastructureError("failed to upsert identity", err)
	}
	return nil
}

const identityColumns = `puuid, game_name, tag_line, summoner_id, account_id,
	summoner_level, profile_icon_id, last_updated`

// GetIdentity returns the identity for puuid or ErrNotFound.
func (s *Storage) GetIdentity(ctx context.Context, puuid string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE puuid = ?`, puuid)
	id, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewInfrastructureError("failed to get identity", err)
	}
	return id, nil
}

// ListIdentities returns every cached identity, most recently updated first.
func (s *Storage) ListIdentities(ctx context.Context) ([]Identity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY last_updated DESC, puuid`)
	if err != nil {
		return nil, NewInfrastructureError("failed to list identities", err)
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		id, err := scanIdentity(rows)
		if err != nil {
			return nil, NewInfrastructureError("failed to scan identity", err)
		}
		out = append(out, *id)
	}
	if err := rows.Err(); err != nil {
		return nil, NewInfrastructureError("failed to list identities", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*Identity, error) {
	var (
		id                    Identity
		summonerID, accountID sql.NullString
	)
	if err := row.Scan(&id.PUUID, &id.GameName, &id.TagLine, &summonerID, &accountID,
		&id.SummonerLevel, &id.ProfileIconID, &id.LastUpdated); err != nil {
		return nil, err
	}
	id.SummonerID = summonerID.String
	id.AccountID = accountID.String
	return &id, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
