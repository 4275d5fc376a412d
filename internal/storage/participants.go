package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MaxStatsSample caps how many participant rows feed a player summary.
const MaxStatsSample = 100

// ParticipantStat is one player's line in one match.
type ParticipantStat struct {
	ID           string
	MatchID      string
	PUUID        string
	ChampionID   int
	ChampionName string
	TeamID       int
	Role         string
	Win          bool
	Kills        int
	Deaths       int
	Assists      int
	DamageDealt  int
	DamageTaken  int
	GoldEarned   int
	CreepScore   int
	VisionScore  int
	CreatedAt    int64
}

// InsertParticipants writes one row per participant. A row whose
// (match, player) pair already exists is skipped. The parent match must
// already be stored.
func (s *Storage) InsertParticipants(ctx context.Context, rows []ParticipantStat) (*StoreResult, error) {
	result := &StoreResult{}
	now := s.unixNow()

	for _, r := range rows {
		if r.MatchID == "" || r.PUUID == "" {
			result.AddError(fmt.Sprintf("participant row missing match id or puuid (match=%q puuid=%q)", r.MatchID, r.PUUID))
			continue
		}
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt == 0 {
			r.CreatedAt = now
		}

		res, err := s.db.ExecContext(ctx, `
			INSERT INTO participant_stats (id, match_id, puuid, champion_id, champion_name,
				team_id, role, win, kills, deaths, assists, damage_dealt, damage_taken,
				gold_earned, cs, vision_score, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (match_id, puuid) DO NOTHING`,
			r.ID, r.MatchID, r.PUUID, r.ChampionID, r.ChampionName,
			r.TeamID, r.Role, r.Win, r.Kills, r.Deaths, r.Assists, r.DamageDealt, r.DamageTaken,
			r.GoldEarned, r.CreepScore, r.VisionScore, r.CreatedAt,
		)
		if err != nil {
			return result, NewInfrastructureError("failed to insert participant stats", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			result.Accepted++
		} else {
			result.Skipped++
		}
	}

	return result, nil
}

// ParticipantStatsByPlayer returns up to limit rows for a player ordered by
// the parent match creation time, newest first.
func (s *Storage) ParticipantStatsByPlayer(ctx context.Context, puuid string, limit int) ([]ParticipantStat, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.match_id, p.puuid, p.champion_id, p.champion_name, p.team_id, p.role,
			p.win, p.kills, p.deaths, p.assists, p.damage_dealt, p.damage_taken,
			p.gold_earned, p.cs, p.vision_score, p.created_at
		FROM participant_stats p
		JOIN matches m ON m.match_id = p.match_id
		WHERE p.puuid = ?
		ORDER BY m.game_creation DESC, p.match_id DESC
		LIMIT ?`, puuid, limit)
	if err != nil {
		return nil, NewInfrastructureError("failed to query participant stats", err)
	}
	defer rows.Close()

	var out []ParticipantStat
	for rows.Next() {
		var r ParticipantStat
		if err := rows.Scan(&r.ID, &r.MatchID, &r.PUUID, &r.ChampionID, &r.ChampionName, &r.TeamID, &r.Role,
			&r.Win, &r.Kills, &r.Deaths, &r.Assists, &r.DamageDealt, &r.DamageTaken,
			&r.GoldEarned, &r.CreepScore, &r.VisionScore, &r.CreatedAt); err != nil {
			return nil, NewInfrastructureError("failed to scan participant stats", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewInfrastructureError("failed to query participant stats", err)
	}
	return out, nil
}

// CountMatchesByPlayer returns how many stored matches include the player.
func (s *Storage) CountMatchesByPlayer(ctx context.Context, puuid string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participant_stats WHERE puuid = ?`, puuid).Scan(&n)
	if err != nil {
		return 0, NewInfrastructureError("failed to count player matches", err)
	}
	return n, nil
}
