package main

import (
	"fmt"
	"time"

	"riftcache/internal/riot"
	"riftcache/internal/storage"
)

type identityJSON struct {
	PUUID         string `json:"puuid"`
	RiotID        string `json:"riot_id"`
	SummonerID    string `json:"summoner_id,omitempty"`
	SummonerLevel int    `json:"summoner_level"`
	ProfileIconID int    `json:"profile_icon_id"`
	LastUpdated   string `json:"last_updated"`
}

func identityView(id *storage.Identity) identityJSON {
	return identityJSON{
		PUUID:         id.PUUID,
		RiotID:        id.RiotID(),
		SummonerID:    id.SummonerID,
		SummonerLevel: id.SummonerLevel,
		ProfileIconID: id.ProfileIconID,
		LastUpdated:   unixRFC3339(id.LastUpdated),
	}
}

// matchLine is one row of a match list, with the given player's line when present.
type matchLine struct {
	MatchID  string `json:"match_id"`
	Played   string `json:"played"`
	Queue    string `json:"queue"`
	Duration string `json:"duration"`
	Champion string `json:"champion,omitempty"`
	Role     string `json:"role,omitempty"`
	Result   string `json:"result,omitempty"`
	KDA      string `json:"kda,omitempty"`
	CS       int    `json:"cs,omitempty"`
}

func newMatchLine(m *riot.Match, puuid string) matchLine {
	line := matchLine{
		MatchID:  m.Metadata.MatchID,
		Played:   unixRFC3339(m.Info.GameCreation / 1000),
		Queue:    riot.QueueName(m.Info.QueueID),
		Duration: (time.Duration(m.Info.GameDuration) * time.Second).String(),
	}
	if p := m.FindParticipant(puuid); p != nil {
		line.Champion = p.ChampionName
		line.Role = p.Role()
		line.Result = "loss"
		if p.Win {
			line.Result = "win"
		}
		line.KDA = fmt.Sprintf("%d/%d/%d", p.Kills, p.Deaths, p.Assists)
		line.CS = p.CreepScore()
	}
	return line
}

type rankedJSON struct {
	PUUID        string `json:"puuid"`
	Queue        string `json:"queue"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank,omitempty"`
	LeaguePoints int    `json:"league_points"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	CachedAt     string `json:"cached_at"`
}

func rankedView(s *storage.RankedSnapshot) rankedJSON {
	tier := s.Tier
	if s.Unranked() {
		tier = "UNRANKED"
	}
	return rankedJSON{
		PUUID:        s.PUUID,
		Queue:        s.QueueType,
		Tier:         tier,
		Rank:         s.Rank,
		LeaguePoints: s.LeaguePoints,
		Wins:         s.Wins,
		Losses:       s.Losses,
		CachedAt:     unixRFC3339(s.CachedAt),
	}
}

// StatsResponse is the JSON shape of store-stats.
type StatsResponse struct {
	Database  DatabaseStats  `json:"database"`
	Tables    TableStats     `json:"tables"`
	Retention RetentionStats `json:"retention"`
	Sweep     *SweepStats    `json:"sweep,omitempty"`
}

type DatabaseStats struct {
	Driver       string `json:"driver"`
	Path         string `json:"path"`
	SizeBytes    int64  `json:"size_bytes"`
	WALSizeBytes int64  `json:"wal_size_bytes"`
}

type TableStats struct {
	Identities       int64 `json:"identities"`
	Matches          int64 `json:"matches"`
	ParticipantStats int64 `json:"participant_stats"`
	RankedSnapshots  int64 `json:"ranked_cache"`
	SyncedPlayers    int64 `json:"sync_metadata"`
	Settings         int64 `json:"settings"`
}

type RetentionStats struct {
	Enabled bool   `json:"enabled"`
	Ranked  string `json:"ranked"`
}

type SweepStats struct {
	LastRun        string `json:"last_run"`
	LastDurationMs int64  `json:"last_duration_ms"`
	RankedDeleted  int64  `json:"ranked_deleted"`
}

func statsView(st *storage.Stats, retention time.Duration) StatsResponse {
	resp := StatsResponse{
		Database: DatabaseStats{
			Driver:       st.Driver,
			Path:         st.DBPath,
			SizeBytes:    st.DBSizeBytes,
			WALSizeBytes: st.WALSizeBytes,
		},
		Tables: TableStats{
			Identities:       st.Tables.Identities,
			Matches:          st.Tables.Matches,
			ParticipantStats: st.Tables.ParticipantStats,
			RankedSnapshots:  st.Tables.RankedSnapshots,
			SyncedPlayers:    st.Tables.SyncedPlayers,
			Settings:         st.Tables.Settings,
		},
		Retention: RetentionStats{
			Enabled: retention > 0,
			Ranked:  retention.String(),
		},
	}
	if st.LastSweep != nil {
		s := sweepView(st.LastSweep)
		resp.Sweep = &s
	}
	return resp
}

func sweepView(r *storage.SweepResult) SweepStats {
	return SweepStats{
		LastRun:        r.Timestamp.Format(time.RFC3339),
		LastDurationMs: r.Duration.Milliseconds(),
		RankedDeleted:  r.RankedDeleted,
	}
}

func unixRFC3339(sec int64) string {
	if sec == 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
