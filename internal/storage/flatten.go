package storage

import (
	"github.com/google/uuid"

	"riftcache/internal/riot"
)

// FlattenParticipants converts every participant of a match into a
// participant row. Participants without a puuid are dropped.
func FlattenParticipants(m *riot.Match) []ParticipantStat {
	if m == nil {
		return nil
	}

	rows := make([]ParticipantStat, 0, len(m.Info.Participants))
	for i := range m.Info.Participants {
		p := &m.Info.Participants[i]
		if p.PUUID == "" {
			continue
		}
		rows = append(rows, ParticipantStat{
			ID:           uuid.New().String(),
			MatchID:      m.Metadata.MatchID,
			PUUID:        p.PUUID,
			ChampionID:   p.ChampionID,
			ChampionName: p.ChampionName,
			TeamID:       p.TeamID,
			Role:         p.Role(),
			Win:          p.Win,
			Kills:        p.Kills,
			Deaths:       p.Deaths,
			Assists:      p.Assists,
			DamageDealt:  p.TotalDamageDealtToChampion,
			DamageTaken:  p.TotalDamageTaken,
			GoldEarned:   p.GoldEarned,
			CreepScore:   p.CreepScore(),
			VisionScore:  p.VisionScore,
		})
	}
	return rows
}
