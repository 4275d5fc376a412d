// Package stats derives player summaries from cached participant rows.
package stats

import (
	"sort"

	"riftcache/internal/storage"
)

// perfectKDAMultiplier replaces the division when a sample has no deaths.
const perfectKDAMultiplier = 10.0

// Summary aggregates a sample of games for one player.
type Summary struct {
	TotalGames     int     `json:"total_games"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"winrate"`
	AvgKills       float64 `json:"avg_kills"`
	AvgDeaths      float64 `json:"avg_deaths"`
	AvgAssists     float64 `json:"avg_assists"`
	KDA            float64 `json:"kda"`
	AvgCS          float64 `json:"avg_cs"`
	AvgDamageDealt float64 `json:"avg_damage_dealt"`
	AvgVisionScore float64 `json:"avg_vision_score"`
}

// ChampionSummary aggregates the games played on one champion.
type ChampionSummary struct {
	ChampionID   int     `json:"champion_id"`
	ChampionName string  `json:"champion_name"`
	Games        int     `json:"games"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"winrate"`
	KDA          float64 `json:"kda"`
}

// Summarize computes a Summary. An empty sample yields the zero Summary.
func Summarize(rows []storage.ParticipantStat) Summary {
	if len(rows) == 0 {
		return Summary{}
	}

	var wins, kills, deaths, assists, cs, damage, vision int
	for _, r := range rows {
		if r.Win {
			wins++
		}
		kills += r.Kills
		deaths += r.Deaths
		assists += r.Assists
		cs += r.CreepScore
		damage += r.DamageDealt
		vision += r.VisionScore
	}

	n := float64(len(rows))
	s := Summary{
		TotalGames:     len(rows),
		Wins:           wins,
		Losses:         len(rows) - wins,
		WinRate:        float64(wins) / n * 100,
		AvgKills:       float64(kills) / n,
		AvgDeaths:      float64(deaths) / n,
		AvgAssists:     float64(assists) / n,
		AvgCS:          float64(cs) / n,
		AvgDamageDealt: float64(damage) / n,
		AvgVisionScore: float64(vision) / n,
	}
	s.KDA = KDA(s.AvgKills, s.AvgDeaths, s.AvgAssists)
	return s
}

// KDA is (kills + assists) / deaths, or (kills + assists) * 10 when deaths
// is exactly zero.
func KDA(kills, deaths, assists float64) float64 {
	if deaths == 0 {
		return (kills + assists) * perfectKDAMultiplier
	}
	return (kills + assists) / deaths
}

// ByChampion groups a sample per champion, most played first, ties by name.
func ByChampion(rows []storage.ParticipantStat) []ChampionSummary {
	type acc struct {
		summary                ChampionSummary
		kills, deaths, assists int
	}

	byName := make(map[string]*acc)
	for _, r := range rows {
		a, ok := byName[r.ChampionName]
		if !ok {
			a = &acc{summary: ChampionSummary{ChampionID: r.ChampionID, ChampionName: r.ChampionName}}
			byName[r.ChampionName] = a
		}
		a.summary.Games++
		if r.Win {
			a.summary.Wins++
		}
		a.kills += r.Kills
		a.deaths += r.Deaths
		a.assists += r.Assists
	}

	out := make([]ChampionSummary, 0, len(byName))
	for _, a := range byName {
		g := float64(a.summary.Games)
		a.summary.WinRate = float64(a.summary.Wins) / g * 100
		a.summary.KDA = KDA(float64(a.kills)/g, float64(a.deaths)/g, float64(a.assists)/g)
		out = append(out, a.summary)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Games != out[j].Games {
			return out[i].Games > out[j].Games
		}
		return out[i].ChampionName < out[j].ChampionName
	})
	return out
}
