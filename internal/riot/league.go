package riot

import (
	"context"
	"fmt"
	"net/url"
)

// Queue types.
const (
	QueueRankedSolo = "RANKED_SOLO_5x5"
	QueueRankedFlex = "RANKED_FLEX_SR"
)

// LeagueEntry is one ranked queue entry. Every field is optional upstream.
type LeagueEntry struct {
	QueueType    *string `json:"queueType"`
	Tier         *string `json:"tier"`
	Rank         *string `json:"rank"`
	LeaguePoints *int    `json:"leaguePoints"`
	Wins         *int    `json:"wins"`
	Losses       *int    `json:"losses"`
}

// Queue returns the queue type, defaulting to solo queue.
func (e LeagueEntry) Queue() string {
	if e.QueueType == nil || *e.QueueType == "" {
		return QueueRankedSolo
	}
	return *e.QueueType
}

// TierOrEmpty returns the tier or "".
func (e LeagueEntry) TierOrEmpty() string { return deref(e.Tier) }

// RankOrEmpty returns the division or "".
func (e LeagueEntry) RankOrEmpty() string { return deref(e.Rank) }

// LP returns league points or 0.
func (e LeagueEntry) LP() int { return derefInt(e.LeaguePoints) }

// WinCount returns season wins or 0.
func (e LeagueEntry) WinCount() int { return derefInt(e.Wins) }

// LossCount returns season losses or 0.
func (e LeagueEntry) LossCount() int { return derefInt(e.Losses) }

// PickEntry selects the solo queue entry, else the first entry.
func PickEntry(entries []LeagueEntry) (LeagueEntry, bool) {
	if len(entries) == 0 {
		return LeagueEntry{}, false
	}
	for _, e := range entries {
		if e.Queue() == QueueRankedSolo {
			return e, true
		}
	}
	return entries[0], true
}

// RankedEntries retrieves ranked entries by encrypted summoner id.
// Served by the platform host.
func (c *Client) RankedEntries(ctx context.Context, summonerID string) ([]LeagueEntry, error) {
	path := fmt.Sprintf("/lol/league/v4/entries/by-summoner/%s", url.PathEscape(summonerID))

	var entries []LeagueEntry
	if _, err := c.get(ctx, "ranked_entries", routePlatform, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RankedEntriesByPUUID retrieves ranked entries by PUUID, for accounts whose
// summoner profile has no id.
func (c *Client) RankedEntriesByPUUID(ctx context.Context, puuid string) ([]LeagueEntry, error) {
	path := fmt.Sprintf("/lol/league/v4/entries/by-puuid/%s", url.PathEscape(puuid))

	var entries []LeagueEntry
	if _, err := c.get(ctx, "ranked_entries_by_puuid", routePlatform, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
