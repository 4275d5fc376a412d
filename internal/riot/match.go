package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// MaxMatchIDsPerPage is the upstream page size limit.
const MaxMatchIDsPerPage = 100

// Match represents match data from the Match-V5 API
type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`

	// Raw is the exact payload the match was decoded from.
	Raw json.RawMessage `json:"-"`
}

// MatchMetadata contains match metadata
type MatchMetadata struct {
	DataVersion  string   `json:"dataVersion"`
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"` // PUUIDs
}

// MatchInfo contains detailed match information
type MatchInfo struct {
	GameCreation       int64         `json:"gameCreation"` // Unix timestamp in ms
	GameDuration       int64         `json:"gameDuration"` // in seconds
	GameEndTimestamp   int64         `json:"gameEndTimestamp,omitempty"`
	GameID             int64         `json:"gameId"`
	GameMode           string        `json:"gameMode"`
	GameName           string        `json:"gameName"`
	GameStartTimestamp int64         `json:"gameStartTimestamp"`
	GameType           string        `json:"gameType"`
	GameVersion        string        `json:"gameVersion"`
	MapID              int           `json:"mapId"`
	PlatformID         string        `json:"platformId"`
	QueueID            int           `json:"queueId"`
	Participants       []Participant `json:"participants"`
	Teams              []Team        `json:"teams"`
	TournamentCode     string        `json:"tournamentCode,omitempty"`
}

// Participant represents a player in the match
type Participant struct {
	PUUID          string `json:"puuid"`
	SummonerName   string `json:"summonerName"`
	RiotIDGameName string `json:"riotIdGameName"`
	RiotIDTagline  string `json:"riotIdTagline"`

	ChampionID   int    `json:"championId"`
	ChampionName string `json:"championName"`
	ChampLevel   int    `json:"champLevel"`

	TeamID             int    `json:"teamId"`
	TeamPosition       string `json:"teamPosition"`
	IndividualPosition string `json:"individualPosition"`

	Win                        bool `json:"win"`
	GameEndedInEarlySurrender  bool `json:"gameEndedInEarlySurrender"`
	GameEndedInSurrender       bool `json:"gameEndedInSurrender"`
	Kills                      int  `json:"kills"`
	Deaths                     int  `json:"deaths"`
	Assists                    int  `json:"assists"`
	TotalDamageDealtToChampion int  `json:"totalDamageDealtToChampions"`
	TotalDamageTaken           int  `json:"totalDamageTaken"`
	TotalHeal                  int  `json:"totalHeal"`
	TotalMinionsKilled         int  `json:"totalMinionsKilled"`
	NeutralMinionsKilled       int  `json:"neutralMinionsKilled"`
	VisionScore                int  `json:"visionScore"`
	GoldEarned                 int  `json:"goldEarned"`

	Item0 int `json:"item0"`
	Item1 int `json:"item1"`
	Item2 int `json:"item2"`
	Item3 int `json:"item3"`
	Item4 int `json:"item4"`
	Item5 int `json:"item5"`
	Item6 int `json:"item6"` // Trinket

	Summoner1ID int `json:"summoner1Id"`
	Summoner2ID int `json:"summoner2Id"`
}

// CreepScore is lane minions plus neutral monsters.
func (p *Participant) CreepScore() int {
	return p.TotalMinionsKilled + p.NeutralMinionsKilled
}

// Role returns the team position, falling back to the individual position.
func (p *Participant) Role() string {
	if p.TeamPosition != "" {
		return p.TeamPosition
	}
	return p.IndividualPosition
}

// Team is one side of a match.
type Team struct {
	TeamID     int        `json:"teamId"`
	Win        bool       `json:"win"`
	Bans       []Ban      `json:"bans"`
	Objectives Objectives `json:"objectives"`
}

// Ban is a champion ban during draft.
type Ban struct {
	ChampionID int `json:"championId"`
	PickTurn   int `json:"pickTurn"`
}

// Objectives lists per-team objective counters.
type Objectives struct {
	Baron      Objective  `json:"baron"`
	Champion   Objective  `json:"champion"`
	Dragon     Objective  `json:"dragon"`
	Horde      *Objective `json:"horde,omitempty"`
	Inhibitor  Objective  `json:"inhibitor"`
	RiftHerald Objective  `json:"riftHerald"`
	Tower      Objective  `json:"tower"`
}

// Objective is a single objective counter.
type Objective struct {
	First bool `json:"first"`
	Kills int  `json:"kills"`
}

// MatchIDs retrieves a page of match IDs for a player, newest first.
// count is clamped to 1..MaxMatchIDsPerPage.
func (c *Client) MatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error) {
	if start < 0 {
		start = 0
	}
	if count <= 0 {
		count = 20
	}
	if count > MaxMatchIDsPerPage {
		count = MaxMatchIDsPerPage
	}

	path := fmt.Sprintf("/lol/match/v5/matches/by-puuid/%s/ids?start=%d&count=%d",
		url.PathEscape(puuid), start, count)

	var matchIDs []string
	if _, err := c.get(ctx, "match_ids", routeRegional, path, &matchIDs); err != nil {
		return nil, err
	}
	return matchIDs, nil
}

// Match retrieves detailed match information.
func (c *Client) Match(ctx context.Context, matchID string) (*Match, error) {
	path := fmt.Sprintf("/lol/match/v5/matches/%s", url.PathEscape(matchID))

	var match Match
	raw, err := c.get(ctx, "match", routeRegional, path, &match)
	if err != nil {
		return nil, err
	}
	match.Raw = raw
	return &match, nil
}

// DecodeMatch decodes a stored match payload.
func DecodeMatch(payload []byte) (*Match, error) {
	var match Match
	if err := json.Unmarshal(payload, &match); err != nil {
		return nil, err
	}
	match.Raw = append(json.RawMessage(nil), payload...)
	return &match, nil
}

// FindParticipant finds a participant in the match by PUUID
func (m *Match) FindParticipant(puuid string) *Participant {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].PUUID == puuid {
			return &m.Info.Participants[i]
		}
	}
	return nil
}

// QueueName returns a human-readable queue name
func QueueName(queueID int) string {
	queueNames := map[int]string{
		420:  "Ranked Solo/Duo",
		440:  "Ranked Flex",
		400:  "Normal Draft",
		430:  "Normal Blind",
		450:  "ARAM",
		900:  "URF",
		1020: "One for All",
		1300: "Nexus Blitz",
		1400: "Ultimate Spellbook",
		1700: "Arena",
	}

	if name, ok := queueNames[queueID]; ok {
		return name
	}
	return "Custom Game"
}
