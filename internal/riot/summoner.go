package riot

import (
	"context"
	"fmt"
	"net/url"
)

// Summoner is the Summoner-V4 profile. ID and AccountID are no longer
// returned for every account.
type Summoner struct {
	ID            string `json:"id,omitempty"`
	AccountID     string `json:"accountId,omitempty"`
	PUUID         string `json:"puuid"`
	ProfileIconID int    `json:"profileIconId"`
	RevisionDate  int64  `json:"revisionDate"`
	SummonerLevel int    `json:"summonerLevel"`
}

// SummonerByPUUID retrieves a summoner profile. Served by the platform host.
func (c *Client) SummonerByPUUID(ctx context.Context, puuid string) (*Summoner, error) {
	path := fmt.Sprintf("/lol/summoner/v4/summoners/by-puuid/%s", url.PathEscape(puuid))

	var summoner Summoner
	if _, err := c.get(ctx, "summoner_by_puuid", routePlatform, path, &summoner); err != nil {
		return nil, err
	}
	return &summoner, nil
}
