package riot

import (
	"context"
	"fmt"
	"net/url"
)

// Account represents a Riot account from the Account-V1 API
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// RiotID returns "GameName#TagLine".
func (a *Account) RiotID() string {
	return a.GameName + "#" + a.TagLine
}

// AccountByRiotID retrieves account information by Riot ID.
// Served by the regional cluster.
func (c *Client) AccountByRiotID(ctx context.Context, gameName, tagLine string) (*Account, error) {
	path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
		url.PathEscape(gameName), url.PathEscape(tagLine))

	var account Account
	if _, err := c.get(ctx, "account_by_riot_id", routeRegional, path, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
