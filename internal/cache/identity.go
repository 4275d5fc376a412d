package cache

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"
	"go.opentelemetry.io/otel/attribute"

	"riftcache/internal/storage"
)

// ResolveAccount looks a Riot ID up upstream, fetches the summoner profile
// and caches the combined identity. A failed write is logged and the
// identity is still returned.
func (o *Orchestrator) ResolveAccount(ctx context.Context, gameName, tagLine string) (_ *storage.Identity, err error) {
	ctx, span, logger := o.begin(ctx, "resolve_account", attribute.String("riot.id", gameName+"#"+tagLine))
	defer func() { endSpan(span, err) }()

	account, err := o.client.AccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		return nil, err
	}
	summoner, err := o.client.SummonerByPUUID(ctx, account.PUUID)
	if err != nil {
		return nil, err
	}

	id := storage.Identity{
		PUUID:         account.PUUID,
		GameName:      account.GameName,
		TagLine:       account.TagLine,
		SummonerID:    summoner.ID,
		AccountID:     summoner.AccountID,
		SummonerLevel: summoner.SummonerLevel,
		ProfileIconID: summoner.ProfileIconID,
		LastUpdated:   o.now().UTC().Unix(),
	}
	if err := o.store.UpsertIdentity(ctx, id); err != nil {
		logger.Warn("failed to persist identity", "puuid", id.PUUID, "error", err)
	}
	return &id, nil
}

// identityItems implements fuzzy.Source over cached identities.
type identityItems []storage.Identity

func (items identityItems) Len() int { return len(items) }

func (items identityItems) String(i int) string {
	return strings.ToLower(items[i].RiotID())
}

// SearchIdentities fuzzy matches query against cached "name#tag" values and
// returns at most limit identities, best match first. An empty query lists
// the most recently updated identities.
func (o *Orchestrator) SearchIdentities(ctx context.Context, query string, limit int) (_ []storage.Identity, err error) {
	ctx, span, logger := o.begin(ctx, "search_identities", attribute.String("query", query))
	defer func() { endSpan(span, err) }()

	all, err := o.store.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}

	var out []storage.Identity
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out = all
	} else {
		items := identityItems(all)
		matches := fuzzy.FindFrom(query, items)
		out = make([]storage.Identity, 0, len(matches))
		for _, match := range matches {
			out = append(out, items[match.Index])
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	logger.Debug("identity search", "candidates", len(all), "results", len(out))
	return out, nil
}
