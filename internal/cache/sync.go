package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"riftcache/internal/riot"
	"riftcache/internal/storage"
)

// SyncResult summarizes a history sync.
type SyncResult struct {
	PUUID       string   `json:"puuid"`
	Requested   int      `json:"requested"`
	Listed      int      `json:"listed"`
	Cached      int      `json:"cached"`
	Fetched     int      `json:"fetched"`
	Failed      []string `json:"failed,omitempty"`
	TotalCached int      `json:"total_cached"`
}

// SyncHistory makes sure the player's count most recent matches are cached.
// The newest page of match ids is always listed upstream. When the newest id
// matches the last sync and that page is already stored, nothing else is
// done. Otherwise each missing match goes through the Match read-through
// path. A match that fails to fetch is logged and recorded, not fatal.
func (o *Orchestrator) SyncHistory(ctx context.Context, puuid string, count int) (_ *SyncResult, err error) {
	ctx, span, logger := o.begin(ctx, "sync_history",
		attribute.String("player.puuid", puuid),
		attribute.Int("sync.count", count),
	)
	defer func() { endSpan(span, err) }()

	if count <= 0 || count > riot.MaxMatchIDsPerPage {
		count = riot.MaxMatchIDsPerPage
	}
	result := &SyncResult{PUUID: puuid, Requested: count}

	ids, err := o.client.MatchIDs(ctx, puuid, 0, count)
	if err != nil {
		return nil, err
	}
	result.Listed = len(ids)

	if o.upToDate(ctx, logger, puuid, ids) {
		result.Cached = len(ids)
		result.TotalCached, err = o.store.CountMatchesByPlayer(ctx, puuid)
		if err != nil {
			return nil, err
		}
		logger.Debug("history already cached", "puuid", puuid, "newest", ids[0])
		return result, nil
	}

	var cachedN, fetchedN atomic.Int32
	failed := make([]string, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(o.syncConcurrency))

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			exists, err := o.store.MatchExists(gctx, id)
			if err != nil {
				logger.Warn("failed to check cached match", "match_id", id, "error", err)
			} else if exists {
				cachedN.Add(1)
				return nil
			}

			if _, err := o.Match(gctx, id); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logger.Warn("failed to sync match", "match_id", id, "error", err)
				failed[i] = id
				return nil
			}
			fetchedN.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, id := range failed {
		if id != "" {
			result.Failed = append(result.Failed, id)
		}
	}
	result.Cached = int(cachedN.Load())
	result.Fetched = int(fetchedN.Load())

	result.TotalCached, err = o.store.CountMatchesByPlayer(ctx, puuid)
	if err != nil {
		return nil, err
	}

	meta := storage.SyncMetadata{PUUID: puuid, TotalCached: result.TotalCached}
	if len(ids) > 0 {
		meta.LastMatchID = ids[0]
	}
	if err := o.store.UpsertSyncMetadata(ctx, meta); err != nil {
		logger.Warn("failed to persist sync metadata", "puuid", puuid, "error", err)
	}

	logger.Info("history synced",
		"puuid", puuid,
		"listed", result.Listed,
		"cached", result.Cached,
		"fetched", result.Fetched,
		"failed", len(result.Failed),
	)
	return result, nil
}

// upToDate reports whether the last sync saw the same newest match and every
// listed match is stored.
func (o *Orchestrator) upToDate(ctx context.Context, logger *slog.Logger, puuid string, ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	meta, err := o.store.GetSyncMetadata(ctx, puuid)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("failed to read sync metadata", "puuid", puuid, "error", err)
		}
		return false
	}
	if meta.LastMatchID != ids[0] {
		return false
	}

	cached, err := o.store.MatchesByPlayer(ctx, puuid, len(ids))
	if err != nil || len(cached) < len(ids) {
		return false
	}
	stored := make(map[string]struct{}, len(cached))
	for i := range cached {
		stored[cached[i].MatchID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := stored[id]; !ok {
			return false
		}
	}
	return true
}
