// Package cache decides, per request, whether data is served from the local
// store or fetched from the Riot API and persisted.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"riftcache/internal/riot"
	"riftcache/internal/storage"
)

// Defaults for Config.
const (
	DefaultHotSize         = 256
	DefaultSyncConcurrency = 2
)

// Upstream is the subset of the Riot client the orchestrator needs.
type Upstream interface {
	AccountByRiotID(ctx context.Context, gameName, tagLine string) (*riot.Account, error)
	SummonerByPUUID(ctx context.Context, puuid string) (*riot.Summoner, error)
	MatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error)
	Match(ctx context.Context, matchID string) (*riot.Match, error)
	RankedEntries(ctx context.Context, summonerID string) ([]riot.LeagueEntry, error)
	RankedEntriesByPUUID(ctx context.Context, puuid string) ([]riot.LeagueEntry, error)
}

// Store is the subset of storage the orchestrator needs.
type Store interface {
	GetMatch(ctx context.Context, matchID string) (*storage.MatchRecord, error)
	MatchExists(ctx context.Context, matchID string) (bool, error)
	InsertMatch(ctx context.Context, rec storage.MatchRecord) (bool, error)
	InsertParticipants(ctx context.Context, rows []storage.ParticipantStat) (*storage.StoreResult, error)
	MatchesByPlayer(ctx context.Context, puuid string, limit int) ([]storage.MatchRecord, error)
	RecentMatches(ctx context.Context, limit int) ([]storage.MatchRecord, error)
	CountMatchesByPlayer(ctx context.Context, puuid string) (int, error)

	GetRanked(ctx context.Context, puuid string) (*storage.RankedSnapshot, error)
	UpsertRanked(ctx context.Context, snap storage.RankedSnapshot) (storage.RankedSnapshot, error)

	GetIdentity(ctx context.Context, puuid string) (*storage.Identity, error)
	UpsertIdentity(ctx context.Context, id storage.Identity) error
	ListIdentities(ctx context.Context) ([]storage.Identity, error)

	GetSyncMetadata(ctx context.Context, puuid string) (*storage.SyncMetadata, error)
	UpsertSyncMetadata(ctx context.Context, meta storage.SyncMetadata) error
}

// Config holds orchestrator tuning.
type Config struct {
	// HotSize is the number of decoded matches kept in memory.
	HotSize int
	// SyncConcurrency bounds concurrent match fetches during a history sync.
	SyncConcurrency int
}

// Orchestrator implements read-through caching over a Store and an Upstream.
// Concurrent misses for the same key are not coalesced.
type Orchestrator struct {
	client          Upstream
	store           Store
	hot             *lru.Cache
	syncConcurrency int
	logger          *slog.Logger
	tracer          trace.Tracer
	now             func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the clock used for snapshots that could not be persisted.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an Orchestrator.
func New(client Upstream, store Store, cfg Config, opts ...Option) (*Orchestrator, error) {
	if cfg.HotSize <= 0 {
		cfg.HotSize = DefaultHotSize
	}
	if cfg.SyncConcurrency <= 0 {
		cfg.SyncConcurrency = DefaultSyncConcurrency
	}

	hot, err := lru.New(cfg.HotSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create hot cache: %w", err)
	}

	o := &Orchestrator{
		client:          client,
		store:           store,
		hot:             hot,
		syncConcurrency: cfg.SyncConcurrency,
		logger:          slog.Default(),
		tracer:          otel.Tracer("riftcache/internal/cache"),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// begin starts a span and returns a logger tagged with a fresh operation id.
func (o *Orchestrator) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span, *slog.Logger) {
	opID := uuid.NewString()
	attrs = append(attrs, attribute.String("op.id", opID))
	ctx, span := o.tracer.Start(ctx, "cache."+op, trace.WithAttributes(attrs...))
	return ctx, span, o.logger.With("op", op, "op_id", opID)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
