package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"riftcache/internal/cache"
	"riftcache/internal/riot"
	"riftcache/internal/settings"
	"riftcache/internal/storage"
)

const testKey = "RGAPI-0b6c1f4e-8a52-4d5e-9a3f-2f7c1d9e4b10"

type testEnv struct {
	svc   *Service
	store *storage.Storage
	calls *atomic.Int32
}

func newTestEnv(t *testing.T, handler http.HandlerFunc) *testEnv {
	t.Helper()

	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	store, err := storage.New(storage.Config{Path: filepath.Join(t.TempDir(), "riftcache.db")})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cell := settings.NewCell(settings.DefaultRegion)
	mgr := settings.NewManager(store, cell, riot.IsPlatform, nil)
	client := riot.NewClient(riot.Config{BaseURL: srv.URL + "/{host}"}, cell)

	orch, err := cache.New(client, store, cache.Config{})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	return &testEnv{svc: NewService(orch, store, mgr, nil), store: store, calls: calls}
}

func matchPayload(t *testing.T, id string, players ...riot.Participant) []byte {
	t.Helper()

	m := riot.Match{
		Metadata: riot.MatchMetadata{DataVersion: "2", MatchID: id},
		Info:     riot.MatchInfo{GameCreation: 1_700_000_000_000, GameDuration: 1500, GameMode: "CLASSIC", QueueID: 420},
	}
	for _, p := range players {
		m.Metadata.Participants = append(m.Metadata.Participants, p.PUUID)
	}
	m.Info.Participants = players
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Stage
	}{
		{name: "not configured", err: fmt.Errorf("match: %w", settings.ErrNotConfigured), want: StageConfig},
		{name: "invalid key", err: settings.ErrInvalidKey, want: StageInput},
		{name: "invalid region", err: fmt.Errorf("%w: %q", settings.ErrInvalidRegion, "xx"), want: StageInput},
		{name: "transport", err: &riot.Error{Kind: riot.KindTransport, Op: "match", Cause: errors.New("dial tcp")}, want: StageConnect},
		{name: "throttled", err: &riot.Error{Kind: riot.KindThrottled, Op: "match", Status: 429}, want: StageFetch},
		{name: "status", err: &riot.Error{Kind: riot.KindStatus, Op: "match", Status: 403}, want: StageFetch},
		{name: "decode", err: &riot.Error{Kind: riot.KindDecode, Op: "match", Cause: errors.New("bad json")}, want: StageParse},
		{name: "storage", err: storage.NewInfrastructureError("failed to insert match", errors.New("locked")), want: StagePersist},
		{name: "invalid data", err: storage.NewInvalidDataError("match has no id"), want: StageInput},
		{name: "not found", err: storage.ErrNotFound, want: StageFetch},
		{name: "cached payload", err: json.Unmarshal([]byte(`{`), &struct{}{}), want: StageParse},
		{name: "cancelled", err: context.Canceled, want: StageConnect},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := classify(tc.err)
			stage, ok := StageOf(err)
			if !ok || stage != tc.want {
				t.Fatalf("expected stage %q, got %q (%v)", tc.want, stage, err)
			}
			if !strings.HasPrefix(err.Error(), string(tc.want)+": ") {
				t.Fatalf("expected message prefixed by stage, got %q", err.Error())
			}
			if !errors.Is(err, tc.err) {
				t.Fatal("expected original error to stay in the chain")
			}
		})
	}

	if classify(nil) != nil {
		t.Fatal("expected nil to stay nil")
	}
}

func TestParseRiotID(t *testing.T) {
	t.Parallel()

	name, tag, err := ParseRiotID(" Hide on bush # KR1 ")
	if err != nil || name != "Hide on bush" || tag != "KR1" {
		t.Fatalf("unexpected parse: %q %q %v", name, tag, err)
	}
	for _, bad := range []string{"", "nohash", "#KR1", "name#"} {
		if _, _, err := ParseRiotID(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		} else if stage, _ := StageOf(err); stage != StageInput {
			t.Fatalf("expected input stage for %q, got %q", bad, stage)
		}
	}
}

func TestMatchWithoutAPIKeyIsConfigFailure(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := env.svc.Match(context.Background(), "EUW1_1")
	if stage, _ := StageOf(err); stage != StageConfig {
		t.Fatalf("expected config failure, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "config: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if env.calls.Load() != 0 {
		t.Fatal("expected no upstream call")
	}
}

func TestMatchThenPlayerStats(t *testing.T) {
	payload := matchPayload(t, "EUW1_42",
		riot.Participant{PUUID: "me", ChampionName: "Ahri", Win: true, Kills: 10, Deaths: 2, Assists: 6},
		riot.Participant{PUUID: "you", ChampionName: "Zed", Kills: 2, Deaths: 10, Assists: 1},
	)
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})
	ctx := context.Background()

	if err := env.svc.SetAPIKey(ctx, testKey); err != nil {
		t.Fatalf("set key: %v", err)
	}

	m, err := env.svc.Match(ctx, "EUW1_42")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if m.Metadata.MatchID != "EUW1_42" {
		t.Fatalf("unexpected match %s", m.Metadata.MatchID)
	}
	if _, err := env.svc.Match(ctx, "EUW1_42"); err != nil {
		t.Fatalf("match: %v", err)
	}
	if got := env.calls.Load(); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}

	ps, err := env.svc.PlayerStats(ctx, "me")
	if err != nil {
		t.Fatalf("player stats: %v", err)
	}
	if ps.Summary.TotalGames != 1 || ps.Summary.WinRate != 100 || ps.Summary.KDA != 8 {
		t.Fatalf("unexpected summary %+v", ps.Summary)
	}
	if len(ps.Champions) != 1 || ps.Champions[0].ChampionName != "Ahri" {
		t.Fatalf("unexpected champions %+v", ps.Champions)
	}

	matches, err := env.svc.PlayerMatches(ctx, "you", 0)
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one cached match for you, got %d (%v)", len(matches), err)
	}
}

func TestUpstreamStatusIsFetchFailure(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "Forbidden")
	})
	ctx := context.Background()
	if err := env.svc.SetAPIKey(ctx, testKey); err != nil {
		t.Fatalf("set key: %v", err)
	}

	_, err := env.svc.Ranked(ctx, "me")
	if stage, _ := StageOf(err); stage != StageFetch {
		t.Fatalf("expected fetch failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status in message, got %q", err.Error())
	}
}

func TestPlayerStatsEmpty(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

	ps, err := env.svc.PlayerStats(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("player stats: %v", err)
	}
	if ps.Summary.TotalGames != 0 || ps.Summary.KDA != 0 || len(ps.Champions) != 0 {
		t.Fatalf("expected empty stats, got %+v", ps)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	if _, err := env.svc.APIKey(ctx); err == nil {
		t.Fatal("expected missing key")
	} else if stage, _ := StageOf(err); stage != StageConfig {
		t.Fatalf("expected config stage, got %v", err)
	}

	if err := env.svc.SetAPIKey(ctx, "not-a-key"); err == nil {
		t.Fatal("expected malformed key to be rejected")
	} else if stage, _ := StageOf(err); stage != StageInput {
		t.Fatalf("expected input stage, got %v", err)
	}

	if err := env.svc.SetAPIKey(ctx, testKey); err != nil {
		t.Fatalf("set key: %v", err)
	}
	key, err := env.svc.APIKey(ctx)
	if err != nil || key != testKey {
		t.Fatalf("expected stored key, got %q (%v)", key, err)
	}

	if err := env.svc.SetRegion(ctx, "KR"); err != nil {
		t.Fatalf("set region: %v", err)
	}
	if env.svc.Region() != "kr" {
		t.Fatalf("expected kr, got %q", env.svc.Region())
	}
	if err := env.svc.SetRegion(ctx, "mars"); err == nil {
		t.Fatal("expected unknown region to be rejected")
	}
	value, ok, err := env.store.GetSetting(ctx, settings.NameRegion)
	if err != nil || !ok || value != "kr" {
		t.Fatalf("expected persisted region kr, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestIdentityOperations(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	if err := env.svc.SaveIdentity(ctx, storage.Identity{}); err == nil {
		t.Fatal("expected identity without puuid to be rejected")
	}
	want := storage.Identity{PUUID: "p", GameName: "Caps", TagLine: "EUW", SummonerLevel: 10, LastUpdated: 5}
	if err := env.svc.SaveIdentity(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := env.svc.Identity(ctx, "p")
	if err != nil || *got != want {
		t.Fatalf("expected %+v, got %+v (%v)", want, got, err)
	}

	_, err = env.svc.Identity(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	st, err := env.svc.StoreStats(ctx)
	if err != nil || st.Tables.Identities != 1 {
		t.Fatalf("expected one identity in stats, got %+v (%v)", st, err)
	}
}

func TestRecentMatchesAcrossPlayers(t *testing.T) {
	payloads := map[string][]byte{
		"EUW1_1": matchPayload(t, "EUW1_1", riot.Participant{PUUID: "me"}),
		"EUW1_2": matchPayload(t, "EUW1_2", riot.Participant{PUUID: "you"}),
	}
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		for id, p := range payloads {
			if strings.HasSuffix(r.URL.Path, "/"+id) {
				w.Write(p)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})
	ctx := context.Background()

	if err := env.svc.SetAPIKey(ctx, testKey); err != nil {
		t.Fatalf("set key: %v", err)
	}
	for _, id := range []string{"EUW1_1", "EUW1_2"} {
		if _, err := env.svc.Match(ctx, id); err != nil {
			t.Fatalf("match %s: %v", id, err)
		}
	}
	before := env.calls.Load()

	recent, err := env.svc.RecentMatches(ctx, 0)
	if err != nil {
		t.Fatalf("recent matches: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected both players' matches, got %d", len(recent))
	}
	if env.calls.Load() != before {
		t.Fatal("expected recent matches to be served locally")
	}
}

func TestHealthFailureIsPersistStage(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	if err := env.svc.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
	env.store.Close()

	err := env.svc.Health(ctx)
	if stage, ok := StageOf(err); !ok || stage != StagePersist {
		t.Fatalf("expected persist failure, got %v", err)
	}
}
