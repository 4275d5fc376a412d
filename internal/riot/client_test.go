package riot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"riftcache/internal/settings"
)

const testKey = "RGAPI-0b6c1f4e-8a52-4d5e-9a3f-2f7c1d9e4b10"

// sleepRecorder captures requested delays without waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, region string) (*Client, *sleepRecorder, *settings.Cell) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cell := settings.NewCell(region)
	cell.SetAPIKey(testKey)

	client := NewClient(Config{
		BaseURL:         srv.URL + "/{host}",
		RequestInterval: 1500 * time.Millisecond,
		BackoffBase:     2 * time.Second,
		MaxRetries:      3,
	}, cell)
	rec := &sleepRecorder{}
	client.sleep = rec.sleep
	return client, rec, cell
}

func TestThrottledThenSuccessBacksOffExponentially(t *testing.T) {
	var calls atomic.Int32
	client, rec, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"status":{"message":"Rate limit exceeded","status_code":429}}`)
			return
		}
		fmt.Fprint(w, `{"puuid":"p-1","gameName":"Faker","tagLine":"KR1"}`)
	}, "kr")

	account, err := client.AccountByRiotID(context.Background(), "Faker", "KR1")
	if err != nil {
		t.Fatalf("AccountByRiotID: %v", err)
	}
	if account.PUUID != "p-1" {
		t.Fatalf("expected puuid p-1, got %q", account.PUUID)
	}
	if got := calls.Load(); got != 4 {
		t.Fatalf("expected 4 attempts, got %d", got)
	}

	want := []time.Duration{1500 * time.Millisecond, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	got := rec.recorded()
	if len(got) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delay %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestThrottledBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "slow down")
	}, "euw1")

	_, err := client.Match(context.Background(), "EUW1_1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsThrottled(err) {
		t.Fatalf("expected throttled error, got %v", err)
	}
	if got := calls.Load(); got != 4 {
		t.Fatalf("expected 4 attempts, got %d", got)
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "slow down") {
		t.Fatalf("expected status and body in error, got %q", err.Error())
	}
}

func TestNonRetryableStatusFailsImmediately(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "server error", status: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			client, rec, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
				fmt.Fprint(w, "nope")
			}, "euw1")

			_, err := client.SummonerByPUUID(context.Background(), "p-1")
			kind, ok := KindOf(err)
			if !ok || kind != KindStatus {
				t.Fatalf("expected status error, got %v", err)
			}
			var rerr *Error
			if !errors.As(err, &rerr) || rerr.Status != tc.status || rerr.Body != "nope" {
				t.Fatalf("unexpected error detail: %+v", rerr)
			}
			if got := calls.Load(); got != 1 {
				t.Fatalf("expected a single attempt, got %d", got)
			}
			if got := rec.recorded(); len(got) != 1 {
				t.Fatalf("expected only the pacing delay, got %v", got)
			}
		})
	}
}

func TestNotFoundHelper(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, "euw1")

	_, err := client.AccountByRiotID(context.Background(), "nobody", "0000")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDecodeFailureIsDistinctKind(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"metadata": [}`)
	}, "euw1")

	_, err := client.Match(context.Background(), "EUW1_1")
	kind, ok := KindOf(err)
	if !ok || kind != KindDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestNotConfiguredSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/{host}"}, settings.NewCell("euw1"))
	rec := &sleepRecorder{}
	client.sleep = rec.sleep

	_, err := client.MatchIDs(context.Background(), "p-1", 0, 20)
	if !errors.Is(err, settings.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("expected no upstream call")
	}
	if len(rec.recorded()) != 0 {
		t.Fatal("expected no pacing delay")
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	cell := settings.NewCell("euw1")
	cell.SetAPIKey(testKey)
	client := NewClient(Config{BaseURL: base + "/{host}"}, cell)
	client.sleep = (&sleepRecorder{}).sleep

	_, err := client.Match(context.Background(), "EUW1_1")
	kind, ok := KindOf(err)
	if !ok || kind != KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestPacingHonorsCancellation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	cell := settings.NewCell("euw1")
	cell.SetAPIKey(testKey)
	client := NewClient(Config{BaseURL: srv.URL + "/{host}", RequestInterval: time.Hour}, cell)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Match(ctx, "EUW1_1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("expected no upstream call")
	}
}

func TestRoutingAndAuthHeader(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	client, _, cell := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Riot-Token") != testKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		switch {
		case strings.Contains(r.URL.Path, "/ids"):
			fmt.Fprint(w, `["KR_2","KR_1"]`)
		case strings.Contains(r.URL.Path, "/league/"):
			fmt.Fprint(w, `[]`)
		default:
			fmt.Fprint(w, `{"puuid":"p-1"}`)
		}
	}, "kr")

	ctx := context.Background()
	if _, err := client.AccountByRiotID(ctx, "Hide on bush", "KR1"); err != nil {
		t.Fatalf("account: %v", err)
	}
	if _, err := client.SummonerByPUUID(ctx, "p-1"); err != nil {
		t.Fatalf("summoner: %v", err)
	}
	ids, err := client.MatchIDs(ctx, "p-1", 0, 500)
	if err != nil {
		t.Fatalf("match ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != "KR_2" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if _, err := client.RankedEntries(ctx, "s-1"); err != nil {
		t.Fatalf("ranked: %v", err)
	}

	cell.SetRegion("na1")
	if _, err := client.RankedEntriesByPUUID(ctx, "p-1"); err != nil {
		t.Fatalf("ranked by puuid: %v", err)
	}

	want := []string{
		"/asia/riot/account/v1/accounts/by-riot-id/Hide on bush/KR1",
		"/kr/lol/summoner/v4/summoners/by-puuid/p-1",
		"/asia/lol/match/v5/matches/by-puuid/p-1/ids",
		"/kr/lol/league/v4/entries/by-summoner/s-1",
		"/na1/lol/league/v4/entries/by-puuid/p-1",
	}
	mu.Lock()
	defer mu.Unlock()
	if len(paths) != len(want) {
		t.Fatalf("expected paths %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("path %d: expected %q, got %q", i, want[i], paths[i])
		}
	}
}

func TestMatchIDsClampsCount(t *testing.T) {
	var query string
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		fmt.Fprint(w, `[]`)
	}, "euw1")

	if _, err := client.MatchIDs(context.Background(), "p-1", -5, 250); err != nil {
		t.Fatalf("match ids: %v", err)
	}
	if query != "start=0&count=100" {
		t.Fatalf("unexpected query %q", query)
	}
}

func TestMatchKeepsRawPayload(t *testing.T) {
	payload := `{"metadata":{"matchId":"EUW1_9","dataVersion":"2","participants":["a"]},"info":{"gameCreation":1700000000000,"gameMode":"CLASSIC","extraField":true}}`
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	}, "euw1")

	m, err := client.Match(context.Background(), "EUW1_9")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if string(m.Raw) != payload {
		t.Fatalf("expected raw payload preserved, got %s", m.Raw)
	}
	if m.Metadata.MatchID != "EUW1_9" || m.Info.GameMode != "CLASSIC" {
		t.Fatalf("unexpected decode: %+v", m.Metadata)
	}
}

func TestPacingIsSharedAcrossCallers(t *testing.T) {
	const interval = 100 * time.Millisecond

	var mu sync.Mutex
	var arrivals []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		fmt.Fprint(w, `{"puuid":"p-1"}`)
	}))
	defer srv.Close()

	cell := settings.NewCell("euw1")
	cell.SetAPIKey(testKey)
	client := NewClient(Config{BaseURL: srv.URL + "/{host}", RequestInterval: interval}, cell)

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.SummonerByPUUID(context.Background(), "p-1"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("summoner: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(arrivals) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(arrivals))
	}
	sort.Slice(arrivals, func(i, j int) bool { return arrivals[i].Before(arrivals[j]) })
	// Allow for scheduling jitter between leaving the client and arriving.
	const slack = 20 * time.Millisecond
	for i := 1; i < len(arrivals); i++ {
		if gap := arrivals[i].Sub(arrivals[i-1]); gap < interval-slack {
			t.Fatalf("requests %d and %d arrived %v apart, want at least %v", i-1, i, gap, interval)
		}
	}
}
