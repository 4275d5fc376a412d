// Package riot is a paced, retrying client for the Riot Games API.
// It knows nothing about caching.
package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"riftcache/internal/settings"
)

// Defaults for Config.
const (
	DefaultBaseURL         = "https://{host}.api.riotgames.com"
	DefaultRequestInterval = 1500 * time.Millisecond
	DefaultBackoffBase     = 2 * time.Second
	DefaultMaxRetries      = 3
	DefaultTimeout         = 10 * time.Second
)

const tokenHeader = "X-Riot-Token"

// Config holds client tuning.
type Config struct {
	// BaseURL is a URL template; {host} is replaced by the regional cluster
	// or platform code.
	BaseURL string
	// RequestInterval is slept before every request, one caller at a time.
	RequestInterval time.Duration
	// BackoffBase is the first 429 backoff; each retry doubles it.
	BackoffBase time.Duration
	// MaxRetries bounds 429 retries after the first attempt.
	MaxRetries int
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.RequestInterval < 0 {
		c.RequestInterval = 0
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// DefaultConfig returns production pacing and retry settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		RequestInterval: DefaultRequestInterval,
		BackoffBase:     DefaultBackoffBase,
		MaxRetries:      DefaultMaxRetries,
		Timeout:         DefaultTimeout,
	}
}

// Client is a Riot Games API client with global pacing and 429 backoff.
type Client struct {
	cfg        Config
	creds      *settings.Cell
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer

	// pacer is held for the pacing sleep, so requests from concurrent
	// callers leave at least RequestInterval apart.
	pacer *semaphore.Weighted

	// sleep waits for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client that reads its API key and region from creds
// on every call.
func NewClient(cfg Config, creds *settings.Cell, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:        cfg,
		creds:      creds,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default(),
		tracer:     otel.Tracer("riftcache/internal/riot"),
		pacer:      semaphore.NewWeighted(1),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a paced GET against the API and decodes the JSON body into
// out. It returns the raw body as well.
func (c *Client) get(ctx context.Context, op string, rt route, path string, out any) ([]byte, error) {
	creds := c.creds.Snapshot()
	if !creds.Configured() {
		return nil, fmt.Errorf("%s: %w", op, settings.ErrNotConfigured)
	}

	host := rt.host(creds.Region)
	ctx, span := c.tracer.Start(ctx, "riot."+op, trace.WithAttributes(
		attribute.String("riot.host", host),
		attribute.String("riot.path", path),
	))
	defer span.End()

	endpoint := strings.ReplaceAll(c.cfg.BaseURL, "{host}", host) + path

	body, err := c.do(ctx, op, endpoint, creds.APIKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := json.Unmarshal(body, out); err != nil {
		derr := &Error{Kind: KindDecode, Op: op, Body: truncate(body), Cause: err}
		span.RecordError(derr)
		span.SetStatus(codes.Error, "decode")
		return nil, derr
	}
	return body, nil
}

// pace waits for the pacing slot shared by every caller of this client.
func (c *Client) pace(ctx context.Context) error {
	if err := c.pacer.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.pacer.Release(1)
	return c.sleep(ctx, c.cfg.RequestInterval)
}

// do waits for the pacing slot and then runs the retry loop.
func (c *Client) do(ctx context.Context, op, endpoint, apiKey string) ([]byte, error) {
	if err := c.pace(ctx); err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Cause: err}
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, &Error{Kind: KindTransport, Op: op, Cause: fmt.Errorf("failed to create request: %w", err)}
		}
		req.Header.Set(tokenHeader, apiKey)
		req.Header.Set("Accept", "application/json")

		c.logger.Debug("riot request", "op", op, "attempt", attempt+1)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &Error{Kind: KindTransport, Op: op, Cause: err}
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &Error{Kind: KindTransport, Op: op, Cause: fmt.Errorf("failed to read body: %w", err)}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt < c.cfg.MaxRetries {
				backoff := c.cfg.BackoffBase << attempt
				c.logger.Warn("riot rate limit hit, backing off",
					"op", op,
					"backoff", backoff,
					"attempt", attempt+1,
					"max_retries", c.cfg.MaxRetries,
				)
				if err := c.sleep(ctx, backoff); err != nil {
					return nil, &Error{Kind: KindTransport, Op: op, Cause: err}
				}
				continue
			}
			return nil, &Error{Kind: KindThrottled, Op: op, Status: resp.StatusCode, Body: truncate(body)}
		}

		return nil, &Error{Kind: KindStatus, Op: op, Status: resp.StatusCode, Body: truncate(body)}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const maxErrorBody = 512

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
