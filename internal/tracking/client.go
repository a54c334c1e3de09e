// Package tracking talks to the remote click tracking service.
//
// Every call is bounded by its own timeout and memoized for a per-call TTL.
// Failures are returned as values wrapping ErrRemoteUnavailable and are
// cached like successes, so an offline service is polled at most once per
// window.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/penshort/costboard/internal/cache"
	"github.com/penshort/costboard/internal/metrics"
	"github.com/penshort/costboard/internal/model"
)

// Remote endpoints.
const (
	EndpointHealth    = "/health"
	EndpointAnalytics = "/api/analytics"
	EndpointPublicURL = "/api/public-url"
	EndpointReset     = "/api/reset"
)

// Memo keys, one per call type.
const (
	keyHealth    = "health"
	keyPublicURL = "public_url"
	keySnapshot  = "snapshot"
)

// HeaderRequestID correlates outbound calls in the tracking service logs.
const HeaderRequestID = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Defaults for Config.
const (
	DefaultHealthTimeout  = 2 * time.Second
	DefaultRequestTimeout = 3 * time.Second
	DefaultHealthTTL      = 10 * time.Second
	DefaultPublicURLTTL   = 60 * time.Second
	DefaultSnapshotTTL    = 30 * time.Second
)

// Config holds the tracking client settings.
type Config struct {
	BaseURL        string
	HealthTimeout  time.Duration
	RequestTimeout time.Duration
	HealthTTL      time.Duration
	PublicURLTTL   time.Duration
	SnapshotTTL    time.Duration
}

// DefaultConfig returns the standard timeouts and TTLs for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		HealthTimeout:  DefaultHealthTimeout,
		RequestTimeout: DefaultRequestTimeout,
		HealthTTL:      DefaultHealthTTL,
		PublicURLTTL:   DefaultPublicURLTTL,
		SnapshotTTL:    DefaultSnapshotTTL,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig(c.BaseURL)
	if c.HealthTimeout <= 0 {
		c.HealthTimeout = d.HealthTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.HealthTTL <= 0 {
		c.HealthTTL = d.HealthTTL
	}
	if c.PublicURLTTL <= 0 {
		c.PublicURLTTL = d.PublicURLTTL
	}
	if c.SnapshotTTL <= 0 {
		c.SnapshotTTL = d.SnapshotTTL
	}
	return c
}

// SnapshotStore shares the last live snapshot between instances.
// *cache.Cache implements it on Redis.
type SnapshotStore interface {
	// LoadSnapshot also returns the snapshot's remaining lifetime in the
	// store; zero means unknown.
	LoadSnapshot(ctx context.Context) (*model.AnalyticsSnapshot, time.Duration, error)
	StoreSnapshot(ctx context.Context, snap *model.AnalyticsSnapshot, ttl time.Duration) error
	ClearSnapshot(ctx context.Context) error
}

// Client is a cached, timeout-bounded tracking service client.
// It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	cfg     Config
	http    *http.Client
	memo    *cache.Memo
	store   SnapshotStore
	metrics metrics.Recorder
	logger  *slog.Logger
	clock   func() time.Time

	// resets counts local cache clears; a snapshot fetched across one is
	// not written to the store.
	resets atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSnapshotStore enables the shared snapshot tier.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(c *Client) {
		if recorder != nil {
			c.metrics = recorder
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

// WithClock overrides the memo time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.clock = now
		}
	}
}

// NewClient creates a tracking client for cfg.BaseURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	c := &Client{
		baseURL: base,
		cfg:     cfg.withDefaults(),
		http:    NewHTTPClient(),
		metrics: metrics.NewNoop(),
		logger:  slog.Default(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "tracking")
	c.memo = cache.NewMemo(cache.WithClock(c.clock), cache.WithMetrics(c.metrics))

	return c, nil
}

// NewHTTPClient creates the transport used for tracking calls. Per-call
// deadlines come from the request context; the client timeout is a backstop.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   2 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   2 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Health reports whether the tracking service answers /health with 200.
// Cached for HealthTTL.
func (c *Client) Health(ctx context.Context) bool {
	return cache.GetOrFetch(ctx, c.memo, keyHealth, c.cfg.HealthTTL, func(ctx context.Context) bool {
		err := c.do(ctx, http.MethodGet, EndpointHealth, c.cfg.HealthTimeout, nil)
		return err == nil
	})
}

// PublicURL returns the service's public tracking URL. Cached for
// PublicURLTTL.
func (c *Client) PublicURL(ctx context.Context) Result[model.PublicURL] {
	return cache.GetOrFetch(ctx, c.memo, keyPublicURL, c.cfg.PublicURLTTL, func(ctx context.Context) Result[model.PublicURL] {
		var out model.PublicURL
		if err := c.do(ctx, http.MethodGet, EndpointPublicURL, c.cfg.RequestTimeout, &out); err != nil {
			return failure[model.PublicURL](err)
		}
		return success(out)
	})
}

// FetchSnapshot returns the current analytics snapshot. Cached for
// SnapshotTTL, and shared through the SnapshotStore when one is configured.
// A snapshot taken from the store is cached only for its remaining lifetime
// there, so no instance serves one older than SnapshotTTL.
func (c *Client) FetchSnapshot(ctx context.Context) Result[*model.AnalyticsSnapshot] {
	return cache.GetOrFetchTTL(ctx, c.memo, keySnapshot, c.fetchSnapshot)
}

func (c *Client) fetchSnapshot(ctx context.Context) (Result[*model.AnalyticsSnapshot], time.Duration) {
	resets := c.resets.Load()

	if c.store != nil {
		snap, remaining, err := c.store.LoadSnapshot(ctx)
		if err == nil {
			ttl := c.cfg.SnapshotTTL
			if remaining > 0 && remaining < ttl {
				ttl = remaining
			}
			return success(snap), ttl
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn("shared snapshot load failed", "error", err)
		}
	}

	var snap model.AnalyticsSnapshot
	if err := c.do(ctx, http.MethodGet, EndpointAnalytics, c.cfg.RequestTimeout, &snap); err != nil {
		return failure[*model.AnalyticsSnapshot](err), c.cfg.SnapshotTTL
	}
	snap.Normalize()

	if c.store != nil && c.resets.Load() == resets {
		if err := c.store.StoreSnapshot(ctx, &snap, c.cfg.SnapshotTTL); err != nil {
			c.logger.Warn("shared snapshot store failed", "error", err)
		}
	}

	return success(&snap), c.cfg.SnapshotTTL
}

// Reset asks the service to clear its counters and drops every cached
// answer. Caches are cleared both before and after the remote call, since a
// fetch that lands while the service is resetting may still read the old
// counters. Local state is cleared even when the remote call fails.
func (c *Client) Reset(ctx context.Context) error {
	c.clearCached(ctx)
	err := c.do(ctx, http.MethodPost, EndpointReset, c.cfg.RequestTimeout, nil)
	c.clearCached(ctx)
	return err
}

func (c *Client) clearCached(ctx context.Context) {
	c.resets.Add(1)
	c.memo.Reset()

	if c.store != nil {
		if err := c.store.ClearSnapshot(ctx); err != nil {
			c.logger.Warn("shared snapshot clear failed", "error", err)
		}
	}
}

// do performs one bounded request. A non-nil out is decoded from the JSON
// body. Every failure wraps ErrRemoteUnavailable.
func (c *Client) do(ctx context.Context, method, endpoint string, timeout time.Duration, out any) error {
	// Memoized fetches are shared between callers, so the first caller's
	// cancellation must not abort them. The timeout still bounds the call.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	requestID := ulid.Make().String()
	start := time.Now()

	err := c.roundTrip(ctx, method, endpoint, requestID, out)

	c.metrics.ObserveRemoteDuration(endpoint, time.Since(start))
	if err != nil {
		c.metrics.IncRemoteCall(endpoint, metrics.StatusFailure)
		c.logger.Warn("tracking call failed",
			"method", method,
			"endpoint", endpoint,
			"request_id", requestID,
			"error", err,
		)
		return err
	}
	c.metrics.IncRemoteCall(endpoint, metrics.StatusSuccess)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint, requestID string, out any) error {
	target := c.baseURL.JoinPath(endpoint)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRemoteUnavailable, err)
	}
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Costboard/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRemoteUnavailable, method, endpoint, err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, body)
		return fmt.Errorf("%w: %s %s: status %d", ErrRemoteUnavailable, method, endpoint, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, body)
		return nil
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrRemoteUnavailable, endpoint, err)
	}
	return nil
}
