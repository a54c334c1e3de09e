package tracking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penshort/costboard/internal/cache"
	"github.com/penshort/costboard/internal/metrics"
	"github.com/penshort/costboard/internal/model"
	"github.com/penshort/costboard/internal/testutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memStore is an in-process SnapshotStore.
type memStore struct {
	mu      sync.Mutex
	snap    *model.AnalyticsSnapshot
	ttlLeft time.Duration
	stores  int
	clears  int
	loadErr error
}

func (s *memStore) LoadSnapshot(context.Context) (*model.AnalyticsSnapshot, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, 0, s.loadErr
	}
	if s.snap == nil {
		return nil, 0, cache.ErrCacheMiss
	}
	return s.snap, s.ttlLeft, nil
}

func (s *memStore) current() *model.AnalyticsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *memStore) StoreSnapshot(_ context.Context, snap *model.AnalyticsSnapshot, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.stores++
	return nil
}

func (s *memStore) ClearSnapshot(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
	s.clears++
	return nil
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	cfg := DefaultConfig(baseURL)
	cfg.HealthTimeout = 200 * time.Millisecond
	cfg.RequestTimeout = 200 * time.Millisecond

	c, err := NewClient(cfg, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "localhost:5000", "ftp://example.com", "http://"} {
		_, err := NewClient(DefaultConfig(raw))
		assert.ErrorIs(t, err, ErrInvalidBaseURL, "base URL %q", raw)
	}
}

func TestClient_HealthCachedForTTL(t *testing.T) {
	t.Parallel()

	srv := testutil.NewTrackingServer(t)
	clock := newFakeClock()
	c := newTestClient(t, srv.URL, WithClock(clock.Now))
	ctx := context.Background()

	assert.True(t, c.Health(ctx))
	assert.True(t, c.Health(ctx))
	assert.Equal(t, 1, srv.Calls(EndpointHealth))

	srv.SetHealthy(false)
	clock.Advance(9 * time.Second)
	assert.True(t, c.Health(ctx), "still within TTL")

	clock.Advance(time.Second)
	assert.False(t, c.Health(ctx))
	assert.Equal(t, 2, srv.Calls(EndpointHealth))
}

func TestClient_FailuresAreCached(t *testing.T) {
	t.Parallel()

	srv := testutil.NewTrackingServer(t)
	srv.SetHealthy(false)
	srv.SetAnalyticsBody(http.StatusInternalServerError, []byte(`{"error":"boom"}`))

	clock := newFakeClock()
	c := newTestClient(t, srv.URL, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.False(t, c.Health(ctx))
		assert.False(t, c.FetchSnapshot(ctx).OK())
	}
	assert.Equal(t, 1, srv.Calls(EndpointHealth))
	assert.Equal(t, 1, srv.Calls(EndpointAnalytics))

	// Recovery is visible once the snapshot TTL lapses.
	srv.SetSnapshot(testutil.NewTestSnapshot(t))
	clock.Advance(DefaultSnapshotTTL)
	assert.True(t, c.FetchSnapshot(ctx).OK())
}

func TestClient_FetchSnapshot(t *testing.T) {
	t.Parallel()

	srv := testutil.NewTrackingServer(t)
	c := newTestClient(t, srv.URL)

	res := c.FetchSnapshot(context.Background())
	require.True(t, res.OK(), "unexpected error: %v", res.Err)

	want := testutil.NewTestSnapshot(t)
	got := res.Value
	assert.Equal(t, want.TotalClicks, got.TotalClicks)
	assert.Equal(t, want.UniqueUsers, got.UniqueUsers)
	assert.Equal(t, want.ClicksByPlatform, got.ClicksByPlatform)
	assert.Equal(t, want.TopPosts, got.TopPosts)
	assert.Equal(t, want.RecentClicks, got.RecentClicks)
}

func TestClient_FetchSnapshotNormalizesPartialBody(t *testing.T) {
	t.Parallel()

	srv := testutil.NewTrackingServer(t)
	srv.SetAnalyticsBody(http.StatusOK, []byte(`{"total_clicks": 3, "unique_users": -1}`))
	c := newTestClient(t, srv.URL)

	res := c.FetchSnapshot(context.Background())
	require.True(t, res.OK())
	assert.EqualValues(t, 3, res.Value.TotalClicks)
	assert.EqualValues(t, 0, res.Value.UniqueUsers)
	assert.NotNil(t, res.Value.ClicksByPlatform)
	assert.NotNil(t, res.Value.TopPosts)
	assert.NotNil(t, res.Value.RecentClicks)
}

func TestClient_RemoteFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"not found", http.StatusNotFound, ``},
		{"malformed body", http.StatusOK, `{"total_clicks":`},
		{"wrong shape", http.StatusOK, `[1,2,3]`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := testutil.NewTrackingServer(t)
			srv.SetAnalyticsBody(tt.status, []byte(tt.body))
			c := newTestClient(t, srv.URL)

			res := c.FetchSnapshot(context.Background())
			assert.False(t, res.OK())
			assert.Nil(t, res.Value)
			assert.ErrorIs(t, res.Err, ErrRemoteUnavailable)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	srv := testutil.NewTrackingServer(t)
	srv.SetDelay(2 * time.Second)

	cfg := DefaultConfig(srv.URL)
	cfg.HealthTimeout = 50 * time.Millisecond
	cfg.RequestTimeout = 50 * time.Millisecond
	c, err := NewClient(cfg)
	require.NoError(t, err)

	start := time.Now()
	assert.False(t, c.Health(context.Background()))
	res := c.PublicURL(context.Background())
	elapsed := time.Since(start)

	assert.ErrorIs(t, res.Err, ErrRemoteUnavailable)
	assert.Less(t, elapsed, time.Second)
}

func TestClient_UnreachableService(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	ctx := context.Background()

	assert.False(t, c.Health(ctx))
	assert.ErrorIs(t, c.FetchSnapshot(ctx).Err, ErrRemoteUnavailable)
	assert.ErrorIs(t, c.PublicURL(ctx).Err, ErrRemoteUnavailable)
	assert.ErrorIs(t, c.Reset(ctx), ErrRemoteUnavailable)
}

func TestClient_PublicURL(t *testing.T) {
	t.Parallel()

	srv := testutil.NewTrackingServer(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	res := c.PublicURL(ctx)
	require.True(t, res.OK())
	assert.Equal(t, "https://track.example.com/r/badge", res.Value.PublicURL)
	assert.Equal(t, "https://example.com/badges", res.Value.FinalDestination)

	c.PublicURL(ctx)
	assert.Equal(t, 1, srv.Calls(EndpointPublicURL))
}

func TestClient_Reset(t *testing.T) {
	t.Parallel()

	srv := testutil.NewTrackingServer(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	require.True(t, c.FetchSnapshot(ctx).OK())
	require.True(t, c.Health(ctx))

	require.NoError(t, c.Reset(ctx))
	assert.Equal(t, 1, srv.Calls(EndpointReset))

	require.True(t, c.FetchSnapshot(ctx).OK())
	require.True(t, c.Health(ctx))
	assert.Equal(t, 2, srv.Calls(EndpointAnalytics))
	assert.Equal(t, 2, srv.Calls(EndpointHealth))
}

func TestClient_ResetFailureStillClearsCache(t *testing.T) {
	t.Parallel()

	srv := testutil.NewTrackingServer(t)
	srv.SetResetStatus(http.StatusServiceUnavailable)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	require.True(t, c.FetchSnapshot(ctx).OK())

	err := c.Reset(ctx)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	c.FetchSnapshot(ctx)
	assert.Equal(t, 2, srv.Calls(EndpointAnalytics))
}

func TestClient_ConcurrentCallersShareOneRequest(t *testing.T) {
	t.Parallel()

	srv := testutil.NewTrackingServer(t)
	srv.SetDelay(50 * time.Millisecond)
	c := newTestClient(t, srv.URL)

	const callers = 10
	var wg sync.WaitGroup
	results := make([]Result[*model.AnalyticsSnapshot], callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.FetchSnapshot(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, srv.Calls(EndpointAnalytics))
	for _, r := range results {
		require.True(t, r.OK())
		assert.Same(t, results[0].Value, r.Value)
	}
}

func TestClient_SendsRequestID(t *testing.T) {
	t.Parallel()

	ids := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get(HeaderRequestID)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	require.True(t, c.Health(context.Background()))

	id := <-ids
	_, err := ulid.Parse(id)
	assert.NoError(t, err, "request id %q is not a ULID", id)
}

func TestClient_RecordsMetrics(t *testing.T) {
	t.Parallel()

	srv := testutil.NewTrackingServer(t)
	srv.SetHealthy(false)
	recorder := metrics.NewInMemory()
	c := newTestClient(t, srv.URL, WithMetrics(recorder))
	ctx := context.Background()

	c.Health(ctx)
	c.Health(ctx)
	c.FetchSnapshot(ctx)

	snap := recorder.Snapshot()
	assert.EqualValues(t, 1, snap.RemoteCalls[EndpointHealth+":"+metrics.StatusFailure])
	assert.EqualValues(t, 1, snap.RemoteCalls[EndpointAnalytics+":"+metrics.StatusSuccess])
	assert.EqualValues(t, 2, snap.RemoteDurationCount)
	assert.EqualValues(t, 1, snap.CacheHits[keyHealth])
	assert.EqualValues(t, 1, snap.CacheMisses[keyHealth])
}

func TestClient_SharedSnapshotStore(t *testing.T) {
	t.Parallel()

	t.Run("served from store without remote call", func(t *testing.T) {
		t.Parallel()

		srv := testutil.NewTrackingServer(t)
		shared := testutil.NewTestSnapshot(t)
		shared.TotalClicks = 999
		store := &memStore{snap: shared}
		c := newTestClient(t, srv.URL, WithSnapshotStore(store))

		res := c.FetchSnapshot(context.Background())
		require.True(t, res.OK())
		assert.EqualValues(t, 999, res.Value.TotalClicks)
		assert.Equal(t, 0, srv.Calls(EndpointAnalytics))
	})

	t.Run("remote result is shared", func(t *testing.T) {
		t.Parallel()

		srv := testutil.NewTrackingServer(t)
		store := &memStore{}
		c := newTestClient(t, srv.URL, WithSnapshotStore(store))

		require.True(t, c.FetchSnapshot(context.Background()).OK())
		assert.Equal(t, 1, store.stores)
		assert.NotNil(t, store.snap)
	})

	t.Run("store errors fall through to remote", func(t *testing.T) {
		t.Parallel()

		srv := testutil.NewTrackingServer(t)
		store := &memStore{loadErr: errors.New("redis down")}
		c := newTestClient(t, srv.URL, WithSnapshotStore(store))

		require.True(t, c.FetchSnapshot(context.Background()).OK())
		assert.Equal(t, 1, srv.Calls(EndpointAnalytics))
	})

	t.Run("reset clears store", func(t *testing.T) {
		t.Parallel()

		srv := testutil.NewTrackingServer(t)
		store := &memStore{snap: testutil.NewTestSnapshot(t)}
		c := newTestClient(t, srv.URL, WithSnapshotStore(store))

		require.NoError(t, c.Reset(context.Background()))
		assert.Equal(t, 2, store.clears)
		assert.Nil(t, store.snap)
	})

	t.Run("store hit is cached only for its remaining lifetime", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		srv := testutil.NewTrackingServer(t)
		shared := testutil.NewTestSnapshot(t)
		shared.TotalClicks = 999
		store := &memStore{snap: shared, ttlLeft: 5 * time.Second}
		c := newTestClient(t, srv.URL, WithSnapshotStore(store), WithClock(clock.Now))
		ctx := context.Background()

		require.EqualValues(t, 999, c.FetchSnapshot(ctx).Value.TotalClicks)

		// The entry expires in the store; the next fetch goes remote.
		clock.Advance(6 * time.Second)
		require.NoError(t, store.ClearSnapshot(ctx))

		res := c.FetchSnapshot(ctx)
		require.True(t, res.OK())
		assert.EqualValues(t, 6, res.Value.TotalClicks)
		assert.Equal(t, 1, srv.Calls(EndpointAnalytics))
	})
}

func TestClient_FetchDuringResetIsNotKept(t *testing.T) {
	t.Parallel()

	srv := testutil.NewTrackingServer(t)
	store := &memStore{}
	cfg := DefaultConfig(srv.URL)
	c, err := NewClient(cfg, WithSnapshotStore(store))
	require.NoError(t, err)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	srv.SetResetHook(func() {
		close(entered)
		<-release
		srv.SetSnapshot(&model.AnalyticsSnapshot{})
	})

	require.EqualValues(t, 6, c.FetchSnapshot(ctx).Value.TotalClicks)

	done := make(chan error, 1)
	go func() { done <- c.Reset(ctx) }()
	<-entered

	// The service has not cleared its counters yet.
	during := c.FetchSnapshot(ctx)
	require.True(t, during.OK())
	assert.EqualValues(t, 6, during.Value.TotalClicks)

	close(release)
	require.NoError(t, <-done)
	assert.Nil(t, store.current())

	after := c.FetchSnapshot(ctx)
	require.True(t, after.OK())
	assert.Zero(t, after.Value.TotalClicks)
	assert.Equal(t, 3, srv.Calls(EndpointAnalytics))
}
