package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/penshort/costboard/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestSnapshot creates a small, internally consistent analytics snapshot.
func NewTestSnapshot(t testing.TB) *model.AnalyticsSnapshot {
	t.Helper()
	return &model.AnalyticsSnapshot{
		TotalClicks:      6,
		UniqueUsers:      4,
		TotalPosts:       2,
		AvgClicksPerPost: 3,
		ClicksByPlatform: map[string]int64{
			"linkedin": 4,
			"twitter":  2,
		},
		ClicksByBadgeType: map[string]int64{
			"gold":   4,
			"silver": 2,
		},
		TopPosts: []model.PostStat{
			{PostURL: "https://example.com/p/1", Platform: "linkedin", BadgeType: "gold", Clicks: 4, FirstClick: "2025-01-15T09:00:00Z", LastClick: "2025-01-15T11:00:00Z"},
			{PostURL: "https://example.com/p/2", Platform: "twitter", BadgeType: "silver", Clicks: 2, FirstClick: "2025-01-15T10:00:00Z", LastClick: "2025-01-15T10:30:00Z"},
		},
		RecentClicks: []model.ClickEvent{
			{Timestamp: "2025-01-15T10:00:00Z", Platform: "twitter", BadgeType: "silver", PostURL: "https://example.com/p/2", Username: "ana"},
			{Timestamp: "2025-01-15T10:30:00Z", Platform: "twitter", BadgeType: "silver", PostURL: "https://example.com/p/2", Username: "ben"},
			{Timestamp: "2025-01-15T11:00:00Z", Platform: "linkedin", BadgeType: "gold", PostURL: "https://example.com/p/1", Username: "chi"},
		},
	}
}

// ============================================================================
// Fake tracking service
// ============================================================================

// TrackingServer is an in-process stand-in for the remote click tracking
// service. Every handler counts its calls.
type TrackingServer struct {
	*httptest.Server

	mu              sync.Mutex
	calls           map[string]int
	healthy         bool
	analyticsStatus int
	analyticsBody   []byte
	publicURL       model.PublicURL
	resetStatus     int
	resetHook       func()
	delay           time.Duration
}

// NewTrackingServer starts a healthy fake service serving NewTestSnapshot.
// It is closed automatically when the test ends.
func NewTrackingServer(t testing.TB) *TrackingServer {
	t.Helper()

	s := &TrackingServer{
		calls:           make(map[string]int),
		healthy:         true,
		analyticsStatus: http.StatusOK,
		publicURL: model.PublicURL{
			PublicURL:        "https://track.example.com/r/badge",
			FinalDestination: "https://example.com/badges",
		},
		resetStatus: http.StatusOK,
	}
	s.SetSnapshot(NewTestSnapshot(t))

	r := chi.NewRouter()
	r.Use(s.count)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if !s.isHealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/analytics", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		status, body := s.analyticsStatus, s.analyticsBody
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})
	r.Get("/api/public-url", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		payload := s.publicURL
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})
	r.Post("/api/reset", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		status, hook := s.resetStatus, s.resetHook
		s.mu.Unlock()
		if hook != nil {
			hook()
		}
		w.WriteHeader(status)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)

	return s
}

func (s *TrackingServer) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		delay := s.delay
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *TrackingServer) isHealthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}

// Calls returns how many requests hit path.
func (s *TrackingServer) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// SetHealthy toggles the /health response between 200 and 503.
func (s *TrackingServer) SetHealthy(healthy bool) {
	s.mu.Lock()
	s.healthy = healthy
	s.mu.Unlock()
}

// SetSnapshot changes the analytics payload.
func (s *TrackingServer) SetSnapshot(snap *model.AnalyticsSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		panic(fmt.Sprintf("marshal snapshot: %v", err))
	}
	s.SetAnalyticsBody(http.StatusOK, data)
}

// SetAnalyticsBody serves a raw analytics response.
func (s *TrackingServer) SetAnalyticsBody(status int, body []byte) {
	s.mu.Lock()
	s.analyticsStatus = status
	s.analyticsBody = body
	s.mu.Unlock()
}

// SetResetStatus changes the /api/reset status code.
func (s *TrackingServer) SetResetStatus(status int) {
	s.mu.Lock()
	s.resetStatus = status
	s.mu.Unlock()
}

// SetResetHook runs fn inside the /api/reset handler before it responds,
// without holding the server lock.
func (s *TrackingServer) SetResetHook(fn func()) {
	s.mu.Lock()
	s.resetHook = fn
	s.mu.Unlock()
}

// SetDelay delays every response, for timeout tests.
func (s *TrackingServer) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}
