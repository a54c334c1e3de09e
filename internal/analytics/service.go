package analytics

import (
	"context"
	"log/slog"

	"github.com/penshort/costboard/internal/metrics"
	"github.com/penshort/costboard/internal/model"
	"github.com/penshort/costboard/internal/tracking"
)

// Tracker is the subset of the tracking client the service needs.
type Tracker interface {
	Health(ctx context.Context) bool
	PublicURL(ctx context.Context) tracking.Result[model.PublicURL]
	FetchSnapshot(ctx context.Context) tracking.Result[*model.AnalyticsSnapshot]
	Reset(ctx context.Context) error
}

// Offline reasons reported with synthetic dashboards.
const (
	ReasonUnhealthy     = "tracking service health check failed"
	ReasonFetchFailed   = "analytics fetch failed"
	ReasonNotConfigured = "tracking service not configured"
)

// Limits bounds the list sections of a dashboard. Zero values mean the
// summarizer defaults.
type Limits struct {
	TopPosts       int
	RecentActivity int
}

// Dashboard is everything the analytics view renders.
type Dashboard struct {
	IsLive         bool                     `json:"is_live"`
	Version        string                   `json:"version,omitempty"`
	OfflineReason  string                   `json:"offline_reason,omitempty"`
	PublicURL      *model.PublicURL         `json:"public_url"`
	Snapshot       *model.AnalyticsSnapshot `json:"snapshot"`
	Platforms      []PlatformSlice          `json:"platforms"`
	Badges         []BadgeSlice             `json:"badges"`
	TopPosts       []model.PostStat         `json:"top_posts"`
	RecentActivity []Activity               `json:"recent_activity"`
}

// ResetStatus reports the outcome of a reset. A failed reset is not an
// error for the caller, only a message to show.
type ResetStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Service makes the live-or-sample decision for analytics.
type Service struct {
	tracker Tracker
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewService creates an analytics service. A nil tracker always serves the
// synthetic sample.
func NewService(tracker Tracker, logger *slog.Logger, recorder metrics.Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		tracker: tracker,
		logger:  logger.With("component", "analytics"),
		metrics: recorder,
	}
}

// Snapshot returns the live snapshot, or the synthetic sample with the
// reason live data was unavailable. The returned snapshot is the caller's
// to keep.
func (s *Service) Snapshot(ctx context.Context) (*model.AnalyticsSnapshot, string) {
	if s.tracker == nil {
		return s.fallback(ReasonNotConfigured), ReasonNotConfigured
	}
	if !s.tracker.Health(ctx) {
		return s.fallback(ReasonUnhealthy), ReasonUnhealthy
	}

	res := s.tracker.FetchSnapshot(ctx)
	if !res.OK() || res.Value == nil {
		return s.fallback(ReasonFetchFailed), ReasonFetchFailed
	}

	// The cached value is shared between requests; flag a copy.
	live := res.Value.Clone()
	live.IsLive = true
	live.Version = ""
	return live, ""
}

func (s *Service) fallback(reason string) *model.AnalyticsSnapshot {
	s.metrics.IncFallbackServed()
	s.logger.Debug("serving synthetic analytics", "reason", reason, "version", SyntheticVersion)
	return SyntheticSnapshot()
}

// Dashboard assembles the analytics view.
func (s *Service) Dashboard(ctx context.Context, limits Limits) *Dashboard {
	snap, reason := s.Snapshot(ctx)
	sum := NewSummarizer(snap)

	d := &Dashboard{
		IsLive:         snap.IsLive,
		Version:        snap.Version,
		OfflineReason:  reason,
		Snapshot:       snap,
		Platforms:      sum.PlatformDistribution(),
		Badges:         sum.BadgeDistribution(),
		TopPosts:       sum.RankedPosts(limits.TopPosts),
		RecentActivity: sum.RecentActivity(limits.RecentActivity),
	}

	if snap.IsLive {
		if res := s.tracker.PublicURL(ctx); res.OK() {
			u := res.Value
			d.PublicURL = &u
		}
	}

	return d
}

// Reset clears cached analytics and the remote counters.
func (s *Service) Reset(ctx context.Context) ResetStatus {
	if s.tracker == nil {
		return ResetStatus{OK: false, Message: ReasonNotConfigured}
	}
	if err := s.tracker.Reset(ctx); err != nil {
		s.logger.Warn("analytics reset failed", "error", err)
		return ResetStatus{OK: false, Message: "Reset failed: " + err.Error()}
	}
	s.logger.Info("analytics reset")
	return ResetStatus{OK: true, Message: "Analytics reset"}
}
