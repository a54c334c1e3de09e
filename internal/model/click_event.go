package model

import (
	"strings"
	"time"
)

// timestampLayouts are the formats accepted from the tracking service.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05", // naive ISO timestamps, treated as UTC
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a tracking service timestamp.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ClickEvent represents a single tracked click on a published post.
type ClickEvent struct {
	Timestamp string `json:"timestamp"` // ISO-8601, parsed lazily
	Platform  string `json:"platform"`
	BadgeType string `json:"badge_type"`
	PostURL   string `json:"post_url"`
	Username  string `json:"username"`
}

// Time parses the event timestamp.
func (e ClickEvent) Time() (time.Time, error) {
	return ParseTimestamp(e.Timestamp)
}

// PostStat represents aggregated clicks for one published post.
type PostStat struct {
	PostURL    string `json:"post_url"`
	Platform   string `json:"platform"`
	BadgeType  string `json:"badge_type"`
	Clicks     int64  `json:"clicks"`
	FirstClick string `json:"first_click"`
	LastClick  string `json:"last_click"`
}

// AnalyticsSnapshot is the click analytics payload of GET /api/analytics.
// IsLive and Version are serialized for API responses. Values decoded from
// the tracking service are not trusted: the analytics service sets both
// before a snapshot is served.
type AnalyticsSnapshot struct {
	TotalClicks       int64            `json:"total_clicks"`
	UniqueUsers       int64            `json:"unique_users"`
	TotalPosts        int64            `json:"total_posts"`
	AvgClicksPerPost  float64          `json:"avg_clicks_per_post"`
	ClicksByPlatform  map[string]int64 `json:"clicks_by_platform"`
	ClicksByBadgeType map[string]int64 `json:"clicks_by_badge_type"`
	TopPosts          []PostStat       `json:"top_posts"`
	RecentClicks      []ClickEvent     `json:"recent_clicks"`

	IsLive  bool   `json:"is_live"`
	Version string `json:"version,omitempty"`
}

// Normalize replaces absent collections with empty ones and clamps
// negative counters to zero.
func (s *AnalyticsSnapshot) Normalize() {
	if s.TotalClicks < 0 {
		s.TotalClicks = 0
	}
	if s.UniqueUsers < 0 {
		s.UniqueUsers = 0
	}
	if s.TotalPosts < 0 {
		s.TotalPosts = 0
	}
	if s.AvgClicksPerPost < 0 {
		s.AvgClicksPerPost = 0
	}
	if s.ClicksByPlatform == nil {
		s.ClicksByPlatform = map[string]int64{}
	}
	if s.ClicksByBadgeType == nil {
		s.ClicksByBadgeType = map[string]int64{}
	}
	if s.TopPosts == nil {
		s.TopPosts = []PostStat{}
	}
	if s.RecentClicks == nil {
		s.RecentClicks = []ClickEvent{}
	}
	for i := range s.TopPosts {
		if s.TopPosts[i].Clicks < 0 {
			s.TopPosts[i].Clicks = 0
		}
	}
}

// Clone returns a deep copy, so the caller may modify the result without
// touching a cached original.
func (s *AnalyticsSnapshot) Clone() *AnalyticsSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.ClicksByPlatform = cloneCounts(s.ClicksByPlatform)
	out.ClicksByBadgeType = cloneCounts(s.ClicksByBadgeType)
	if s.TopPosts != nil {
		out.TopPosts = append([]PostStat(nil), s.TopPosts...)
	}
	if s.RecentClicks != nil {
		out.RecentClicks = append([]ClickEvent(nil), s.RecentClicks...)
	}
	return &out
}

func cloneCounts(src map[string]int64) map[string]int64 {
	if src == nil {
		return nil
	}
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// PublicURL is the payload of GET /api/public-url.
type PublicURL struct {
	PublicURL        string `json:"public_url"`
	FinalDestination string `json:"final_destination"`
}
