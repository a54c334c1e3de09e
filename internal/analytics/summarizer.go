// Package analytics turns click analytics snapshots into display-ready
// summaries and decides when synthetic sample data replaces live data.
package analytics

import (
	"net/url"
	"sort"
	"strings"

	"github.com/penshort/costboard/internal/model"
)

// Default result sizes.
const (
	DefaultRankedPostsLimit    = 20
	DefaultRecentActivityLimit = 10
)

// Badge display colors.
const (
	ColorGold    = "#FFD700"
	ColorSilver  = "#C0C0C0"
	ColorBronze  = "#CD7F32"
	ColorDefault = "#667eea"
)

var badgeColors = map[string]string{
	"gold":   ColorGold,
	"silver": ColorSilver,
	"bronze": ColorBronze,
}

var platformIcons = map[string]string{
	"linkedin":  "💼",
	"twitter":   "🐦",
	"facebook":  "📘",
	"instagram": "📸",
}

var badgeIcons = map[string]string{
	"gold":   "🥇",
	"silver": "🥈",
	"bronze": "🥉",
}

const (
	defaultPlatformIcon = "🌐"
	defaultBadgeIcon    = "🏅"
)

// PlatformSlice is one platform's share of clicks.
type PlatformSlice struct {
	Platform string `json:"platform"`
	Clicks   int64  `json:"clicks"`
}

// BadgeSlice is one badge tier's share of clicks.
type BadgeSlice struct {
	Badge  string `json:"badge"`
	Clicks int64  `json:"clicks"`
	Color  string `json:"color"`
}

// Activity is a click event decorated for display.
type Activity struct {
	model.ClickEvent
	PlatformIcon string `json:"platform_icon"`
	BadgeIcon    string `json:"badge_icon"`
	PostHost     string `json:"post_host"`
}

// Summarizer derives display data from one snapshot. It never mutates the
// snapshot.
type Summarizer struct {
	snap *model.AnalyticsSnapshot
}

// NewSummarizer wraps snap. A nil snapshot summarizes as empty.
func NewSummarizer(snap *model.AnalyticsSnapshot) *Summarizer {
	if snap == nil {
		snap = &model.AnalyticsSnapshot{}
	}
	return &Summarizer{snap: snap}
}

// PlatformDistribution returns clicks per platform, most clicked first.
func (s *Summarizer) PlatformDistribution() []PlatformSlice {
	out := make([]PlatformSlice, 0, len(s.snap.ClicksByPlatform))
	for platform, clicks := range s.snap.ClicksByPlatform {
		out = append(out, PlatformSlice{Platform: platform, Clicks: clicks})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Clicks != out[j].Clicks {
			return out[i].Clicks > out[j].Clicks
		}
		return out[i].Platform < out[j].Platform
	})
	return out
}

// BadgeDistribution returns clicks per badge tier, most clicked first.
func (s *Summarizer) BadgeDistribution() []BadgeSlice {
	out := make([]BadgeSlice, 0, len(s.snap.ClicksByBadgeType))
	for badge, clicks := range s.snap.ClicksByBadgeType {
		out = append(out, BadgeSlice{Badge: badge, Clicks: clicks, Color: BadgeColor(badge)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Clicks != out[j].Clicks {
			return out[i].Clicks > out[j].Clicks
		}
		return out[i].Badge < out[j].Badge
	})
	return out
}

// RankedPosts returns up to limit top posts in snapshot order. The order is
// trusted as given and never re-sorted. limit <= 0 means the default.
func (s *Summarizer) RankedPosts(limit int) []model.PostStat {
	if limit <= 0 {
		limit = DefaultRankedPostsLimit
	}
	n := min(limit, len(s.snap.TopPosts))
	out := make([]model.PostStat, n)
	copy(out, s.snap.TopPosts[:n])
	return out
}

// RecentActivity returns up to limit clicks, newest first. Events whose
// timestamp cannot be parsed are skipped. limit <= 0 means the default.
func (s *Summarizer) RecentActivity(limit int) []Activity {
	if limit <= 0 {
		limit = DefaultRecentActivityLimit
	}

	events := s.snap.RecentClicks
	out := make([]Activity, 0, min(limit, len(events)))
	for i := len(events) - 1; i >= 0 && len(out) < limit; i-- {
		ev := events[i]
		if _, err := ev.Time(); err != nil {
			continue
		}
		out = append(out, Activity{
			ClickEvent:   ev,
			PlatformIcon: PlatformIcon(ev.Platform),
			BadgeIcon:    BadgeIcon(ev.BadgeType),
			PostHost:     postHost(ev.PostURL),
		})
	}
	return out
}

// BadgeColor returns the display color for a badge tier.
func BadgeColor(badge string) string {
	if c, ok := badgeColors[strings.ToLower(badge)]; ok {
		return c
	}
	return ColorDefault
}

// PlatformIcon returns the icon for a platform.
func PlatformIcon(platform string) string {
	if icon, ok := platformIcons[strings.ToLower(platform)]; ok {
		return icon
	}
	return defaultPlatformIcon
}

// BadgeIcon returns the icon for a badge tier.
func BadgeIcon(badge string) string {
	if icon, ok := badgeIcons[strings.ToLower(badge)]; ok {
		return icon
	}
	return defaultBadgeIcon
}

// postHost extracts the host of a post URL.
// Returns "(unknown)" when there is none.
func postHost(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "(unknown)"
	}
	return parsed.Host
}
