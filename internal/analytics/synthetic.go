package analytics

import "github.com/penshort/costboard/internal/model"

// SyntheticVersion identifies the sample data set. Bump it whenever the
// sample changes so consumers can tell revisions apart.
const SyntheticVersion = "sample-v1"

type samplePost struct {
	slug     string
	platform string
	badge    string
	clicks   int64
	first    string
	last     string
}

var samplePosts = []samplePost{
	{"gold-badge-launch", "linkedin", "gold", 24, "2025-01-13T08:12:00Z", "2025-01-15T17:40:00Z"},
	{"silver-streak", "linkedin", "silver", 19, "2025-01-13T09:30:00Z", "2025-01-15T16:05:00Z"},
	{"gold-week-recap", "twitter", "gold", 17, "2025-01-13T11:02:00Z", "2025-01-15T15:22:00Z"},
	{"bronze-first-steps", "linkedin", "bronze", 15, "2025-01-13T13:45:00Z", "2025-01-15T14:10:00Z"},
	{"silver-milestone", "twitter", "silver", 13, "2025-01-14T07:55:00Z", "2025-01-15T13:48:00Z"},
	{"gold-community", "facebook", "gold", 12, "2025-01-14T08:20:00Z", "2025-01-15T12:30:00Z"},
	{"gold-thread", "twitter", "gold", 11, "2025-01-14T10:10:00Z", "2025-01-15T11:15:00Z"},
	{"silver-spotlight", "facebook", "silver", 9, "2025-01-14T12:00:00Z", "2025-01-15T10:42:00Z"},
	{"bronze-reel", "instagram", "bronze", 8, "2025-01-14T14:35:00Z", "2025-01-15T09:58:00Z"},
	{"silver-update", "facebook", "silver", 6, "2025-01-14T16:20:00Z", "2025-01-15T09:05:00Z"},
	{"bronze-story", "instagram", "bronze", 5, "2025-01-14T18:45:00Z", "2025-01-15T08:30:00Z"},
	{"bronze-carousel", "instagram", "bronze", 3, "2025-01-15T06:10:00Z", "2025-01-15T07:50:00Z"},
}

type sampleClick struct {
	at       string
	post     int
	username string
}

// Chronological, oldest first.
var sampleClicks = []sampleClick{
	{"2025-01-15T09:05:00Z", 9, "maria.k"},
	{"2025-01-15T09:58:00Z", 8, "devon_r"},
	{"2025-01-15T10:42:00Z", 7, "lee.chen"},
	{"2025-01-15T11:15:00Z", 6, "sam_ops"},
	{"2025-01-15T12:30:00Z", 5, "priya.n"},
	{"2025-01-15T13:48:00Z", 4, "jonas_b"},
	{"2025-01-15T14:10:00Z", 3, "aisha.m"},
	{"2025-01-15T15:22:00Z", 2, "tom_w"},
	{"2025-01-15T16:05:00Z", 1, "grace.h"},
	{"2025-01-15T17:40:00Z", 0, "omar_z"},
}

const (
	sampleUniqueUsers = 89
	sampleBaseURL     = "https://example.com/posts/"
)

// SyntheticSnapshot returns the fixed sample shown while the tracking
// service is offline. Each call returns a fresh copy.
func SyntheticSnapshot() *model.AnalyticsSnapshot {
	snap := &model.AnalyticsSnapshot{
		UniqueUsers:       sampleUniqueUsers,
		TotalPosts:        int64(len(samplePosts)),
		ClicksByPlatform:  map[string]int64{},
		ClicksByBadgeType: map[string]int64{},
		TopPosts:          make([]model.PostStat, 0, len(samplePosts)),
		RecentClicks:      make([]model.ClickEvent, 0, len(sampleClicks)),
		IsLive:            false,
		Version:           SyntheticVersion,
	}

	for _, p := range samplePosts {
		snap.TotalClicks += p.clicks
		snap.ClicksByPlatform[p.platform] += p.clicks
		snap.ClicksByBadgeType[p.badge] += p.clicks
		snap.TopPosts = append(snap.TopPosts, model.PostStat{
			PostURL:    sampleBaseURL + p.slug,
			Platform:   p.platform,
			BadgeType:  p.badge,
			Clicks:     p.clicks,
			FirstClick: p.first,
			LastClick:  p.last,
		})
	}
	snap.AvgClicksPerPost = float64(snap.TotalClicks) / float64(snap.TotalPosts)

	for _, c := range sampleClicks {
		p := samplePosts[c.post]
		snap.RecentClicks = append(snap.RecentClicks, model.ClickEvent{
			Timestamp: c.at,
			Platform:  p.platform,
			BadgeType: p.badge,
			PostURL:   sampleBaseURL + p.slug,
			Username:  c.username,
		})
	}

	return snap
}
