package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penshort/costboard/internal/model"
	"github.com/penshort/costboard/internal/testutil"
)

func TestPlatformDistribution_SortedDescending(t *testing.T) {
	t.Parallel()

	snap := &model.AnalyticsSnapshot{
		ClicksByPlatform: map[string]int64{
			"twitter":   5,
			"linkedin":  12,
			"instagram": 5,
			"facebook":  1,
		},
	}

	got := NewSummarizer(snap).PlatformDistribution()

	assert.Equal(t, []PlatformSlice{
		{Platform: "linkedin", Clicks: 12},
		{Platform: "instagram", Clicks: 5},
		{Platform: "twitter", Clicks: 5},
		{Platform: "facebook", Clicks: 1},
	}, got)
}

func TestBadgeDistribution_Colors(t *testing.T) {
	t.Parallel()

	snap := &model.AnalyticsSnapshot{
		ClicksByBadgeType: map[string]int64{
			"bronze":   3,
			"gold":     9,
			"silver":   4,
			"platinum": 1,
		},
	}

	got := NewSummarizer(snap).BadgeDistribution()

	require.Len(t, got, 4)
	assert.Equal(t, BadgeSlice{Badge: "gold", Clicks: 9, Color: ColorGold}, got[0])
	assert.Equal(t, BadgeSlice{Badge: "silver", Clicks: 4, Color: ColorSilver}, got[1])
	assert.Equal(t, BadgeSlice{Badge: "bronze", Clicks: 3, Color: ColorBronze}, got[2])
	assert.Equal(t, BadgeSlice{Badge: "platinum", Clicks: 1, Color: ColorDefault}, got[3])
}

func TestDistributions_EmptySnapshot(t *testing.T) {
	t.Parallel()

	sum := NewSummarizer(nil)

	assert.Empty(t, sum.PlatformDistribution())
	assert.Empty(t, sum.BadgeDistribution())
	assert.Empty(t, sum.RankedPosts(0))
	assert.Empty(t, sum.RecentActivity(0))
}

func TestRankedPosts_Limit(t *testing.T) {
	t.Parallel()

	posts := make([]model.PostStat, 25)
	for i := range posts {
		posts[i] = model.PostStat{PostURL: "p", Clicks: int64(100 - i)}
	}
	sum := NewSummarizer(&model.AnalyticsSnapshot{TopPosts: posts})

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, DefaultRankedPostsLimit},
		{"negative uses default", -3, DefaultRankedPostsLimit},
		{"smaller", 5, 5},
		{"larger than input", 50, 25},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Len(t, sum.RankedPosts(tt.limit), tt.want)
		})
	}
}

func TestRankedPosts_PreservesUnsortedOrder(t *testing.T) {
	t.Parallel()

	posts := []model.PostStat{
		{PostURL: "a", Clicks: 1},
		{PostURL: "b", Clicks: 9},
		{PostURL: "c", Clicks: 4},
	}
	snap := &model.AnalyticsSnapshot{TopPosts: posts}

	got := NewSummarizer(snap).RankedPosts(10)

	assert.Equal(t, posts, got)

	got[0].Clicks = 500
	assert.EqualValues(t, 1, snap.TopPosts[0].Clicks, "summarizer must not alias the snapshot")
}

func TestRecentActivity_NewestFirst(t *testing.T) {
	t.Parallel()

	sum := NewSummarizer(testutil.NewTestSnapshot(t))

	got := sum.RecentActivity(0)

	require.Len(t, got, 3)
	assert.Equal(t, "chi", got[0].Username)
	assert.Equal(t, "ben", got[1].Username)
	assert.Equal(t, "ana", got[2].Username)

	assert.Equal(t, "💼", got[0].PlatformIcon)
	assert.Equal(t, "🥇", got[0].BadgeIcon)
	assert.Equal(t, "🐦", got[1].PlatformIcon)
	assert.Equal(t, "🥈", got[1].BadgeIcon)
	assert.Equal(t, "example.com", got[0].PostHost)
}

func TestRecentActivity_SkipsBadTimestamps(t *testing.T) {
	t.Parallel()

	snap := &model.AnalyticsSnapshot{
		RecentClicks: []model.ClickEvent{
			{Timestamp: "2025-01-15T10:00:00", Username: "naive"},
			{Timestamp: "yesterday", Username: "bad"},
			{Timestamp: "2025-01-15 11:00:00", Username: "spaced"},
			{Timestamp: "", Username: "empty"},
			{Timestamp: "2025-01-15T12:00:00.123456+00:00", Username: "offset"},
		},
	}

	got := NewSummarizer(snap).RecentActivity(10)

	names := make([]string, 0, len(got))
	for _, a := range got {
		names = append(names, a.Username)
	}
	assert.Equal(t, []string{"offset", "spaced", "naive"}, names)
}

func TestRecentActivity_LimitAppliesAfterSkipping(t *testing.T) {
	t.Parallel()

	snap := &model.AnalyticsSnapshot{
		RecentClicks: []model.ClickEvent{
			{Timestamp: "2025-01-15T09:00:00Z", Username: "a"},
			{Timestamp: "2025-01-15T10:00:00Z", Username: "b"},
			{Timestamp: "garbage", Username: "x"},
		},
	}

	got := NewSummarizer(snap).RecentActivity(1)

	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Username)
}

func TestIcons_Defaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "📘", PlatformIcon("Facebook"))
	assert.Equal(t, "📸", PlatformIcon("instagram"))
	assert.Equal(t, defaultPlatformIcon, PlatformIcon("mastodon"))
	assert.Equal(t, "🥉", BadgeIcon("bronze"))
	assert.Equal(t, defaultBadgeIcon, BadgeIcon(""))
	assert.Equal(t, ColorGold, BadgeColor("GOLD"))
}

func TestPostHost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", postHost("https://example.com/p/1?utm=x"))
	assert.Equal(t, "(unknown)", postHost(""))
	assert.Equal(t, "(unknown)", postHost("not a url"))
}
