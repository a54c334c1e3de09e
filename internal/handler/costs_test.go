package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penshort/costboard/internal/costmodel"
	"github.com/penshort/costboard/internal/handler/dto"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDefaults() costmodel.Inputs {
	return costmodel.Inputs{
		BadgeVolume:      100,
		BadgeScenario:    costmodel.ScenarioBestCase,
		MemeVolume:       50,
		InstagramRefresh: costmodel.CadenceDaily,
		BlogVolume:       10,
		NewsRefresh:      costmodel.CadenceDaily,
	}
}

func newCostRouter() http.Handler {
	agg := costmodel.NewAggregator(costmodel.DefaultCatalog(), costmodel.DefaultProration())
	h := NewCostHandler(agg, testDefaults(), testLogger())

	r := chi.NewRouter()
	r.Get("/api/v1/costs", h.Get)
	r.Get("/api/v1/costs/{channel}/scaling", h.Scaling)
	return r
}

func serve(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestCostHandler_Get_Defaults(t *testing.T) {
	t.Parallel()

	rec := serve(t, newCostRouter(), http.MethodGet, "/api/v1/costs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap costmodel.CostSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))

	assert.Equal(t, testDefaults(), snap.Inputs)
	assertDecimal(t, "5.83443", snap.TotalDaily)
	assertDecimal(t, "175.0329", snap.TotalMonthly)
	assert.Equal(t, 160, snap.TotalPostsDaily)
	require.Len(t, snap.Channels, 3)
	assertDecimal(t, "0.795", snap.Channels[0].DailyCost)
}

func TestCostHandler_Get_QueryOverrides(t *testing.T) {
	t.Parallel()

	router := newCostRouter()
	rec := serve(t, router, http.MethodGet,
		"/api/v1/costs?badge_scenario=worst&meme_volume=50&instagram_refresh=daily&blog_volume=10&news_refresh=weekly")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap costmodel.CostSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))

	badge, ok := snap.Channel(costmodel.ChannelBadge)
	require.True(t, ok)
	assertDecimal(t, "1.551", badge.DailyCost)

	meme, ok := snap.Channel(costmodel.ChannelMeme)
	require.True(t, ok)
	assertDecimal(t, "3.24668", meme.DailyCost)

	blog, ok := snap.Channel(costmodel.ChannelBlog)
	require.True(t, ok)
	assert.Equal(t, costmodel.CadenceWeekly, blog.Cadence)
	assert.Equal(t, "0.420336", blog.DailyCost.Round(6).String())
}

func TestCostHandler_Get_InvalidInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"non-numeric volume", "badge_volume=abc", "INVALID_VOLUME"},
		{"badge volume above max", "badge_volume=1001", "INVALID_VOLUME"},
		{"meme volume zero", "meme_volume=0", "INVALID_VOLUME"},
		{"blog volume negative", "blog_volume=-5", "INVALID_VOLUME"},
		{"unknown cadence", "news_refresh=hourly", "INVALID_CADENCE"},
		{"unknown scenario", "badge_scenario=average", "INVALID_SCENARIO"},
	}

	router := newCostRouter()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(t, router, http.MethodGet, "/api/v1/costs?"+tt.query)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCostHandler_Scaling_DefaultVolumes(t *testing.T) {
	t.Parallel()

	rec := serve(t, newCostRouter(), http.MethodGet, "/api/v1/costs/meme/scaling")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ScalingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, costmodel.ChannelMeme, resp.Channel)
	assert.Equal(t, costmodel.CadenceDaily, resp.Cadence)
	assert.Empty(t, resp.Scenario)
	assert.Equal(t, 500, resp.MaxVolume)
	assertDecimal(t, "0.051004", resp.PerItemCost)
	assertDecimal(t, "0.69648", resp.DailyInfrastructure)

	require.Len(t, resp.Rows, 5)
	volumes := make([]int, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		volumes = append(volumes, row.Volume)
		assert.True(t, row.MonthlyCost.Equal(row.DailyCost.Mul(decimal.NewFromInt(30))))
	}
	assert.Equal(t, []int{10, 25, 50, 100, 250}, volumes)
	assertDecimal(t, "3.24668", resp.Rows[2].DailyCost)
}

func TestCostHandler_Scaling_CustomVolumesAndScenario(t *testing.T) {
	t.Parallel()

	rec := serve(t, newCostRouter(), http.MethodGet, "/api/v1/costs/Badge/scaling?scenario=worst&volumes=100,%201")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.ScalingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, costmodel.ChannelBadge, resp.Channel)
	assert.Equal(t, costmodel.ScenarioWorstCase, resp.Scenario)
	assert.Empty(t, resp.Cadence)
	assertDecimal(t, "0.01551", resp.PerItemCost)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, 100, resp.Rows[0].Volume)
	assertDecimal(t, "1.551", resp.Rows[0].DailyCost)
	assert.Equal(t, 1, resp.Rows[1].Volume)
}

func TestCostHandler_Scaling_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"unknown channel", "/api/v1/costs/podcast/scaling", http.StatusNotFound, "INVALID_CHANNEL"},
		{"zero volume point", "/api/v1/costs/blog/scaling?volumes=5,0", http.StatusBadRequest, "INVALID_VOLUME"},
		{"non-numeric volume point", "/api/v1/costs/blog/scaling?volumes=five", http.StatusBadRequest, "INVALID_VOLUME"},
		{"empty volume list", "/api/v1/costs/blog/scaling?volumes=,,", http.StatusBadRequest, "INVALID_VOLUME"},
		{"bad cadence", "/api/v1/costs/blog/scaling?cadence=yearly", http.StatusBadRequest, "INVALID_CADENCE"},
		{"bad scenario", "/api/v1/costs/badge/scaling?scenario=median", http.StatusBadRequest, "INVALID_SCENARIO"},
	}

	router := newCostRouter()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(t, router, http.MethodGet, tt.target)
			require.Equal(t, tt.status, rec.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}
