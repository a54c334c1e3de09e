package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/penshort/costboard/internal/analytics"
)

// maxListLimit caps the top_posts and recent query parameters.
const maxListLimit = 100

// AnalyticsService is what the analytics routes need from the service layer.
type AnalyticsService interface {
	Dashboard(ctx context.Context, limits analytics.Limits) *analytics.Dashboard
	Reset(ctx context.Context) analytics.ResetStatus
}

// AnalyticsHandler handles analytics API requests.
type AnalyticsHandler struct {
	svc    AnalyticsService
	logger *slog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(svc AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		svc:    svc,
		logger: logger.With("component", "handler.analytics"),
	}
}

// Get handles GET /api/v1/analytics.
// Always 200: an unreachable tracking service yields sample data with
// is_live=false.
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limits := analytics.Limits{
		TopPosts:       parseLimit(query.Get("top_posts")),
		RecentActivity: parseLimit(query.Get("recent")),
	}

	writeJSON(w, http.StatusOK, h.svc.Dashboard(r.Context(), limits))
}

// Reset handles POST /api/v1/analytics/reset.
// A failed remote reset is reported in the body, not as an HTTP error.
func (h *AnalyticsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Reset(r.Context())
	h.logger.Info("analytics_reset", "ok", status.OK)
	writeJSON(w, http.StatusOK, status)
}

// parseLimit returns 0 (the default) for missing or invalid values.
func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}
