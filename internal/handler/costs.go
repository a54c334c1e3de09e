package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/penshort/costboard/internal/costmodel"
	"github.com/penshort/costboard/internal/handler/dto"
)

// maxScalingPoints bounds the volumes list of a scaling query.
const maxScalingPoints = 50

// CostHandler serves cost projections.
type CostHandler struct {
	agg      *costmodel.Aggregator
	defaults costmodel.Inputs
	logger   *slog.Logger
}

// NewCostHandler creates a new CostHandler. defaults fill in any control a
// request omits.
func NewCostHandler(agg *costmodel.Aggregator, defaults costmodel.Inputs, logger *slog.Logger) *CostHandler {
	return &CostHandler{
		agg:      agg,
		defaults: defaults,
		logger:   logger.With("component", "handler.costs"),
	}
}

// Get handles GET /api/v1/costs.
//
// Query parameters: badge_volume, badge_scenario, meme_volume,
// instagram_refresh, blog_volume, news_refresh.
func (h *CostHandler) Get(w http.ResponseWriter, r *http.Request) {
	in, err := h.parseInputs(r.URL.Query())
	if err != nil {
		h.handleCostError(w, err)
		return
	}

	snap, err := h.agg.Compute(in)
	if err != nil {
		h.handleCostError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Scaling handles GET /api/v1/costs/{channel}/scaling.
//
// Query parameters: scenario (badge), cadence (meme, blog) and volumes, a
// comma-separated list of volume points. Without volumes the channel's
// default points are used.
func (h *CostHandler) Scaling(w http.ResponseWriter, r *http.Request) {
	channel, err := costmodel.ParseChannel(chi.URLParam(r, "channel"))
	if err != nil {
		h.handleCostError(w, err)
		return
	}

	query := r.URL.Query()
	params := dto.ScalingParams{
		Scenario: h.defaults.BadgeScenario,
		Cadence:  h.defaultCadence(channel),
	}
	volume := h.defaultVolume(channel)

	if raw := query.Get("scenario"); raw != "" {
		if params.Scenario, err = costmodel.ParseRetryScenario(raw); err != nil {
			h.handleCostError(w, err)
			return
		}
	}
	if raw := query.Get("cadence"); raw != "" {
		if params.Cadence, err = costmodel.ParseCadence(raw); err != nil {
			h.handleCostError(w, err)
			return
		}
	}

	cm, err := h.agg.ChannelModel(channel, params.Scenario, params.Cadence, volume)
	if err != nil {
		h.handleCostError(w, err)
		return
	}
	params.MaxVolume = cm.MaxVolume()

	var rows []costmodel.ScalingRow
	if raw := query.Get("volumes"); raw != "" {
		volumes, perr := parseVolumes(raw)
		if perr != nil {
			h.handleCostError(w, perr)
			return
		}
		rows, err = cm.ScalingTable(volumes)
	} else {
		rows, err = cm.DefaultScalingTable()
	}
	if err != nil {
		h.handleCostError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToScalingResponse(cm, params, rows))
}

func (h *CostHandler) defaultVolume(channel costmodel.Channel) int {
	switch channel {
	case costmodel.ChannelMeme:
		return h.defaults.MemeVolume
	case costmodel.ChannelBlog:
		return h.defaults.BlogVolume
	default:
		return h.defaults.BadgeVolume
	}
}

func (h *CostHandler) defaultCadence(channel costmodel.Channel) costmodel.Cadence {
	switch channel {
	case costmodel.ChannelMeme:
		return h.defaults.InstagramRefresh
	case costmodel.ChannelBlog:
		return h.defaults.NewsRefresh
	default:
		return costmodel.CadenceDaily
	}
}

// parseInputs overlays query parameters on the configured defaults.
func (h *CostHandler) parseInputs(query url.Values) (costmodel.Inputs, error) {
	in := h.defaults
	var err error

	if in.BadgeVolume, err = intParam(query, "badge_volume", in.BadgeVolume); err != nil {
		return in, err
	}
	if in.MemeVolume, err = intParam(query, "meme_volume", in.MemeVolume); err != nil {
		return in, err
	}
	if in.BlogVolume, err = intParam(query, "blog_volume", in.BlogVolume); err != nil {
		return in, err
	}
	if raw := query.Get("badge_scenario"); raw != "" {
		if in.BadgeScenario, err = costmodel.ParseRetryScenario(raw); err != nil {
			return in, err
		}
	}
	if raw := query.Get("instagram_refresh"); raw != "" {
		if in.InstagramRefresh, err = costmodel.ParseCadence(raw); err != nil {
			return in, err
		}
	}
	if raw := query.Get("news_refresh"); raw != "" {
		if in.NewsRefresh, err = costmodel.ParseCadence(raw); err != nil {
			return in, err
		}
	}

	return in, nil
}

func intParam(query url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", costmodel.ErrInvalidVolume, key, raw)
	}
	return v, nil
}

func parseVolumes(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	if len(parts) > maxScalingPoints {
		return nil, fmt.Errorf("%w: at most %d volume points", costmodel.ErrInvalidVolume, maxScalingPoints)
	}

	volumes := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", costmodel.ErrInvalidVolume, p)
		}
		volumes = append(volumes, v)
	}
	if len(volumes) == 0 {
		return nil, fmt.Errorf("%w: no volume points", costmodel.ErrInvalidVolume)
	}
	return volumes, nil
}

// handleCostError maps cost model errors to HTTP responses.
func (h *CostHandler) handleCostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, costmodel.ErrInvalidVolume):
		writeError(w, http.StatusBadRequest, "INVALID_VOLUME", err.Error())
	case errors.Is(err, costmodel.ErrInvalidCadence):
		writeError(w, http.StatusBadRequest, "INVALID_CADENCE", err.Error())
	case errors.Is(err, costmodel.ErrInvalidScenario):
		writeError(w, http.StatusBadRequest, "INVALID_SCENARIO", err.Error())
	case errors.Is(err, costmodel.ErrInvalidChannel):
		writeError(w, http.StatusNotFound, "INVALID_CHANNEL", err.Error())
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
