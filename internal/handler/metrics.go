package handler

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/penshort/costboard/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	for _, key := range sortedKeys(snap.CacheHits) {
		writeMetric(w, "costboard_memo_hits_total{key=%q} %d\n", key, snap.CacheHits[key])
	}
	for _, key := range sortedKeys(snap.CacheMisses) {
		writeMetric(w, "costboard_memo_misses_total{key=%q} %d\n", key, snap.CacheMisses[key])
	}

	for _, key := range sortedKeys(snap.RemoteCalls) {
		endpoint, status, _ := strings.Cut(key, ":")
		writeMetric(w, "costboard_tracking_calls_total{endpoint=%q,status=%q} %d\n", endpoint, status, snap.RemoteCalls[key])
	}
	writeMetric(w, "costboard_tracking_duration_seconds_count %d\n", snap.RemoteDurationCount)
	writeMetric(w, "costboard_tracking_duration_seconds_sum %.6f\n", float64(snap.RemoteDurationTotalNs)/1e9)

	writeMetric(w, "costboard_analytics_fallback_served_total %d\n", snap.FallbacksServed)
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
