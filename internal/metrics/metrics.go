// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Remote call outcomes.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Memo cache metrics, labelled by cache key
	IncCacheHit(key string)
	IncCacheMiss(key string)

	// Tracking service metrics, labelled by endpoint path
	IncRemoteCall(endpoint, status string)
	ObserveRemoteDuration(endpoint string, duration time.Duration)

	// Analytics served from the synthetic sample
	IncFallbackServed()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
