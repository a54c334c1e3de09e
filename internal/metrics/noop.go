package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCacheHit is a no-op.
func (n *NoopRecorder) IncCacheHit(key string) {}

// IncCacheMiss is a no-op.
func (n *NoopRecorder) IncCacheMiss(key string) {}

// IncRemoteCall is a no-op.
func (n *NoopRecorder) IncRemoteCall(endpoint, status string) {}

// ObserveRemoteDuration is a no-op.
func (n *NoopRecorder) ObserveRemoteDuration(endpoint string, duration time.Duration) {}

// IncFallbackServed is a no-op.
func (n *NoopRecorder) IncFallbackServed() {}
