package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CacheHits             map[string]uint64
	CacheMisses           map[string]uint64
	RemoteCalls           map[string]uint64 // keyed by "endpoint:status"
	RemoteDurationCount   uint64
	RemoteDurationTotalNs int64
	FallbacksServed       uint64
}

// InMemoryRecorder stores metrics in memory for tests and the /metrics endpoint.
type InMemoryRecorder struct {
	mu          sync.Mutex
	cacheHits   map[string]uint64
	cacheMisses map[string]uint64
	remoteCalls map[string]uint64

	remoteDurationCount   uint64
	remoteDurationTotalNs int64
	fallbacksServed       uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		cacheHits:   make(map[string]uint64),
		cacheMisses: make(map[string]uint64),
		remoteCalls: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		CacheHits:             copyCounts(m.cacheHits),
		CacheMisses:           copyCounts(m.cacheMisses),
		RemoteCalls:           copyCounts(m.remoteCalls),
		RemoteDurationCount:   atomic.LoadUint64(&m.remoteDurationCount),
		RemoteDurationTotalNs: atomic.LoadInt64(&m.remoteDurationTotalNs),
		FallbacksServed:       atomic.LoadUint64(&m.fallbacksServed),
	}
}

// IncCacheHit increments the hit counter for a cache key.
func (m *InMemoryRecorder) IncCacheHit(key string) {
	m.mu.Lock()
	m.cacheHits[key]++
	m.mu.Unlock()
}

// IncCacheMiss increments the miss counter for a cache key.
func (m *InMemoryRecorder) IncCacheMiss(key string) {
	m.mu.Lock()
	m.cacheMisses[key]++
	m.mu.Unlock()
}

// IncRemoteCall counts a tracking service call by endpoint and outcome.
func (m *InMemoryRecorder) IncRemoteCall(endpoint, status string) {
	m.mu.Lock()
	m.remoteCalls[endpoint+":"+status]++
	m.mu.Unlock()
}

// ObserveRemoteDuration records tracking service latency.
func (m *InMemoryRecorder) ObserveRemoteDuration(endpoint string, duration time.Duration) {
	atomic.AddUint64(&m.remoteDurationCount, 1)
	atomic.AddInt64(&m.remoteDurationTotalNs, duration.Nanoseconds())
}

// IncFallbackServed increments the synthetic snapshot counter.
func (m *InMemoryRecorder) IncFallbackServed() {
	atomic.AddUint64(&m.fallbacksServed, 1)
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
