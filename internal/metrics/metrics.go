package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RefreshCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsboard_refresh_cycles_total",
		Help: "Completed refresh cycles",
	})

	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "newsboard_refresh_duration_seconds",
		Help:    "Duration of refresh cycles",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	})

	SourceFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsboard_source_fetch_failures_total",
		Help: "Failed feed fetches per source and strategy position",
	}, []string{"source", "strategy"})

	FallbackUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsboard_source_fallback_used_total",
		Help: "Fetches served by a fallback feed",
	}, []string{"source"})

	SourceItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "newsboard_source_items",
		Help: "Items held per source after the last refresh",
	}, []string{"source"})

	ProxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsboard_proxy_requests_total",
		Help: "Proxy requests by kind and outcome",
	}, []string{"kind", "outcome"})
)

// Health tracks the state reported by /health.
type Health struct {
	mu sync.RWMutex

	RefreshCount        int64
	LastRefreshTime     time.Time
	LastRefreshDuration time.Duration
	EmptySources        []string

	LastErrorTime time.Time
	LastError     string
}

var Global = &Health{}

func (h *Health) RecordRefresh(duration time.Duration, itemsPerSource map[string]int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.RefreshCount++
	h.LastRefreshTime = time.Now()
	h.LastRefreshDuration = duration
	h.EmptySources = h.EmptySources[:0]
	for id, n := range itemsPerSource {
		SourceItems.WithLabelValues(id).Set(float64(n))
		if n == 0 {
			h.EmptySources = append(h.EmptySources, id)
		}
	}

	RefreshCycles.Inc()
	RefreshDuration.Observe(duration.Seconds())
}

func (h *Health) SetError(err string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastError = err
	h.LastErrorTime = time.Now()
}

// IsHealthy is false until the first refresh and while every source is empty.
func (h *Health) IsHealthy(totalSources int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.RefreshCount > 0 && len(h.EmptySources) < totalSources
}

func (h *Health) GetStats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := map[string]interface{}{
		"refresh_count":            h.RefreshCount,
		"last_refresh_duration_ms": h.LastRefreshDuration.Milliseconds(),
		"empty_sources":            append([]string{}, h.EmptySources...),
		"last_error":               h.LastError,
	}
	if !h.LastRefreshTime.IsZero() {
		stats["last_refresh_time"] = h.LastRefreshTime.Format(time.RFC3339)
	}
	if !h.LastErrorTime.IsZero() {
		stats["last_error_time"] = h.LastErrorTime.Format(time.RFC3339)
	}
	return stats
}
