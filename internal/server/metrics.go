package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	CacheWrites    prometheus.Counter
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	RouteRequests  prometheus.Counter
	RouteFallbacks prometheus.Counter
	OpenRejections prometheus.Counter
	BreakerState   prometheus.Gauge
}

// NewMetrics registers the server collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CacheWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "edgekit_cache_writes_total",
			Help: "Replicated cache writes accepted.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "edgekit_cache_hits_total",
			Help: "Cache reads answered by the primary.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "edgekit_cache_misses_total",
			Help: "Cache reads the primary had no value for.",
		}),
		RouteRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "edgekit_route_requests_total",
			Help: "Routing decisions served.",
		}),
		RouteFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "edgekit_route_fallbacks_total",
			Help: "Routing decisions degraded to the fallback node.",
		}),
		OpenRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "edgekit_breaker_rejections_total",
			Help: "Writes rejected while the circuit was open.",
		}),
		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "edgekit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		}),
	}
}
