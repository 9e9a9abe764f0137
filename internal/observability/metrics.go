package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PolylineDecodes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripmap_polyline_decodes_total",
		Help: "Encoded polylines decoded",
	})
	MalformedGeometry = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripmap_malformed_geometry_total",
		Help: "Polylines rejected as malformed",
	})
	DecodedPoints = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tripmap_decoded_points",
		Help:    "Coordinates per decoded polyline",
		Buckets: prometheus.ExponentialBuckets(10, 4, 8),
	})
	TripsPlanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripmap_trips_planned_total",
		Help: "Trip plans received from the planning backend",
	})
	BackendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripmap_backend_errors_total",
		Help: "Failed calls to the planning backend by operation",
	}, []string{"op"})
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripmap_cache_hits_total",
		Help: "Map view cache hits",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripmap_cache_misses_total",
		Help: "Map view cache misses",
	})
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripmap_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tripmap_ws_connections",
		Help: "Open websocket connections",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
