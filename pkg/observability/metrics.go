package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the server.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// AccessChecksTotal counts gate decisions per required level and mode.
	// The decision label is "allowed" or "denied".
	AccessChecksTotal *prometheus.CounterVec

	// AccessMutationsTotal counts grant/revoke/role-change/transfer calls.
	AccessMutationsTotal *prometheus.CounterVec

	// InvitesSweptTotal counts expired invites removed by the sweeper.
	InvitesSweptTotal prometheus.Counter

	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhive_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskhive_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AccessChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhive_access_checks_total",
				Help: "Capability gate decisions",
			},
			[]string{"level", "mode", "decision"},
		),
		AccessMutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhive_access_mutations_total",
				Help: "Access record mutations",
			},
			[]string{"operation", "status"},
		),
		InvitesSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskhive_invites_swept_total",
				Help: "Expired invites removed by the background sweeper",
			},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhive_db_connections_active",
				Help: "Active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhive_db_connections_idle",
				Help: "Idle database connections",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AccessChecksTotal,
		m.AccessMutationsTotal,
		m.InvitesSweptTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAccessCheck records one gate decision.
func (m *Metrics) ObserveAccessCheck(level, mode string, allowed bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	m.AccessChecksTotal.WithLabelValues(level, mode, decision).Inc()
}

// CollectDBStats copies pool stats into the gauges. Called periodically.
func (m *Metrics) CollectDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// Middleware instruments an HTTP handler with request count and duration.
// The route template, not the raw URL, should be used as path to keep
// cardinality bounded; gorilla/mux exposes it via CurrentRoute.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := routeTemplate(r); route != "" {
			path = route
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
