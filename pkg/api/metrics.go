package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the request side collectors of the API server. Decode
// counters live in pkg/metrics and share the same registry.
type Metrics struct {
	requests *prometheus.CounterVec   // method, route, status_code
	latency  *prometheus.HistogramVec // method, route
	inFlight *prometheus.GaugeVec     // route

	queries  *prometheus.CounterVec // query, status
	served   prometheus.Counter
	channels prometheus.Gauge

	auth   *prometheus.CounterVec // status
	health *prometheus.CounterVec // status
}

// NewMetrics creates the API metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wpilog_http_requests_total",
			Help: "HTTP requests handled, by route and status code",
		}, []string{"method", "route", "status_code"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wpilog_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"method", "route"}),
		inFlight: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wpilog_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}, []string{"route"}),
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wpilog_queries_total",
			Help: "Channel lookups, value reads and stats queries",
		}, []string{"query", "status"}),
		served: f.NewCounter(prometheus.CounterOpts{
			Name: "wpilog_records_served_total",
			Help: "Value records returned by the API",
		}),
		channels: f.NewGauge(prometheus.GaugeOpts{
			Name: "wpilog_channels_loaded",
			Help: "Channel incarnations in the served index",
		}),
		auth: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wpilog_auth_requests_total",
			Help: "Requests that presented an API key",
		}, []string{"status"}),
		health: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wpilog_health_checks_total",
			Help: "Health check requests",
		}, []string{"status"}),
	}
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// RecordQuery counts one query of the named kind.
func (m *Metrics) RecordQuery(query string, ok bool) {
	m.queries.WithLabelValues(query, statusLabel(ok)).Inc()
}

// RecordRecordsServed adds n to the served records counter.
func (m *Metrics) RecordRecordsServed(n int) {
	m.served.Add(float64(n))
}

// SetChannelsLoaded sets the number of incarnations being served.
func (m *Metrics) SetChannelsLoaded(n int) {
	m.channels.Set(float64(n))
}

func (m *Metrics) RecordAuthRequest(ok bool) {
	m.auth.WithLabelValues(statusLabel(ok)).Inc()
}

func (m *Metrics) RecordHealthCheck(ok bool) {
	m.health.WithLabelValues(statusLabel(ok)).Inc()
}

// InstrumentHandler wraps handler with request, latency and in-flight
// accounting under route.
func (m *Metrics) InstrumentHandler(method, route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gauge := m.inFlight.WithLabelValues(route)
		gauge.Inc()
		defer gauge.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		handler(ww, r)

		m.requests.WithLabelValues(method, route, strconv.Itoa(status(ww))).Inc()
		m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// InstrumentAuth wraps an authentication middleware and counts the outcome
// of every request that carried a key.
func (m *Metrics) InstrumentAuth(auth func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := auth(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if presentedKey(r) == "" {
				wrapped.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			wrapped.ServeHTTP(ww, r)
			m.RecordAuthRequest(status(ww) != http.StatusUnauthorized)
		})
	}
}

// status reports the written status, which is 200 when the handler never
// called WriteHeader.
func status(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
