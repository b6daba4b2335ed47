package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics for the service.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	recomputeDuration prometheus.Histogram
	skippedOrders     prometheus.Counter
	closeouts         prometheus.Counter
	discrepancy       *prometheus.GaugeVec
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodzone_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodzone_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	recompute := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "foodzone_recompute_duration_seconds",
		Help:    "Duration of a full period recompute.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foodzone_orders_skipped_total",
		Help: "Orders dropped from aggregation because they carry no creation timestamp.",
	})
	closeouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foodzone_closeouts_total",
		Help: "Reconciliation reports recorded.",
	})
	discrepancy := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "foodzone_closeout_discrepancy_cedis",
		Help: "Discrepancy of the latest closeout per drawer.",
	}, []string{"bucket"})
	registry.MustRegister(requests, duration, recompute, skipped, closeouts, discrepancy)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		recomputeDuration: recompute,
		skippedOrders:     skipped,
		closeouts:         closeouts,
		discrepancy:       discrepancy,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveRecompute records one aggregation run.
func (m *Metrics) ObserveRecompute(duration time.Duration, skipped int) {
	if m == nil {
		return
	}
	m.recomputeDuration.Observe(duration.Seconds())
	if skipped > 0 {
		m.skippedOrders.Add(float64(skipped))
	}
}

// ObserveCloseout records the discrepancies of a closeout.
func (m *Metrics) ObserveCloseout(cash, momo float64) {
	if m == nil {
		return
	}
	m.closeouts.Inc()
	m.discrepancy.WithLabelValues("cash").Set(cash)
	m.discrepancy.WithLabelValues("momo").Set(momo)
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
