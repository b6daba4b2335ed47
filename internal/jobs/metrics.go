package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	expected *prometheus.GaugeVec
	dayOpen  prometheus.Gauge
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// SetExpectation exports the expected drawer totals of the latest snapshot.
func (m *Metrics) SetExpectation(cash, momo float64) {
	if m == nil {
		return
	}
	m.expected.WithLabelValues("cash").Set(cash)
	m.expected.WithLabelValues("momo").Set(momo)
}

// SetDayOpen flags a finished business day that has no reconciliation report.
func (m *Metrics) SetDayOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.dayOpen.Set(1)
		return
	}
	m.dayOpen.Set(0)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodzone_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodzone_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodzone_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	expected := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "foodzone_expected_drawer_cedis",
		Help: "Expected drawer totals from the latest daily snapshot.",
	}, []string{"bucket"})
	dayOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "foodzone_day_open_after_hours",
		Help: "1 when the previous business day has not been closed out.",
	})
	registerer.MustRegister(runs, failures, duration, expected, dayOpen)
	return &Metrics{runs: runs, failures: failures, duration: duration, expected: expected, dayOpen: dayOpen}
}
