package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haukened/cd-security/internal/security/domain"
)

const namespace = "cd_security"

// Metrics holds every collector the daemon exports.
type Metrics struct {
	Decisions           *prometheus.CounterVec
	UpdateChecks        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec

	registry *prometheus.Registry
}

// JournalSource is the decision journal as seen by the collectors.
type JournalSource interface {
	Len() int
	Evictions() uint64
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_decisions_total",
			Help:      "Registrations evaluated, by reason and whether the account was deleted.",
		}, []string{"reason", "deleted"}),

		UpdateChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_checks_total",
			Help:      "Update checks, by outcome.",
		}, []string{"outcome"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "path", "status"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status"}),

		registry: reg,
	}
	reg.MustRegister(m.Decisions, m.UpdateChecks, m.HTTPRequestDuration, m.HTTPRequestsTotal)
	return m
}

// ObserveDecision counts one handled registration.
func (m *Metrics) ObserveDecision(d domain.Decision, deleted bool) {
	m.Decisions.WithLabelValues(d.Reason.String(), strconv.FormatBool(deleted)).Inc()
}

// ObserveUpdateCheck counts one update check.
func (m *Metrics) ObserveUpdateCheck(outcome string) {
	m.UpdateChecks.WithLabelValues(outcome).Inc()
}

// WatchJournal exports the journal's size and eviction count, read at
// scrape time.
func (m *Metrics) WatchJournal(j JournalSource) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "journal_records",
			Help:      "Decision records currently held in the journal.",
		}, func() float64 { return float64(j.Len()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_evictions_total",
			Help:      "Decision records aged out of the journal.",
		}, func() float64 { return float64(j.Evictions()) }),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records latency and counts per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{r.Method, path, strconv.Itoa(status)}
		m.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		m.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
	})
}
