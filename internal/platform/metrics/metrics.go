package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the service's prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	sourceTimeouts    *prometheus.CounterVec
	reconciliations   *prometheus.CounterVec
	approvals         *prometheus.CounterVec
	referralCredits   *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	enrichmentDegrade *prometheus.CounterVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payledger_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payledger_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		sourceTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payledger_reconcile_source_timeouts_total",
			Help: "Reconciliation source fetches that exceeded their deadline.",
		}, []string{"source"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payledger_reconciliations_total",
			Help: "Reconciliation computations by outcome.",
		}, []string{"outcome"}),
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payledger_advance_decisions_total",
			Help: "Advance request decisions by outcome.",
		}, []string{"outcome"}),
		referralCredits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payledger_referral_credits_total",
			Help: "Referral credit attempts by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payledger_notifications_total",
			Help: "Notification deliveries by outcome.",
		}, []string{"outcome"}),
		enrichmentDegrade: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payledger_enrichment_degraded_total",
			Help: "Enrichment lookups that fell back to a degraded value.",
		}, []string{"field"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.requests,
		c.requestDuration,
		c.sourceTimeouts,
		c.reconciliations,
		c.approvals,
		c.referralCredits,
		c.notifications,
		c.enrichmentDegrade,
	)
	return c
}

// Record tracks one HTTP request.
func (c *Collector) Record(method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (c *Collector) SourceTimeout(source string) {
	if c == nil {
		return
	}
	c.sourceTimeouts.WithLabelValues(source).Inc()
}

func (c *Collector) Reconciliation(outcome string) {
	if c == nil {
		return
	}
	c.reconciliations.WithLabelValues(outcome).Inc()
}

func (c *Collector) AdvanceDecision(outcome string) {
	if c == nil {
		return
	}
	c.approvals.WithLabelValues(outcome).Inc()
}

func (c *Collector) ReferralCredit(outcome string) {
	if c == nil {
		return
	}
	c.referralCredits.WithLabelValues(outcome).Inc()
}

func (c *Collector) Notification(outcome string) {
	if c == nil {
		return
	}
	c.notifications.WithLabelValues(outcome).Inc()
}

func (c *Collector) EnrichmentDegraded(field string) {
	if c == nil {
		return
	}
	c.enrichmentDegrade.WithLabelValues(field).Inc()
}

// Handler exposes the registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
