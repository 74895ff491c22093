package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "edge_gateway"

// Metrics holds the gateway's Prometheus collectors. It satisfies the
// metrics interfaces of the rate limiter, content cache, async event
// recorder and dispatcher.
type Metrics struct {
	registry *prometheus.Registry

	rateLimitDecisions *prometheus.CounterVec
	cacheResults       *prometheus.CounterVec
	generatorFailures  *prometheus.CounterVec
	events             *prometheus.CounterVec
	dispatchOutcomes   *prometheus.CounterVec
	dispatchDuration   *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors. A nil registry gets a
// fresh one with the Go runtime and process collectors.
func NewMetrics(namespace string, registry *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		registry: registry,
		rateLimitDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_decisions_total",
				Help:      "Rate limit decisions by result (allowed, denied, fail_open, fail_closed)",
			},
			[]string{"result"},
		),
		cacheResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "content_cache_results_total",
				Help:      "Content cache outcomes (hit, miss, shared, corrupt, oversize, store_error)",
			},
			[]string{"result"},
		),
		generatorFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generator_failures_total",
				Help:      "Content generations that fell back to the placeholder, by reason",
			},
			[]string{"reason"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Event records by kind and result (ok, error, dropped)",
			},
			[]string{"kind", "result"},
		),
		dispatchOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_total",
				Help:      "Dispatched requests by outcome",
			},
			[]string{"outcome"},
		),
		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Time from dispatch start to response by outcome",
				// Cache hits are sub-millisecond; generations run to the 10s timeout.
				Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		m.rateLimitDecisions,
		m.cacheResults,
		m.generatorFailures,
		m.events,
		m.dispatchOutcomes,
		m.dispatchDuration,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRateLimit(result string) {
	m.rateLimitDecisions.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCache(result string) {
	m.cacheResults.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveGeneratorFailure(reason string) {
	m.generatorFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveEvent(kind, result string) {
	m.events.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveDispatch(outcome string, duration time.Duration) {
	m.dispatchOutcomes.WithLabelValues(outcome).Inc()
	m.dispatchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
