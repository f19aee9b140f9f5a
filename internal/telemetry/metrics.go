package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cchalm/multimodal-chat/internal/ai"
)

// Metrics holds the Prometheus collectors of one server instance on a private registry
type Metrics struct {
	registry *prometheus.Registry

	actions           *prometheus.CounterVec
	actionDuration    *prometheus.HistogramVec
	resolverAttempts  *prometheus.CounterVec
	sessions          prometheus.Gauge
	providerResponses *prometheus.CounterVec
	providerLatency   prometheus.Histogram
	rateLimited       prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mmchat_actions_total",
			Help: "User actions by kind and outcome",
		}, []string{"action", "outcome"}),
		actionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mmchat_action_duration_seconds",
			Help:    "Time taken to complete a user action, including provider calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"action"}),
		resolverAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mmchat_resolver_attempts_total",
			Help: "Model candidates tried by the resolver",
		}, []string{"capability", "model", "available"}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mmchat_sessions",
			Help: "Number of live browser sessions",
		}),
		providerResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mmchat_provider_responses_total",
			Help: "HTTP responses received from the provider by method and status code",
		}, []string{"method", "code"}),
		providerLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mmchat_provider_request_duration_seconds",
			Help:    "Round-trip time of provider HTTP requests",
			Buckets: prometheus.DefBuckets,
		}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "mmchat_rate_limited_total",
			Help: "Requests rejected by the per-session rate limit",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, e.g. for gathering in tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveAction(action string, outcome string, duration time.Duration) {
	m.actions.WithLabelValues(action, outcome).Inc()
	m.actionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

func (m *Metrics) ObserveResolveAttempt(capability ai.Capability, model string, available bool) {
	m.resolverAttempts.WithLabelValues(capability.String(), model, strconv.FormatBool(available)).Inc()
}

func (m *Metrics) SetSessions(n int) {
	m.sessions.Set(float64(n))
}

// ObserveProviderResponse records one provider round trip. status is 0 when no response was received.
func (m *Metrics) ObserveProviderResponse(method string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.providerResponses.WithLabelValues(method, code).Inc()
	m.providerLatency.Observe(duration.Seconds())
}

func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}
