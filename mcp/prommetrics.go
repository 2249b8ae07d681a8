package mcp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics is the default MetricsRecorder binding. It is a
// concrete choice, not a spec requirement: any MetricsRecorder
// implementation plugs into ServerOptions.Metrics the same way.
type PrometheusMetrics struct {
	requests     *prometheus.HistogramVec
	requestErrs  *prometheus.CounterVec
	toolCalls    *prometheus.HistogramVec
	toolTimeouts *prometheus.CounterVec
	sessions     prometheus.Gauge
}

// NewPrometheusMetrics registers its collectors with reg and returns a
// ready-to-use MetricsRecorder.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mcprtd",
			Name:      "request_duration_seconds",
			Help:      "Duration of handled JSON-RPC requests, by method.",
		}, []string{"method"}),
		requestErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcprtd",
			Name:      "request_errors_total",
			Help:      "Count of JSON-RPC requests that returned an error, by method.",
		}, []string{"method"}),
		toolCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mcprtd",
			Name:      "tool_call_duration_seconds",
			Help:      "Duration of tool invocations, by tool name.",
		}, []string{"tool"}),
		toolTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcprtd",
			Name:      "tool_call_timeouts_total",
			Help:      "Count of tool invocations that exceeded their timeout, by tool name.",
		}, []string{"tool"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mcprtd",
			Name:      "sessions_open",
			Help:      "Number of currently connected sessions.",
		}),
	}
	reg.MustRegister(m.requests, m.requestErrs, m.toolCalls, m.toolTimeouts, m.sessions)
	return m
}

func (m *PrometheusMetrics) RequestHandled(method string, d time.Duration, err error) {
	m.requests.WithLabelValues(method).Observe(d.Seconds())
	if err != nil {
		m.requestErrs.WithLabelValues(method).Inc()
	}
}

func (m *PrometheusMetrics) ToolInvoked(name string, d time.Duration, timedOut bool, err error) {
	m.toolCalls.WithLabelValues(name).Observe(d.Seconds())
	if timedOut {
		m.toolTimeouts.WithLabelValues(name).Inc()
	}
}

func (m *PrometheusMetrics) SessionOpened() { m.sessions.Inc() }
func (m *PrometheusMetrics) SessionClosed() { m.sessions.Dec() }
