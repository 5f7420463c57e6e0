package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/supportmesh/team"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "supportmesh"

// Collector records HTTP, model, tool and team metrics.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	modelRequestsTotal   *prometheus.CounterVec
	modelRequestDuration *prometheus.HistogramVec
	modelTokensUsed      *prometheus.CounterVec

	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec

	teamRunsTotal   *prometheus.CounterVec
	teamRunDuration prometheus.Histogram
	teamRunTurns    prometheus.Histogram
	teamTurnsTotal  *prometheus.CounterVec
}

// NewCollector creates a Collector on a fresh registry. The Go runtime and
// process collectors are registered alongside.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		registry: reg,

		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		modelRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Total number of model requests",
		}, []string{"provider", "model", "status"}),
		modelRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Model request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider", "model"}),
		modelTokensUsed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_tokens_used_total",
			Help:      "Total number of tokens used",
		}, []string{"provider", "model", "type"}),

		toolCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls",
		}, []string{"tool", "outcome"}),
		toolCallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),

		teamRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_runs_total",
			Help:      "Total number of team runs",
		}, []string{"reason"}),
		teamRunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "team_run_duration_seconds",
			Help:      "Team run duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		teamRunTurns: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "team_run_turns",
			Help:      "Number of speaker turns per team run",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		teamTurnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_turns_total",
			Help:      "Total number of turns by speaker",
		}, []string{"speaker"}),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordHTTPRequest records a served request. route is the matched route
// template, not the raw path.
func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordModelRequest records a model call.
func (c *Collector) RecordModelRequest(provider, model, status string, d time.Duration, promptTokens, completionTokens int) {
	c.modelRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.modelRequestDuration.WithLabelValues(provider, model).Observe(d.Seconds())
	if promptTokens > 0 {
		c.modelTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		c.modelTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// ObserveToolCall implements agent.ToolRecorder.
func (c *Collector) ObserveToolCall(tool, outcome string, d time.Duration) {
	c.toolCallsTotal.WithLabelValues(tool, outcome).Inc()
	c.toolCallDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveTeamTurn implements team.Recorder.
func (c *Collector) ObserveTeamTurn(speaker string) {
	c.teamTurnsTotal.WithLabelValues(speaker).Inc()
}

// ObserveTeamRun implements team.Recorder. Stop reasons carry message
// counts, so only their leading kind is used as label.
func (c *Collector) ObserveTeamRun(reason string, turns int, d time.Duration) {
	c.teamRunsTotal.WithLabelValues(reasonLabel(reason)).Inc()
	c.teamRunDuration.Observe(d.Seconds())
	c.teamRunTurns.Observe(float64(turns))
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return strconv.Itoa(code)
	}
}

func reasonLabel(reason string) string {
	switch {
	case strings.HasPrefix(reason, "Text '"):
		return "text_mention"
	case strings.HasPrefix(reason, "Maximum number of messages"):
		return "max_messages"
	case reason == team.StopMaxTurns:
		return "max_turns"
	default:
		return "other"
	}
}
