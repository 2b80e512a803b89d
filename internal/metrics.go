package internal

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors for the terminal engine and RPC layer.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Executions        *prometheus.CounterVec
	ExecutionDuration prometheus.Histogram
	OutputLines       prometheus.Histogram
	ControlChars      *prometheus.CounterVec
	RPCRequests       *prometheus.CounterVec
	RPCDuration       *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "term_mcp_executions_total",
				Help: "Commands executed in the shell session by outcome",
			},
			[]string{"outcome"},
		),
		ExecutionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "term_mcp_execution_duration_seconds",
				Help:    "Time from writing a command until it was considered complete",
				Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
			},
		),
		OutputLines: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "term_mcp_output_lines",
				Help:    "Lines appended to the terminal buffer per command",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		ControlChars: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "term_mcp_control_characters_total",
				Help: "Control characters written to the terminal",
			},
			[]string{"letter"},
		),
		RPCRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "term_mcp_rpc_requests_total",
				Help: "JSON-RPC requests by method and error code (0 on success)",
			},
			[]string{"method", "code"},
		),
		RPCDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "term_mcp_rpc_request_duration_seconds",
				Help:    "JSON-RPC request duration",
				Buckets: []float64{.001, .01, .1, .5, 1, 5, 10, 30},
			},
			[]string{"method"},
		),
	}
}

// RecordExecution records a finished Execute call.
func (m *Metrics) RecordExecution(res ExecResult, err error) {
	if m == nil {
		return
	}
	outcome := "completed"
	switch {
	case err != nil:
		outcome = "failed"
	case res.TimedOut:
		outcome = "timed_out"
	}
	m.Executions.WithLabelValues(outcome).Inc()
	if err == nil {
		m.ExecutionDuration.Observe(res.Elapsed.Seconds())
		m.OutputLines.Observe(float64(res.LinesOutput))
	}
}

// RecordControl records a control character write.
func (m *Metrics) RecordControl(letter string) {
	if m == nil {
		return
	}
	m.ControlChars.WithLabelValues(letter).Inc()
}

// ObserveRPC matches jsonrpc.Observer.
func (m *Metrics) ObserveRPC(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "<other>"
	}
	m.RPCRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
