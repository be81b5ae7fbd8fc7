package telemetry

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and histograms for the gateway's hot paths. Registered on the
// default registry; the server exposes them through promhttp.

var (
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maf",
		Name:      "tool_calls_total",
		Help:      "Tool invocations by the agent, labelled by tool and outcome.",
	}, []string{"tool", "outcome"})

	ERPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maf",
		Name:      "erp_requests_total",
		Help:      "HTTP calls against the ERP backend, labelled by resource, method and outcome.",
	}, []string{"resource", "method", "outcome"})

	AgentRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maf",
		Name:      "agent_runs_total",
		Help:      "Completed agent turns, labelled by agent and outcome.",
	}, []string{"agent", "outcome"})

	TurnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "maf",
		Name:      "turn_duration_seconds",
		Help:      "Wall time of one conversational turn end to end.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"agent"})
)

// Logger builds a prefixed logger, e.g. Logger("AGENT") writes "[AGENT] ...".
func Logger(tag string) *log.Logger {
	return log.New(log.Writer(), "["+tag+"] ", log.LstdFlags)
}
