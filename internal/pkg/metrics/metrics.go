package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every association collector and is served on /metrics.
var Registry = prometheus.NewRegistry()

// Dispatch results recorded per handler.
const (
	ResultOK        = "ok"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
	ResultSwallowed = "swallowed"
)

var (
	// TransitionsTotal counts lifecycle operations by outcome.
	// result: committed, rejected, not_found, error
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "association_transitions_total",
			Help: "Total number of association lifecycle operations, by operation and result.",
		},
		[]string{"operation", "result"},
	)

	// DispatchTotal counts handler invocations by result.
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "association_dispatch_total",
			Help: "Total number of notification handler invocations, by handler and result.",
		},
		[]string{"handler", "result"},
	)

	// HandlerDuration records how long each handler blocked the dispatch.
	HandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "association_handler_duration_seconds",
			Help:    "Latency of notification handlers.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	// SubResourceFailuresTotal counts derived-resource cleanups that failed after a committed transition.
	SubResourceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "association_subresource_failures_total",
			Help: "Total number of failed derived-resource cleanups, by resource.",
		},
		[]string{"resource"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		TransitionsTotal,
		DispatchTotal,
		HandlerDuration,
		SubResourceFailuresTotal,
	)
}
