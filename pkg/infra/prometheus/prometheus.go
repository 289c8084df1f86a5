package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Latency buckets in milliseconds, oracle calls sit in the upper half
	latencyBuckets = []float64{
		5, 10, 25,
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000, 30000,
	}

	ChecksTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shield_checks_total",
			Help: "Total number of screened inputs by resulting action",
		},
		[]string{"action", "cached"},
	)

	CheckLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shield_check_latency_ms",
			Help:    "End to end screening latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"cached"},
	)

	CacheLookups = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shield_cache_lookups_total",
			Help: "Verdict cache lookups by backend and result",
		},
		[]string{"backend", "result"},
	)

	CacheFallbacks = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "shield_cache_fallbacks_total",
			Help: "Times the shared verdict store was abandoned for the local map",
		},
	)

	OracleCalls = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shield_oracle_calls_total",
			Help: "Oracle attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	OracleLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shield_oracle_latency_ms",
			Help:    "Oracle round trip latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"provider"},
	)

	DedupShared = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "shield_dedup_shared_total",
			Help: "Checks whose oracle call was shared with concurrent identical checks",
		},
	)

	LedgerErrors = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "shield_ledger_write_errors_total",
			Help: "Attack records that could not be written",
		},
	)

	HTTPRequests = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shield_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shield_http_latency_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"route"},
	)

	ExportTasksDropped = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "shield_export_tasks_dropped_total",
			Help: "Attack export tasks dropped because the queue was full",
		},
	)
)

func Initialize() {
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

// Gatherer exposes the registry for the metrics endpoint.
func Gatherer() prometheus.Gatherer {
	return registry
}
