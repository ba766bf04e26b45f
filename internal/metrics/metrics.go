package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ledger reads
	LedgerCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropmarket",
		Subsystem: "ledger",
		Name:      "calls_total",
		Help:      "Total ledger contract calls by method and status",
	}, []string{"method", "status"})

	LedgerCallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dropmarket",
		Subsystem: "ledger",
		Name:      "call_duration_seconds",
		Help:      "Ledger contract call duration",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method"})

	LedgerRateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dropmarket",
		Subsystem: "ledger",
		Name:      "rate_limit_waits_total",
		Help:      "Total ledger calls delayed by the client-side rate limiter",
	})

	// Cache
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropmarket",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "State cache lookups by kind and result",
	}, []string{"kind", "result"})

	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropmarket",
		Subsystem: "cache",
		Name:      "invalidations_total",
		Help:      "Keys invalidated after successful submissions",
	}, []string{"kind"})

	// Submissions
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropmarket",
		Subsystem: "submission",
		Name:      "total",
		Help:      "Submissions by kind and outcome category",
	}, []string{"kind", "category"})

	SubmissionsRejectedLocally = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropmarket",
		Subsystem: "submission",
		Name:      "rejected_locally_total",
		Help:      "Submissions refused before relay by admission checks",
	}, []string{"kind", "reason"})

	// Poller
	PollCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dropmarket",
		Subsystem: "poller",
		Name:      "cycles_total",
		Help:      "Total poll cycles",
	})

	PollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropmarket",
		Subsystem: "poller",
		Name:      "errors_total",
		Help:      "Poll refresh errors by target kind",
	}, []string{"kind"})

	PollCycleLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dropmarket",
		Subsystem: "poller",
		Name:      "cycle_duration_seconds",
		Help:      "Poll cycle duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// HTTP
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropmarket",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern and status code",
	}, []string{"route", "code"})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dropmarket",
		Subsystem: "ws",
		Name:      "clients",
		Help:      "Connected websocket clients",
	})
)
