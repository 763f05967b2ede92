package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querypilot_query_requests_total",
			Help: "Total number of query requests by outcome.",
		},
		[]string{"outcome"},
	)
	queryDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querypilot_query_duration_ms",
			Help:    "End-to-end query processing latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)
	generationDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querypilot_generation_duration_ms",
			Help:    "SQL generation latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
	)
	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querypilot_cache_lookups_total",
			Help: "Total number of query result cache lookups by result.",
		},
		[]string{"result"},
	)
	poolAcquiresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querypilot_pool_acquires_total",
			Help: "Total number of connection pool acquires by kind.",
		},
		[]string{"kind"},
	)
	retryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querypilot_retry_attempts_total",
			Help: "Total number of completion retry attempts by error category.",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(
		queryRequestsTotal,
		queryDurationMs,
		generationDurationMs,
		cacheLookupsTotal,
		poolAcquiresTotal,
		retryAttemptsTotal,
	)
}

func ObserveQuery(outcome string, elapsed time.Duration) {
	queryRequestsTotal.WithLabelValues(outcome).Inc()
	queryDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveGeneration(elapsed time.Duration) {
	generationDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveCacheLookup(hit bool) {
	if hit {
		cacheLookupsTotal.WithLabelValues("hit").Inc()
	} else {
		cacheLookupsTotal.WithLabelValues("miss").Inc()
	}
}

// ObservePoolAcquire records whether an acquire created a pool or reused one
func ObservePoolAcquire(created bool) {
	if created {
		poolAcquiresTotal.WithLabelValues("create").Inc()
	} else {
		poolAcquiresTotal.WithLabelValues("reuse").Inc()
	}
}

func IncrementRetryAttempt(category string) {
	retryAttemptsTotal.WithLabelValues(category).Inc()
}
