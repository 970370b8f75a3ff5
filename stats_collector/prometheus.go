package stats_collector

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	remoteCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_calls",
			Help: "Total number of calls made to the remote sheet store",
		},
		[]string{"op", "status"},
	)
	rateLimitWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rate_limit_wait_seconds",
			Help:    "Time callers spent waiting for the remote call budget",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120},
		},
	)
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups",
			Help: "Total number of cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)
	cacheInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_invalidated_entries",
			Help: "Total number of cache entries removed by invalidation",
		},
	)
	promptOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_operations",
			Help: "Total number of prompt queue operations",
		},
		[]string{"op", "status"},
	)
	promptRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_rows",
			Help: "Total number of rows touched by prompt queue operations",
		},
		[]string{"op"},
	)
	fileRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_requests",
			Help: "Total number of file and upload requests",
		},
		[]string{"op", "status"},
	)
)

var _ StatsCollector = (*promCollector)(nil)

type promCollector struct {
}

func (col *promCollector) IncRemoteCalls(op, status string) {
	remoteCalls.WithLabelValues(op, status).Inc()
}

func (col *promCollector) ObserveRateLimitWait(seconds float64) {
	rateLimitWait.Observe(seconds)
}

func (col *promCollector) IncCacheLookups(kind, result string) {
	cacheLookups.WithLabelValues(kind, result).Inc()
}

func (col *promCollector) IncCacheInvalidations(removed float64) {
	cacheInvalidations.Add(removed)
}

func (col *promCollector) IncPromptOperations(op, status string) {
	promptOperations.WithLabelValues(op, status).Inc()
}

func (col *promCollector) AddPromptRows(op string, rows float64) {
	promptRows.WithLabelValues(op).Add(rows)
}

func (col *promCollector) IncFileRequests(op, status string) {
	fileRequests.WithLabelValues(op, status).Inc()
}

func initPrometheus() {
	prometheus.MustRegister(
		remoteCalls, rateLimitWait,
		cacheLookups, cacheInvalidations,
		promptOperations, promptRows,
		fileRequests,
	)
}

var initOnce sync.Once

func NewPrometheusCollector() StatsCollector {
	initOnce.Do(initPrometheus)
	return &promCollector{}
}
