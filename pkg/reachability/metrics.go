package reachability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scigraph_reachability_builds_total",
		Help: "Index builds by result",
	}, []string{"result"})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scigraph_reachability_build_duration_seconds",
		Help:    "Wall time of successful index builds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
	})

	SweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scigraph_reachability_sweeps_total",
		Help: "Hub sweeps run, by direction",
	}, []string{"direction"})

	PrunedVisitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scigraph_reachability_pruned_visits_total",
		Help: "Visits where a sweep stopped expanding, by direction",
	}, []string{"direction"})

	RecordsPersistedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scigraph_reachability_records_persisted_total",
		Help: "Node records written to the list store",
	})

	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scigraph_reachability_queries_total",
		Help: "Queries served, by operation",
	}, []string{"op"})

	RecordCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scigraph_reachability_record_cache_hits_total",
		Help: "Record reads served from the cache",
	})
)
