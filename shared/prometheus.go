package shared

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carcheck_cache_hits_total",
		Help: "Cache hits by key namespace.",
	}, []string{"namespace"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carcheck_cache_misses_total",
		Help: "Cache misses by key namespace.",
	}, []string{"namespace"})

	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carcheck_provider_requests_total",
		Help: "Vehicle data provider calls by outcome (found, not_found, error).",
	}, []string{"provider", "outcome"})

	ResolutionSourceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carcheck_resolution_source_total",
		Help: "Which tier answered a search or analysis (cache, store, provider).",
	}, []string{"operation", "source"})

	AnalysisScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "carcheck_analysis_score",
		Help:    "Distribution of freshly computed vehicle scores.",
		Buckets: []float64{10, 20, 30, 40, 55, 70, 85, 100},
	})
)
