package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and enrichment Prometheus metrics.
var (
	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnimind",
			Name:      "ingest_total",
			Help:      "Total number of ingestion attempts",
		},
		[]string{"outcome"}, // "ok" / "tagging_failed" / "store_error"
	)

	IngestWithoutVectorTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "omnimind",
			Name:      "ingest_without_vector_total",
			Help:      "Ingestions that succeeded without a stored embedding",
		},
	)

	TaggingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnimind",
			Name:      "tagging_requests_total",
			Help:      "Total number of tagging service requests",
		},
		[]string{"model", "status"},
	)

	TaggingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "omnimind",
			Name:      "tagging_request_duration_seconds",
			Help:      "Tagging request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnimind",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "omnimind",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	SearchCandidatesScanned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "omnimind",
			Name:      "search_candidates_scanned",
			Help:      "Stored vectors visited per search scan",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		},
	)

	DocCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnimind",
			Name:      "doc_cache_total",
			Help:      "Ingest-result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestTotal)
	prometheus.MustRegister(IngestWithoutVectorTotal)
	prometheus.MustRegister(TaggingRequestsTotal)
	prometheus.MustRegister(TaggingRequestDuration)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(SearchCandidatesScanned)
	prometheus.MustRegister(DocCacheTotal)
	pipelineMetricsRegistered = true
}
