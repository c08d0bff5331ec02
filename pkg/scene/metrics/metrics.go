package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// System metrics
	SystemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenegraph_system_memory_bytes",
		Help: "Current system memory usage",
	})

	SystemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenegraph_system_goroutines",
		Help: "Number of goroutines",
	})

	// Lifecycle metrics
	ModelsReady = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenegraph_models_ready",
		Help: "1 once every model collaborator has loaded",
	})

	ModelLoadSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenegraph_model_load_seconds",
		Help: "Time spent loading model collaborators",
	})

	// Pipeline metrics
	BatchQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenegraph_batch_queue_length",
		Help: "Number of documents waiting to be processed",
	})

	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenegraph_stage_errors_total",
			Help: "Total number of collaborator failures per pipeline stage",
		},
		[]string{"stage"},
	)

	// Relation metrics
	FallbackActivations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenegraph_fallback_activations_total",
		Help: "Requests where keyword extraction replaced the relation generator",
	})

	DroppedTriples = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenegraph_dropped_triples_total",
			Help: "Generated relation triples discarded before graph assembly",
		},
		[]string{"reason"},
	)

	// Graph metrics
	GraphObjects = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scenegraph_graph_objects",
		Help:    "Objects per produced scene graph",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})

	GraphRelations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scenegraph_graph_relations",
		Help:    "Relations per produced scene graph",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})
)

// UpdateSystemMetrics updates system-level metrics
func UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	SystemMemoryUsage.Set(float64(m.Alloc))
	SystemGoroutines.Set(float64(runtime.NumGoroutine()))
}
