package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Define a custom registry
	Registry *prometheus.Registry

	ItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mongo_batch_items_total",
		Help: "The total number of items successfully written",
	}, []string{"collection", "kind"})

	ErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mongo_batch_errors_total",
		Help: "The total number of items that exhausted their retries",
	}, []string{"collection", "kind"})

	ChunksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mongo_batch_chunks_total",
		Help: "The total number of chunks attempted",
	}, []string{"collection", "kind"})

	ActiveOperations = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mongo_batch_active_operations",
		Help: "The number of batch calls currently in flight",
	})
)

func init() {
	Registry = prometheus.NewRegistry()
	Registry.MustRegister(ItemsTotal)
	Registry.MustRegister(ErrorsTotal)
	Registry.MustRegister(ChunksTotal)
	Registry.MustRegister(ActiveOperations)
}
