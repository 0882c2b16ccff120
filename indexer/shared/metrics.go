package shared

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Last block known to the chain
	lastChainBlock prometheus.Gauge

	// Last block processed by the indexer
	lastProcessedBlock prometheus.Gauge

	// Processing time in milliseconds
	processingTime prometheus.Gauge
}

var (
	metricsMu          sync.Mutex
	metricsByNamespace = make(map[string]*Metrics)
)

// NewMetrics returns the gauge set for namespace, creating it on first use.
// The gauges register with the process-wide default registry, which rejects
// duplicates, so repeated calls share one set.
func NewMetrics(namespace string) *Metrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if m, ok := metricsByNamespace[namespace]; ok {
		return m
	}
	m := &Metrics{
		lastChainBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_chain_block",
			Help:      "Last block known to the chain",
		}),
		lastProcessedBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_processed_block",
			Help:      "Last block processed by the indexer",
		}),
		processingTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_processing_time",
			Help:      "Time of processing of the last batch in milliseconds",
		}),
	}
	metricsByNamespace[namespace] = m
	return m
}

func (m *Metrics) Update(lastChainBlock, lastProcessedBlock uint64, processingTime int64) {
	m.lastChainBlock.Set(float64(lastChainBlock))
	m.lastProcessedBlock.Set(float64(lastProcessedBlock))
	m.processingTime.Set(float64(processingTime))
}
