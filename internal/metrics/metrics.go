// Package metrics exposes the engine's statistics as Prometheus gauges,
// following the package-level-vars-plus-InitMetrics pattern used
// elsewhere in this codebase's market-facing services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

var (
	TradesProcessed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dharmaguard_trades_processed_total",
		Help: "Total trades processed by the detection engine.",
	})

	AlertsGenerated = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dharmaguard_alerts_generated_total",
		Help: "Total alerts generated, by pattern.",
	}, []string{"pattern"})

	PeakProcessingSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dharmaguard_peak_processing_seconds",
		Help: "Peak observed per-trade processing latency across all detectors.",
	})

	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dharmaguard_ingress_queue_depth",
		Help: "Approximate number of trades queued for processing.",
	})

	PoolExhausted = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dharmaguard_pool_exhausted_total",
		Help: "Number of trades dropped due to memory pool exhaustion.",
	})
)

// InitMetrics registers every collector with the default registry.
func InitMetrics() {
	prometheus.MustRegister(TradesProcessed, AlertsGenerated, PeakProcessingSeconds, QueueDepth, PoolExhausted)
}

// Observe folds one statistics snapshot into the registered gauges. These
// mirror the engine's own Statistics component rather than being
// independently incremented, so calling this repeatedly off a polling
// ticker just republishes the latest cumulative totals.
func Observe(snapshot surveillance.Snapshot) {
	TradesProcessed.Set(float64(snapshot.TotalTradesProcessed))
	QueueDepth.Set(float64(snapshot.QueueSize))
	PoolExhausted.Set(float64(snapshot.PoolExhausted))
	PeakProcessingSeconds.Set(float64(snapshot.PeakProcessingTimeNs) / 1e9)
	for pattern, count := range snapshot.PatternAlertsCount {
		AlertsGenerated.WithLabelValues(pattern).Set(float64(count))
	}
}
