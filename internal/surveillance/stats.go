package surveillance

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics holds the engine's atomic counters and derived throughput
// figures, following the AtomicCounters pattern used by the concurrency
// engine elsewhere in this codebase: plain atomic fields plus a
// compare-and-swap retry loop for the peak processing time, preserved
// verbatim at the design level from the original engine's
// peak_processing_time_ns_.compare_exchange_weak loop.
type Statistics struct {
	tradesProcessed   int64
	alertsGenerated   int64
	processingTimeNs  int64
	peakProcessingNs  int64

	validationErrors   int64
	resourceExhausted  int64
	backpressureEvents int64
	detectorFailures   int64
	sinkFailures       int64
	lifecycleErrors    int64
	configErrors       int64
	poolExhausted      int64

	startTime time.Time

	mu                   sync.Mutex
	patternAlertsCount   map[string]int64
	patternProcessingNs  map[string]int64
}

// NewStatistics builds a zeroed statistics block with its start time set to
// now, used as the throughput baseline.
func NewStatistics(now time.Time) *Statistics {
	return &Statistics{
		startTime:           now,
		patternAlertsCount:  make(map[string]int64),
		patternProcessingNs: make(map[string]int64),
	}
}

// RecordTrade folds one trade's processing duration into the counters,
// including the CAS retry loop for the running peak.
func (s *Statistics) RecordTrade(d time.Duration) {
	atomic.AddInt64(&s.tradesProcessed, 1)
	ns := d.Nanoseconds()
	atomic.AddInt64(&s.processingTimeNs, ns)

	for {
		current := atomic.LoadInt64(&s.peakProcessingNs)
		if ns <= current {
			break
		}
		if atomic.CompareAndSwapInt64(&s.peakProcessingNs, current, ns) {
			break
		}
	}
}

// RecordAlert folds one generated alert into the engine-wide and
// per-pattern counters.
func (s *Statistics) RecordAlert(patternName string, processingNs int64) {
	atomic.AddInt64(&s.alertsGenerated, 1)
	s.mu.Lock()
	s.patternAlertsCount[patternName]++
	s.patternProcessingNs[patternName] += processingNs
	s.mu.Unlock()
}

func (s *Statistics) incValidation()   { atomic.AddInt64(&s.validationErrors, 1) }
func (s *Statistics) incResourceExhausted() { atomic.AddInt64(&s.resourceExhausted, 1) }
func (s *Statistics) incBackpressure() { atomic.AddInt64(&s.backpressureEvents, 1) }
func (s *Statistics) incDetectorFailure() { atomic.AddInt64(&s.detectorFailures, 1) }
func (s *Statistics) incSinkFailure()  { atomic.AddInt64(&s.sinkFailures, 1) }
func (s *Statistics) incLifecycle()    { atomic.AddInt64(&s.lifecycleErrors, 1) }
func (s *Statistics) incConfig()       { atomic.AddInt64(&s.configErrors, 1) }
func (s *Statistics) incPoolExhausted() { atomic.AddInt64(&s.poolExhausted, 1) }

// Snapshot is an immutable view of the engine's processing statistics at a
// point in time, matching the original engine's ProcessingStats shape
// (including its per-pattern maps, carried forward per SPEC_FULL.md §12).
type Snapshot struct {
	TotalTradesProcessed    int64
	TotalAlertsGenerated    int64
	QueueSize               int64
	AvgProcessingTimeNs     int64
	PeakProcessingTimeNs    int64
	ThroughputTradesPerSec  float64
	LastUpdated             time.Time

	ValidationErrors   int64
	ResourceExhausted  int64
	BackpressureEvents int64
	DetectorFailures   int64
	SinkFailures       int64
	LifecycleErrors    int64
	ConfigErrors       int64
	PoolExhausted      int64

	PatternAlertsCount  map[string]int64
	PatternProcessingNs map[string]int64
}

// Snapshot captures a consistent-enough view of the counters for reporting
// purposes; individual fields may be a few nanoseconds stale relative to
// each other under concurrent updates, which is acceptable for statistics.
func (s *Statistics) Snapshot(queueSize int64, now time.Time) Snapshot {
	processed := atomic.LoadInt64(&s.tradesProcessed)
	totalNs := atomic.LoadInt64(&s.processingTimeNs)

	var avg int64
	if processed > 0 {
		avg = totalNs / processed
	}

	elapsed := now.Sub(s.startTime).Seconds()
	var throughput float64
	if elapsed > 0 {
		throughput = float64(processed) / elapsed
	}

	s.mu.Lock()
	alertsByPattern := make(map[string]int64, len(s.patternAlertsCount))
	for k, v := range s.patternAlertsCount {
		alertsByPattern[k] = v
	}
	procByPattern := make(map[string]int64, len(s.patternProcessingNs))
	for k, v := range s.patternProcessingNs {
		procByPattern[k] = v
	}
	s.mu.Unlock()

	return Snapshot{
		TotalTradesProcessed:   processed,
		TotalAlertsGenerated:   atomic.LoadInt64(&s.alertsGenerated),
		QueueSize:              queueSize,
		AvgProcessingTimeNs:    avg,
		PeakProcessingTimeNs:   atomic.LoadInt64(&s.peakProcessingNs),
		ThroughputTradesPerSec: throughput,
		LastUpdated:            now,
		ValidationErrors:       atomic.LoadInt64(&s.validationErrors),
		ResourceExhausted:      atomic.LoadInt64(&s.resourceExhausted),
		BackpressureEvents:     atomic.LoadInt64(&s.backpressureEvents),
		DetectorFailures:       atomic.LoadInt64(&s.detectorFailures),
		SinkFailures:           atomic.LoadInt64(&s.sinkFailures),
		LifecycleErrors:        atomic.LoadInt64(&s.lifecycleErrors),
		ConfigErrors:           atomic.LoadInt64(&s.configErrors),
		PoolExhausted:          atomic.LoadInt64(&s.poolExhausted),
		PatternAlertsCount:     alertsByPattern,
		PatternProcessingNs:    procByPattern,
	}
}
