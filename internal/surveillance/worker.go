package surveillance

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// alertEnqueueTimeout bounds how long a worker waits for room on the alert
// queue before dropping the alert and counting it as backpressure.
const alertEnqueueTimeout = 10 * time.Millisecond

// workerPool runs a fixed number of goroutines that each loop: pop a trade
// from the ingress queue, build/refresh its historical context, fan it out
// across every enabled detector, forward any generated alerts, and return
// the trade slot to the memory pool. No component here holds a lock across
// a detector invocation: the registry snapshot and the context snapshot are
// both copied out before detectors run.
type workerPool struct {
	queue    *IngressQueue
	pool     *MemoryPool
	ctxStore *ContextStore
	registry *DetectorRegistry
	alerts   *AlertQueue
	stats    *Statistics
	logger   *zap.Logger

	numWorkers int
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

func newWorkerPool(numWorkers int, queue *IngressQueue, pool *MemoryPool, ctxStore *ContextStore, registry *DetectorRegistry, alerts *AlertQueue, stats *Statistics, logger *zap.Logger) *workerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &workerPool{
		queue:      queue,
		pool:       pool,
		ctxStore:   ctxStore,
		registry:   registry,
		alerts:     alerts,
		stats:      stats,
		logger:     logger,
		numWorkers: numWorkers,
		stopCh:     make(chan struct{}),
	}
}

func (wp *workerPool) start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go func(id int) {
			defer wp.wg.Done()
			wp.loop(id)
		}(i)
	}
}

// stop signals every worker to exit once the ingress queue is observed
// empty and blocks until they have all drained.
func (wp *workerPool) stop() {
	close(wp.stopCh)
	wp.wg.Wait()
}

// loop implements the ten-step worker algorithm: pop -> validate presence
// -> timestamp start -> update context -> snapshot enabled detectors ->
// run each with panic recovery -> forward alerts -> record per-pattern
// stats -> record trade-level stats -> release the trade back to the pool.
func (wp *workerPool) loop(_ int) {
	for {
		trade, ok := wp.queue.TryPop()
		if !ok {
			select {
			case <-wp.stopCh:
				return
			default:
				time.Sleep(time.Microsecond * 50)
				continue
			}
		}

		start := time.Now()
		ctx := wp.ctxStore.Update(trade)
		detectors := wp.registry.SnapshotEnabled()

		for _, d := range detectors {
			wp.runDetector(d, trade, &ctx)
		}

		wp.stats.RecordTrade(time.Since(start))
		wp.pool.Release(trade)
	}
}

func (wp *workerPool) runDetector(d Detector, trade *Trade, ctx *HistoricalContext) {
	defer func() {
		if r := recover(); r != nil {
			wp.stats.incDetectorFailure()
			if wp.logger != nil {
				wp.logger.Error("detector panicked", zap.String("pattern", d.Name()), zap.Any("panic", r))
			}
		}
	}()

	detectStart := time.Now()
	alert := d.Detect(trade, ctx)
	elapsed := time.Since(detectStart).Nanoseconds()

	if alert == nil {
		return
	}
	alert.AlertID = uuid.NewString()
	alert.GeneratedAt = time.Now()

	if !wp.alerts.PushWithTimeout(*alert, alertEnqueueTimeout) {
		wp.stats.incBackpressure()
		if wp.logger != nil {
			wp.logger.Warn("alert queue full, dropping alert", zap.String("pattern", d.Name()))
		}
		return
	}
	wp.stats.RecordAlert(d.Name(), elapsed)
}
