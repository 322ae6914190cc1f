package surveillance

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LifecycleState is the engine's coarse-grained state machine.
type LifecycleState int

const (
	StateCreated LifecycleState = iota
	StateInitialized
	StateRunning
	StateStopping
	StateStopped
)

func (s LifecycleState) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateInitialized:
		return "INITIALIZED"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// EngineConfig configures Engine construction. Zero values fall back to the
// same defaults the original engine used: hardware-concurrency worker
// count and a one-million-entry queue/pool.
type EngineConfig struct {
	NumWorkers      int
	QueueSize       int
	PoolSize        int
	AlertQueueSize  int
	AlertWorkers    int
	ContextWindow   time.Duration
	MaxContextItems int
	Logger          *zap.Logger
}

func (c *EngineConfig) applyDefaults() {
	if c.NumWorkers <= 0 {
		c.NumWorkers = runtime.NumCPU()
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1_000_000
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 1_000_000
	}
	if c.AlertQueueSize <= 0 {
		c.AlertQueueSize = 10_000
	}
	if c.AlertWorkers <= 0 {
		c.AlertWorkers = 3
	}
	if c.ContextWindow <= 0 {
		c.ContextWindow = 5 * time.Minute
	}
	if c.MaxContextItems <= 0 {
		c.MaxContextItems = 100_000
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Engine is the top-level detection engine: it owns every core component
// and exposes the lifecycle-guarded external surface named in
// SPEC_FULL.md §6.
type Engine struct {
	mu    sync.Mutex
	state LifecycleState

	cfg      EngineConfig
	pool     *MemoryPool
	queue    *IngressQueue
	ctxStore *ContextStore
	registry *DetectorRegistry
	alerts   *AlertQueue
	stats    *Statistics
	workers  *workerPool
	dispatch *AlertDispatcher
	logger   *zap.Logger
}

// NewEngine constructs an engine in the CREATED state. The detector
// registry is built here, not in Initialize, so RegisterDetector can be
// called any time after construction; call Initialize then Start before
// submitting trades.
func NewEngine(cfg EngineConfig) *Engine {
	cfg.applyDefaults()
	return &Engine{
		state:    StateCreated,
		cfg:      cfg,
		logger:   cfg.Logger,
		registry: NewDetectorRegistry(),
	}
}

// Initialize builds the engine's remaining internal components. Detectors
// registered via RegisterDetector before this call (the typical wiring
// order) are already in the registry and are picked up by the worker pool
// once Start runs.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateCreated {
		return fmt.Errorf("%w: initialize called in state %s", ErrLifecycle, e.state)
	}

	e.pool = NewMemoryPool(e.cfg.PoolSize)
	e.queue = NewIngressQueue(e.cfg.QueueSize)
	e.ctxStore = NewContextStore(e.cfg.ContextWindow, e.cfg.MaxContextItems)
	e.alerts = NewAlertQueue(e.cfg.AlertQueueSize)
	e.stats = NewStatistics(time.Now())
	e.workers = newWorkerPool(e.cfg.NumWorkers, e.queue, e.pool, e.ctxStore, e.registry, e.alerts, e.stats, e.logger)
	e.dispatch = NewAlertDispatcher(e.alerts, e.stats, e.logger, e.cfg.AlertWorkers)

	e.state = StateInitialized
	return nil
}

// Start transitions the engine to RUNNING, launching the worker pool and
// alert dispatcher.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateInitialized {
		return fmt.Errorf("%w: start called in state %s", ErrLifecycle, e.state)
	}
	e.workers.start()
	e.dispatch.Start()
	e.state = StateRunning
	return nil
}

// Stop transitions RUNNING -> STOPPING -> STOPPED, draining the worker pool
// and alert dispatcher before returning.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return fmt.Errorf("%w: stop called in state %s", ErrLifecycle, e.state)
	}
	e.state = StateStopping
	e.mu.Unlock()

	e.workers.stop()
	e.dispatch.Stop()

	e.mu.Lock()
	e.state = StateStopped
	e.mu.Unlock()
	return nil
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() LifecycleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Submit validates and enqueues a single trade for processing. It returns
// an error wrapping ErrLifecycle, ErrValidation, ErrResourceExhausted, or
// ErrBackpressure depending on why the trade was rejected.
func (e *Engine) Submit(trade Trade) error {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	if state != StateRunning {
		e.stats.incLifecycle()
		return fmt.Errorf("%w: submit called in state %s", ErrLifecycle, state)
	}

	if err := trade.Validate(time.Now()); err != nil {
		e.stats.incValidation()
		return err
	}

	slot, ok := e.pool.Allocate()
	if !ok {
		e.stats.incPoolExhausted()
		e.stats.incResourceExhausted()
		if e.logger != nil {
			e.logger.Warn("memory pool exhausted, dropping trade", zap.String("trade_id", trade.TradeID))
		}
		return fmt.Errorf("%w: memory pool exhausted", ErrResourceExhausted)
	}
	*slot = trade

	if !e.queue.TryPush(slot) {
		e.pool.Release(slot)
		e.stats.incBackpressure()
		return fmt.Errorf("%w: ingress queue full", ErrBackpressure)
	}
	return nil
}

// SubmitBatch submits each trade in order, returning the count that was
// successfully queued. It does not stop at the first failure.
func (e *Engine) SubmitBatch(trades []Trade) int {
	accepted := 0
	for _, t := range trades {
		if err := e.Submit(t); err == nil {
			accepted++
		}
	}
	return accepted
}

// RegisterDetector adds a detector to the registry under the given name.
func (e *Engine) RegisterDetector(name string, d Detector) {
	e.registry.Register(name, d)
}

// TogglePattern enables or disables a registered detector by name.
func (e *Engine) TogglePattern(name string, enabled bool) error {
	if err := e.registry.SetEnabled(name, enabled); err != nil {
		e.stats.incConfig()
		return err
	}
	return nil
}

// UpdatePatternConfig pushes new tunables to a registered detector.
func (e *Engine) UpdatePatternConfig(name string, cfg PatternConfig) error {
	if err := e.registry.UpdateConfig(name, cfg); err != nil {
		e.stats.incConfig()
		return err
	}
	return nil
}

// SetAlertSink replaces the sink alerts are dispatched to.
func (e *Engine) SetAlertSink(sink AlertSink) {
	e.dispatch.SetSink(sink)
}

// GetStatistics returns a point-in-time snapshot of the engine's counters.
func (e *Engine) GetStatistics() Snapshot {
	var queueSize int64
	if e.queue != nil {
		queueSize = e.queue.SizeHint()
	}
	return e.stats.Snapshot(queueSize, time.Now())
}

// ContextSnapshot exposes the current rolling context for a given
// instrument/account pair, primarily for admin inspection and tests.
func (e *Engine) ContextSnapshot(instrument, account string) (HistoricalContext, bool) {
	return e.ctxStore.Snapshot(ContextKey{Instrument: instrument, Account: account})
}

// ConfigureContextWindow overrides the lookback window for a specific
// (instrument, account) pair.
func (e *Engine) ConfigureContextWindow(instrument, account string, window time.Duration) {
	e.ctxStore.Configure(ContextKey{Instrument: instrument, Account: account}, window)
}
