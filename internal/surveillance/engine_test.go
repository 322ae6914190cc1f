package surveillance

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrade(id, instrument, account string, when time.Time) Trade {
	return Trade{
		TradeID:          id,
		InstrumentSymbol: instrument,
		AccountID:        account,
		Type:             TradeTypeBuy,
		Segment:          SegmentEquity,
		Quantity:         100,
		Price:            decimal.NewFromInt(50),
		Value:            decimal.NewFromInt(5000),
		Timestamp:        when,
	}
}

func newRunningEngine(t *testing.T) *Engine {
	t.Helper()
	eng := NewEngine(EngineConfig{NumWorkers: 2, QueueSize: 64, PoolSize: 64, AlertQueueSize: 64})
	require.NoError(t, eng.Initialize())
	require.NoError(t, eng.Start())
	t.Cleanup(func() { _ = eng.Stop() })
	return eng
}

// S1: submitting a trade before the engine reaches RUNNING is rejected
// with a lifecycle error and does not consume a pool slot.
func TestSubmit_BeforeRunning_RejectedAsLifecycleError(t *testing.T) {
	eng := NewEngine(EngineConfig{NumWorkers: 1, QueueSize: 8, PoolSize: 8})
	require.NoError(t, eng.Initialize())

	err := eng.Submit(newTestTrade("t1", "ACME", "acct-1", time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLifecycle))
}

// S2: a structurally invalid trade is rejected without ever touching the
// memory pool or the ingress queue.
func TestSubmit_InvalidTrade_RejectedAsValidationError(t *testing.T) {
	eng := newRunningEngine(t)

	invalid := newTestTrade("t2", "ACME", "acct-1", time.Now())
	invalid.Quantity = 0

	err := eng.Submit(invalid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, int64(0), eng.pool.InUse())
}

// A trade timestamped in the future is rejected, matching the original
// engine's extra validate_trade_data check beyond plain structural
// validity.
func TestSubmit_FutureTimestamp_RejectedAsValidationError(t *testing.T) {
	eng := newRunningEngine(t)

	future := newTestTrade("t3", "ACME", "acct-1", time.Now().Add(time.Hour))
	err := eng.Submit(future)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

// S3: once the memory pool is exhausted, further submissions are rejected
// as resource-exhausted and the PoolExhausted counter increments.
func TestSubmit_PoolExhaustion_CountedAndRejected(t *testing.T) {
	eng := NewEngine(EngineConfig{NumWorkers: 0, QueueSize: 4, PoolSize: 1})
	require.NoError(t, eng.Initialize())
	// Skip Start so the worker pool never drains the queue, guaranteeing
	// the single pool slot stays allocated for the assertion below.
	eng.mu.Lock()
	eng.state = StateRunning
	eng.mu.Unlock()

	require.NoError(t, eng.Submit(newTestTrade("t4", "ACME", "acct-1", time.Now())))

	err := eng.Submit(newTestTrade("t5", "ACME", "acct-1", time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResourceExhausted))

	snap := eng.stats.Snapshot(0, time.Now())
	assert.Equal(t, int64(1), snap.PoolExhausted)
}

// End-to-end: a running engine with a registered detector produces an
// alert that reaches a custom sink.
func TestEngine_EndToEnd_DetectorAlertReachesSink(t *testing.T) {
	eng := newRunningEngine(t)

	received := make(chan Alert, 1)
	eng.SetAlertSink(sinkFunc(func(a Alert) error {
		received <- a
		return nil
	}))
	eng.RegisterDetector("always_alerts", &alwaysAlertDetector{})

	require.NoError(t, eng.Submit(newTestTrade("t6", "ACME", "acct-1", time.Now())))

	select {
	case alert := <-received:
		assert.Equal(t, "always_alerts", alert.PatternName)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
	}
}

// Stop is idempotent-safe against double invocation: a second Stop call on
// an already-stopped engine returns a lifecycle error rather than panicking.
func TestEngine_DoubleStop_ReturnsLifecycleError(t *testing.T) {
	eng := NewEngine(EngineConfig{NumWorkers: 1, QueueSize: 8, PoolSize: 8})
	require.NoError(t, eng.Initialize())
	require.NoError(t, eng.Start())
	require.NoError(t, eng.Stop())

	err := eng.Stop()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLifecycle))
}

type sinkFunc func(Alert) error

func (f sinkFunc) Send(a Alert) error { return f(a) }

type alwaysAlertDetector struct {
	enabled bool
}

func (d *alwaysAlertDetector) Name() string { return "always_alerts" }
func (d *alwaysAlertDetector) Detect(trade *Trade, ctx *HistoricalContext) *Alert {
	return &Alert{PatternName: "always_alerts", Trade: *trade, Severity: SeverityLow, Confidence: decimal.NewFromInt(100)}
}
func (d *alwaysAlertDetector) UpdateConfig(cfg PatternConfig) {}
func (d *alwaysAlertDetector) IsEnabled() bool                { return true }
func (d *alwaysAlertDetector) SetEnabled(enabled bool)        { d.enabled = enabled }
