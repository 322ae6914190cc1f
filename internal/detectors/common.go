// Package detectors implements the five built-in pattern detectors the
// engine registers by default: pump_dump, layering, wash_trading,
// insider_trading, and front_running. Each follows the confidence-scored
// indicator style used by this codebase's wash-trading and pump-and-dump
// detectors: a handful of independent indicators are computed, combined
// into a weighted confidence score capped at 100, and mapped to a severity
// bucket by threshold.
package detectors

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

func severityFromConfidence(confidence decimal.Decimal, critical, high, medium int64) surveillance.AlertSeverity {
	c := confidence
	switch {
	case c.GreaterThan(decimal.NewFromInt(critical)):
		return surveillance.SeverityCritical
	case c.GreaterThan(decimal.NewFromInt(high)):
		return surveillance.SeverityHigh
	case c.GreaterThan(decimal.NewFromInt(medium)):
		return surveillance.SeverityMedium
	default:
		return surveillance.SeverityLow
	}
}

func capConfidence(c decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	if c.GreaterThan(hundred) {
		return hundred
	}
	if c.IsNegative() {
		return decimal.Zero
	}
	return c
}

// enableState is embedded by every built-in detector to provide the
// IsEnabled/SetEnabled half of the Detector interface without repeating the
// same mutex-guarded bool in five places.
type enableState struct {
	mu      sync.RWMutex
	enabled bool
}

func newEnableState() enableState {
	return enableState{enabled: true}
}

func (e *enableState) IsEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled
}

func (e *enableState) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// configState is embedded by every built-in detector to hold the most
// recently installed raw PatternConfig behind a read-write mutex. Detect
// does not read it; the typed tunables Detect uses live in paramState.
type configState struct {
	mu  sync.RWMutex
	cfg surveillance.PatternConfig
}

func (c *configState) UpdateConfig(cfg surveillance.PatternConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

func (c *configState) config() surveillance.PatternConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cfg == nil {
		return surveillance.PatternConfig{}
	}
	return c.cfg
}

// paramState holds a detector's parsed, typed tunables behind an atomic
// pointer. UpdateConfig installs a whole new value with a single atomic
// store, and Detect takes a single atomic load, so concurrent readers never
// see a partially-written parameter set — unlike plain unguarded struct
// fields, this holds even for multi-word values like decimal.Decimal.
type paramState[T any] struct {
	ptr atomic.Pointer[T]
}

func (p *paramState[T]) load() *T {
	return p.ptr.Load()
}

func (p *paramState[T]) store(v *T) {
	p.ptr.Store(v)
}

func sameSide(a, b surveillance.TradeType) bool {
	buySide := func(t surveillance.TradeType) bool {
		return t == surveillance.TradeTypeBuy || t == surveillance.TradeTypeCover
	}
	return buySide(a) == buySide(b)
}

func withinWindow(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}
