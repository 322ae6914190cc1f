package surveillance

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertSeverity mirrors the severity buckets used throughout the built-in
// detectors (wash trading, pump-and-dump, spoofing-derived layering).
type AlertSeverity int

const (
	SeverityLow AlertSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s AlertSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	default:
		return "low"
	}
}

// Evidence is one piece of supporting data cited by a detector's alert.
type Evidence struct {
	Description string
	Value       decimal.Decimal
}

// Alert is emitted by a detector when a pattern is found. AlertID is
// assigned once, when the worker pool queues the alert for dispatch, so
// every sink (log, websocket, Postgres) sees the same identifier for a
// given detection.
type Alert struct {
	AlertID     string
	PatternName string
	Trade       Trade
	Severity    AlertSeverity
	Confidence  decimal.Decimal
	Message     string
	Evidence    []Evidence
	GeneratedAt time.Time
}

// PatternConfig carries detector-specific tunables loaded from the
// "patterns.<name>" section of the JSON config file.
type PatternConfig map[string]interface{}

// Decimal extracts a decimal-valued tunable, falling back to def when
// absent or of the wrong type.
func (c PatternConfig) Decimal(key string, def decimal.Decimal) decimal.Decimal {
	v, ok := c[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return def
		}
		return d
	default:
		return def
	}
}

// Duration extracts a duration-valued tunable expressed in seconds.
func (c PatternConfig) Duration(key string, def time.Duration) time.Duration {
	v, ok := c[key]
	if !ok {
		return def
	}
	if secs, ok := v.(float64); ok {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}

// Detector is the capability interface every built-in and custom pattern
// detector implements. An implementation must be safe for concurrent
// invocation across different trades, since every worker in the pool runs
// the same registered detectors on the trades it pops; within one trade, a
// worker calls the enabled detectors one after another.
type Detector interface {
	Name() string
	Detect(trade *Trade, ctx *HistoricalContext) *Alert
	UpdateConfig(cfg PatternConfig)
	IsEnabled() bool
	SetEnabled(enabled bool)
}
