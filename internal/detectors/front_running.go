package detectors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

// frontRunningParams is the parsed, typed form of FrontRunningDetector's
// tunables.
type frontRunningParams struct {
	window    time.Duration
	sizeRatio decimal.Decimal
}

// FrontRunningDetector flags a large client trade that was immediately
// preceded by a smaller, same-side trade from the firm's own book in the
// same instrument — the signature of a house account trading ahead of a
// client order it had advance knowledge of.
type FrontRunningDetector struct {
	enableState
	configState
	params paramState[frontRunningParams]
}

// NewFrontRunningDetector looks for a preceding own-account trade within
// ten seconds that is at most a fifth the size of the client trade that
// follows it.
func NewFrontRunningDetector() *FrontRunningDetector {
	d := &FrontRunningDetector{enableState: newEnableState()}
	d.params.store(&frontRunningParams{
		window:    10 * time.Second,
		sizeRatio: decimal.NewFromFloat(0.2),
	})
	return d
}

func (d *FrontRunningDetector) Name() string { return "front_running" }

func (d *FrontRunningDetector) UpdateConfig(cfg surveillance.PatternConfig) {
	d.configState.UpdateConfig(cfg)
	cur := d.params.load()
	d.params.store(&frontRunningParams{
		window:    cfg.Duration("window_seconds", cur.window),
		sizeRatio: cfg.Decimal("size_ratio", cur.sizeRatio),
	})
}

func (d *FrontRunningDetector) Detect(trade *surveillance.Trade, ctx *surveillance.HistoricalContext) *surveillance.Alert {
	if trade.IsOwnAccount {
		return nil
	}
	if len(ctx.RecentTrades) < 2 {
		return nil
	}
	p := d.params.load()

	var precursor *surveillance.Trade
	for i := len(ctx.RecentTrades) - 1; i >= 0; i-- {
		candidate := &ctx.RecentTrades[i]
		if candidate.TradeID == trade.TradeID {
			continue
		}
		if !withinWindow(trade.Timestamp, candidate.Timestamp, p.window) {
			break
		}
		if candidate.Timestamp.After(trade.Timestamp) {
			continue
		}
		if candidate.IsOwnAccount && sameSide(candidate.Type, trade.Type) {
			precursor = candidate
			break
		}
	}
	if precursor == nil {
		return nil
	}

	ratio := decimal.NewFromInt(int64(precursor.Quantity)).Div(decimal.NewFromInt(int64(trade.Quantity)))
	if ratio.GreaterThan(p.sizeRatio) {
		return nil
	}

	gap := trade.Timestamp.Sub(precursor.Timestamp)
	if gap < 0 {
		gap = -gap
	}
	timingScore := capConfidence(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(gap.Seconds() / p.window.Seconds())).Mul(decimal.NewFromInt(100)))
	sizeScore := capConfidence(decimal.NewFromInt(1).Sub(ratio.Div(p.sizeRatio)).Mul(decimal.NewFromInt(100)))

	confidence := capConfidence(timingScore.Mul(decimal.NewFromInt(50)).Div(decimal.NewFromInt(100)).
		Add(sizeScore.Mul(decimal.NewFromInt(50)).Div(decimal.NewFromInt(100))))

	if confidence.LessThan(decimal.NewFromInt(45)) {
		return nil
	}

	evidence := []surveillance.Evidence{
		{Description: "precursor/client size ratio", Value: ratio},
		{Description: "timing gap seconds", Value: decimal.NewFromFloat(gap.Seconds())},
	}

	return &surveillance.Alert{
		PatternName: d.Name(),
		Trade:       *trade,
		Severity:    severityFromConfidence(confidence, 85, 68, 52),
		Confidence:  confidence,
		Message:     fmt.Sprintf("house account %s traded ahead of client order in %s", precursor.AccountID, trade.InstrumentSymbol),
		Evidence:    evidence,
	}
}
