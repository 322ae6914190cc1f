package detectors

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

// pumpDumpParams is the parsed, typed form of PumpDumpDetector's tunables.
type pumpDumpParams struct {
	priceThreshold  decimal.Decimal // fractional move considered a "spike"
	volumeThreshold decimal.Decimal // multiple of average volume considered a "spike"
}

// PumpDumpDetector flags a rapid price spike on elevated volume within the
// instrument's recent window — the signature of an artificially inflated
// price being sold into. A reversal after the peak raises the confidence
// score but is not required for an alert. Requires at least ten recent
// trades for the instrument before a spike/reversal shape can be judged,
// matching this codebase's pump-and-dump detector's minimum sample size.
type PumpDumpDetector struct {
	enableState
	configState
	params paramState[pumpDumpParams]
}

// NewPumpDumpDetector builds the detector with the original codebase's
// defaults: a 10% price threshold and a 3x volume threshold.
func NewPumpDumpDetector() *PumpDumpDetector {
	d := &PumpDumpDetector{enableState: newEnableState()}
	d.params.store(&pumpDumpParams{
		priceThreshold:  decimal.NewFromFloat(0.10),
		volumeThreshold: decimal.NewFromInt(3),
	})
	return d
}

func (d *PumpDumpDetector) Name() string { return "pump_dump" }

func (d *PumpDumpDetector) UpdateConfig(cfg surveillance.PatternConfig) {
	d.configState.UpdateConfig(cfg)
	cur := d.params.load()
	d.params.store(&pumpDumpParams{
		priceThreshold:  cfg.Decimal("price_threshold", cur.priceThreshold),
		volumeThreshold: cfg.Decimal("volume_threshold", cur.volumeThreshold),
	})
}

func (d *PumpDumpDetector) Detect(trade *surveillance.Trade, ctx *surveillance.HistoricalContext) *surveillance.Alert {
	if len(ctx.RecentTrades) < 10 {
		return nil
	}
	p := d.params.load()

	priceSpike := d.priceSpike(ctx)
	volumeSpike := d.volumeSpike(trade, ctx)
	reversal := d.priceReversal(ctx)

	if priceSpike.LessThan(p.priceThreshold) || volumeSpike.LessThan(p.volumeThreshold) {
		return nil
	}

	weights := map[string]decimal.Decimal{
		"price_spike":  decimal.NewFromInt(40),
		"volume_spike": decimal.NewFromInt(30),
		"reversal":     decimal.NewFromInt(30),
	}

	priceScore := capConfidence(priceSpike.Div(p.priceThreshold).Mul(decimal.NewFromInt(100)))
	volumeScore := capConfidence(volumeSpike.Div(p.volumeThreshold).Mul(decimal.NewFromInt(100)))
	reversalScore := capConfidence(reversal.Mul(decimal.NewFromInt(100)))

	confidence := priceScore.Mul(weights["price_spike"]).Div(decimal.NewFromInt(100)).
		Add(volumeScore.Mul(weights["volume_spike"]).Div(decimal.NewFromInt(100))).
		Add(reversalScore.Mul(weights["reversal"]).Div(decimal.NewFromInt(100)))
	confidence = capConfidence(confidence)

	if confidence.LessThan(decimal.NewFromInt(45)) {
		return nil
	}

	evidence := []surveillance.Evidence{
		{Description: "price spike fraction", Value: priceSpike},
		{Description: "volume spike multiple", Value: volumeSpike},
		{Description: "price reversal fraction", Value: reversal},
	}

	return &surveillance.Alert{
		PatternName: d.Name(),
		Trade:       *trade,
		Severity:    severityFromConfidence(confidence, 90, 75, 60),
		Confidence:  confidence,
		Message:     fmt.Sprintf("%s shows pump-and-dump indicators", trade.InstrumentSymbol),
		Evidence:    evidence,
	}
}

func (d *PumpDumpDetector) priceSpike(ctx *surveillance.HistoricalContext) decimal.Decimal {
	trades := ctx.RecentTrades
	if len(trades) < 2 {
		return decimal.Zero
	}
	first := trades[0].Price
	var peak decimal.Decimal
	for _, t := range trades {
		if t.Price.GreaterThan(peak) {
			peak = t.Price
		}
	}
	if first.IsZero() {
		return decimal.Zero
	}
	return peak.Sub(first).Div(first)
}

func (d *PumpDumpDetector) volumeSpike(trade *surveillance.Trade, ctx *surveillance.HistoricalContext) decimal.Decimal {
	if ctx.AvgVolume.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(trade.Quantity)).Div(ctx.AvgVolume)
}

func (d *PumpDumpDetector) priceReversal(ctx *surveillance.HistoricalContext) decimal.Decimal {
	trades := ctx.RecentTrades
	n := len(trades)
	if n < 4 {
		return decimal.Zero
	}
	var peak decimal.Decimal
	peakIdx := 0
	for i, t := range trades {
		if t.Price.GreaterThan(peak) {
			peak = t.Price
			peakIdx = i
		}
	}
	if peakIdx >= n-1 {
		return decimal.Zero
	}
	last := trades[n-1].Price
	if peak.IsZero() {
		return decimal.Zero
	}
	drop := peak.Sub(last).Div(peak)
	if drop.IsNegative() {
		return decimal.Zero
	}
	return drop
}
