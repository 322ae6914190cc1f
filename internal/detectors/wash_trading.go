package detectors

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

// WashTradingDetector flags an account trading with itself to manufacture
// volume: repeated opposite-side trades in the same instrument, at close
// prices, within a short window, contributing little net price movement.
// Indicator weighting mirrors this codebase's wash-trading confidence
// scoring: self-trading ratio dominates, with volume inflation, timing
// clustering and price-level reuse contributing smaller weights.
// washTradingParams is the parsed, typed form of WashTradingDetector's
// tunables.
type washTradingParams struct {
	minVolume decimal.Decimal
	window    time.Duration
}

type WashTradingDetector struct {
	enableState
	configState
	params paramState[washTradingParams]
}

// NewWashTradingDetector builds the detector with the original engine's
// defaults: a minimum account volume of 1000 units inside a 5-minute
// window before a pattern is even considered.
func NewWashTradingDetector() *WashTradingDetector {
	d := &WashTradingDetector{enableState: newEnableState()}
	d.params.store(&washTradingParams{
		minVolume: decimal.NewFromInt(1000),
		window:    5 * time.Minute,
	})
	return d
}

func (d *WashTradingDetector) Name() string { return "wash_trading" }

func (d *WashTradingDetector) UpdateConfig(cfg surveillance.PatternConfig) {
	d.configState.UpdateConfig(cfg)
	cur := d.params.load()
	d.params.store(&washTradingParams{
		minVolume: cfg.Decimal("min_volume", cur.minVolume),
		window:    cfg.Duration("time_window_seconds", cur.window),
	})
}

func (d *WashTradingDetector) Detect(trade *surveillance.Trade, ctx *surveillance.HistoricalContext) *surveillance.Alert {
	p := d.params.load()
	if ctx.AccountTotalVolume.LessThan(p.minVolume) {
		return nil
	}
	if len(ctx.AccountRecentTrades) < 5 {
		return nil
	}

	selfTradingRatio := d.estimateSelfTradingRatio(trade, ctx)
	if selfTradingRatio.IsZero() {
		return nil
	}
	volumeInflation := d.calculateVolumeInflationRatio(ctx)
	timeClustering := d.calculateTimeClustering(ctx)
	priceLevelReuse := d.calculatePriceLevelReuse(ctx)

	weights := map[string]decimal.Decimal{
		"self_trading":     decimal.NewFromInt(45),
		"volume_inflation": decimal.NewFromInt(25),
		"time_clustering":  decimal.NewFromInt(15),
		"price_reuse":       decimal.NewFromInt(15),
	}

	// selfTradingRatio is a 0-1 fraction; the other three are 0-100 scores.
	confidence := selfTradingRatio.Mul(decimal.NewFromInt(100)).Mul(weights["self_trading"]).
		Add(volumeInflation.Mul(weights["volume_inflation"])).
		Add(timeClustering.Mul(weights["time_clustering"])).
		Add(priceLevelReuse.Mul(weights["price_reuse"])).
		Div(decimal.NewFromInt(100))
	confidence = capConfidence(confidence)

	threshold := decimal.NewFromInt(40)
	if confidence.LessThan(threshold) {
		return nil
	}

	evidence := []surveillance.Evidence{
		{Description: "self-trading ratio", Value: selfTradingRatio},
		{Description: "volume inflation ratio", Value: volumeInflation},
		{Description: "time clustering score", Value: timeClustering},
		{Description: "price level reuse score", Value: priceLevelReuse},
	}

	return &surveillance.Alert{
		PatternName: d.Name(),
		Trade:       *trade,
		Severity:    severityFromConfidence(confidence, 90, 75, 60),
		Confidence:  confidence,
		Message:     fmt.Sprintf("account %s shows wash-trading indicators on %s", trade.AccountID, trade.InstrumentSymbol),
		Evidence:    evidence,
	}
}

func (d *WashTradingDetector) estimateSelfTradingRatio(trade *surveillance.Trade, ctx *surveillance.HistoricalContext) decimal.Decimal {
	matched := 0
	total := 0
	for i := range ctx.AccountRecentTrades {
		other := &ctx.AccountRecentTrades[i]
		if other.TradeID == trade.TradeID {
			continue
		}
		total++
		if d.areSuspiciouslyMatched(trade, other) {
			matched++
		}
	}
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(matched)).Div(decimal.NewFromInt(int64(total)))
}

func (d *WashTradingDetector) areSuspiciouslyMatched(a, b *surveillance.Trade) bool {
	if sameSide(a.Type, b.Type) {
		return false
	}
	if !withinWindow(a.Timestamp, b.Timestamp, 30*time.Second) {
		return false
	}
	priceDiff := a.Price.Sub(b.Price).Abs()
	tolerance := a.Price.Mul(decimal.NewFromFloat(0.001))
	if priceDiff.GreaterThan(tolerance) {
		return false
	}
	qtyA := decimal.NewFromInt(int64(a.Quantity))
	qtyB := decimal.NewFromInt(int64(b.Quantity))
	qtyDiff := qtyA.Sub(qtyB).Abs()
	qtyTolerance := qtyA.Mul(decimal.NewFromFloat(0.05))
	return qtyDiff.LessThanOrEqual(qtyTolerance)
}

func (d *WashTradingDetector) calculateVolumeInflationRatio(ctx *surveillance.HistoricalContext) decimal.Decimal {
	if ctx.AvgVolume.IsZero() || len(ctx.RecentTrades) == 0 {
		return decimal.Zero
	}
	ratio := ctx.AccountTotalVolume.Div(ctx.AvgVolume.Mul(decimal.NewFromInt(int64(len(ctx.RecentTrades)))))
	return capConfidence(ratio.Mul(decimal.NewFromInt(100)))
}

func (d *WashTradingDetector) calculateTimeClustering(ctx *surveillance.HistoricalContext) decimal.Decimal {
	n := len(ctx.AccountRecentTrades)
	if n < 3 {
		return decimal.Zero
	}
	var gaps []float64
	for i := 1; i < n; i++ {
		gap := ctx.AccountRecentTrades[i].Timestamp.Sub(ctx.AccountRecentTrades[i-1].Timestamp).Seconds()
		if gap < 0 {
			gap = -gap
		}
		gaps = append(gaps, gap)
	}
	mean := 0.0
	for _, g := range gaps {
		mean += g
	}
	mean /= float64(len(gaps))
	if mean == 0 {
		return decimal.NewFromInt(100)
	}
	var variance float64
	for _, g := range gaps {
		variance += (g - mean) * (g - mean)
	}
	variance /= float64(len(gaps))
	stddev := math.Sqrt(variance)
	cv := stddev / mean
	score := 1.0 - cv
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return decimal.NewFromFloat(score).Mul(decimal.NewFromInt(100))
}

func (d *WashTradingDetector) calculatePriceLevelReuse(ctx *surveillance.HistoricalContext) decimal.Decimal {
	counts := make(map[string]int)
	for _, t := range ctx.AccountRecentTrades {
		counts[t.Price.String()]++
	}
	reused := 0
	for _, c := range counts {
		if c >= 3 {
			reused++
		}
	}
	if len(counts) == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(reused)).Div(decimal.NewFromInt(int64(len(counts)))).Mul(decimal.NewFromInt(100))
}
