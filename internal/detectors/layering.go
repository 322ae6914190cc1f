package detectors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

// layeringParams is the parsed, typed form of LayeringDetector's tunables.
type layeringParams struct {
	minOccurrences int
	window         time.Duration
}

// LayeringDetector flags an account repeatedly trading at the same handful
// of price levels in quick succession — a trade-tape proxy for order-book
// layering, adapted from this codebase's spoofing detector. The original
// spoofing detector reasons over live order cancellations; this engine
// only observes executed trades, so the adapted indicators are time
// clustering and price-level concentration of an account's own recent
// trades rather than cancellation rate.
type LayeringDetector struct {
	enableState
	configState
	params paramState[layeringParams]
}

// NewLayeringDetector builds the detector requiring at least three of the
// account's recent trades (the current one included) at the same price
// level before flagging, mirroring the spoofing detector's "3+ orders at
// same price level" layering signature. The 60-second window does not
// limit that count; it only sets which trades add to the time-clustering
// score.
func NewLayeringDetector() *LayeringDetector {
	d := &LayeringDetector{enableState: newEnableState()}
	d.params.store(&layeringParams{
		minOccurrences: 3,
		window:         60 * time.Second,
	})
	return d
}

func (d *LayeringDetector) Name() string { return "layering" }

func (d *LayeringDetector) UpdateConfig(cfg surveillance.PatternConfig) {
	d.configState.UpdateConfig(cfg)
	cur := d.params.load()
	d.params.store(&layeringParams{
		minOccurrences: cur.minOccurrences,
		window:         cfg.Duration("window_seconds", cur.window),
	})
}

func (d *LayeringDetector) Detect(trade *surveillance.Trade, ctx *surveillance.HistoricalContext) *surveillance.Alert {
	p := d.params.load()
	if len(ctx.AccountRecentTrades) < p.minOccurrences {
		return nil
	}

	sameLevel := 0
	withinWindowCount := 0
	for i := range ctx.AccountRecentTrades {
		other := &ctx.AccountRecentTrades[i]
		if other.TradeID == trade.TradeID {
			continue
		}
		if other.Price.Equal(trade.Price) {
			sameLevel++
		}
		if withinWindow(trade.Timestamp, other.Timestamp, p.window) {
			withinWindowCount++
		}
	}

	if sameLevel < p.minOccurrences-1 {
		return nil
	}

	total := len(ctx.AccountRecentTrades)
	concentration := decimal.NewFromInt(int64(sameLevel)).Div(decimal.NewFromInt(int64(total)))
	clustering := decimal.NewFromInt(int64(withinWindowCount)).Div(decimal.NewFromInt(int64(total)))

	confidence := capConfidence(concentration.Mul(decimal.NewFromInt(65)).Add(clustering.Mul(decimal.NewFromInt(35))))
	if confidence.LessThan(decimal.NewFromInt(50)) {
		return nil
	}

	evidence := []surveillance.Evidence{
		{Description: "same-price-level occurrences", Value: decimal.NewFromInt(int64(sameLevel))},
		{Description: "price level concentration", Value: concentration},
		{Description: "time clustering ratio", Value: clustering},
	}

	return &surveillance.Alert{
		PatternName: d.Name(),
		Trade:       *trade,
		Severity:    severityFromConfidence(confidence, 85, 70, 55),
		Confidence:  confidence,
		Message:     fmt.Sprintf("account %s repeatedly trades %s at the same price level", trade.AccountID, trade.InstrumentSymbol),
		Evidence:    evidence,
	}
}
