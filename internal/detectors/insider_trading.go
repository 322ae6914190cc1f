package detectors

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

// insiderTradingParams is the parsed, typed form of
// InsiderTradingDetector's tunables.
type insiderTradingParams struct {
	volumeMultiple decimal.Decimal
	priceDeviation decimal.Decimal
}

// InsiderTradingDetector flags an externally-held account (not the firm's
// own book) placing an abnormally large trade, far outside its own recent
// volume pattern, while the instrument's price has already moved sharply
// away from its recent average — the signature of a position taken ahead
// of information the account should not have had.
type InsiderTradingDetector struct {
	enableState
	configState
	params paramState[insiderTradingParams]
}

// NewInsiderTradingDetector requires a trade at least five times an
// account's typical size, with the instrument's price already five
// percent away from its recent average, before flagging.
func NewInsiderTradingDetector() *InsiderTradingDetector {
	d := &InsiderTradingDetector{enableState: newEnableState()}
	d.params.store(&insiderTradingParams{
		volumeMultiple: decimal.NewFromInt(5),
		priceDeviation: decimal.NewFromFloat(0.05),
	})
	return d
}

func (d *InsiderTradingDetector) Name() string { return "insider_trading" }

func (d *InsiderTradingDetector) UpdateConfig(cfg surveillance.PatternConfig) {
	d.configState.UpdateConfig(cfg)
	cur := d.params.load()
	d.params.store(&insiderTradingParams{
		volumeMultiple: cfg.Decimal("volume_multiple", cur.volumeMultiple),
		priceDeviation: cfg.Decimal("price_deviation", cur.priceDeviation),
	})
}

func (d *InsiderTradingDetector) Detect(trade *surveillance.Trade, ctx *surveillance.HistoricalContext) *surveillance.Alert {
	if trade.IsOwnAccount {
		return nil
	}
	if len(ctx.RecentTrades) < 10 || ctx.AvgPrice.IsZero() {
		return nil
	}
	p := d.params.load()

	accountAvg := accountAverageVolume(ctx)
	if accountAvg.IsZero() {
		return nil
	}
	sizeRatio := decimal.NewFromInt(int64(trade.Quantity)).Div(accountAvg)
	if sizeRatio.LessThan(p.volumeMultiple) {
		return nil
	}

	priceDev := trade.Price.Sub(ctx.AvgPrice).Abs().Div(ctx.AvgPrice)
	if priceDev.LessThan(p.priceDeviation) {
		return nil
	}

	sizeScore := capConfidence(sizeRatio.Div(p.volumeMultiple).Mul(decimal.NewFromInt(100)))
	priceScore := capConfidence(priceDev.Div(p.priceDeviation).Mul(decimal.NewFromInt(100)))

	confidence := capConfidence(sizeScore.Mul(decimal.NewFromInt(55)).Div(decimal.NewFromInt(100)).
		Add(priceScore.Mul(decimal.NewFromInt(45)).Div(decimal.NewFromInt(100))))

	if confidence.LessThan(decimal.NewFromInt(50)) {
		return nil
	}

	evidence := []surveillance.Evidence{
		{Description: "size vs account average", Value: sizeRatio},
		{Description: "price deviation from average", Value: priceDev},
	}

	return &surveillance.Alert{
		PatternName: d.Name(),
		Trade:       *trade,
		Severity:    severityFromConfidence(confidence, 88, 72, 58),
		Confidence:  confidence,
		Message:     fmt.Sprintf("account %s traded an abnormal size in %s against a moved market", trade.AccountID, trade.InstrumentSymbol),
		Evidence:    evidence,
	}
}

func accountAverageVolume(ctx *surveillance.HistoricalContext) decimal.Decimal {
	n := len(ctx.AccountRecentTrades)
	if n <= 1 {
		return decimal.Zero
	}
	// Exclude the most recent (current) trade from the baseline so the
	// trade under evaluation isn't compared against itself.
	var sum decimal.Decimal
	for _, t := range ctx.AccountRecentTrades[:n-1] {
		sum = sum.Add(decimal.NewFromInt(int64(t.Quantity)))
	}
	return sum.Div(decimal.NewFromInt(int64(n - 1)))
}
