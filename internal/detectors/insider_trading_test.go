package detectors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

func TestInsiderTradingDetector_FlagsAbnormalSizeAgainstMovedMarket(t *testing.T) {
	d := NewInsiderTradingDetector()
	base := time.Now()

	var ctx surveillance.HistoricalContext
	ctx.AvgPrice = decimal.NewFromInt(100)
	for i := 0; i < 10; i++ {
		ctx.RecentTrades = append(ctx.RecentTrades, tradeAt("", "other", surveillance.TradeTypeBuy, decimal.NewFromInt(100), 10, base.Add(time.Duration(i)*time.Second)))
	}
	for i := 0; i < 4; i++ {
		ctx.AccountRecentTrades = append(ctx.AccountRecentTrades, tradeAt("", "acct-1", surveillance.TradeTypeBuy, decimal.NewFromInt(100), 10, base.Add(time.Duration(i)*time.Second)))
	}

	current := tradeAt("", "acct-1", surveillance.TradeTypeBuy, decimal.NewFromInt(130), 1000, base.Add(20*time.Second))
	current.IsOwnAccount = false
	ctx.AccountRecentTrades = append(ctx.AccountRecentTrades, current)

	alert := d.Detect(&current, &ctx)
	require.NotNil(t, alert)
	assert.Equal(t, "insider_trading", alert.PatternName)
}

func TestInsiderTradingDetector_NoAlert_ForOwnAccount(t *testing.T) {
	d := NewInsiderTradingDetector()
	current := tradeAt("", "house", surveillance.TradeTypeBuy, decimal.NewFromInt(130), 1000, time.Now())
	current.IsOwnAccount = true
	var ctx surveillance.HistoricalContext

	alert := d.Detect(&current, &ctx)
	assert.Nil(t, alert)
}
