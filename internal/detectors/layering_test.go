package detectors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

func TestLayeringDetector_FlagsRepeatedSamePriceTrades(t *testing.T) {
	d := NewLayeringDetector()
	base := time.Now()
	price := decimal.NewFromInt(55)

	var ctx surveillance.HistoricalContext
	for i := 0; i < 5; i++ {
		tr := tradeAt("t", "acct-1", surveillance.TradeTypeBuy, price, 50, base.Add(time.Duration(i)*time.Second))
		ctx.AccountRecentTrades = append(ctx.AccountRecentTrades, tr)
	}

	current := ctx.AccountRecentTrades[len(ctx.AccountRecentTrades)-1]
	alert := d.Detect(&current, &ctx)
	require.NotNil(t, alert)
	assert.Equal(t, "layering", alert.PatternName)
}

func TestLayeringDetector_NoAlert_WithVariedPriceLevels(t *testing.T) {
	d := NewLayeringDetector()
	base := time.Now()

	var ctx surveillance.HistoricalContext
	for i := 0; i < 5; i++ {
		tr := tradeAt("t", "acct-1", surveillance.TradeTypeBuy, decimal.NewFromInt(int64(50+i*10)), 50, base.Add(time.Duration(i)*time.Second))
		ctx.AccountRecentTrades = append(ctx.AccountRecentTrades, tr)
	}

	current := ctx.AccountRecentTrades[len(ctx.AccountRecentTrades)-1]
	alert := d.Detect(&current, &ctx)
	assert.Nil(t, alert)
}
