package detectors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

func TestFrontRunningDetector_FlagsHouseTradeAheadOfClientOrder(t *testing.T) {
	d := NewFrontRunningDetector()
	base := time.Now()

	precursor := tradeAt("", "house-1", surveillance.TradeTypeBuy, decimal.NewFromInt(100), 50, base)
	precursor.IsOwnAccount = true

	var ctx surveillance.HistoricalContext
	ctx.RecentTrades = append(ctx.RecentTrades, precursor)

	client := tradeAt("", "client-1", surveillance.TradeTypeBuy, decimal.NewFromInt(101), 5000, base.Add(2*time.Second))
	client.IsOwnAccount = false
	ctx.RecentTrades = append(ctx.RecentTrades, client)

	alert := d.Detect(&client, &ctx)
	require.NotNil(t, alert)
	assert.Equal(t, "front_running", alert.PatternName)
}

func TestFrontRunningDetector_NoAlert_WithoutPrecursor(t *testing.T) {
	d := NewFrontRunningDetector()
	base := time.Now()
	var ctx surveillance.HistoricalContext
	client := tradeAt("", "client-1", surveillance.TradeTypeBuy, decimal.NewFromInt(101), 5000, base)
	ctx.RecentTrades = append(ctx.RecentTrades, client)

	alert := d.Detect(&client, &ctx)
	assert.Nil(t, alert)
}
