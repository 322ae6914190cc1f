package detectors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

func TestPumpDumpDetector_FlagsSpikeAndReversal(t *testing.T) {
	d := NewPumpDumpDetector()
	base := time.Now()

	var ctx surveillance.HistoricalContext
	prices := []int64{100, 100, 100, 100, 100, 180, 150, 120, 110, 100}
	for i, p := range prices {
		tr := tradeAt("t", "acct-1", surveillance.TradeTypeBuy, decimal.NewFromInt(p), 100, base.Add(time.Duration(i)*time.Second))
		ctx.RecentTrades = append(ctx.RecentTrades, tr)
	}
	ctx.AvgVolume = decimal.NewFromInt(20)

	current := tradeAt("t", "acct-1", surveillance.TradeTypeBuy, decimal.NewFromInt(100), 100, base.Add(10*time.Second))
	alert := d.Detect(&current, &ctx)
	require.NotNil(t, alert)
	assert.Equal(t, "pump_dump", alert.PatternName)
}

func TestPumpDumpDetector_NoAlert_WithTooFewTrades(t *testing.T) {
	d := NewPumpDumpDetector()
	var ctx surveillance.HistoricalContext
	ctx.RecentTrades = []surveillance.Trade{{Price: decimal.NewFromInt(100)}}
	trade := tradeAt("t", "acct-1", surveillance.TradeTypeBuy, decimal.NewFromInt(100), 10, time.Now())

	alert := d.Detect(&trade, &ctx)
	assert.Nil(t, alert)
}

func TestPumpDumpDetector_NoAlert_WithoutVolumeSpike(t *testing.T) {
	d := NewPumpDumpDetector()
	base := time.Now()
	var ctx surveillance.HistoricalContext
	for i := 0; i < 10; i++ {
		tr := tradeAt("t", "acct-1", surveillance.TradeTypeBuy, decimal.NewFromInt(int64(100+i*20)), 100, base.Add(time.Duration(i)*time.Second))
		ctx.RecentTrades = append(ctx.RecentTrades, tr)
	}
	ctx.AvgVolume = decimal.NewFromInt(1000)

	current := tradeAt("t", "acct-1", surveillance.TradeTypeBuy, decimal.NewFromInt(300), 100, base.Add(10*time.Second))
	alert := d.Detect(&current, &ctx)
	assert.Nil(t, alert)
}
