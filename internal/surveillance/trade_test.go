package surveillance

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validTrade(now time.Time) Trade {
	return Trade{
		TradeID:          "t1",
		InstrumentSymbol: "ACME",
		AccountID:        "acct-1",
		Quantity:         10,
		Price:            decimal.NewFromInt(100),
		Value:            decimal.NewFromInt(1000),
		Timestamp:        now.Add(-time.Second),
	}
}

func TestTrade_Validate_AcceptsWellFormedTrade(t *testing.T) {
	now := time.Now()
	trade := validTrade(now)
	assert.NoError(t, trade.Validate(now))
}

func TestTrade_Validate_RejectsMissingFields(t *testing.T) {
	now := time.Now()
	cases := map[string]func(*Trade){
		"empty trade id":          func(tr *Trade) { tr.TradeID = "" },
		"empty instrument":        func(tr *Trade) { tr.InstrumentSymbol = "" },
		"zero quantity":           func(tr *Trade) { tr.Quantity = 0 },
		"non-positive price":      func(tr *Trade) { tr.Price = decimal.Zero },
		"non-positive value":      func(tr *Trade) { tr.Value = decimal.NewFromInt(-1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			trade := validTrade(now)
			mutate(&trade)
			err := trade.Validate(now)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestTrade_Validate_RejectsFutureTimestamp(t *testing.T) {
	now := time.Now()
	trade := validTrade(now)
	trade.Timestamp = now.Add(time.Hour)
	err := trade.Validate(now)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}
