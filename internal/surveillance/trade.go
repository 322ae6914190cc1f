package surveillance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeType mirrors the original engine's trade_type enum.
type TradeType int

const (
	TradeTypeBuy TradeType = iota
	TradeTypeSell
	TradeTypeShortSell
	TradeTypeCover
)

func (t TradeType) String() string {
	switch t {
	case TradeTypeBuy:
		return "BUY"
	case TradeTypeSell:
		return "SELL"
	case TradeTypeShortSell:
		return "SHORT_SELL"
	case TradeTypeCover:
		return "COVER"
	default:
		return "UNKNOWN"
	}
}

// MarketSegment mirrors the original engine's segment enum.
type MarketSegment int

const (
	SegmentEquity MarketSegment = iota
	SegmentFutures
	SegmentOptions
	SegmentCommodity
	SegmentCurrency
)

func (s MarketSegment) String() string {
	switch s {
	case SegmentEquity:
		return "EQUITY"
	case SegmentFutures:
		return "FUTURES"
	case SegmentOptions:
		return "OPTIONS"
	case SegmentCommodity:
		return "COMMODITY"
	case SegmentCurrency:
		return "CURRENCY"
	default:
		return "UNKNOWN"
	}
}

// Trade is a single equity/derivatives execution submitted for surveillance.
type Trade struct {
	TradeID          string
	InstrumentSymbol string
	AccountID        string
	ClientID         string

	Type    TradeType
	Segment MarketSegment

	Quantity uint64
	Price    decimal.Decimal
	Value    decimal.Decimal
	Exchange string
	Timestamp time.Time

	OrderID      string
	TraderID     string
	IsOwnAccount bool
	Brokerage    decimal.Decimal
	Taxes        decimal.Decimal
}

// ContextKey identifies a (instrument, account) pair. Using a struct rather
// than a concatenated string avoids the collision the original engine was
// exposed to when an instrument symbol happened to contain the separator
// character used to join it with the account id.
type ContextKey struct {
	Instrument string
	Account    string
}

func (t *Trade) contextKey() ContextKey {
	return ContextKey{Instrument: t.InstrumentSymbol, Account: t.AccountID}
}

// Validate checks structural validity plus the future-timestamp rejection
// the original implementation performed in validate_trade_data, on top of
// its own is_valid() check.
func (t *Trade) Validate(now time.Time) error {
	if t.TradeID == "" {
		return fmt.Errorf("%w: trade_id is empty", ErrValidation)
	}
	if t.InstrumentSymbol == "" {
		return fmt.Errorf("%w: instrument_symbol is empty", ErrValidation)
	}
	if t.Quantity == 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if !t.Value.IsPositive() {
		return fmt.Errorf("%w: value must be positive", ErrValidation)
	}
	if t.Timestamp.After(now) {
		return fmt.Errorf("%w: timestamp %s is in the future", ErrValidation, t.Timestamp)
	}
	return nil
}
