// Package kafkaingest adapts a Kafka topic of encoded trade events into
// calls against the surveillance engine's Submit method. It is a trimmed,
// domain-adapted version of this codebase's Kafka messaging idiom: a
// per-topic reader loop with retry-with-backoff message handling and
// structured logging on decode or submission failure. It intentionally
// does not carry over the wider messaging package's replay-session,
// dead-letter-queue, or admin-client machinery, since trade replay is out
// of scope for this engine.
package kafkaingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

// Submitter is the narrow slice of Engine this adapter depends on, so
// tests can substitute a fake without constructing a full engine.
type Submitter interface {
	Submit(trade surveillance.Trade) error
}

// wireTrade is the JSON shape trades are published in on the topic; it is
// decoded then converted into a surveillance.Trade.
type wireTrade struct {
	TradeID          string  `json:"trade_id"`
	InstrumentSymbol string  `json:"instrument_symbol"`
	AccountID        string  `json:"account_id"`
	ClientID         string  `json:"client_id"`
	Type             string  `json:"trade_type"`
	Segment          string  `json:"segment"`
	Quantity         uint64  `json:"quantity"`
	Price            string  `json:"price"`
	Value            string  `json:"value"`
	Exchange         string  `json:"exchange"`
	TimestampUnixMs  int64   `json:"timestamp_unix_ms"`
	OrderID          string  `json:"order_id"`
	TraderID         string  `json:"trader_id"`
	IsOwnAccount     bool    `json:"is_own_account"`
	Brokerage        string  `json:"brokerage"`
	Taxes            string  `json:"taxes"`
}

func (w *wireTrade) toTrade() (surveillance.Trade, error) {
	price, err := decimal.NewFromString(w.Price)
	if err != nil {
		return surveillance.Trade{}, fmt.Errorf("invalid price %q: %w", w.Price, err)
	}
	value, err := decimal.NewFromString(w.Value)
	if err != nil {
		return surveillance.Trade{}, fmt.Errorf("invalid value %q: %w", w.Value, err)
	}
	brokerage, _ := decimal.NewFromString(w.Brokerage)
	taxes, _ := decimal.NewFromString(w.Taxes)

	return surveillance.Trade{
		TradeID:          w.TradeID,
		InstrumentSymbol: w.InstrumentSymbol,
		AccountID:        w.AccountID,
		ClientID:         w.ClientID,
		Type:             parseTradeType(w.Type),
		Segment:          parseSegment(w.Segment),
		Quantity:         w.Quantity,
		Price:            price,
		Value:            value,
		Exchange:         w.Exchange,
		Timestamp:        time.UnixMilli(w.TimestampUnixMs),
		OrderID:          w.OrderID,
		TraderID:         w.TraderID,
		IsOwnAccount:     w.IsOwnAccount,
		Brokerage:        brokerage,
		Taxes:            taxes,
	}, nil
}

func parseTradeType(s string) surveillance.TradeType {
	switch s {
	case "SELL":
		return surveillance.TradeTypeSell
	case "SHORT_SELL":
		return surveillance.TradeTypeShortSell
	case "COVER":
		return surveillance.TradeTypeCover
	default:
		return surveillance.TradeTypeBuy
	}
}

func parseSegment(s string) surveillance.MarketSegment {
	switch s {
	case "FUTURES":
		return surveillance.SegmentFutures
	case "OPTIONS":
		return surveillance.SegmentOptions
	case "COMMODITY":
		return surveillance.SegmentCommodity
	case "CURRENCY":
		return surveillance.SegmentCurrency
	default:
		return surveillance.SegmentEquity
	}
}

// Config configures the Kafka trade source.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
	MaxRetries int
}

// Source consumes trade events off a Kafka topic and submits them to the
// engine.
type Source struct {
	reader  *kafka.Reader
	submit  Submitter
	logger  *zap.Logger
	retries int
}

// New builds a Kafka-backed trade source.
func New(cfg Config, submit Submitter, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return &Source{reader: reader, submit: submit, logger: logger, retries: retries}
}

// Run consumes messages until ctx is cancelled or a fatal reader error
// occurs.
func (s *Source) Run(ctx context.Context) error {
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka read: %w", err)
		}
		s.handle(msg)
	}
}

func (s *Source) handle(msg kafka.Message) {
	var wire wireTrade
	if err := json.Unmarshal(msg.Value, &wire); err != nil {
		s.logger.Warn("failed to decode trade message", zap.Error(err))
		return
	}
	trade, err := wire.toTrade()
	if err != nil {
		s.logger.Warn("failed to convert trade message", zap.Error(err))
		return
	}

	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		if err := s.submit.Submit(trade); err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
			continue
		}
		return
	}
	s.logger.Error("failed to submit trade after retries", zap.Error(lastErr), zap.String("trade_id", trade.TradeID))
}

// Close releases the underlying Kafka reader.
func (s *Source) Close() error {
	return s.reader.Close()
}
