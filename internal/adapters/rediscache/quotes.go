// Package rediscache reads and writes best bid/ask quote snapshots in
// Redis. Nothing in the engine consumes them: the context store does not
// read this cache, so HistoricalContext's bid/ask fields are not filled
// from it.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Quote is a best bid/ask snapshot for one instrument.
type Quote struct {
	BidPrice    decimal.Decimal `json:"bid_price"`
	AskPrice    decimal.Decimal `json:"ask_price"`
	BidQuantity uint64          `json:"bid_quantity"`
	AskQuantity uint64          `json:"ask_quantity"`
}

// Source reads and writes instrument quote snapshots in Redis, keyed by
// instrument symbol.
type Source struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an already-configured redis client.
func New(client *redis.Client, ttl time.Duration) *Source {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Source{client: client, ttl: ttl}
}

func key(instrument string) string {
	return "dharmaguard:quote:" + instrument
}

// Get fetches the current quote for an instrument. ok is false on a cache
// miss or decode error, mirroring a "no data yet" outcome rather than
// failing the caller.
func (s *Source) Get(ctx context.Context, instrument string) (Quote, bool) {
	raw, err := s.client.Get(ctx, key(instrument)).Bytes()
	if err != nil {
		return Quote{}, false
	}
	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return Quote{}, false
	}
	return q, true
}

// Set publishes a fresh quote snapshot with the configured TTL.
func (s *Source) Set(ctx context.Context, instrument string, q Quote) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("rediscache: marshal quote: %w", err)
	}
	if err := s.client.Set(ctx, key(instrument), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: set quote: %w", err)
	}
	return nil
}
