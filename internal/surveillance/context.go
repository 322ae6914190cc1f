package surveillance

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// HistoricalContext is the rolling window of recent activity for one
// (instrument, account) pair. Pruning uses the trade's own timestamp as the
// clock, not wall-clock time, matching the original engine so that trades
// arriving slightly out of order still prune against a consistent cutoff.
type HistoricalContext struct {
	LookbackWindow time.Duration

	RecentTrades []Trade

	AvgVolume       decimal.Decimal
	AvgPrice        decimal.Decimal
	PriceVolatility decimal.Decimal

	BidPrice    decimal.Decimal
	AskPrice    decimal.Decimal
	BidQuantity uint64
	AskQuantity uint64

	AccountRecentTrades []Trade
	AccountTotalVolume  decimal.Decimal

	RelatedAccounts    []string
	RelatedInstruments []string

	lastUpdated time.Time
}

const contextShardCount = 64

// contextShard owns one slice of the key space behind its own mutex, so
// that the read-mutate-write sequence for a single key is fully serialized
// while unrelated keys in other shards proceed without contending at all.
// This directly resolves the original engine's non-atomic whole-context
// replacement: there, `context_cache_[key] = context` raced with any other
// goroutine updating the same key concurrently.
type contextShard struct {
	mu      sync.Mutex
	entries map[ContextKey]*HistoricalContext
}

// ContextStore is the sharded, concurrent-safe keeper of per-(instrument,
// account) rolling context.
type ContextStore struct {
	shards         [contextShardCount]contextShard
	defaultWindow  time.Duration
	maxEntriesShard int
}

// NewContextStore builds a store with the given default lookback window
// (the original engine defaults HistoricalContext.lookback_window to five
// minutes) and an approximate total entry cap enforced per-shard via
// least-recently-updated eviction.
func NewContextStore(defaultWindow time.Duration, maxEntries int) *ContextStore {
	if defaultWindow <= 0 {
		defaultWindow = 5 * time.Minute
	}
	perShard := maxEntries / contextShardCount
	if perShard < 1 {
		perShard = 1
	}
	cs := &ContextStore{defaultWindow: defaultWindow, maxEntriesShard: perShard}
	for i := range cs.shards {
		cs.shards[i].entries = make(map[ContextKey]*HistoricalContext)
	}
	return cs
}

// Len returns the total number of context entries currently held across
// every shard. Intended for admin inspection and tests; it takes each
// shard's lock in turn rather than a single global lock.
func (cs *ContextStore) Len() int {
	total := 0
	for i := range cs.shards {
		cs.shards[i].mu.Lock()
		total += len(cs.shards[i].entries)
		cs.shards[i].mu.Unlock()
	}
	return total
}

func shardIndex(key ContextKey) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key.Instrument))
	_, _ = h.Write([]byte{'\x00'})
	_, _ = h.Write([]byte(key.Account))
	return int(h.Sum64() & (contextShardCount - 1))
}

// Configure sets a per-key lookback window override, creating the entry if
// it does not yet exist.
func (cs *ContextStore) Configure(key ContextKey, lookback time.Duration) {
	shard := &cs.shards[shardIndex(key)]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	ctx, ok := shard.entries[key]
	if !ok {
		ctx = &HistoricalContext{LookbackWindow: cs.defaultWindow}
		shard.entries[key] = ctx
	}
	ctx.LookbackWindow = lookback
}

// Update appends the trade to the relevant rolling windows, prunes entries
// older than the trade's timestamp minus the lookback window, recomputes
// aggregate statistics, and returns a copy of the resulting context
// suitable for handing to detectors without holding the shard lock.
func (cs *ContextStore) Update(trade *Trade) HistoricalContext {
	key := trade.contextKey()
	shard := &cs.shards[shardIndex(key)]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	ctx, ok := shard.entries[key]
	if !ok {
		if len(shard.entries) >= cs.maxEntriesShard {
			evictLRU(shard)
		}
		ctx = &HistoricalContext{LookbackWindow: cs.defaultWindow}
		shard.entries[key] = ctx
	}

	cutoff := trade.Timestamp.Add(-ctx.LookbackWindow)

	ctx.RecentTrades = append(ctx.RecentTrades, *trade)
	ctx.RecentTrades = pruneOlderThan(ctx.RecentTrades, cutoff)

	if trade.IsOwnAccount || trade.AccountID != "" {
		ctx.AccountRecentTrades = append(ctx.AccountRecentTrades, *trade)
		ctx.AccountRecentTrades = pruneOlderThan(ctx.AccountRecentTrades, cutoff)
	}

	recomputeAggregates(ctx)
	ctx.lastUpdated = trade.Timestamp

	return copyContext(ctx)
}

// Snapshot returns a copy of the stored context for a key without mutating
// it, or a zero-value context with ok=false if no entry exists yet.
func (cs *ContextStore) Snapshot(key ContextKey) (HistoricalContext, bool) {
	shard := &cs.shards[shardIndex(key)]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	ctx, ok := shard.entries[key]
	if !ok {
		return HistoricalContext{}, false
	}
	return copyContext(ctx), true
}

// copyContext returns a value-semantic copy of ctx safe to hand to a
// detector without holding the shard lock: the slice fields are deep-copied
// so a later in-place prune of the live entry (pruneOlderThan reuses the
// backing array via trades[:0]) can never race with a detector still
// reading the returned snapshot.
func copyContext(ctx *HistoricalContext) HistoricalContext {
	out := *ctx
	if ctx.RecentTrades != nil {
		out.RecentTrades = append([]Trade(nil), ctx.RecentTrades...)
	}
	if ctx.AccountRecentTrades != nil {
		out.AccountRecentTrades = append([]Trade(nil), ctx.AccountRecentTrades...)
	}
	if ctx.RelatedAccounts != nil {
		out.RelatedAccounts = append([]string(nil), ctx.RelatedAccounts...)
	}
	if ctx.RelatedInstruments != nil {
		out.RelatedInstruments = append([]string(nil), ctx.RelatedInstruments...)
	}
	return out
}

func pruneOlderThan(trades []Trade, cutoff time.Time) []Trade {
	kept := trades[:0]
	for _, t := range trades {
		if !t.Timestamp.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func recomputeAggregates(ctx *HistoricalContext) {
	n := len(ctx.RecentTrades)
	if n == 0 {
		ctx.AvgVolume = decimal.Zero
		ctx.AvgPrice = decimal.Zero
		ctx.PriceVolatility = decimal.Zero
		return
	}
	var sumVol, sumPrice decimal.Decimal
	for _, t := range ctx.RecentTrades {
		sumVol = sumVol.Add(decimal.NewFromInt(int64(t.Quantity)))
		sumPrice = sumPrice.Add(t.Price)
	}
	count := decimal.NewFromInt(int64(n))
	ctx.AvgVolume = sumVol.Div(count)
	ctx.AvgPrice = sumPrice.Div(count)

	var sumSq decimal.Decimal
	for _, t := range ctx.RecentTrades {
		diff := t.Price.Sub(ctx.AvgPrice)
		sumSq = sumSq.Add(diff.Mul(diff))
	}
	ctx.PriceVolatility = sumSq.Div(count)

	var acctVol decimal.Decimal
	for _, t := range ctx.AccountRecentTrades {
		acctVol = acctVol.Add(decimal.NewFromInt(int64(t.Quantity)))
	}
	ctx.AccountTotalVolume = acctVol
}

// evictLRU drops the least-recently-updated entry in the shard. Called with
// the shard lock already held.
func evictLRU(shard *contextShard) {
	var oldestKey ContextKey
	var oldestTime time.Time
	first := true
	for k, v := range shard.entries {
		if first || v.lastUpdated.Before(oldestTime) {
			oldestKey = k
			oldestTime = v.lastUpdated
			first = false
		}
	}
	if !first {
		delete(shard.entries, oldestKey)
	}
}
