package surveillance

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextStore_DistinctKeys_NeverCollide(t *testing.T) {
	cs := NewContextStore(5*time.Minute, 1000)

	// Instrument containing the byte that the original engine used as its
	// concatenation separator, paired with an account that would alias a
	// different (instrument, account) pair under naive string
	// concatenation. The structured ContextKey must keep them distinct.
	now := time.Now()
	t1 := newTestTrade("a", "AB_C", "D", now)
	t2 := newTestTrade("b", "AB", "C_D", now)

	cs.Update(&t1)
	cs.Update(&t2)

	snap1, ok1 := cs.Snapshot(ContextKey{Instrument: "AB_C", Account: "D"})
	require.True(t, ok1)
	require.Len(t, snap1.RecentTrades, 1)
	assert.Equal(t, "a", snap1.RecentTrades[0].TradeID)

	snap2, ok2 := cs.Snapshot(ContextKey{Instrument: "AB", Account: "C_D"})
	require.True(t, ok2)
	require.Len(t, snap2.RecentTrades, 1)
	assert.Equal(t, "b", snap2.RecentTrades[0].TradeID)
}

func TestContextStore_Update_PrunesByTradeTimestampNotWallClock(t *testing.T) {
	cs := NewContextStore(time.Minute, 1000)
	base := time.Now().Add(-time.Hour)

	old := newTestTrade("old", "ACME", "acct-1", base)
	cs.Update(&old)

	fresh := newTestTrade("fresh", "ACME", "acct-1", base.Add(2*time.Minute))
	snap := cs.Update(&fresh)

	require.Len(t, snap.RecentTrades, 1)
	assert.Equal(t, "fresh", snap.RecentTrades[0].TradeID)
}

func TestContextStore_ConcurrentUpdatesSameKey_NoLostUpdates(t *testing.T) {
	cs := NewContextStore(time.Hour, 1000)
	const n = 200

	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func(i int) {
			trade := newTestTrade(fmt.Sprintf("t-%d", i), "ACME", "acct-1", time.Now())
			cs.Update(&trade)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}

	snap, ok := cs.Snapshot(ContextKey{Instrument: "ACME", Account: "acct-1"})
	require.True(t, ok)
	assert.Equal(t, n, len(snap.RecentTrades))
}

func TestContextStore_Configure_OverridesLookbackWindow(t *testing.T) {
	cs := NewContextStore(5*time.Minute, 1000)
	key := ContextKey{Instrument: "ACME", Account: "acct-1"}
	cs.Configure(key, 10*time.Second)

	base := time.Now()
	old := newTestTrade("old", "ACME", "acct-1", base)
	cs.Update(&old)

	fresh := newTestTrade("fresh", "ACME", "acct-1", base.Add(20*time.Second))
	snap := cs.Update(&fresh)

	require.Len(t, snap.RecentTrades, 1)
	assert.Equal(t, "fresh", snap.RecentTrades[0].TradeID)
}

func TestContextStore_Eviction_BoundsTotalEntries(t *testing.T) {
	cs := NewContextStore(time.Hour, contextShardCount) // one entry per shard
	base := time.Now()

	for i := 0; i < contextShardCount*4; i++ {
		trade := newTestTrade("t", "ACME", string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
		cs.Update(&trade)
	}

	assert.LessOrEqual(t, cs.Len(), contextShardCount)
}

func TestContextStore_Update_ReturnedSnapshotSurvivesLaterPrune(t *testing.T) {
	cs := NewContextStore(time.Minute, 1000)
	base := time.Now()

	old := newTestTrade("old", "ACME", "acct-1", base)
	snap := cs.Update(&old)
	require.Len(t, snap.RecentTrades, 1)
	oldID := snap.RecentTrades[0].TradeID

	// This update prunes "old" out of the live entry, reusing its backing
	// array in place (pruneOlderThan's trades[:0]). The previously returned
	// snapshot must not observe that mutation.
	fresh := newTestTrade("fresh", "ACME", "acct-1", base.Add(2*time.Minute))
	cs.Update(&fresh)

	require.Len(t, snap.RecentTrades, 1)
	assert.Equal(t, oldID, snap.RecentTrades[0].TradeID)
}

func TestHistoricalContext_AggregatesRecomputedOnEachUpdate(t *testing.T) {
	cs := NewContextStore(5*time.Minute, 1000)
	base := time.Now()

	t1 := newTestTrade("t1", "ACME", "acct-1", base)
	t1.Price = decimal.NewFromInt(10)
	t1.Quantity = 100

	t2 := newTestTrade("t2", "ACME", "acct-1", base.Add(time.Second))
	t2.Price = decimal.NewFromInt(20)
	t2.Quantity = 200

	cs.Update(&t1)
	snap := cs.Update(&t2)

	assert.True(t, snap.AvgPrice.Equal(decimal.NewFromInt(15)))
	assert.True(t, snap.AvgVolume.Equal(decimal.NewFromInt(150)))
}
