package surveillance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPool_AllocateRelease_RoundTrips(t *testing.T) {
	pool := NewMemoryPool(2)

	slot1, ok := pool.Allocate()
	require.True(t, ok)
	assert.Equal(t, int64(1), pool.InUse())

	slot2, ok := pool.Allocate()
	require.True(t, ok)
	assert.Equal(t, int64(2), pool.InUse())

	_, ok = pool.Allocate()
	assert.False(t, ok, "pool should be exhausted at capacity")

	pool.Release(slot1)
	assert.Equal(t, int64(1), pool.InUse())

	slot3, ok := pool.Allocate()
	require.True(t, ok)
	assert.Equal(t, int64(2), pool.InUse())

	pool.Release(slot2)
	pool.Release(slot3)
	assert.Equal(t, int64(0), pool.InUse())
}

func TestMemoryPool_Release_ResetsSlot(t *testing.T) {
	pool := NewMemoryPool(1)
	slot, ok := pool.Allocate()
	require.True(t, ok)
	slot.TradeID = "stale"
	pool.Release(slot)

	slot2, ok := pool.Allocate()
	require.True(t, ok)
	assert.Equal(t, "", slot2.TradeID)
}
