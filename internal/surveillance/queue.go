package surveillance

import "sync/atomic"

// IngressQueue is a bounded MPMC lock-free ring buffer of *Trade pointers,
// adapted from the fixed-type LockFreeRingBuffer used elsewhere in this
// codebase for trading-engine events: a power-of-two-sized slot array with
// atomic write/read cursors and a bitmask in place of modulo.
type IngressQueue struct {
	slots    []atomic.Pointer[Trade]
	mask     uint64
	writePos int64
	readPos  int64
}

// NewIngressQueue builds a queue whose capacity is rounded up to the next
// power of two, matching EVENT_RING_BUFFER_SIZE's sizing discipline.
func NewIngressQueue(capacity int) *IngressQueue {
	size := nextPowerOfTwo(capacity)
	return &IngressQueue{
		slots: make([]atomic.Pointer[Trade], size),
		mask:  uint64(size - 1),
	}
}

func nextPowerOfTwo(n int) int {
	if n < 1 {
		n = 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// TryPush attempts a non-blocking enqueue. It returns false when the queue
// is full, matching the original engine's queue-full behavior of dropping
// the trade back to the pool and logging a warning (callers are expected
// to do that, not this method).
func (q *IngressQueue) TryPush(t *Trade) bool {
	for {
		write := atomic.LoadInt64(&q.writePos)
		read := atomic.LoadInt64(&q.readPos)
		if write-read >= int64(len(q.slots)) {
			return false
		}
		if atomic.CompareAndSwapInt64(&q.writePos, write, write+1) {
			idx := uint64(write) & q.mask
			q.slots[idx].Store(t)
			return true
		}
	}
}

// TryPop attempts a non-blocking dequeue. It returns (nil, false) when the
// queue is empty.
func (q *IngressQueue) TryPop() (*Trade, bool) {
	for {
		read := atomic.LoadInt64(&q.readPos)
		write := atomic.LoadInt64(&q.writePos)
		if read >= write {
			return nil, false
		}
		if atomic.CompareAndSwapInt64(&q.readPos, read, read+1) {
			idx := uint64(read) & q.mask
			slot := &q.slots[idx]
			var t *Trade
			for t == nil {
				t = slot.Load()
			}
			slot.Store(nil)
			return t, true
		}
	}
}

// SizeHint returns an approximate occupancy; under concurrent push/pop it
// may be stale by the time the caller observes it, which is acceptable for
// statistics reporting.
func (q *IngressQueue) SizeHint() int64 {
	write := atomic.LoadInt64(&q.writePos)
	read := atomic.LoadInt64(&q.readPos)
	if write < read {
		return 0
	}
	return write - read
}

// Capacity returns the queue's power-of-two slot count.
func (q *IngressQueue) Capacity() int {
	return len(q.slots)
}
