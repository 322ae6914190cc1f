package surveillance

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatistics_RecordTrade_TracksPeakViaCASRetry(t *testing.T) {
	s := NewStatistics(time.Now())

	s.RecordTrade(10 * time.Millisecond)
	s.RecordTrade(5 * time.Millisecond)
	s.RecordTrade(20 * time.Millisecond)

	snap := s.Snapshot(0, time.Now())
	assert.Equal(t, int64(3), snap.TotalTradesProcessed)
	assert.Equal(t, (20 * time.Millisecond).Nanoseconds(), snap.PeakProcessingTimeNs)
}

func TestStatistics_RecordTrade_ConcurrentPeakNeverRegresses(t *testing.T) {
	s := NewStatistics(time.Now())
	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.RecordTrade(time.Duration(i) * time.Microsecond)
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot(0, time.Now())
	assert.Equal(t, (100 * time.Microsecond).Nanoseconds(), snap.PeakProcessingTimeNs)
	assert.Equal(t, int64(100), snap.TotalTradesProcessed)
}

func TestStatistics_RecordAlert_TracksPerPatternCounts(t *testing.T) {
	s := NewStatistics(time.Now())
	s.RecordAlert("wash_trading", 1000)
	s.RecordAlert("wash_trading", 2000)
	s.RecordAlert("pump_dump", 500)

	snap := s.Snapshot(0, time.Now())
	assert.Equal(t, int64(3), snap.TotalAlertsGenerated)
	assert.Equal(t, int64(2), snap.PatternAlertsCount["wash_trading"])
	assert.Equal(t, int64(1), snap.PatternAlertsCount["pump_dump"])
}

func TestStatistics_Snapshot_ThroughputIsNonNegative(t *testing.T) {
	s := NewStatistics(time.Now().Add(-time.Second))
	s.RecordTrade(time.Millisecond)
	snap := s.Snapshot(0, time.Now())
	assert.GreaterOrEqual(t, snap.ThroughputTradesPerSec, 0.0)
}
