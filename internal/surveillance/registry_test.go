package surveillance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	name    string
	enabled bool
	cfg     PatternConfig
}

func (d *stubDetector) Name() string                                { return d.name }
func (d *stubDetector) Detect(*Trade, *HistoricalContext) *Alert    { return nil }
func (d *stubDetector) UpdateConfig(cfg PatternConfig)              { d.cfg = cfg }
func (d *stubDetector) IsEnabled() bool                             { return d.enabled }
func (d *stubDetector) SetEnabled(enabled bool)                     { d.enabled = enabled }

func TestDetectorRegistry_SnapshotEnabled_OnlyReturnsEnabled(t *testing.T) {
	r := NewDetectorRegistry()
	r.Register("a", &stubDetector{name: "a", enabled: true})
	r.Register("b", &stubDetector{name: "b", enabled: false})

	enabled := r.SnapshotEnabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "a", enabled[0].Name())
}

func TestDetectorRegistry_SetEnabled_UnknownPattern_ReturnsConfigError(t *testing.T) {
	r := NewDetectorRegistry()
	err := r.SetEnabled("missing", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestDetectorRegistry_UpdateConfig_ReachesDetector(t *testing.T) {
	r := NewDetectorRegistry()
	d := &stubDetector{name: "a", enabled: true}
	r.Register("a", d)

	cfg := PatternConfig{"threshold": 0.5}
	require.NoError(t, r.UpdateConfig("a", cfg))
	assert.Equal(t, cfg, d.cfg)
}

func TestDetectorRegistry_ToggleThenSnapshot_ReflectsNewState(t *testing.T) {
	r := NewDetectorRegistry()
	r.Register("a", &stubDetector{name: "a", enabled: false})

	require.NoError(t, r.SetEnabled("a", true))
	assert.Len(t, r.SnapshotEnabled(), 1)

	require.NoError(t, r.SetEnabled("a", false))
	assert.Len(t, r.SnapshotEnabled(), 0)
}
