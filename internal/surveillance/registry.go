package surveillance

import (
	"fmt"
	"sync"
)

// DetectorRegistry owns the set of registered pattern detectors and
// arbitrates enable/disable and config-update operations against them
// without holding its lock across a Detect, SetEnabled or UpdateConfig
// call. SnapshotEnabled does call each detector's IsEnabled while holding
// the read lock.
type DetectorRegistry struct {
	mu        sync.RWMutex
	detectors map[string]Detector
}

// NewDetectorRegistry builds an empty registry.
func NewDetectorRegistry() *DetectorRegistry {
	return &DetectorRegistry{detectors: make(map[string]Detector)}
}

// Register adds or replaces a detector under the given name.
func (r *DetectorRegistry) Register(name string, d Detector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detectors[name] = d
}

// SetEnabled toggles a registered detector's enabled state.
func (r *DetectorRegistry) SetEnabled(name string, enabled bool) error {
	r.mu.RLock()
	d, ok := r.detectors[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: unknown pattern %q", ErrConfig, name)
	}
	d.SetEnabled(enabled)
	return nil
}

// UpdateConfig pushes a new configuration to a registered detector.
func (r *DetectorRegistry) UpdateConfig(name string, cfg PatternConfig) error {
	r.mu.RLock()
	d, ok := r.detectors[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: unknown pattern %q", ErrConfig, name)
	}
	d.UpdateConfig(cfg)
	return nil
}

// SnapshotEnabled returns the currently-enabled detectors as a stable
// slice, safe to iterate without holding the registry lock — this is what
// lets the worker loop fan a trade out over detectors without the registry
// ever being locked across a detector invocation.
func (r *DetectorRegistry) SnapshotEnabled() []Detector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Detector, 0, len(r.detectors))
	for _, d := range r.detectors {
		if d.IsEnabled() {
			out = append(out, d)
		}
	}
	return out
}

// Get returns a registered detector by name.
func (r *DetectorRegistry) Get(name string) (Detector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.detectors[name]
	return d, ok
}

// Names returns the registered detector names.
func (r *DetectorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.detectors))
	for name := range r.detectors {
		names = append(names, name)
	}
	return names
}
