// Package config loads the engine's JSON configuration file, following the
// teacher's strong-consistency config manager's pattern of wrapping a
// *viper.Viper, falling back to documented defaults with a warning log when
// the file is missing, and exposing named sub-sections as typed maps.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

// SurveillanceConfig is the "surveillance" top-level section of the config
// file, matching the fields the original engine's main.cpp reads off its
// own config manager.
type SurveillanceConfig struct {
	NumThreads int
	QueueSize  int
}

// Manager loads and exposes a DharmaGuard config file.
type Manager struct {
	v      *viper.Viper
	logger *zap.Logger
}

// NewManager constructs an unloaded config manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := viper.New()
	v.SetConfigType("json")
	return &Manager{v: v, logger: logger}
}

// Load reads the config file at path. If the file does not exist, it logs a
// warning and leaves the manager populated with defaults instead of
// returning an error, matching the teacher's missing-file fallback.
func (m *Manager) Load(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			m.logger.Warn("config file not found, using defaults", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("%w: stat %s: %v", surveillance.ErrConfig, path, err)
	}

	m.v.SetConfigFile(path)
	if err := m.v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %v", surveillance.ErrConfig, err)
	}
	return nil
}

// Surveillance returns the "surveillance" section, falling back to
// hardware-concurrency worker count and a one-million queue size when the
// keys are absent, matching the original engine's constructor defaults.
func (m *Manager) Surveillance() SurveillanceConfig {
	cfg := SurveillanceConfig{
		NumThreads: runtime.NumCPU(),
		QueueSize:  1_000_000,
	}
	if n := m.v.GetInt("surveillance.num_threads"); n > 0 {
		cfg.NumThreads = n
	}
	if q := m.v.GetInt("surveillance.queue_size"); q > 0 {
		cfg.QueueSize = q
	}
	return cfg
}

// PatternConfig returns the "patterns.<name>" sub-map as a
// surveillance.PatternConfig, or an empty config if the section is absent.
func (m *Manager) PatternConfig(name string) surveillance.PatternConfig {
	raw := m.v.GetStringMap("patterns." + name)
	if raw == nil {
		return surveillance.PatternConfig{}
	}
	return surveillance.PatternConfig(raw)
}

// PatternNames returns every pattern name present under "patterns" in the
// loaded file.
func (m *Manager) PatternNames() []string {
	raw := m.v.GetStringMap("patterns")
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	return names
}
