// Package tracking decorates a dbshape driver so that every command execution is
// logged, timed, correlated with an execution id and recorded as OpenTelemetry metrics.
package tracking

import (
	"time"

	"github.com/gaborage/dbshape/config"
)

const (
	// DefaultSlowQueryThreshold defines the default threshold for slow command detection
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	// DefaultMaxQueryLength defines the default maximum command text length for logging
	DefaultMaxQueryLength = 1000
)

// Settings control how command executions are logged.
type Settings struct {
	slowQueryThreshold time.Duration
	maxQueryLength     int
	logParameters      bool
}

// NewSettings creates Settings from cfg. Non-positive values fall back to the
// defaults; a nil cfg yields the defaults with parameter logging off.
func NewSettings(cfg *config.TrackingConfig) Settings {
	settings := Settings{
		slowQueryThreshold: DefaultSlowQueryThreshold,
		maxQueryLength:     DefaultMaxQueryLength,
	}
	if cfg == nil {
		return settings
	}

	if cfg.SlowQueryThreshold > 0 {
		settings.slowQueryThreshold = cfg.SlowQueryThreshold
	}
	if cfg.MaxQueryLength > 0 {
		settings.maxQueryLength = cfg.MaxQueryLength
	}
	settings.logParameters = cfg.LogParameters

	return settings
}

// SlowQueryThreshold returns the duration above which an execution is logged as slow
func (s Settings) SlowQueryThreshold() time.Duration {
	return s.slowQueryThreshold
}

// MaxQueryLength returns the maximum command text length for logging
func (s Settings) MaxQueryLength() int {
	return s.maxQueryLength
}

// LogParameters returns whether parameter values are logged
func (s Settings) LogParameters() bool {
	return s.logParameters
}
