package cache

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/mod/semver"
)

const (
	// EngineVersion is the version of the in-process storage engine.
	EngineVersion = "v1.2.0"
	// DefaultMinEngineVersion is required when Config.MinEngineVersion is empty.
	DefaultMinEngineVersion = "v1.1.0"
)

// Config is passed to New. The zero value is disabled.
type Config struct {
	Name string
	// DefaultTTL applies when no explicit TTL is given. Zero means entries never expire.
	DefaultTTL time.Duration
	// MaxEntries caps the number of stored entries. Zero means unbounded.
	MaxEntries int
	// Enabled switches the engine on; a disabled engine is unavailable.
	Enabled bool
	// MinEngineVersion is the oldest EngineVersion the host accepts, in semver form.
	MinEngineVersion string
	Clock            clock.Clock
	Notifier         Notifier
}

// RequirementsMet checks that an engine built from cfg would be usable.
func RequirementsMet(cfg Config) error {
	if !cfg.Enabled {
		return fmt.Errorf("%w: engine disabled by configuration", ErrUnavailable)
	}
	minVersion := cfg.MinEngineVersion
	if minVersion == "" {
		minVersion = DefaultMinEngineVersion
	}
	if !semver.IsValid(minVersion) {
		return fmt.Errorf("%w: minimum engine version %q is not valid semver", ErrUnavailable, minVersion)
	}
	if semver.Compare(EngineVersion, minVersion) < 0 {
		return fmt.Errorf("%w: engine %s is older than required %s", ErrUnavailable, EngineVersion, minVersion)
	}
	if cfg.DefaultTTL < 0 {
		return fmt.Errorf("%w: negative default ttl %s", ErrInvalidConfig, cfg.DefaultTTL)
	}
	if cfg.MaxEntries < 0 {
		return fmt.Errorf("%w: negative max entries %d", ErrInvalidConfig, cfg.MaxEntries)
	}
	return nil
}
