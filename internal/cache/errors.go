package cache

import "errors"

var (
	// ErrNotFound means the key is absent or expired.
	ErrNotFound = errors.New("cache: not found")
	// ErrUnavailable means the engine is disabled, incompatible or closed.
	ErrUnavailable = errors.New("cache: unavailable")
	// ErrInvalidConfig is returned for configuration values that can never work.
	ErrInvalidConfig = errors.New("cache: invalid config")
)
