// Package session keeps user sessions in a dedicated in-process TTL cache.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"usercache-api/internal/cache"
)

// ErrInvalidTimeout is returned by New for a negative session timeout.
var ErrInvalidTimeout = errors.New("session: invalid timeout")

// Config is passed to New.
type Config struct {
	// Enabled switches the backing engine on.
	Enabled bool
	// Timeout is how long an untouched session lives. Zero keeps sessions until destroyed.
	Timeout time.Duration
	// MaxSessions caps concurrent sessions. Zero means unbounded.
	MaxSessions int
	Clock       clock.Clock
	Notifier    cache.Notifier
	Logger      *zap.Logger
}

// Store reads and writes session payloads keyed by session id.
type Store struct {
	cache   *cache.TTLCache
	timeout time.Duration
	logger  *zap.Logger
}

// New builds a session store. It returns an error wrapping cache.ErrUnavailable
// when the backing cache cannot be used.
func New(cfg Config) (*Store, error) {
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimeout, cfg.Timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := cache.New(cache.Config{
		Name:       "sessions",
		DefaultTTL: cfg.Timeout,
		MaxEntries: cfg.MaxSessions,
		Enabled:    cfg.Enabled,
		Clock:      cfg.Clock,
		Notifier:   cfg.Notifier,
	})
	if err != nil {
		return nil, fmt.Errorf("session: backing cache: %w", err)
	}
	return &Store{
		cache:   c,
		timeout: cfg.Timeout,
		logger:  logger.Named("sessions"),
	}, nil
}

// NewID returns a fresh random session id.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// Timeout returns the configured session lifetime.
func (s *Store) Timeout() time.Duration { return s.timeout }

// Exists reports whether a live session with id sid is present.
func (s *Store) Exists(sid string) bool {
	if sid == "" || !s.cache.IsReady() {
		return false
	}
	found := false
	s.cache.Range(func(e cache.Entry) bool {
		if e.Key == sid {
			found = true
			return false
		}
		return true
	})
	return found
}

// Read returns the session payload.
func (s *Store) Read(sid string) ([]byte, bool) {
	v, ok := s.cache.Get(sid)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Write stores data for sid and restarts its timeout.
func (s *Store) Write(sid string, data []byte) bool {
	if !s.cache.Set(sid, append([]byte(nil), data...)) {
		s.logger.Warn("session write rejected", zap.String("session_id", sid))
		return false
	}
	return true
}

// Destroy removes the session and reports whether it was live.
func (s *Store) Destroy(sid string) bool {
	return s.cache.Delete(sid)
}

// GC drops expired sessions and returns how many were removed.
func (s *Store) GC() int {
	n := s.cache.PurgeExpired()
	if n > 0 {
		s.logger.Debug("expired sessions removed", zap.Int("count", n))
	}
	return n
}

// StartGC runs GC every interval until ctx is done or the store is closed.
func (s *Store) StartGC(ctx context.Context, interval time.Duration) {
	s.cache.StartJanitor(ctx, interval)
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	return s.cache.Len()
}

// Close releases the backing cache. Every session is lost.
func (s *Store) Close() {
	s.cache.Close()
}
