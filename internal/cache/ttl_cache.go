package cache

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/mo"
	"go.uber.org/atomic"
)

// Entry is a cached value with its timestamps.
type Entry struct {
	Key       string
	Value     any
	ExpiresAt time.Time // zero means no expiration
	CreatedAt time.Time
	LastSetAt time.Time
}

func (e Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Stats is a point-in-time copy of the cache counters.
type Stats struct {
	Entries  int   `json:"entries"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Sets     int64 `json:"sets"`
	Rejected int64 `json:"rejected"`
	Deletes  int64 `json:"deletes"`
	Expired  int64 `json:"expired"`
}

type counters struct {
	hits     atomic.Int64
	misses   atomic.Int64
	sets     atomic.Int64
	rejected atomic.Int64
	deletes  atomic.Int64
	expired  atomic.Int64
}

// TTLCache is a map-backed store with per-entry TTL and a single coarse lock.
// Expired entries are hidden from readers immediately and physically removed
// by PurgeExpired, by the janitor, or when a write needs the room.
type TTLCache struct {
	name  string
	clock clock.Clock

	mu         sync.RWMutex
	items      map[string]Entry
	defaultTTL time.Duration
	maxEntries int
	definition *Definition
	notifier   Notifier
	seq        uint64
	stats      counters
	closed     atomic.Bool
	done       chan struct{}
	closeOnce  sync.Once
}

// New builds a TTLCache, failing with ErrUnavailable if the engine cannot be used.
func New(cfg Config) (*TTLCache, error) {
	if err := RequirementsMet(cfg); err != nil {
		return nil, err
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &TTLCache{
		name:       cfg.Name,
		clock:      clk,
		items:      make(map[string]Entry),
		defaultTTL: cfg.DefaultTTL,
		maxEntries: cfg.MaxEntries,
		notifier:   cfg.Notifier,
		done:       make(chan struct{}),
	}, nil
}

// Name returns the store instance name.
func (c *TTLCache) Name() string { return c.name }

// Initialise binds the cache to a definition. A positive Definition.TTL replaces the default TTL.
func (c *TTLCache) Initialise(def Definition) error {
	if c.closed.Load() {
		return ErrUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.definition = &def
	if def.TTL > 0 {
		c.defaultTTL = def.TTL
	}
	return nil
}

// IsInitialised reports whether Initialise has been called.
func (c *TTLCache) IsInitialised() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.definition != nil
}

// DefaultTTL returns the TTL used by Set and SetMany.
func (c *TTLCache) DefaultTTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultTTL
}

func (c *TTLCache) IsReady() bool { return !c.closed.Load() }

func (c *TTLCache) SupportsNativeTTL() bool { return true }

func (c *TTLCache) SupportsGuaranteedPersistenceAcrossRequests() bool { return true }

func (c *TTLCache) SupportedModes() Mode { return ModeApplication }

// Has implements Store.Has.
func (c *TTLCache) Has(key string) bool {
	if c.closed.Load() {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	return ok && !e.expired(c.clock.Now())
}

// HasAny implements KeyAware.HasAny. It stops at the first live key.
func (c *TTLCache) HasAny(keys []string) bool {
	for _, k := range keys {
		if c.Has(k) {
			return true
		}
	}
	return false
}

// HasAll implements KeyAware.HasAll. It stops at the first missing key.
func (c *TTLCache) HasAll(keys []string) bool {
	for _, k := range keys {
		if !c.Has(k) {
			return false
		}
	}
	return true
}

// Get implements Store.Get.
func (c *TTLCache) Get(key string) (any, bool) {
	v, err := c.Lookup(key)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Lookup is Get with the reason for a miss: ErrNotFound or ErrUnavailable.
func (c *TTLCache) Lookup(key string) (any, error) {
	if c.closed.Load() {
		return nil, ErrUnavailable
	}
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || e.expired(c.clock.Now()) {
		c.stats.misses.Inc()
		return nil, ErrNotFound
	}
	c.stats.hits.Inc()
	return e.Value, nil
}

// GetMany implements Store.GetMany.
func (c *TTLCache) GetMany(keys []string) map[string]mo.Option[any] {
	out := make(map[string]mo.Option[any], len(keys))
	for _, k := range keys {
		if _, seen := out[k]; seen {
			continue
		}
		if v, ok := c.Get(k); ok {
			out[k] = mo.Some(v)
		} else {
			out[k] = mo.None[any]()
		}
	}
	return out
}

// Set implements Store.Set using the default TTL.
func (c *TTLCache) Set(key string, value any) bool {
	return c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value for ttl. A ttl <= 0 falls back to the default TTL;
// when that is zero too the entry never expires.
func (c *TTLCache) SetWithTTL(key string, value any, ttl time.Duration) bool {
	if c.closed.Load() {
		return false
	}
	if key == "" {
		c.stats.rejected.Inc()
		return false
	}

	c.mu.Lock()
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	ok := c.setLocked(key, value, ttl)
	var ev Event
	if ok {
		ev = c.eventLocked(OpSet, key)
	}
	c.mu.Unlock()

	if !ok {
		c.stats.rejected.Inc()
		return false
	}
	c.stats.sets.Inc()
	c.notify(ev)
	return true
}

func (c *TTLCache) setLocked(key string, value any, ttl time.Duration) bool {
	now := c.clock.Now()
	prev, exists := c.items[key]
	if exists && prev.expired(now) {
		delete(c.items, key)
		c.stats.expired.Inc()
		exists = false
	}
	if !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.purgeExpiredLocked(now)
		if len(c.items) >= c.maxEntries {
			return false
		}
	}

	e := Entry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		LastSetAt: now,
	}
	if exists {
		e.CreatedAt = prev.CreatedAt
	}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	c.items[key] = e
	return true
}

// SetMany implements Store.SetMany. Every item gets the default TTL.
func (c *TTLCache) SetMany(items []KeyValue) int {
	stored := 0
	for _, it := range items {
		if c.Set(it.Key, it.Value) {
			stored++
		}
	}
	return stored
}

// Delete implements Store.Delete.
func (c *TTLCache) Delete(key string) bool {
	if c.closed.Load() {
		return false
	}
	c.mu.Lock()
	e, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.items, key)
	if e.expired(c.clock.Now()) {
		c.mu.Unlock()
		c.stats.expired.Inc()
		return false
	}
	ev := c.eventLocked(OpDelete, key)
	c.mu.Unlock()

	c.stats.deletes.Inc()
	c.notify(ev)
	return true
}

// DeleteMany implements Store.DeleteMany. Repeated keys are deleted once.
func (c *TTLCache) DeleteMany(keys []string) int {
	seen := make(map[string]struct{}, len(keys))
	deleted := 0
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if c.Delete(k) {
			deleted++
		}
	}
	return deleted
}

// Purge implements Store.Purge.
func (c *TTLCache) Purge() bool {
	if c.closed.Load() {
		return false
	}
	c.mu.Lock()
	c.items = make(map[string]Entry)
	ev := c.eventLocked(OpPurge)
	c.mu.Unlock()
	c.notify(ev)
	return true
}

// Cleanup is called when the store instance is being removed.
func (c *TTLCache) Cleanup() {
	c.Purge()
}

// PurgeExpired removes expired entries and returns how many were removed.
func (c *TTLCache) PurgeExpired() int {
	if c.closed.Load() {
		return 0
	}
	c.mu.Lock()
	removed := c.purgeExpiredLocked(c.clock.Now())
	var ev Event
	if len(removed) > 0 {
		ev = c.eventLocked(OpExpire, removed...)
	}
	c.mu.Unlock()
	if len(removed) > 0 {
		c.notify(ev)
	}
	return len(removed)
}

func (c *TTLCache) purgeExpiredLocked(now time.Time) []string {
	var removed []string
	for k, e := range c.items {
		if e.expired(now) {
			delete(c.items, k)
			removed = append(removed, k)
		}
	}
	c.stats.expired.Add(int64(len(removed)))
	return removed
}

// Len returns the number of live entries.
func (c *TTLCache) Len() int {
	if c.closed.Load() {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.clock.Now()
	n := 0
	for _, e := range c.items {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// Range calls fn for a snapshot of the live entries until fn returns false.
// The lock is not held while fn runs.
func (c *TTLCache) Range(fn func(Entry) bool) {
	if c.closed.Load() {
		return
	}
	c.mu.RLock()
	now := c.clock.Now()
	snapshot := make([]Entry, 0, len(c.items))
	for _, e := range c.items {
		if !e.expired(now) {
			snapshot = append(snapshot, e)
		}
	}
	c.mu.RUnlock()

	for _, e := range snapshot {
		if !fn(e) {
			return
		}
	}
}

// Stats returns the current counters.
func (c *TTLCache) Stats() Stats {
	return Stats{
		Entries:  c.Len(),
		Hits:     c.stats.hits.Load(),
		Misses:   c.stats.misses.Load(),
		Sets:     c.stats.sets.Load(),
		Rejected: c.stats.rejected.Load(),
		Deletes:  c.stats.deletes.Load(),
		Expired:  c.stats.expired.Load(),
	}
}

// StartJanitor sweeps expired entries every interval until ctx is done or the cache is closed.
func (c *TTLCache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || c.closed.Load() {
		return
	}
	ticker := c.clock.Ticker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.done:
				return
			case <-ticker.C:
				c.PurgeExpired()
			}
		}
	}()
}

// Close makes the cache unavailable and drops its entries. It is safe to call more than once.
func (c *TTLCache) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		c.mu.Lock()
		c.items = make(map[string]Entry)
		c.mu.Unlock()
	})
}

// eventLocked stamps a mutation with the next sequence number. Callers hold mu for writing.
func (c *TTLCache) eventLocked(op Op, keys ...string) Event {
	c.seq++
	return Event{
		Store: c.name,
		Op:    op,
		Keys:  keys,
		Seq:   c.seq,
		At:    c.clock.Now(),
	}
}

func (c *TTLCache) notify(ev Event) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(ev)
}
