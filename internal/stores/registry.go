// Package stores keeps the named cache instances the service exposes.
package stores

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"usercache-api/internal/cache"
	"usercache-api/internal/database"
	"usercache-api/internal/models"
)

var (
	ErrDuplicateStore = errors.New("stores: store already registered")
	ErrUnknownStore   = errors.New("stores: unknown store")
)

// Options controls how registered stores are built.
type Options struct {
	// Enabled is the engine-wide switch; a disabled engine makes every store unavailable.
	Enabled          bool
	MinEngineVersion string
	// SweepInterval is how often each store drops expired entries. Zero disables the janitor.
	SweepInterval time.Duration
	Clock         clock.Clock
	Notifier      cache.Notifier
	Logger        *zap.Logger
}

// Registry maps store names to running caches.
type Registry struct {
	opts   Options
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	stores map[string]*cache.TTLCache
}

// NewRegistry returns an empty registry.
func NewRegistry(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		opts:   opts,
		logger: logger.Named("stores"),
		ctx:    ctx,
		cancel: cancel,
		stores: make(map[string]*cache.TTLCache),
	}
}

// Register builds and starts a cache for inst.
func (r *Registry) Register(inst models.StoreInstance) (*cache.TTLCache, error) {
	logger := r.logger.With(zap.String("store", inst.Name))

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[inst.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateStore, inst.Name)
	}

	c, err := cache.New(cache.Config{
		Name:             inst.Name,
		DefaultTTL:       inst.DefaultTTL(),
		MaxEntries:       inst.MaxEntries,
		Enabled:          r.opts.Enabled && inst.Enabled,
		MinEngineVersion: r.opts.MinEngineVersion,
		Clock:            r.opts.Clock,
		Notifier:         r.opts.Notifier,
	})
	if err != nil {
		logger.Warn("store requirements not met", zap.Error(err))
		return nil, fmt.Errorf("register %s: %w", inst.Name, err)
	}
	if err := c.Initialise(cache.Definition{ID: inst.Name}); err != nil {
		c.Close()
		return nil, fmt.Errorf("register %s: %w", inst.Name, err)
	}
	c.StartJanitor(r.ctx, r.opts.SweepInterval)
	r.stores[inst.Name] = c

	caps := cache.CapabilitiesOf(c)
	logger.Info("store registered",
		zap.Duration("default_ttl", c.DefaultTTL()),
		zap.Int("max_entries", inst.MaxEntries),
		zap.Bool("key_aware", caps.KeyAware),
		zap.Bool("native_ttl", caps.NativeTTL),
		zap.Bool("data_guarantee", caps.DataGuarantee))
	return c, nil
}

// Get returns the named store.
func (r *Registry) Get(name string) (*cache.TTLCache, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.stores[name]
	return c, ok
}

// Names returns the registered store names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Remove purges and closes the named store.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	c, ok := r.stores[name]
	delete(r.stores, name)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStore, name)
	}
	c.Cleanup()
	c.Close()
	r.logger.Info("store removed", zap.String("store", name))
	return nil
}

// LoadAll registers every persisted store definition. Stores whose requirements
// are not met are skipped and logged; any other failure stops the load.
func (r *Registry) LoadAll(db *gorm.DB) (int, error) {
	instances, err := database.ListStoreInstances(db)
	if err != nil {
		return 0, fmt.Errorf("load store instances: %w", err)
	}
	loaded := 0
	for _, inst := range instances {
		if _, err := r.Register(inst); err != nil {
			if errors.Is(err, cache.ErrUnavailable) {
				continue
			}
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

// Close stops every janitor and closes every store.
func (r *Registry) Close() {
	r.cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, c := range r.stores {
		c.Close()
		delete(r.stores, name)
	}
}
