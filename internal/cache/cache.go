package cache

import (
	"time"

	"github.com/samber/mo"
)

// Mode is a bit flag describing how a store can be shared by its host.
type Mode int

const (
	// ModeApplication means one store is shared by every request in the process.
	ModeApplication Mode = 1 << iota
	// ModeSession scopes the store to a single user session.
	ModeSession
	// ModeRequest scopes the store to a single request.
	ModeRequest
)

// KeyValue is one item of a SetMany batch.
type KeyValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Store defines the key-value operations the host caching layer calls.
//
// Batch operations are applied item by item with no rollback. A caller that
// ignores the returned booleans or counts silently loses data when part of a
// batch is rejected; checking SetMany(items) == len(items) is the caller's job.
type Store interface {
	// Has reports whether key is present and not expired.
	Has(key string) bool

	// Get returns the value and whether it was present and not expired.
	Get(key string) (any, bool)

	// GetMany returns one result per distinct key; missing keys map to mo.None.
	GetMany(keys []string) map[string]mo.Option[any]

	// Set stores the value under the default TTL. It returns false if the write was rejected.
	Set(key string, value any) bool

	// SetMany stores every item under the default TTL and returns how many were stored.
	SetMany(items []KeyValue) int

	// Delete removes key and reports whether a live entry was removed.
	Delete(key string) bool

	// DeleteMany removes every distinct key and returns how many were actually deleted.
	DeleteMany(keys []string) int

	// Purge removes every entry.
	Purge() bool
}

// KeyAware stores can answer multi-key existence questions.
type KeyAware interface {
	HasAny(keys []string) bool
	HasAll(keys []string) bool
}

// TTLCapable stores expire entries on their own.
type TTLCapable interface {
	SupportsNativeTTL() bool
	SetWithTTL(key string, value any, ttl time.Duration) bool
}

// DataGuaranteeCapable stores keep what they were given for the life of the process.
type DataGuaranteeCapable interface {
	SupportsGuaranteedPersistenceAcrossRequests() bool
}

// Readiness reports whether the backing engine can currently serve requests.
type Readiness interface {
	IsReady() bool
}

// Capabilities is the result of querying a store once at configuration time.
type Capabilities struct {
	KeyAware      bool `json:"keyAware"`
	NativeTTL     bool `json:"nativeTTL"`
	DataGuarantee bool `json:"dataGuarantee"`
	Modes         Mode `json:"modes"`
}

// CapabilitiesOf inspects s for the optional capability interfaces.
func CapabilitiesOf(s Store) Capabilities {
	var caps Capabilities
	if _, ok := s.(KeyAware); ok {
		caps.KeyAware = true
	}
	if t, ok := s.(TTLCapable); ok {
		caps.NativeTTL = t.SupportsNativeTTL()
	}
	if d, ok := s.(DataGuaranteeCapable); ok {
		caps.DataGuarantee = d.SupportsGuaranteedPersistenceAcrossRequests()
	}
	if m, ok := s.(interface{ SupportedModes() Mode }); ok {
		caps.Modes = m.SupportedModes()
	}
	return caps
}

// Definition is the host's description of what a store instance is used for.
type Definition struct {
	ID string
	// TTL overrides the store's default TTL when positive.
	TTL time.Duration
}

// Op names a mutation reported to a Notifier.
type Op string

const (
	OpSet    Op = "set"
	OpDelete Op = "delete"
	OpPurge  Op = "purge"
	OpExpire Op = "expire"
)

// Event describes a mutation of a store. Seq is assigned under the store lock
// and increases by one per mutation, so it gives the order the writes took effect.
type Event struct {
	Store string    `json:"store"`
	Op    Op        `json:"op"`
	Keys  []string  `json:"keys,omitempty"`
	Seq   uint64    `json:"seq"`
	At    time.Time `json:"at"`
}

// Notifier receives events after the mutation is visible. Implementations must not block.
// Events are delivered outside the lock, so concurrent writers may be reported out of
// order; consumers that care sort by Seq.
type Notifier interface {
	Notify(ev Event)
}

// Ensure TTLCache implements every capability at compile time.
var (
	_ Store                = (*TTLCache)(nil)
	_ KeyAware             = (*TTLCache)(nil)
	_ TTLCapable           = (*TTLCache)(nil)
	_ DataGuaranteeCapable = (*TTLCache)(nil)
	_ Readiness            = (*TTLCache)(nil)
)
