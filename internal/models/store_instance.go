package models

import (
	"math"
	"time"
)

// MaxTTLSeconds is the largest TTL in seconds that still fits in a time.Duration.
const MaxTTLSeconds = math.MaxInt64 / int64(time.Second)

// StoreInstance is the persisted definition of a named cache store.
// Only the definition is stored; cached entries never leave memory.
type StoreInstance struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Name              string    `json:"name" gorm:"uniqueIndex;not null"`
	DefaultTTLSeconds int64     `json:"defaultTtlSeconds"`
	MaxEntries        int       `json:"maxEntries"`
	Enabled           bool      `json:"enabled"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// TableName specifies the table name for StoreInstance Model
func (StoreInstance) TableName() string {
	return "store_instances"
}

// DefaultTTL returns DefaultTTLSeconds as a duration, capped at MaxTTLSeconds.
func (s StoreInstance) DefaultTTL() time.Duration {
	if s.DefaultTTLSeconds > MaxTTLSeconds {
		return time.Duration(MaxTTLSeconds) * time.Second
	}
	return time.Duration(s.DefaultTTLSeconds) * time.Second
}
