// Package cache stores computed partition function tables so repeated runs
// over the same input skip the fill.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: JSON entries under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer] so callers can namespace them with [ScopedKeyer].
package cache

import (
	"context"
	"time"
)

// TTLEnsemble is how long computed tables stay cached. Tables depend only on
// their key, so expiry merely bounds disk and memory use.
const TTLEnsemble = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is reported as ok == false with
	// a nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// EnsembleKey identifies the tables of a compound. compoundKey is the
	// value of fold.Compound.Key.
	EnsembleKey(kind, compoundKey string) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// EnsembleKey returns "ensemble:<sha256>".
func (DefaultKeyer) EnsembleKey(kind, compoundKey string) string {
	return hashKey("ensemble", kind, compoundKey)
}
