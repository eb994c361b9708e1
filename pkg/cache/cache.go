// Package cache provides the key/value cache behind the snapshot index and
// the listing page cache.
//
// A [Cache] stores opaque byte slices with an optional TTL. Implementations:
//
//   - [FileCache]: JSON entry files under a local directory (CLI default)
//   - [RedisCache]: a shared Redis instance, for runners that reuse one
//     snapshot store across jobs
//   - [NullCache]: stores nothing
//
// Keys are produced by a [Keyer] so that every caller formats them the same
// way. [NewScopedKeyer] prefixes all keys, which the Redis snapshot index
// uses to keep machine-local store paths apart.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
// A TTL of zero means the entry does not expire.
type Cache interface {
	// Get returns the cached value and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any resources held by the cache.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// HTTPKey returns the key for a cached HTTP response in namespace.
	HTTPKey(namespace, key string) string
	// SnapshotKey returns the snapshot index key for a repository revision.
	SnapshotKey(repo, rev string) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// SnapshotKey hashes the repository and revision so that arbitrary
// identifiers produce fixed-length keys.
func (DefaultKeyer) SnapshotKey(repo, rev string) string {
	return hashKey("snapshot", repo, rev)
}
