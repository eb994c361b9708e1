package cache

// ScopedKeyer wraps a Keyer with a prefix.
//
// The snapshot index maps a revision to a path on the local disk, so a
// shared Redis index must not leak entries between machines:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "host:ci-runner-3:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// SnapshotKey generates a prefixed snapshot index key.
func (k *ScopedKeyer) SnapshotKey(repo, rev string) string {
	return k.prefix + k.inner.SnapshotKey(repo, rev)
}
