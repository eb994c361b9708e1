// Package observability provides hooks for metrics and tracing.
//
// Library packages emit events through the registered hooks; the defaults
// are no-ops. The CLI registers Prometheus-backed hooks at startup when a
// metrics textfile is configured, so library code never imports a metrics
// backend directly.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSyncHooks(&mySyncHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	rev, err := resolve(ctx, repo)
//	observability.Sync().OnResolve(ctx, repo, "api", time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Sync Hooks
// =============================================================================

// SyncHooks receives events from the catalog update pipeline.
type SyncHooks interface {
	// OnResolve records one revision resolution attempt. strategy is "api"
	// or "clone".
	OnResolve(ctx context.Context, repo, strategy string, duration time.Duration, err error)

	// OnSnapshot records a snapshot fetch. cached is true when the content
	// store already held the revision.
	OnSnapshot(ctx context.Context, repo string, cached bool, duration time.Duration, err error)

	// OnLocate records a manifest lookup. phase is "directory",
	// "frontmatter", or "" when nothing matched.
	OnLocate(ctx context.Context, repo, skill, phase string)

	// OnOutcome records the per-package result kind (updated, unchanged,
	// retained, dropped).
	OnOutcome(ctx context.Context, kind string)

	// OnPipelineFailure records a repository pipeline aborted by a
	// transport error.
	OnPipelineFailure(ctx context.Context, repo string, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSyncHooks is a no-op implementation of SyncHooks.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnResolve(context.Context, string, string, time.Duration, error) {}
func (NoopSyncHooks) OnSnapshot(context.Context, string, bool, time.Duration, error)  {}
func (NoopSyncHooks) OnLocate(context.Context, string, string, string)                {}
func (NoopSyncHooks) OnOutcome(context.Context, string)                               {}
func (NoopSyncHooks) OnPipelineFailure(context.Context, string, error)                {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	syncHooks  SyncHooks  = NoopSyncHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetSyncHooks registers custom sync hooks.
// This should be called once at application startup before any update runs.
func SetSyncHooks(h SyncHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		syncHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Sync returns the registered sync hooks.
func Sync() SyncHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return syncHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	syncHooks = NoopSyncHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
