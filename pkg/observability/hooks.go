// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about folding, sampling, cache operations and HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, which avoids import cycles
// and keeps the library free of any particular metrics backend. The HTTP
// server registers Prometheus-backed hooks.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSamplingHooks(&mySamplingHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	ens, err := compound.PF()
//	observability.Fold().OnFoldComplete(ctx, kind, n, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Fold Hooks
// =============================================================================

// FoldHooks receives events from partition function computation.
type FoldHooks interface {
	OnFoldStart(ctx context.Context, kind string, length int)
	OnFoldComplete(ctx context.Context, kind string, length int, duration time.Duration, err error)
}

// =============================================================================
// Sampling Hooks
// =============================================================================

// SamplingHooks receives events from sampling sessions.
type SamplingHooks interface {
	// OnDraw records one engine walk. ok is false when the walk failed
	// because the remaining ensemble was exhausted.
	OnDraw(ctx context.Context, kind string, nonRedundant, ok bool, duration time.Duration)

	// OnExhausted records a non-redundant session running out of structures.
	OnExhausted(ctx context.Context, kind string, emitted int)

	// OnTrackerSize records the redundancy tracker node count after a commit.
	OnTrackerSize(ctx context.Context, nodes int)
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

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records a completed request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopFoldHooks is a no-op implementation of FoldHooks.
type NoopFoldHooks struct{}

func (NoopFoldHooks) OnFoldStart(context.Context, string, int)                          {}
func (NoopFoldHooks) OnFoldComplete(context.Context, string, int, time.Duration, error) {}

// NoopSamplingHooks is a no-op implementation of SamplingHooks.
type NoopSamplingHooks struct{}

func (NoopSamplingHooks) OnDraw(context.Context, string, bool, bool, time.Duration) {}
func (NoopSamplingHooks) OnExhausted(context.Context, string, int)                  {}
func (NoopSamplingHooks) OnTrackerSize(context.Context, int)                        {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	foldHooks     FoldHooks     = NoopFoldHooks{}
	samplingHooks SamplingHooks = NoopSamplingHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetFoldHooks registers custom fold hooks.
func SetFoldHooks(h FoldHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		foldHooks = h
	}
}

// SetSamplingHooks registers custom sampling hooks.
// This should be called once at application startup before any sessions run.
func SetSamplingHooks(h SamplingHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		samplingHooks = h
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
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Fold returns the registered fold hooks.
func Fold() FoldHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return foldHooks
}

// Sampling returns the registered sampling hooks.
func Sampling() SamplingHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return samplingHooks
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
	foldHooks = NoopFoldHooks{}
	samplingHooks = NoopSamplingHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
