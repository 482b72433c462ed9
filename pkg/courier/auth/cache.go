package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ordermesh/courier/pkg/courier"
	"golang.org/x/sync/singleflight"
)

// DefaultMargin is how long before actual expiry a token is treated as
// stale and refreshed.
const DefaultMargin = 60 * time.Second

// Cache hands out valid provider tokens, refreshing them transparently
// before expiry. Refreshes are single-flight per provider: concurrent
// callers hitting the same expired provider share one authentication
// exchange and observe the same refreshed token. Providers never block each
// other.
type Cache struct {
	mu       sync.RWMutex
	sources  map[string]TokenSource
	store    TokenStore
	margin   time.Duration
	group    singleflight.Group
	now      func() time.Time
	observer func(provider string, err error)
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithStore replaces the default in-memory token store.
func WithStore(store TokenStore) CacheOption {
	return func(c *Cache) { c.store = store }
}

// WithMargin overrides the refresh safety margin.
func WithMargin(margin time.Duration) CacheOption {
	return func(c *Cache) { c.margin = margin }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithObserver registers a callback invoked after every authentication
// exchange with its outcome, so callers can count refreshes.
func WithObserver(fn func(provider string, err error)) CacheOption {
	return func(c *Cache) { c.observer = fn }
}

// NewCache creates an empty credential cache. Adapters register their token
// sources with Register during wiring.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		sources: make(map[string]TokenSource),
		store:   NewMemoryStore(),
		margin:  DefaultMargin,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a token source for its provider, replacing any previous one.
func (c *Cache) Register(s TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[s.Provider()] = s
}

// Token returns a valid access token for the provider, performing the
// authentication exchange if no fresh token is cached. A failed exchange is
// not retried here; it surfaces as an auth error and the caller may retry
// with backoff.
func (c *Cache) Token(ctx context.Context, provider string) (string, error) {
	c.mu.RLock()
	source, ok := c.sources[provider]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", courier.ErrProviderNotFound, provider)
	}

	if cred, ok, err := c.store.Get(ctx, provider); err == nil && ok && cred.Fresh(c.now(), c.margin) {
		return cred.Token, nil
	}

	// Single-flight per provider: one exchange runs, concurrent callers
	// wait for its result. Keys are provider names, so a slow refresh for
	// one provider never stalls another.
	v, err, _ := c.group.Do(provider, func() (any, error) {
		// Re-check under the flight: another caller may have just
		// completed the refresh.
		if cred, ok, err := c.store.Get(ctx, provider); err == nil && ok && cred.Fresh(c.now(), c.margin) {
			return cred.Token, nil
		}

		cred, err := source.Authenticate(ctx)
		if c.observer != nil {
			c.observer(provider, err)
		}
		if err != nil {
			return "", err
		}
		cred.Provider = provider
		if err := c.store.Put(ctx, cred); err != nil {
			return "", err
		}
		return cred.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token for a provider, forcing the next Token
// call to re-authenticate. Used when a provider rejects a token that the
// cache still considered fresh.
func (c *Cache) Invalidate(ctx context.Context, provider string) error {
	return c.store.Delete(ctx, provider)
}
