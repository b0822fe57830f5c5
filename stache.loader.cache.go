package stache

import (
	"context"
	"sync"
	"time"
)

// CachedLoader wraps any TemplateLoader with in-memory caching.
// It caches Load results with configurable TTL and size limits. When the wrapped
// loader is a TemplateStore, writes pass through and invalidate the cached entry.
type CachedLoader struct {
	loader TemplateLoader
	config CacheConfig

	mu     sync.Mutex
	cache  map[string]*cacheEntry
	closed bool
}

// CacheConfig configures the caching behavior.
type CacheConfig struct {
	// TTL is how long cached entries remain valid.
	// Default: 5 minutes.
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries is the maximum number of cached templates.
	// When exceeded, the least recently accessed entry is evicted.
	// Default: 1000.
	MaxEntries int `yaml:"max_entries"`

	// NegativeCacheTTL is how long to cache "not found" results.
	// Set to 0 to disable negative caching.
	// Default: 30 seconds.
	NegativeCacheTTL time.Duration `yaml:"negative_ttl"`
}

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:              DefaultCacheTTL,
		MaxEntries:       DefaultCacheMaxEntries,
		NegativeCacheTTL: DefaultNegativeCacheTTL,
	}
}

// cacheEntry represents a cached template source.
type cacheEntry struct {
	source     string
	notFound   bool
	cachedAt   time.Time
	accessedAt time.Time
	key        string
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries         int
	ValidEntries    int
	NegativeEntries int
}

// NewCachedLoader wraps a loader with caching.
func NewCachedLoader(loader TemplateLoader, config CacheConfig) *CachedLoader {
	if config.TTL == 0 {
		config.TTL = DefaultCacheTTL
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = DefaultCacheMaxEntries
	}

	return &CachedLoader{
		loader: loader,
		config: config,
		cache:  make(map[string]*cacheEntry),
	}
}

// Load retrieves a template's source, using the cache when available.
func (c *CachedLoader) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return StringValueEmpty, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return StringValueEmpty, NewLoaderClosedError()
	}
	entry, ok := c.cache[name]
	if ok && c.isValid(entry) {
		entry.accessedAt = time.Now()
		source, notFound := entry.source, entry.notFound
		c.mu.Unlock()

		if notFound {
			return StringValueEmpty, NewLoaderNotFoundError(name)
		}
		return source, nil
	}
	c.mu.Unlock()

	// Cache miss
	source, err := c.loader.Load(ctx, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return StringValueEmpty, NewLoaderClosedError()
	}

	if err != nil {
		if IsNotFound(err) && c.config.NegativeCacheTTL > 0 {
			c.addEntry(name, StringValueEmpty, true)
		}
		return StringValueEmpty, err
	}

	c.addEntry(name, source, false)
	return source, nil
}

// Save writes through to the wrapped store and invalidates the cached entry.
func (c *CachedLoader) Save(ctx context.Context, name, source string) error {
	store, err := c.store()
	if err != nil {
		return err
	}
	if err := store.Save(ctx, name, source); err != nil {
		return err
	}
	c.Invalidate(name)
	return nil
}

// Delete removes through the wrapped store and invalidates the cached entry.
func (c *CachedLoader) Delete(ctx context.Context, name string) error {
	store, err := c.store()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, name); err != nil {
		return err
	}
	c.Invalidate(name)
	return nil
}

// List is not cached.
func (c *CachedLoader) List(ctx context.Context) ([]string, error) {
	store, err := c.store()
	if err != nil {
		return nil, err
	}
	return store.List(ctx)
}

// Exists answers from a valid cache entry when there is one.
func (c *CachedLoader) Exists(ctx context.Context, name string) (bool, error) {
	c.mu.Lock()
	if entry, ok := c.cache[name]; ok && c.isValid(entry) {
		found := !entry.notFound
		c.mu.Unlock()
		return found, nil
	}
	c.mu.Unlock()

	store, err := c.store()
	if err != nil {
		return false, err
	}
	return store.Exists(ctx, name)
}

// Close clears the cache and closes the wrapped loader when it is a TemplateStore.
func (c *CachedLoader) Close() error {
	c.mu.Lock()
	c.closed = true
	c.cache = nil
	c.mu.Unlock()

	if store, ok := c.loader.(TemplateStore); ok {
		return store.Close()
	}
	return nil
}

// Watch invalidates changed entries before forwarding them to onChange.
// It implements WatchableLoader when the wrapped loader does.
func (c *CachedLoader) Watch(ctx context.Context, onChange func(name string)) error {
	watchable, ok := c.loader.(WatchableLoader)
	if !ok {
		return &LoaderError{Message: ErrMsgWatchUnsupported}
	}
	return watchable.Watch(ctx, func(name string) {
		c.Invalidate(name)
		onChange(name)
	})
}

// Invalidate removes a template from the cache.
func (c *CachedLoader) Invalidate(name string) {
	c.mu.Lock()
	delete(c.cache, name)
	c.mu.Unlock()
}

// InvalidateAll clears the entire cache.
func (c *CachedLoader) InvalidateAll() {
	c.mu.Lock()
	c.cache = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Stats returns cache statistics.
func (c *CachedLoader) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var validCount, negativeCount int
	for _, entry := range c.cache {
		if c.isValid(entry) {
			if entry.notFound {
				negativeCount++
			} else {
				validCount++
			}
		}
	}

	return CacheStats{
		Entries:         len(c.cache),
		ValidEntries:    validCount,
		NegativeEntries: negativeCount,
	}
}

func (c *CachedLoader) store() (TemplateStore, error) {
	store, ok := c.loader.(TemplateStore)
	if !ok {
		return nil, &LoaderError{Message: ErrMsgReadOnlyLoader}
	}
	return store, nil
}

// isValid checks if a cache entry is still valid.
func (c *CachedLoader) isValid(entry *cacheEntry) bool {
	ttl := c.config.TTL
	if entry.notFound {
		ttl = c.config.NegativeCacheTTL
	}
	return time.Since(entry.cachedAt) < ttl
}

// addEntry adds an entry to the cache, evicting if necessary.
// Caller must hold the lock.
func (c *CachedLoader) addEntry(name, source string, notFound bool) {
	if _, exists := c.cache[name]; !exists && len(c.cache) >= c.config.MaxEntries {
		c.evictOldest()
	}

	now := time.Now()
	c.cache[name] = &cacheEntry{
		source:     source,
		notFound:   notFound,
		cachedAt:   now,
		accessedAt: now,
		key:        name,
	}
}

// evictOldest removes the least recently accessed entry.
// Caller must hold the lock.
func (c *CachedLoader) evictOldest() {
	var oldest *cacheEntry
	for _, entry := range c.cache {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldest = entry
		}
	}

	if oldest != nil {
		delete(c.cache, oldest.key)
	}
}
