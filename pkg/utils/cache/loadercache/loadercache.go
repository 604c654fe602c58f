package loadercache

import (
	"context"
	"sync"
	"time"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/utils/cache"
)

type (
	Option[K comparable, V any] func(*config[K, V])
	item[T any]                 struct {
		data    T
		expires time.Time
	}
	LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (*V, error)
	config[K comparable, V any]     struct {
		expiration time.Duration
		maxItems   int
		loader     LoaderFunc[K, V]
		now        func() time.Time
		l          *log.Logger
	}
	loaderCache[K comparable, V any] struct {
		mutex  sync.Mutex
		items  map[K]item[*V]
		config *config[K, V]
	}
)

func WithExpiration[K comparable, V any](expiration time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.expiration = expiration
	}
}

// WithMaxItems limits the number of cached entries. Expired entries are
// dropped first, then the oldest ones.
func WithMaxItems[K comparable, V any](n int) Option[K, V] {
	return func(c *config[K, V]) {
		c.maxItems = n
	}
}

func WithLoader[K comparable, V any](lf LoaderFunc[K, V]) Option[K, V] {
	return func(c *config[K, V]) {
		c.loader = lf
	}
}

func WithLogger[K comparable, V any](arg *log.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		c.l = arg
	}
}

func withClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *config[K, V]) {
		c.now = now
	}
}

func New[K comparable, V any](opts ...Option[K, V]) cache.Cache[K, V] {
	c := &config[K, V]{
		expiration: 5 * time.Minute,
		maxItems:   1000,
		now:        time.Now,
		l:          log.Default().Named("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return &loaderCache[K, V]{
		items:  make(map[K]item[*V]),
		config: c,
	}
}

func (c *loaderCache[K, V]) Get(ctx context.Context, key K) (*V, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if cacheItem, ok := c.items[key]; ok {
		if cacheItem.expires.Before(c.config.now()) {
			delete(c.items, key)
			return c.load(ctx, key)
		}
		return cacheItem.data, nil
	}
	return c.load(ctx, key)
}

func (c *loaderCache[K, V]) load(ctx context.Context, key K) (*V, error) {
	if c.config.loader == nil {
		return nil, cache.ErrCacheMiss
	}
	v, err := c.config.loader(ctx, key)
	c.config.l.Debug("loaderCache.load", log.Any("key", key))
	if err != nil {
		c.config.l.Debug("error loading entry", log.ErrorField(err))
		return nil, err
	}
	c.evict()
	c.items[key] = item[*V]{data: v, expires: c.config.now().Add(c.config.expiration)}
	return v, nil
}

// evict makes room for one more item. mutex must be held.
func (c *loaderCache[K, V]) evict() {
	if c.config.maxItems <= 0 || len(c.items) < c.config.maxItems {
		return
	}
	now := c.config.now()
	var oldestKey K
	var oldest time.Time
	first := true
	for k, v := range c.items {
		if v.expires.Before(now) {
			delete(c.items, k)
			continue
		}
		if first || v.expires.Before(oldest) {
			oldestKey, oldest, first = k, v.expires, false
		}
	}
	if len(c.items) >= c.config.maxItems && !first {
		delete(c.items, oldestKey)
	}
}

func (c *loaderCache[K, V]) Invalidate(ctx context.Context, key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
	c.config.l.Debug("Invalidate",
		log.Any("key", key),
		log.Int("remain items", len(c.items)))
}

func (c *loaderCache[K, V]) InvalidateAll(ctx context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.config.l.Debug("InvalidateAll", log.Int("items", len(c.items)))
	clear(c.items)
}
