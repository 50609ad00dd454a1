package openweather

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	"github.com/couchcryptid/agri-advisory-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedSource wraps a WeatherSource with an in-memory LRU cache whose
// entries expire after a fixed TTL.
type CachedSource struct {
	inner   domain.WeatherSource
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a weather source.
func NewCachedSource(inner domain.WeatherSource, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

func (c *CachedSource) CurrentWeather(ctx context.Context, location string) (domain.WeatherAdvisory, error) {
	key := cacheKey(location)
	now := c.clock.Now()
	if w, ok := c.cache.get(key, now); ok {
		c.metrics.WeatherCache.WithLabelValues("hit").Inc()
		return w, nil
	}
	c.metrics.WeatherCache.WithLabelValues("miss").Inc()

	w, err := c.inner.CurrentWeather(ctx, location)
	if err != nil {
		return w, err
	}
	// Only cache values that will be served, so a bad reading is retried.
	if domain.ValidateWeather(w) == nil {
		c.cache.put(key, w, now.Add(c.ttl))
	}
	return w, nil
}

func cacheKey(location string) string {
	return strings.Join(strings.Fields(strings.ToLower(location)), " ")
}

// lruCache is a thread-safe LRU cache of weather readings with per-entry expiry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   domain.WeatherAdvisory
	expires time.Time
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string, now time.Time) (domain.WeatherAdvisory, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.WeatherAdvisory{}, false
	}
	if !now.Before(e.expires) {
		delete(c.entries, key)
		c.remove(e)
		return domain.WeatherAdvisory{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.WeatherAdvisory, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
