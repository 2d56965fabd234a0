// Package fallback provides a TTL-bounded cache of last known good values,
// used to serve degraded responses when a protected call fails.
//
// Values are written on every successful call and read only on failure.
// An entry older than the configured TTL is treated as absent; the cache
// is LRU-bounded so a large key space cannot grow it without limit.
package fallback

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"finsight/internal/resilience"
	"finsight/pkg/config"
)

// Config holds fallback cache tuning parameters.
type Config struct {
	// Enabled turns fallback serving on. When false the guard propagates
	// failures instead of degrading.
	Enabled bool

	// TTL is how long a stored value may be served after a failure.
	TTL time.Duration

	// MaxEntries bounds the cache size; least recently used entries are
	// evicted first.
	MaxEntries int

	// Clock is the time source. Defaults to the system clock.
	Clock resilience.Clock
}

// DefaultConfig returns defaults suitable for slowly changing reference
// data such as stock quotes.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		TTL:        10 * time.Minute,
		MaxEntries: 1024,
	}
}

// LoadConfig builds a Config from environment variables, falling back to
// DefaultConfig values:
//   - FALLBACK_ENABLED: serve cached/default values on failure
//   - FALLBACK_CACHE_TTL: servable age of a cached value (e.g. "10m")
//   - FALLBACK_MAX_ENTRIES: LRU capacity
func LoadConfig() Config {
	def := DefaultConfig()
	return Config{
		Enabled:    config.GetEnvBool("FALLBACK_ENABLED", def.Enabled),
		TTL:        config.GetEnvDuration("FALLBACK_CACHE_TTL", def.TTL),
		MaxEntries: config.GetEnvInt("FALLBACK_MAX_ENTRIES", def.MaxEntries),
	}
}

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Cache is a concurrency-safe LRU cache of last known good values with a
// read-side TTL check.
type Cache[T any] struct {
	cfg   Config
	clock resilience.Clock
	lru   *lru.Cache[string, entry[T]]
}

// New creates a cache with the given configuration.
func New[T any](cfg Config) (*Cache[T], error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	clock := cfg.Clock
	if clock == nil {
		clock = &resilience.SystemClock{}
	}

	inner, err := lru.New[string, entry[T]](cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("create fallback cache: %w", err)
	}
	return &Cache[T]{cfg: cfg, clock: clock, lru: inner}, nil
}

// Store saves a value under key, overwriting any prior entry.
func (c *Cache[T]) Store(key string, value T) {
	c.lru.Add(key, entry[T]{value: value, storedAt: c.clock.Now()})
}

// Get returns the value stored under key if it is younger than the TTL.
// Stale entries are removed and reported as absent.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	e, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if c.clock.Now().Sub(e.storedAt) >= c.cfg.TTL {
		c.lru.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Len returns the number of entries currently held, stale ones included.
func (c *Cache[T]) Len() int {
	return c.lru.Len()
}

// Purge removes all entries.
func (c *Cache[T]) Purge() {
	c.lru.Purge()
}
