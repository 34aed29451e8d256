// Package cache provides region-scoped memoization for the expensive steps of
// the answer pipeline: language detection, translation, query expansion, and
// vector search. Each region is an independently invalidatable partition of
// the keyspace with its own hit/miss counters.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Region identifies a cache partition. The set is closed so that a mistyped
// region fails at construction instead of silently creating an empty one.
type Region string

const (
	RegionLanguageDetect Region = "language-detect"
	RegionTranslation    Region = "translation"
	RegionQueryExpansion Region = "query-expansion"
	RegionVectorSearch   Region = "vector-search"
)

// Regions returns the closed region set in stable order.
func Regions() []Region {
	return []Region{RegionLanguageDetect, RegionTranslation, RegionQueryExpansion, RegionVectorSearch}
}

// ParseRegion validates a region name.
func ParseRegion(name string) (Region, error) {
	for _, region := range Regions() {
		if string(region) == name {
			return region, nil
		}
	}
	return "", fmt.Errorf("unknown cache region: %q", name)
}

// Stats reports cumulative counters since process start or the last
// invalidation of the region.
type Stats struct {
	Enabled bool    `json:"enabled"`
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Rate    float64 `json:"hit_rate"`
}

type entry struct {
	value     any
	createdAt time.Time
}

type inflight struct {
	done  chan struct{}
	value any
	err   error
}

type regionState struct {
	enabled  bool
	entries  map[string]*entry
	inflight map[string]*inflight
	hits     int64
	misses   int64
}

// Config controls construction of a Cache.
type Config struct {
	// Disabled lists regions that pass every call straight through to the
	// compute function. Entries must belong to the closed region set.
	Disabled []Region

	// Clock allows tests to control entry timestamps.
	Clock func() time.Time

	// OnLookup, when set, observes every lookup outcome. Called outside the
	// cache lock; a waiter joining an in-flight computation counts as a hit.
	OnLookup func(region Region, hit bool)
}

// Cache memoizes computed values per (region, key). Entries persist for the
// process lifetime unless a region is explicitly invalidated; there is no
// capacity-based eviction.
type Cache struct {
	mu       sync.Mutex
	regions  map[Region]*regionState
	clock    func() time.Time
	onLookup func(region Region, hit bool)
}

// New builds a cache with every known region initialized.
func New(cfg Config) (*Cache, error) {
	regions := make(map[Region]*regionState, len(Regions()))
	for _, region := range Regions() {
		regions[region] = &regionState{
			enabled:  true,
			entries:  make(map[string]*entry),
			inflight: make(map[string]*inflight),
		}
	}
	for _, region := range cfg.Disabled {
		state, ok := regions[region]
		if !ok {
			return nil, fmt.Errorf("unknown cache region: %q", region)
		}
		state.enabled = false
	}

	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	return &Cache{regions: regions, clock: clock, onLookup: cfg.OnLookup}, nil
}

// GetOrCompute returns the memoized value for (region, key) or invokes fn and
// stores its result. Concurrent callers racing on the same key share a single
// fn invocation: the first caller claims the key in-flight and computes
// outside the lock, the rest wait for the outcome. A failed fn stores nothing
// and its error propagates unchanged; waiters on a failed claim observe the
// same error.
func (c *Cache) GetOrCompute(ctx context.Context, region Region, key string, fn func(context.Context) (any, error)) (any, error) {
	if fn == nil {
		return nil, fmt.Errorf("compute function is required")
	}

	c.mu.Lock()
	state, ok := c.regions[region]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("unknown cache region: %q", region)
	}

	if !state.enabled {
		state.misses++
		c.mu.Unlock()
		c.observe(region, false)
		return fn(ctx)
	}

	if cached, ok := state.entries[key]; ok {
		state.hits++
		c.mu.Unlock()
		c.observe(region, true)
		return cached.value, nil
	}

	if claim, ok := state.inflight[key]; ok {
		state.hits++
		c.mu.Unlock()
		c.observe(region, true)
		select {
		case <-claim.done:
			return claim.value, claim.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	claim := &inflight{done: make(chan struct{})}
	state.inflight[key] = claim
	state.misses++
	c.mu.Unlock()
	c.observe(region, false)

	value, err := fn(ctx)

	c.mu.Lock()
	delete(state.inflight, key)
	if err == nil {
		state.entries[key] = &entry{value: value, createdAt: c.clock()}
	}
	c.mu.Unlock()

	claim.value = value
	claim.err = err
	close(claim.done)

	return value, err
}

// Invalidate drops all entries and resets the counters for one region. Other
// regions are untouched.
func (c *Cache) Invalidate(region Region) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.regions[region]
	if !ok {
		return fmt.Errorf("unknown cache region: %q", region)
	}
	state.entries = make(map[string]*entry)
	state.hits = 0
	state.misses = 0
	return nil
}

// InvalidateAll clears every region.
func (c *Cache) InvalidateAll() {
	for _, region := range Regions() {
		_ = c.Invalidate(region)
	}
}

// Stats returns the counters for one region.
func (c *Cache) Stats(region Region) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.regions[region]
	if !ok {
		return Stats{}, fmt.Errorf("unknown cache region: %q", region)
	}
	return statsOf(state), nil
}

// AllStats returns counters for every region keyed by region name.
func (c *Cache) AllStats() map[Region]Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[Region]Stats, len(c.regions))
	for region, state := range c.regions {
		result[region] = statsOf(state)
	}
	return result
}

// Len reports the number of stored entries in a region.
func (c *Cache) Len(region Region) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.regions[region]
	if !ok {
		return 0
	}
	return len(state.entries)
}

func (c *Cache) observe(region Region, hit bool) {
	if c.onLookup != nil {
		c.onLookup(region, hit)
	}
}

func statsOf(state *regionState) Stats {
	stats := Stats{
		Enabled: state.enabled,
		Entries: len(state.entries),
		Hits:    state.hits,
		Misses:  state.misses,
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.Rate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// GetOrCompute is the typed wrapper used by call sites so values come back
// without manual assertions.
func GetOrCompute[T any](ctx context.Context, c *Cache, region Region, key string, fn func(context.Context) (T, error)) (T, error) {
	value, err := c.GetOrCompute(ctx, region, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache region %s holds %T for key, not the requested type", region, value)
	}
	return typed, nil
}
