// Package navcache caches recently visited destinations and per-route screen
// state snapshots. Entries expire after a TTL, the destination map is bounded
// with LRU eviction, and the whole cache is persisted so it survives restarts.
package navcache

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jmcleod/waypoint/storage"
)

const (
	// DefaultTTL is how long an entry stays valid after creation.
	DefaultTTL = 30 * time.Minute
	// DefaultMaxSize bounds the destination map.
	DefaultMaxSize = 10

	destinationsKey = "navcache:destinations"
	statesKey       = "navcache:states"
)

// Destination records a successfully visited route.
type Destination struct {
	Route        string    `json:"route"`
	Timestamp    time.Time `json:"timestamp"`
	AccessCount  int       `json:"access_count"`
	LastAccessed time.Time `json:"last_accessed"`
}

// State is an opaque point-in-time snapshot of screen context, keyed by
// screen-defined names (navigation source, scroll position, and so on).
type State map[string]string

type stateEntry struct {
	Route     string    `json:"route"`
	State     State     `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// Cache is the navigation destination/state cache. It uses a write-through
// design: the in-memory maps are authoritative, and every mutation persists
// the full snapshot under the same lock so the persisted form never reflects
// a partially applied change. Persistence failures are logged, never surfaced.
type Cache struct {
	mu           sync.RWMutex
	destinations map[string]*Destination
	states       map[string]*stateEntry

	store   storage.Store
	logger  *slog.Logger
	now     func() time.Time
	ttl     time.Duration
	maxSize int
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithTTL sets the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithMaxSize sets the destination map capacity.
func WithMaxSize(n int) Option {
	return func(c *Cache) { c.maxSize = n }
}

// New creates a cache persisted to the given store. The cache starts empty;
// call Preload to restore the persisted snapshot.
func New(store storage.Store, opts ...Option) *Cache {
	c := &Cache{
		destinations: make(map[string]*Destination),
		states:       make(map[string]*stateEntry),
		store:        store,
		logger:       slog.Default(),
		now:          time.Now,
		ttl:          DefaultTTL,
		maxSize:      DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "navcache")
	return c
}

func (c *Cache) expired(created, now time.Time) bool {
	return now.Sub(created) > c.ttl
}

// CacheDestination inserts or refreshes the destination for route. A re-cache
// overwrites the entry, resetting the access count to 1 — only the hit path
// accumulates counts.
func (c *Cache) CacheDestination(route string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.destinations[route] = &Destination{
		Route:        route,
		Timestamp:    now,
		AccessCount:  1,
		LastAccessed: now,
	}
	c.evictToCapacityLocked()
	c.persistDestinationsLocked()
}

// evictToCapacityLocked drops the least-recently-accessed destinations until
// the map is back at capacity.
func (c *Cache) evictToCapacityLocked() {
	excess := len(c.destinations) - c.maxSize
	if excess <= 0 {
		return
	}
	victims := make([]*Destination, 0, len(c.destinations))
	for _, dest := range c.destinations {
		victims = append(victims, dest)
	}
	sort.Slice(victims, func(i, j int) bool {
		return victims[i].LastAccessed.Before(victims[j].LastAccessed)
	})
	for _, dest := range victims[:excess] {
		delete(c.destinations, dest.Route)
	}
}

// IsDestinationCached reports whether route has a live cache entry. A hit
// increments the access count and refreshes the last-accessed time; a stale
// hit evicts the entry. This is a mutating query, not a pure one.
func (c *Cache) IsDestinationCached(route string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	dest, ok := c.destinations[route]
	if !ok {
		return false
	}
	now := c.now()
	if c.expired(dest.Timestamp, now) {
		delete(c.destinations, route)
		c.persistDestinationsLocked()
		return false
	}
	dest.AccessCount++
	dest.LastAccessed = now
	return true
}

// Destination returns a copy of the cached entry without touching its access
// metadata. Pure query.
func (c *Cache) Destination(route string) (Destination, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dest, ok := c.destinations[route]
	if !ok || c.expired(dest.Timestamp, c.now()) {
		return Destination{}, false
	}
	return *dest, true
}

// CacheNavigationState stores a screen state snapshot for route, overwriting
// any previous snapshot.
func (c *Cache) CacheNavigationState(route string, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := make(State, len(state))
	for k, v := range state {
		cp[k] = v
	}
	c.states[route] = &stateEntry{
		Route:     route,
		State:     cp,
		Timestamp: c.now(),
	}
	c.persistStatesLocked()
}

// CachedNavigationState returns the state snapshot for route, if still valid.
// A stale snapshot is evicted.
func (c *Cache) CachedNavigationState(route string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.states[route]
	if !ok {
		return nil, false
	}
	if c.expired(entry.Timestamp, c.now()) {
		delete(c.states, route)
		c.persistStatesLocked()
		return nil, false
	}
	cp := make(State, len(entry.State))
	for k, v := range entry.State {
		cp[k] = v
	}
	return cp, true
}

// Preload restores the persisted snapshot, discarding entries already expired
// at load time. Failures are non-fatal; the cache simply starts empty.
func (c *Cache) Preload() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if data, err := c.store.Get(destinationsKey); err == nil {
		var dests map[string]*Destination
		if err := json.Unmarshal(data, &dests); err != nil {
			c.logger.Warn("discarding corrupt destination snapshot", slog.Any("error", err))
		} else {
			for route, dest := range dests {
				if !c.expired(dest.Timestamp, now) {
					c.destinations[route] = dest
				}
			}
		}
	}

	if data, err := c.store.Get(statesKey); err == nil {
		var states map[string]*stateEntry
		if err := json.Unmarshal(data, &states); err != nil {
			c.logger.Warn("discarding corrupt state snapshot", slog.Any("error", err))
		} else {
			for route, entry := range states {
				if !c.expired(entry.Timestamp, now) {
					c.states[route] = entry
				}
			}
		}
	}

	c.logger.Debug("cache preloaded",
		slog.Int("destinations", len(c.destinations)),
		slog.Int("states", len(c.states)),
	)
}

// SweepOld removes expired entries from both maps, then LRU-evicts
// destinations (oldest last-accessed first) down to capacity. The snapshot is
// persisted after any removal.
func (c *Cache) SweepOld() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := false

	for route, dest := range c.destinations {
		if c.expired(dest.Timestamp, now) {
			delete(c.destinations, route)
			removed = true
		}
	}
	for route, entry := range c.states {
		if c.expired(entry.Timestamp, now) {
			delete(c.states, route)
			removed = true
		}
	}

	if len(c.destinations) > c.maxSize {
		c.evictToCapacityLocked()
		removed = true
	}

	if removed {
		c.persistDestinationsLocked()
		c.persistStatesLocked()
	}
}

// Size returns the number of destination entries, expired or not. Pure query.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.destinations)
}

// Stats summarizes cache contents. Pure query.
type Stats struct {
	ValidDestinations   int `json:"valid_destinations"`
	ExpiredDestinations int `json:"expired_destinations"`
	ValidStates         int `json:"valid_states"`
	ExpiredStates       int `json:"expired_states"`
	EstimatedBytes      int `json:"estimated_bytes"`
}

// Stats counts valid and expired entries and estimates the in-memory
// footprint. It never mutates the cache.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	var s Stats
	for _, dest := range c.destinations {
		if c.expired(dest.Timestamp, now) {
			s.ExpiredDestinations++
		} else {
			s.ValidDestinations++
		}
		s.EstimatedBytes += len(dest.Route) + destinationOverhead
	}
	for _, entry := range c.states {
		if c.expired(entry.Timestamp, now) {
			s.ExpiredStates++
		} else {
			s.ValidStates++
		}
		s.EstimatedBytes += len(entry.Route) + stateOverhead
		for k, v := range entry.State {
			s.EstimatedBytes += len(k) + len(v)
		}
	}
	return s
}

// Rough per-entry footprints for the stats estimate.
const (
	destinationOverhead = 56
	stateOverhead       = 40
)

// Clear unconditionally wipes the in-memory maps and the persisted snapshot.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.destinations = make(map[string]*Destination)
	c.states = make(map[string]*stateEntry)
	if err := c.store.Delete(destinationsKey); err != nil {
		c.logger.Warn("clearing destination snapshot", slog.Any("error", err))
	}
	if err := c.store.Delete(statesKey); err != nil {
		c.logger.Warn("clearing state snapshot", slog.Any("error", err))
	}
}

func (c *Cache) persistDestinationsLocked() {
	data, err := json.Marshal(c.destinations)
	if err != nil {
		c.logger.Warn("marshaling destination snapshot", slog.Any("error", err))
		return
	}
	if err := c.store.Put(destinationsKey, data); err != nil {
		// In-memory map stays authoritative for the rest of the process life.
		c.logger.Warn("persisting destination snapshot", slog.Any("error", err))
	}
}

func (c *Cache) persistStatesLocked() {
	data, err := json.Marshal(c.states)
	if err != nil {
		c.logger.Warn("marshaling state snapshot", slog.Any("error", err))
		return
	}
	if err := c.store.Put(statesKey, data); err != nil {
		c.logger.Warn("persisting state snapshot", slog.Any("error", err))
	}
}
