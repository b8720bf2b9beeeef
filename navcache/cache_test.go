package navcache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/waypoint/storage/memory"
)

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(t *testing.T, opts ...Option) (*Cache, *testClock, *memory.Store) {
	t.Helper()
	clock := newTestClock()
	store := memory.NewStore()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(store, opts...), clock, store
}

func TestDestinationHitMutatesAccessMetadata(t *testing.T) {
	c, clock, _ := newTestCache(t)

	c.CacheDestination("map")
	clock.Advance(time.Minute)

	require.True(t, c.IsDestinationCached("map"))
	require.True(t, c.IsDestinationCached("map"))

	dest, ok := c.Destination("map")
	require.True(t, ok)
	assert.Equal(t, 3, dest.AccessCount, "insert counts 1, each hit increments")
	assert.Equal(t, clock.Now(), dest.LastAccessed)
}

func TestDestinationMiss(t *testing.T) {
	c, _, _ := newTestCache(t)
	assert.False(t, c.IsDestinationCached("never-visited"))
}

func TestDestinationTTL(t *testing.T) {
	c, clock, _ := newTestCache(t)

	c.CacheDestination("map")

	clock.Advance(29*time.Minute + 59*time.Second)
	assert.True(t, c.IsDestinationCached("map"), "entry just inside the TTL is cached")

	c.CacheDestination("friends")
	clock.Advance(30*time.Minute + time.Second)
	assert.False(t, c.IsDestinationCached("friends"), "entry past the TTL is gone")
	assert.Equal(t, 1, c.Size(), "stale hit evicts the entry; map is still the earlier entry")
}

func TestRecacheResetsAccessCount(t *testing.T) {
	c, _, _ := newTestCache(t)

	c.CacheDestination("map")
	require.True(t, c.IsDestinationCached("map")) // count now 2
	c.CacheDestination("map")

	dest, ok := c.Destination("map")
	require.True(t, ok)
	assert.Equal(t, 1, dest.AccessCount, "re-cache overwrites, it does not accumulate")
}

func TestInsertLRUEviction(t *testing.T) {
	c, clock, _ := newTestCache(t)

	for i := 0; i < 10; i++ {
		c.CacheDestination(fmt.Sprintf("route-%d", i))
		clock.Advance(time.Second)
	}
	// route-0 has the oldest last-accessed; touch it so route-1 becomes the
	// victim when the 11th insert pushes the map past capacity.
	require.True(t, c.IsDestinationCached("route-0"))
	c.CacheDestination("route-10")

	assert.Equal(t, DefaultMaxSize, c.Size())
	assert.True(t, c.IsDestinationCached("route-0"), "recently accessed entry must survive")
	dest, ok := c.Destination("route-1")
	assert.False(t, ok, "oldest last-accessed entry should be evicted, got %+v", dest)
}

func TestSweepRemovesExpiredFromBothMaps(t *testing.T) {
	c, clock, _ := newTestCache(t)

	c.CacheDestination("old")
	c.CacheNavigationState("old", State{"source": "deeplink"})
	clock.Advance(31 * time.Minute)
	c.CacheDestination("fresh")

	c.SweepOld()

	assert.Equal(t, 1, c.Size())
	_, ok := c.CachedNavigationState("old")
	assert.False(t, ok)
	stats := c.Stats()
	assert.Equal(t, 1, stats.ValidDestinations)
	assert.Zero(t, stats.ExpiredDestinations)
	assert.Zero(t, stats.ValidStates)
}

func TestNavigationStateRoundTrip(t *testing.T) {
	c, clock, _ := newTestCache(t)

	c.CacheNavigationState("friends", State{"source": "home", "scroll": "120"})

	got, ok := c.CachedNavigationState("friends")
	require.True(t, ok)
	assert.Equal(t, State{"source": "home", "scroll": "120"}, got)

	// Returned state is a copy.
	got["scroll"] = "999"
	again, _ := c.CachedNavigationState("friends")
	assert.Equal(t, "120", again["scroll"])

	clock.Advance(31 * time.Minute)
	_, ok = c.CachedNavigationState("friends")
	assert.False(t, ok, "state snapshots share the destination TTL")
}

func TestStateOverwrite(t *testing.T) {
	c, _, _ := newTestCache(t)

	c.CacheNavigationState("map", State{"zoom": "10"})
	c.CacheNavigationState("map", State{"zoom": "14"})

	got, ok := c.CachedNavigationState("map")
	require.True(t, ok)
	assert.Equal(t, "14", got["zoom"])
}

func TestPreloadRestoresSnapshot(t *testing.T) {
	clock := newTestClock()
	store := memory.NewStore()

	c1 := New(store, WithClock(clock.Now))
	c1.CacheDestination("map")
	c1.CacheNavigationState("map", State{"zoom": "10"})
	clock.Advance(20 * time.Minute)
	c1.CacheDestination("friends")

	// A fresh cache over the same store sees what the first one persisted,
	// minus anything expired by load time.
	clock.Advance(15 * time.Minute) // "map" is now 35m old, "friends" 15m
	c2 := New(store, WithClock(clock.Now))
	c2.Preload()

	assert.True(t, c2.IsDestinationCached("friends"))
	assert.False(t, c2.IsDestinationCached("map"), "expired entries are discarded at load")
	_, ok := c2.CachedNavigationState("map")
	assert.False(t, ok)
}

func TestPreloadToleratesMissingAndCorruptSnapshots(t *testing.T) {
	store := memory.NewStore()
	c := New(store)
	c.Preload() // nothing persisted yet
	assert.Zero(t, c.Size())

	store.Put("navcache:destinations", []byte("{not json"))
	c.Preload()
	assert.Zero(t, c.Size())
}

func TestClearWipesMemoryAndStore(t *testing.T) {
	c, _, store := newTestCache(t)

	c.CacheDestination("map")
	c.CacheNavigationState("map", State{"zoom": "10"})
	c.Clear()

	assert.Zero(t, c.Size())
	_, err := store.Get("navcache:destinations")
	assert.Error(t, err)

	c2 := New(store)
	c2.Preload()
	assert.Zero(t, c2.Size())
}

func TestStats(t *testing.T) {
	c, clock, _ := newTestCache(t)

	c.CacheDestination("old")
	clock.Advance(31 * time.Minute)
	c.CacheDestination("fresh")
	c.CacheNavigationState("fresh", State{"source": "home"})

	stats := c.Stats()
	assert.Equal(t, 1, stats.ValidDestinations)
	assert.Equal(t, 1, stats.ExpiredDestinations)
	assert.Equal(t, 1, stats.ValidStates)
	assert.Zero(t, stats.ExpiredStates)
	assert.Positive(t, stats.EstimatedBytes)

	// Stats is a pure query: expired entries are reported, not removed.
	assert.Equal(t, 2, c.Size())
}
