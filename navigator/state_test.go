package navigator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateAdvanceAndBack(t *testing.T) {
	s := NewState("home")

	assert.Equal(t, "home", s.Current())
	assert.False(t, s.CanNavigateBack())

	s.appendHistory(Transition{From: "home", To: "map", At: time.Now()})
	s.advance("map")
	s.appendHistory(Transition{From: "map", To: "friends", At: time.Now()})
	s.advance("friends")

	assert.Equal(t, "friends", s.Current())
	assert.Equal(t, "map", s.Previous())
	assert.True(t, s.CanNavigateBack())

	route, ok := s.popBack()
	require.True(t, ok)
	assert.Equal(t, "map", route)
	assert.Equal(t, "map", s.Current())
	assert.Equal(t, "friends", s.Previous())

	// History is append-only; popping the back stack does not rewrite it.
	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "friends", history[1].To)

	route, ok = s.popBack()
	require.True(t, ok)
	assert.Equal(t, "home", route)
	assert.False(t, s.CanNavigateBack())

	_, ok = s.popBack()
	assert.False(t, ok)
}

func TestStateResetClearsBackStack(t *testing.T) {
	s := NewState("home")
	s.advance("map")
	s.advance("friends")

	s.resetTo("home")

	assert.Equal(t, "home", s.Current())
	assert.False(t, s.CanNavigateBack())
}

func TestInFlightFlagIsExclusive(t *testing.T) {
	s := NewState("home")

	const goroutines = 32
	var wg sync.WaitGroup
	claims := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claims <- s.beginNavigation()
		}()
	}
	wg.Wait()
	close(claims)

	won := 0
	for claimed := range claims {
		if claimed {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one goroutine may claim the in-flight slot")
	assert.True(t, s.IsNavigating())

	s.endNavigation()
	assert.True(t, s.beginNavigation(), "slot is reusable once released")
}
