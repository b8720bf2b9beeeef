package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttemptWindowAllowsUnderLimit(t *testing.T) {
	w := newAttemptWindow(3, time.Second)
	now := time.Now()

	for i := 0; i < 3; i++ {
		assert.True(t, w.allow(now), "attempt %d should be allowed", i+1)
		w.record(now)
	}
	assert.False(t, w.allow(now), "attempt past the limit should be denied")
}

func TestAttemptWindowSlides(t *testing.T) {
	w := newAttemptWindow(2, time.Second)
	start := time.Now()

	w.record(start)
	w.record(start.Add(300 * time.Millisecond))
	assert.False(t, w.allow(start.Add(900*time.Millisecond)))

	// The first attempt falls out of the window.
	later := start.Add(1100 * time.Millisecond)
	assert.True(t, w.allow(later))
	w.record(later)
	assert.False(t, w.allow(later))
}

func TestAttemptWindowAllowDoesNotRecord(t *testing.T) {
	w := newAttemptWindow(1, time.Second)
	now := time.Now()

	assert.True(t, w.allow(now))
	assert.True(t, w.allow(now), "allow must not consume the window")
	w.record(now)
	assert.False(t, w.allow(now))
}
