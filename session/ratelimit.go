package session

import "time"

// attemptWindow is a per-session sliding-window limiter over navigation
// attempts. It is not self-locking: the handler's mutex serializes access.
type attemptWindow struct {
	attempts []time.Time
	limit    int
	window   time.Duration
}

func newAttemptWindow(limit int, window time.Duration) *attemptWindow {
	return &attemptWindow{
		attempts: make([]time.Time, 0, limit),
		limit:    limit,
		window:   window,
	}
}

// trim drops attempts older than (now - window).
func (w *attemptWindow) trim(now time.Time) {
	cutoff := now.Add(-w.window)
	start := 0
	for start < len(w.attempts) && !w.attempts[start].After(cutoff) {
		start++
	}
	w.attempts = w.attempts[start:]
}

// allow reports whether an attempt at "now" is within the limit. It prunes
// stale attempts but does not record — only attempts that pass every other
// check are recorded, via record.
func (w *attemptWindow) allow(now time.Time) bool {
	w.trim(now)
	return len(w.attempts) < w.limit
}

// record appends the attempt timestamp.
func (w *attemptWindow) record(now time.Time) {
	w.trim(now)
	w.attempts = append(w.attempts, now)
}
