package navigator

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Transition records one hop in the navigation history.
type Transition struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Source string    `json:"source"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// State tracks the externally observable navigation state: current and
// previous screen, the append-only history, the back stack, and the single
// in-flight flag. The flag is a compare-and-swap, so the "already navigating"
// check-and-set is race-free under real parallelism.
type State struct {
	mu       sync.RWMutex
	current  string
	previous string
	history  []Transition
	back     []string

	inFlight atomic.Bool
}

// NewState creates a tracker positioned at the initial screen.
func NewState(initial string) *State {
	return &State{current: initial}
}

// Current returns the current screen route.
func (s *State) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Previous returns the screen before the current one.
func (s *State) Previous() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previous
}

// History returns a copy of the navigation history, most recent last.
// The history is append-only; back navigation does not rewrite it.
func (s *State) History() []Transition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Transition(nil), s.history...)
}

// CanNavigateBack reports whether the back stack is non-empty.
func (s *State) CanNavigateBack() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.back) > 0
}

// IsNavigating reports whether a navigation attempt is in flight.
func (s *State) IsNavigating() bool {
	return s.inFlight.Load()
}

// beginNavigation attempts to claim the in-flight slot. It returns false if
// another attempt already holds it.
func (s *State) beginNavigation() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

// endNavigation releases the in-flight slot.
func (s *State) endNavigation() {
	s.inFlight.Store(false)
}

// appendHistory records a transition. Entries land in strict call order
// because only one navigation is in flight at a time.
func (s *State) appendHistory(t Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, t)
}

// lastTransition returns the most recent history entry.
func (s *State) lastTransition() (Transition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return Transition{}, false
	}
	return s.history[len(s.history)-1], true
}

// advance moves the tracker to route after a successful forward navigation,
// pushing the screen being left onto the back stack.
func (s *State) advance(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.back = append(s.back, s.current)
	s.previous = s.current
	s.current = route
}

// popBack rewinds the tracker to the top of the back stack and returns the
// route rewound to.
func (s *State) popBack() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.back) == 0 {
		return "", false
	}
	popped := s.back[len(s.back)-1]
	s.back = s.back[:len(s.back)-1]
	s.previous = s.current
	s.current = popped
	return popped, true
}

// resetTo clears the back stack and positions the tracker at route. Used by
// the home fallback when back navigation fails.
func (s *State) resetTo(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.back = s.back[:0]
	s.previous = s.current
	s.current = route
}
