package session

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmcleod/waypoint/routes"
)

const (
	// DefaultTimeout is the inactivity window after which a session expires.
	DefaultTimeout = 30 * time.Minute
	// DefaultMaxPerUser caps live sessions per user.
	DefaultMaxPerUser = 3
	// DefaultRateLimitWindow is the sliding window for navigation attempts.
	DefaultRateLimitWindow = 1 * time.Second
	// DefaultRateLimitMax is the maximum attempts within the window.
	DefaultRateLimitMax = 10

	eventBuffer = 16
)

// Handler owns the session table, per-session rate-limit history, and the
// route authorization checks. All navigation flows through ValidateNavigation.
type Handler struct {
	mu        sync.RWMutex
	sessions  map[string]*Info
	attempts  map[string]*attemptWindow
	currentID string

	validator  routes.Validator
	routePerms map[string][]string

	logger *slog.Logger
	now    func() time.Time

	timeout    time.Duration
	maxPerUser int
	rateWindow time.Duration
	rateLimit  int
	events     chan Event
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithTimeout sets the session inactivity timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithMaxSessionsPerUser sets the per-user session cap.
func WithMaxSessionsPerUser(n int) Option {
	return func(h *Handler) { h.maxPerUser = n }
}

// WithRateLimit sets the sliding window and the attempt cap within it.
func WithRateLimit(max int, window time.Duration) Option {
	return func(h *Handler) {
		h.rateLimit = max
		h.rateWindow = window
	}
}

// NewHandler creates a session handler. routePerms maps a route to the
// permission set that may open it (any one suffices); routes with no entry
// require no permission.
func NewHandler(validator routes.Validator, routePerms map[string][]string, opts ...Option) *Handler {
	h := &Handler{
		sessions:   make(map[string]*Info),
		attempts:   make(map[string]*attemptWindow),
		validator:  validator,
		routePerms: routePerms,
		logger:     slog.Default(),
		now:        time.Now,
		timeout:    DefaultTimeout,
		maxPerUser: DefaultMaxPerUser,
		rateWindow: DefaultRateLimitWindow,
		rateLimit:  DefaultRateLimitMax,
		events:     make(chan Event, eventBuffer),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "session")
	return h
}

// Events exposes the session lifecycle stream. Publishing is non-blocking;
// slow consumers drop events.
func (h *Handler) Events() <-chan Event {
	return h.events
}

func (h *Handler) publish(ev Event) {
	select {
	case h.events <- ev:
	default:
	}
}

// Initialize creates a session for userID carrying the given permissions and
// makes it the current session. If the user is at the session cap, the
// least-recently-active sessions are evicted first.
func (h *Handler) Initialize(userID string, permissions []string) Info {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.evictExcessLocked(userID)

	now := h.now()
	id := uuid.NewString()
	info := &Info{
		ID:                id,
		UserID:            userID,
		Permissions:       append([]string(nil), permissions...),
		CreatedAt:         now,
		LastActivity:      now,
		SecurityLevel:     deriveSecurityLevel(permissions),
		DeviceFingerprint: fingerprint(userID, id),
	}
	h.sessions[id] = info
	h.attempts[id] = newAttemptWindow(h.rateLimit, h.rateWindow)
	h.currentID = id

	h.logger.Info("session created",
		slog.String("session_id", id),
		slog.String("user_id", userID),
		slog.String("security_level", info.SecurityLevel.String()),
		slog.String("fingerprint", info.DeviceFingerprint),
	)
	h.publish(Event{Kind: EventCreated, Session: info.clone()})
	return info.clone()
}

// evictExcessLocked removes least-recently-active sessions until the user is
// below the cap, making room for one more.
func (h *Handler) evictExcessLocked(userID string) {
	var owned []*Info
	for _, info := range h.sessions {
		if info.UserID == userID {
			owned = append(owned, info)
		}
	}
	if len(owned) < h.maxPerUser {
		return
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].LastActivity.Before(owned[j].LastActivity)
	})
	for i := 0; i <= len(owned)-h.maxPerUser; i++ {
		h.invalidateLocked(owned[i].ID, ReasonSessionLimit)
	}
}

// ValidateNavigation authorizes one navigation attempt. A nil return means
// allowed; otherwise the error is one of the session sentinel errors. Checks
// short-circuit in a fixed order: existence, expiry, rate limit, route
// syntax, permissions. Internal panics are translated to ErrSecurityViolation
// rather than propagated.
func (h *Handler) ValidateNavigation(route, sessionID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic during navigation validation",
				slog.String("route", route),
				slog.Any("panic", r),
			)
			err = ErrSecurityViolation
		}
	}()

	h.mu.Lock()
	defer h.mu.Unlock()

	info, ok := h.sessions[sessionID]
	if !ok {
		h.denied(route, sessionID, ErrInvalidSession)
		return ErrInvalidSession
	}

	now := h.now()
	if now.Sub(info.LastActivity) > h.timeout {
		h.invalidateLocked(sessionID, ReasonSessionTimeout)
		h.denied(route, sessionID, ErrSessionExpired)
		return ErrSessionExpired
	}

	window := h.attempts[sessionID]
	if window == nil {
		window = newAttemptWindow(h.rateLimit, h.rateWindow)
		h.attempts[sessionID] = window
	}
	if !window.allow(now) {
		h.denied(route, sessionID, ErrRateLimited)
		return ErrRateLimited
	}

	if verr := h.validator.Validate(route); verr != nil {
		h.denied(route, sessionID, verr)
		return fmt.Errorf("%w: %v", ErrSecurityViolation, verr)
	}

	if required := h.routePerms[route]; len(required) > 0 && !info.hasAny(required) {
		h.denied(route, sessionID, ErrInsufficientPermissions)
		return ErrInsufficientPermissions
	}

	window.record(now)
	return nil
}

func (h *Handler) denied(route, sessionID string, reason error) {
	h.logger.Info("navigation denied",
		slog.String("route", route),
		slog.String("session_id", sessionID),
		slog.String("reason", reason.Error()),
	)
}

// Touch refreshes the session's last-activity timestamp. No-op when the
// session no longer exists.
func (h *Handler) Touch(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if info, ok := h.sessions[sessionID]; ok {
		info.LastActivity = h.now()
	}
}

// Invalidate removes the session and its rate-limit history.
func (h *Handler) Invalidate(sessionID string, reason InvalidationReason) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.invalidateLocked(sessionID, reason)
}

func (h *Handler) invalidateLocked(sessionID string, reason InvalidationReason) {
	info, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(h.sessions, sessionID)
	delete(h.attempts, sessionID)
	if h.currentID == sessionID {
		h.currentID = ""
	}
	h.logger.Info("session invalidated",
		slog.String("session_id", sessionID),
		slog.String("user_id", info.UserID),
		slog.String("reason", string(reason)),
	)
	h.publish(Event{Kind: EventInvalidated, Session: info.clone(), Reason: reason})
}

// CleanupExpired sweeps all sessions, invalidating any idle past the timeout.
// Returns the number of sessions removed.
func (h *Handler) CleanupExpired() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	var expired []string
	for id, info := range h.sessions {
		if now.Sub(info.LastActivity) > h.timeout {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		h.invalidateLocked(id, ReasonSessionTimeout)
	}
	return len(expired)
}

// StartSweeper runs CleanupExpired on the given interval until stop is closed.
func (h *Handler) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				h.CleanupExpired()
			}
		}
	}()
}

// Current returns the most recently initialized live session, if any.
func (h *Handler) Current() (Info, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	info, ok := h.sessions[h.currentID]
	if !ok {
		return Info{}, false
	}
	return info.clone(), true
}

// Get returns the session with the given ID, if live.
func (h *Handler) Get(sessionID string) (Info, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	info, ok := h.sessions[sessionID]
	if !ok {
		return Info{}, false
	}
	return info.clone(), true
}

// Count returns the number of live sessions.
func (h *Handler) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
