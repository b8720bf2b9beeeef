// Package navigator orchestrates navigation requests: one attempt in flight
// at a time, authorized by the session handler, recorded in the destination
// cache, driven through the platform controller under a timeout, and reported
// to the telemetry sinks.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/jmcleod/waypoint/navcache"
	"github.com/jmcleod/waypoint/routes"
	"github.com/jmcleod/waypoint/session"
	"github.com/jmcleod/waypoint/telemetry"
)

// DefaultTimeout bounds a single navigation attempt.
const DefaultTimeout = 5 * time.Second

const (
	feedbackStartHint   = 50 * time.Millisecond
	feedbackSuccessHint = 100 * time.Millisecond
	feedbackErrorHint   = 200 * time.Millisecond

	preloadHintLimit = 3
)

// Controller is the platform navigation primitive. Calls may be repeated;
// failures surface as errors or a false pop result.
type Controller interface {
	Navigate(ctx context.Context, route string) error
	Pop(ctx context.Context) (bool, error)
}

// Preloader receives hints about likely next destinations. Implementations
// load them in the background; the manager never waits on them.
type Preloader interface {
	Preload(routes []string)
}

// Manager is the single orchestration point for navigation requests.
type Manager struct {
	state     *State
	cache     *navcache.Cache
	sessions  *session.Handler
	feedback  telemetry.Feedback
	analytics telemetry.Analytics
	preloader Preloader
	logger    *slog.Logger
	now       func() time.Time
	timeout   time.Duration
	homeRoute string

	mu         sync.Mutex
	controller Controller
	retryArmed bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithController attaches the platform navigation controller.
func WithController(c Controller) Option {
	return func(m *Manager) { m.controller = c }
}

// WithSessions attaches the session handler. Without one, navigation is not
// session-gated.
func WithSessions(h *session.Handler) Option {
	return func(m *Manager) { m.sessions = h }
}

// WithFeedback sets the feedback sink.
func WithFeedback(f telemetry.Feedback) Option {
	return func(m *Manager) { m.feedback = f }
}

// WithAnalytics sets the analytics sink.
func WithAnalytics(a telemetry.Analytics) Option {
	return func(m *Manager) { m.analytics = a }
}

// WithPreloader sets the destination preloader.
func WithPreloader(p Preloader) Option {
	return func(m *Manager) { m.preloader = p }
}

// WithTimeout sets the per-attempt navigation timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithHomeRoute sets the known-good route used by the back-navigation fallback.
func WithHomeRoute(route string) Option {
	return func(m *Manager) { m.homeRoute = route }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager over the given state tracker and cache.
func NewManager(state *State, cache *navcache.Cache, opts ...Option) *Manager {
	m := &Manager{
		state:     state,
		cache:     cache,
		feedback:  telemetry.NopFeedback{},
		analytics: telemetry.NopAnalytics{},
		logger:    slog.Default(),
		now:       time.Now,
		timeout:   DefaultTimeout,
		homeRoute: routes.Home,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "navigator")
	return m
}

// SetController attaches or replaces the platform controller at runtime.
func (m *Manager) SetController(c Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.controller = c
}

// State exposes the navigation state tracker.
func (m *Manager) State() *State {
	return m.state
}

// PerformNavigation runs one navigation attempt to target. A request arriving
// while another attempt is in flight is silently dropped — a no-op, not a
// failure. All other failures are reported through the feedback and analytics
// sinks and returned.
func (m *Manager) PerformNavigation(ctx context.Context, target, source, action string) error {
	if !m.state.beginNavigation() {
		// Blocked, zero-duration metric, no side effects.
		m.logger.Debug("navigation blocked",
			slog.String("target", target),
			slog.String("current", m.state.Current()),
		)
		m.analytics.Error(errorKind(ErrInProgress), false)
		return nil
	}
	defer m.state.endNavigation()

	m.mu.Lock()
	controller := m.controller
	m.mu.Unlock()
	if controller == nil {
		return m.fail(ErrControllerNotFound, target)
	}

	var sessionID string
	if m.sessions != nil {
		if current, ok := m.sessions.Current(); ok {
			if err := m.sessions.ValidateNavigation(target, current.ID); err != nil {
				return m.fail(err, target)
			}
			sessionID = current.ID
		}
	}

	cached := m.cache.IsDestinationCached(target)
	m.logger.Debug("navigating",
		slog.String("target", target),
		slog.String("source", source),
		slog.Bool("cached", cached),
	)

	m.feedback.Trigger(telemetry.FeedbackNavigationStart, feedbackStartHint)
	start := m.now()
	from := m.state.Current()

	navCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	// Pre-navigation snapshot of the screen being left.
	m.cache.CacheNavigationState(from, navcache.State{
		"source":    source,
		"action":    action,
		"timestamp": start.UTC().Format(time.RFC3339),
	})
	m.state.appendHistory(Transition{From: from, To: target, Source: source, Action: action, At: start})

	if err := m.invoke(navCtx, func() error { return controller.Navigate(navCtx, target) }); err != nil {
		if errors.Is(err, ErrTimeout) {
			return m.fail(ErrTimeout, target)
		}
		return m.fail(&UnknownError{Cause: err}, target)
	}

	m.state.advance(target)
	m.mu.Lock()
	m.retryArmed = false
	m.mu.Unlock()
	if !cached {
		m.cache.CacheDestination(target)
	}
	duration := m.now().Sub(start)
	m.analytics.Navigation(from, target, duration)
	m.feedback.Trigger(telemetry.FeedbackNavigationSuccess, feedbackSuccessHint)
	if m.sessions != nil && sessionID != "" {
		m.sessions.Touch(sessionID)
	}
	m.preloadNext(target)

	m.logger.Info("navigation complete",
		slog.String("from", from),
		slog.String("to", target),
		slog.Duration("duration", duration),
	)
	return nil
}

// invoke runs fn in its own goroutine so a controller that ignores its
// context cannot hold navigation past the deadline.
func (m *Manager) invoke(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("navigation controller panic: %v", r)
			}
		}()
		done <- fn()
	}()
	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// fail records a failed attempt: error feedback, analytics, retry arming for
// the retry-eligible classes. The in-flight flag is released by the caller's
// defer even when the attempt dies mid-flight.
func (m *Manager) fail(err error, target string) error {
	m.mu.Lock()
	m.retryArmed = isRetryable(err)
	m.mu.Unlock()

	m.analytics.Error(errorKind(err), isCritical(err))
	m.feedback.Trigger(telemetry.FeedbackNavigationError, feedbackErrorHint)
	m.logger.Error("navigation failed",
		slog.String("target", target),
		slog.String("kind", errorKind(err)),
		slog.Any("error", err),
	)
	return err
}

// NavigateBack pops the platform back stack. It returns false without side
// effects when there is no history or another navigation is in flight. When
// the platform pop fails, the manager falls back to the home route — a
// deliberate, observable recovery rather than leaving the user stuck — and
// still returns false.
func (m *Manager) NavigateBack(ctx context.Context) bool {
	if !m.state.CanNavigateBack() {
		m.logger.Debug("back navigation denied: no history")
		return false
	}
	if !m.state.beginNavigation() {
		m.logger.Debug("back navigation denied: navigation in progress")
		m.analytics.Error(errorKind(ErrInProgress), false)
		return false
	}
	defer m.state.endNavigation()

	m.mu.Lock()
	controller := m.controller
	m.mu.Unlock()
	if controller == nil {
		m.fail(ErrControllerNotFound, m.state.Previous())
		return false
	}

	navCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	start := m.now()

	// The pop result crosses a goroutine boundary when the attempt times out.
	var popped atomic.Bool
	err := m.invoke(navCtx, func() error {
		ok, perr := controller.Pop(navCtx)
		popped.Store(ok)
		return perr
	})
	if err != nil || !popped.Load() {
		m.logger.Warn("back navigation failed; falling back to home",
			slog.String("current", m.state.Current()),
			slog.Any("error", err),
		)
		m.fallbackHome(ctx, controller)
		return false
	}

	route, ok := m.state.popBack()
	if !ok {
		// Platform popped but the tracker has no history to rewind.
		m.fail(ErrInvalidState, m.state.Current())
		return false
	}
	m.analytics.Navigation(m.state.Previous(), route, m.now().Sub(start))
	m.feedback.Trigger(telemetry.FeedbackNavigationSuccess, feedbackSuccessHint)
	m.logger.Info("navigated back", slog.String("to", route))
	return true
}

// fallbackHome drives the controller to the home route after a failed pop.
// It runs under its own deadline derived from the caller's context, not the
// pop attempt's — a timed-out pop must not starve the recovery. A failed
// fallback is reported but never arms the retry slot: retry replays forward
// transitions only.
func (m *Manager) fallbackHome(ctx context.Context, controller Controller) {
	from := m.state.Current()
	m.analytics.Fallback(from, m.homeRoute)

	fbCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.invoke(fbCtx, func() error { return controller.Navigate(fbCtx, m.homeRoute) }); err != nil {
		m.analytics.Error(errorKind(err), isCritical(err))
		m.feedback.Trigger(telemetry.FeedbackNavigationError, feedbackErrorHint)
		m.logger.Error("fallback navigation failed",
			slog.String("target", m.homeRoute),
			slog.Any("error", err),
		)
		return
	}
	m.state.resetTo(m.homeRoute)
	m.feedback.Trigger(telemetry.FeedbackNavigationSuccess, feedbackSuccessHint)
}

// HandleNavigationError classifies err, clears any stuck in-flight flag, and
// emits error feedback. It returns a retry callback only for the
// retry-eligible classes (timeout and unknown); critical errors are flagged
// to analytics for out-of-band alerting.
func (m *Manager) HandleNavigationError(err error) func(context.Context) error {
	m.state.endNavigation()
	m.analytics.Error(errorKind(err), isCritical(err))
	m.feedback.Trigger(telemetry.FeedbackNavigationError, feedbackErrorHint)
	m.logger.Error("navigation error handled",
		slog.String("kind", errorKind(err)),
		slog.Bool("critical", isCritical(err)),
		slog.Any("error", err),
	)
	if !isRetryable(err) {
		return nil
	}
	m.mu.Lock()
	m.retryArmed = true
	m.mu.Unlock()
	return m.RetryLastNavigation
}

// RetryLastNavigation replays the most recent history entry. It is only
// available after a timeout or unknown failure, and exactly once per failure.
func (m *Manager) RetryLastNavigation(ctx context.Context) error {
	m.mu.Lock()
	armed := m.retryArmed
	m.retryArmed = false
	m.mu.Unlock()
	if !armed {
		return ErrNoRetry
	}

	last, ok := m.state.lastTransition()
	if !ok {
		return ErrInvalidState
	}
	m.analytics.Retry(last.To)
	m.logger.Info("retrying navigation", slog.String("target", last.To))
	return m.PerformNavigation(ctx, last.To, "retry", last.Action)
}

// preloadNext hints the preloader with recent distinct destinations other
// than the one just reached. Fire-and-forget.
func (m *Manager) preloadNext(current string) {
	if m.preloader == nil {
		return
	}
	history := m.state.History()
	seen := map[string]bool{current: true}
	var hints []string
	for i := len(history) - 1; i >= 0 && len(hints) < preloadHintLimit; i-- {
		to := history[i].To
		if !seen[to] {
			seen[to] = true
			hints = append(hints, to)
		}
	}
	if len(hints) == 0 {
		return
	}
	go m.preloader.Preload(hints)
}

// Convenience wrappers for the well-known screens. Fire-and-forget from the
// caller's perspective; failures surface through feedback and analytics.

func (m *Manager) NavigateToHome(ctx context.Context, source string) error {
	return m.PerformNavigation(ctx, routes.Home, source, "push")
}

func (m *Manager) NavigateToMap(ctx context.Context, source string) error {
	return m.PerformNavigation(ctx, routes.Map, source, "push")
}

func (m *Manager) NavigateToFriends(ctx context.Context, source string) error {
	return m.PerformNavigation(ctx, routes.Friends, source, "push")
}

func (m *Manager) NavigateToSettings(ctx context.Context, source string) error {
	return m.PerformNavigation(ctx, routes.Settings, source, "push")
}

func (m *Manager) NavigateToProfile(ctx context.Context, source string) error {
	return m.PerformNavigation(ctx, routes.Profile, source, "push")
}
