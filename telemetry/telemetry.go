// Package telemetry defines the feedback and analytics sinks consumed by the
// navigation manager, plus the default implementations.
package telemetry

import (
	"log/slog"
	"time"
)

// FeedbackEvent identifies the kind of user-facing feedback being triggered.
type FeedbackEvent string

const (
	FeedbackNavigationStart   FeedbackEvent = "navigation_start"
	FeedbackNavigationSuccess FeedbackEvent = "navigation_success"
	FeedbackNavigationError   FeedbackEvent = "navigation_error"
)

// Feedback is a fire-and-forget haptic/visual feedback sink. Implementations
// must never block and never fail; the duration is a hint only.
type Feedback interface {
	Trigger(event FeedbackEvent, duration time.Duration)
}

// Analytics records navigation outcomes. Implementations must never block
// navigation and never fail.
type Analytics interface {
	// Navigation records a completed navigation and its duration.
	Navigation(from, to string, duration time.Duration)
	// Error records a failed or blocked navigation. Critical errors are
	// flagged for out-of-band alerting.
	Error(kind string, critical bool)
	// Retry records an operator-invoked replay of a failed navigation.
	Retry(route string)
	// Fallback records a recovery navigation to a known-good route.
	Fallback(from, to string)
}

// LogFeedback writes feedback triggers to a structured logger. It is the
// default sink on platforms without a haptic engine.
type LogFeedback struct {
	logger *slog.Logger
}

var _ Feedback = (*LogFeedback)(nil)

// NewLogFeedback creates a feedback sink backed by the given logger.
func NewLogFeedback(logger *slog.Logger) *LogFeedback {
	return &LogFeedback{logger: logger.With("component", "feedback")}
}

func (f *LogFeedback) Trigger(event FeedbackEvent, duration time.Duration) {
	f.logger.Debug("feedback",
		slog.String("event", string(event)),
		slog.Duration("duration_hint", duration),
	)
}

// NopAnalytics discards all events.
type NopAnalytics struct{}

var _ Analytics = NopAnalytics{}

func (NopAnalytics) Navigation(from, to string, duration time.Duration) {}
func (NopAnalytics) Error(kind string, critical bool)                   {}
func (NopAnalytics) Retry(route string)                                 {}
func (NopAnalytics) Fallback(from, to string)                           {}

// NopFeedback discards all triggers.
type NopFeedback struct{}

var _ Feedback = NopFeedback{}

func (NopFeedback) Trigger(event FeedbackEvent, duration time.Duration) {}
