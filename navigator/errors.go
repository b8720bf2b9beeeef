package navigator

import (
	"errors"
	"fmt"

	"github.com/jmcleod/waypoint/session"
)

var (
	// ErrControllerNotFound indicates no platform navigation controller is attached.
	ErrControllerNotFound = errors.New("navigation controller not found")
	// ErrInvalidState indicates the navigation state tracker is inconsistent.
	ErrInvalidState = errors.New("invalid navigation state")
	// ErrTimeout indicates the platform controller did not complete within the deadline.
	ErrTimeout = errors.New("navigation timeout")
	// ErrInProgress indicates another navigation attempt is already in flight.
	ErrInProgress = errors.New("navigation in progress")
	// ErrNoRetry indicates there is no retry-eligible failed navigation to replay.
	ErrNoRetry = errors.New("no retryable navigation")
)

// UnknownError wraps an unclassified failure from the platform controller.
type UnknownError struct {
	Cause error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown navigation error: %v", e.Cause)
}

func (e *UnknownError) Unwrap() error {
	return e.Cause
}

// errorKind maps an error to the stable analytics label for it.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrControllerNotFound):
		return "controller_not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrInProgress):
		return "in_progress"
	case errors.Is(err, session.ErrInvalidSession):
		return "invalid_session"
	case errors.Is(err, session.ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, session.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, session.ErrInsufficientPermissions):
		return "insufficient_permissions"
	case errors.Is(err, session.ErrSecurityViolation):
		return "security_violation"
	default:
		return "unknown"
	}
}

// critical errors are flagged for out-of-band alerting.
func isCritical(err error) bool {
	return errors.Is(err, ErrControllerNotFound) || errors.Is(err, ErrInvalidState)
}

// Only timeouts and unclassified failures may be replayed.
func isRetryable(err error) bool {
	var unknown *UnknownError
	return errors.Is(err, ErrTimeout) || errors.As(err, &unknown)
}
