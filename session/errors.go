package session

import "errors"

var (
	// ErrInvalidSession indicates the session ID does not match any live session.
	ErrInvalidSession = errors.New("invalid session")
	// ErrSessionExpired indicates the session exceeded the inactivity timeout.
	ErrSessionExpired = errors.New("session expired")
	// ErrRateLimited indicates the session exhausted its navigation window.
	ErrRateLimited = errors.New("navigation rate limit exceeded")
	// ErrInsufficientPermissions indicates the session lacks every permission the route requires.
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	// ErrSecurityViolation indicates the route failed validation or an internal check misbehaved.
	ErrSecurityViolation = errors.New("security violation")
)

// InvalidationReason records why a session was removed from the active set.
type InvalidationReason string

const (
	ReasonExplicit       InvalidationReason = "explicit"
	ReasonSessionTimeout InvalidationReason = "session_timeout"
	ReasonSessionLimit   InvalidationReason = "session_limit"
)
