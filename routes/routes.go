// Package routes defines route identifiers and the syntactic route validator
// consulted before any navigation is authorized.
package routes

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Well-known routes. A route is an opaque string; these constants exist so
// callers and the convenience navigation wrappers agree on spelling.
const (
	Home     = "home"
	Map      = "map"
	Friends  = "friends"
	Settings = "settings"
	Profile  = "profile"
	Admin    = "admin"
)

// MaxRouteLength bounds route identifiers.
const MaxRouteLength = 256

// ValidationError describes why a route failed validation.
type ValidationError struct {
	Route  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid route %q: %s", e.Route, e.Reason)
}

func validationErrorf(route, format string, args ...any) error {
	return &ValidationError{Route: route, Reason: fmt.Sprintf(format, args...)}
}

// Validator performs a purely syntactic/security check on a route.
// Implementations must be side-effect free.
type Validator interface {
	Validate(route string) error
}

// DefaultValidator rejects empty, oversized, malformed, and
// traversal-shaped route identifiers.
type DefaultValidator struct{}

var _ Validator = DefaultValidator{}

func (DefaultValidator) Validate(route string) error {
	if route == "" {
		return validationErrorf(route, "route must not be empty")
	}
	if len(route) > MaxRouteLength {
		return validationErrorf(route, "route exceeds maximum length of %d", MaxRouteLength)
	}
	if !utf8.ValidString(route) {
		return validationErrorf(route, "route contains invalid UTF-8")
	}
	if strings.Contains(route, "..") {
		return validationErrorf(route, "route contains forbidden sequence %q", "..")
	}
	if strings.Contains(route, "//") {
		return validationErrorf(route, "route contains forbidden sequence %q", "//")
	}
	for _, r := range route {
		if unicode.IsSpace(r) {
			return validationErrorf(route, "route contains whitespace")
		}
		if unicode.IsControl(r) {
			return validationErrorf(route, "route contains control character")
		}
	}
	return nil
}
