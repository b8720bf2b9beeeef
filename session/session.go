// Package session gates every navigation through an authenticated,
// rate-limited, permission-checked session lifecycle.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SecurityLevel classifies a session by the strongest permission it carries.
// Derived once at creation and never recomputed.
type SecurityLevel int

const (
	SecurityLow SecurityLevel = iota
	SecurityMedium
	SecurityHigh
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityHigh:
		return "HIGH"
	case SecurityMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Info holds the server-side state for an active navigation session.
type Info struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id"`
	Permissions       []string      `json:"permissions"`
	CreatedAt         time.Time     `json:"created_at"`
	LastActivity      time.Time     `json:"last_activity"`
	SecurityLevel     SecurityLevel `json:"security_level"`
	DeviceFingerprint string        `json:"device_fingerprint"`
}

// clone returns a copy whose Permissions slice does not share backing with
// the stored session, so callers cannot mutate the live permission set.
func (i Info) clone() Info {
	i.Permissions = append([]string(nil), i.Permissions...)
	return i
}

// HasPermission reports whether the session carries the given permission.
func (i Info) HasPermission(perm string) bool {
	for _, p := range i.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

func (i Info) hasAny(perms []string) bool {
	for _, p := range perms {
		if i.HasPermission(p) {
			return true
		}
	}
	return false
}

// deriveSecurityLevel applies the fixed permission precedence:
// admin outranks location, everything else is LOW.
func deriveSecurityLevel(permissions []string) SecurityLevel {
	level := SecurityLow
	for _, p := range permissions {
		switch p {
		case "admin":
			return SecurityHigh
		case "location":
			level = SecurityMedium
		}
	}
	return level
}

// fingerprint derives a short, stable device fingerprint. It is an opaque
// identifier safe for logs, not a cryptographic binding.
func fingerprint(userID, sessionID string) string {
	sum := sha256.Sum256([]byte(userID + ":" + sessionID))
	return hex.EncodeToString(sum[:8])
}

// EventKind identifies a session lifecycle transition.
type EventKind string

const (
	EventCreated     EventKind = "created"
	EventInvalidated EventKind = "invalidated"
)

// Event is published on the handler's state stream for each lifecycle transition.
type Event struct {
	Kind    EventKind
	Session Info
	Reason  InvalidationReason
}
