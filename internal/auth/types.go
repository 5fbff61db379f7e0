// Package auth resolves who is signed in: it inspects the configured API
// token and turns it into the current user, consulting the local mirror
// before the remote service.
package auth

import "time"

// State represents the state of the configured API token.
type State int

const (
	// StateConfigured means a well-formed, unexpired token is configured.
	StateConfigured State = iota
	// StateMissing means no token is configured; the session is signed out.
	StateMissing
	// StateInvalid means the token is malformed or carries no user.
	StateInvalid
	// StateExpired means the token's exp claim is in the past.
	StateExpired
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateMissing:
		return "missing"
	case StateInvalid:
		return "invalid"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Status describes a token without contacting the remote service.
type Status struct {
	State     State
	Summary   string // Brief one-line summary
	UserID    int
	Login     string
	ExpiresAt time.Time // zero when the token has no exp claim
}
