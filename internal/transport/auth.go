package transport

import (
	"net/http"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, token string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// HeaderAuth sends the token as-is in a header. The observation API expects
// its JWT unprefixed in Authorization, which is the default header.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, token string) {
	header := a.Header
	if header == "" {
		header = "Authorization"
	}
	req.Header.Set(header, token)
}

// ForScheme returns the authenticator for a configured scheme name:
// "bearer", "none", or anything else for the raw Authorization header.
func ForScheme(scheme string) Authenticator {
	switch scheme {
	case "bearer":
		return &BearerAuth{}
	case "none":
		return &NoAuth{}
	default:
		return &HeaderAuth{}
	}
}
