package observations

import "strings"

// User is a person on the remote service. Everything except SignedIn is
// immutable once fetched; SignedIn is a device-local flag.
type User struct {
	ID       int    `json:"id" yaml:"id"`
	Login    string `json:"login,omitempty" yaml:"login,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	IconURL  string `json:"icon_url,omitempty" yaml:"icon_url,omitempty"`
	SignedIn bool   `json:"signed_in,omitempty" yaml:"-"`
}

// URI returns the icon URL, or "" when the user has no icon.
func (u *User) URI() string {
	if u == nil {
		return ""
	}
	return u.IconURL
}

// Handle returns "@login", or "" when the login is unknown.
func (u *User) Handle() string {
	if u == nil || u.Login == "" {
		return ""
	}
	return "@" + u.Login
}

// IsLogin reports whether the user carries the given login.
// Comparison is case-insensitive, as logins are on the remote service.
func (u *User) IsLogin(login string) bool {
	if u == nil || u.Login == "" || login == "" {
		return false
	}
	return strings.EqualFold(u.Login, login)
}
