package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/agentstation/sightings/pkg/errors"
)

// Claims are the parts of the API token the client reads.
type Claims struct {
	UserID int    `json:"user_id"`
	Login  string `json:"login,omitempty"`
	jwt.RegisteredClaims
}

// DecodeToken reads the claims of an API token. The signature is not
// verified; only the server can do that, and it does on every request.
func DecodeToken(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.WrapParse("jwt", "api token", err)
	}
	if claims.UserID == 0 && claims.Subject != "" {
		if id, err := strconv.Atoi(claims.Subject); err == nil {
			claims.UserID = id
		}
	}
	if claims.UserID <= 0 {
		return nil, errors.NewParseError("jwt", "api token", "token carries no user id", nil)
	}
	return claims, nil
}

// CheckToken describes a token. It performs local checks only; no network
// calls are made.
func CheckToken(token string, now time.Time) *Status {
	if token == "" {
		return &Status{State: StateMissing, Summary: "Not signed in"}
	}

	claims, err := DecodeToken(token)
	if err != nil {
		return &Status{State: StateInvalid, Summary: "API token is malformed"}
	}

	status := &Status{UserID: claims.UserID, Login: claims.Login}
	if claims.ExpiresAt != nil {
		status.ExpiresAt = claims.ExpiresAt.Time
		if !claims.ExpiresAt.After(now) {
			status.State = StateExpired
			status.Summary = fmt.Sprintf("API token expired %s", claims.ExpiresAt.UTC().Format(time.RFC3339))
			return status
		}
	}

	status.State = StateConfigured
	status.Summary = fmt.Sprintf("Signed in as user %d", claims.UserID)
	if claims.Login != "" {
		status.Summary = "Signed in as @" + claims.Login
	}
	return status
}
