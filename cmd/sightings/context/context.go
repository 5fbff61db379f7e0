// Package context provides the application context interface for sightings
// commands.
//
// Commands accept this interface rather than the concrete App type so they
// can be tested with MockContext:
//
//	mock := &context.MockContext{
//	    ClientFunc: func() (sightings.Client, error) {
//	        return sightings.New(sightings.WithAPI(fake))
//	    },
//	}
//	cmd := show.NewCommand(mock)
package context

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/sightings"
)

// Context provides what commands need from the application.
//
// Thread Safety: All methods must be safe for concurrent access.
type Context interface {
	// Client returns the shared client, creating it on first use.
	Client() (sightings.Client, error)

	// Token returns the configured API token, or "" when signed out.
	Token() (string, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, markdown).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
