// Package constants provides shared constants used throughout the sightings
// codebase: timeouts, cache lifetimes, file permissions and defaults that
// should be consistent between the library and the CLI.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for requests to the remote API
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// MarkViewedTimeout bounds the fire-and-forget viewed updates
	MarkViewedTimeout = 15 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 2 * time.Minute

	// StoreBusyTimeout is how long SQLite waits on a locked database, in milliseconds
	StoreBusyTimeout = 5000
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for sensitive files like the local database (rw-------)
	SecureFilePermissions = 0600
)

// Cache constants
const (
	// CurrentUserTTL is how long the resolved signed-in user is reused
	CurrentUserTTL = 10 * time.Minute

	// ObservationTTL is how long a fetched observation is served from memory
	ObservationTTL = 30 * time.Second

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 5 * time.Minute
)

// Defaults for configuration values
const (
	// DefaultAPIURL is the base URL of the remote observation API
	DefaultAPIURL = "https://api.inaturalist.org/v1"

	// DefaultDBFile is the file name of the local mirror under the config dir
	DefaultDBFile = "sightings.db"

	// DefaultLocale is used when no locale is configured
	DefaultLocale = "en"

	// UserAgent is sent with every API request
	UserAgent = "sightings-go"
)

// Channel and buffer constants
const (
	// ChannelBufferSize is the default buffer size for event channels
	ChannelBufferSize = 100
)
