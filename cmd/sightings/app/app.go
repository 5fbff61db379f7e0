// Package app wires configuration, logging and the sightings client for the
// CLI and manages their lifecycle.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/sightings"
	appcontext "github.com/agentstation/sightings/cmd/sightings/context"
	"github.com/agentstation/sightings/internal/config"
	"github.com/agentstation/sightings/internal/transport"
	"github.com/agentstation/sightings/pkg/errors"
)

// Ensure App implements the command context at compile time.
var _ appcontext.Context = (*App)(nil)

// App represents the sightings application with all its dependencies.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// client is created on first use and shared by all commands.
	mu     sync.Mutex
	client sightings.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format flag value, possibly empty.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Token returns the configured API token after validating its shape.
func (a *App) Token() (string, error) {
	return config.APIToken()
}

// Client returns the sightings client, creating it lazily if needed.
func (a *App) Client() (sightings.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	opts, err := a.clientOptions()
	if err != nil {
		return nil, err
	}
	c, err := sightings.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}

	a.client = c
	return c, nil
}

// Shutdown closes the client, which waits for background viewed updates
// and closes the local mirror.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	c := a.client
	a.client = nil
	a.mu.Unlock()

	if c == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- c.Close() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return &errors.TimeoutError{Operation: "shutdown"}
	}
}

func (a *App) clientOptions() ([]sightings.Option, error) {
	token, err := a.Token()
	if err != nil {
		return nil, err
	}

	opts := []sightings.Option{
		sightings.WithAPIURL(a.config.APIURL),
		sightings.WithToken(token),
		sightings.WithAuthenticator(transport.ForScheme(a.config.AuthScheme)),
		sightings.WithLocale(a.config.Locale),
		sightings.WithLogger(a.logger),
	}
	if a.config.DBPath != "" {
		opts = append(opts, sightings.WithStorePath(a.config.DBPath))
	}
	return opts, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client instance (useful for testing).
func WithClient(c sightings.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
