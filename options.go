package sightings

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/sightings/internal/remote"
	"github.com/agentstation/sightings/internal/store"
	"github.com/agentstation/sightings/internal/transport"
	"github.com/agentstation/sightings/pkg/constants"
	"github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/logging"
)

// options configures a Client.
type options struct {
	apiURL     string
	token      transport.TokenSource
	auth       transport.Authenticator
	api        remote.API
	store      *store.Store
	storePath  string
	users      UserProvider
	locale     string
	logger     *zerolog.Logger
	transports []transport.Option
}

func defaultOptions() *options {
	return &options{
		apiURL: constants.DefaultAPIURL,
		auth:   &transport.HeaderAuth{},
		locale: constants.DefaultLocale,
		logger: logging.Default(),
	}
}

// Option is a function that configures a Client.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithAPIURL sets the root of the remote observation API.
func WithAPIURL(url string) Option {
	return func(o *options) error {
		if url == "" {
			return &errors.ValidationError{Field: "api_url", Message: "cannot be empty"}
		}
		o.apiURL = url
		return nil
	}
}

// WithToken sets a fixed API token. An empty token means signed out.
func WithToken(token string) Option {
	return func(o *options) error {
		o.token = transport.StaticToken(token)
		return nil
	}
}

// WithTokenSource sets where API tokens come from.
func WithTokenSource(ts transport.TokenSource) Option {
	return func(o *options) error {
		o.token = ts
		return nil
	}
}

// WithAuthenticator sets how the token is attached to requests.
func WithAuthenticator(auth transport.Authenticator) Option {
	return func(o *options) error {
		if auth == nil {
			return &errors.ValidationError{Field: "authenticator", Message: "cannot be nil"}
		}
		o.auth = auth
		return nil
	}
}

// WithTransportOptions passes options to the HTTP transport.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(o *options) error {
		o.transports = append(o.transports, opts...)
		return nil
	}
}

// WithAPI replaces the remote service implementation.
func WithAPI(api remote.API) Option {
	return func(o *options) error {
		if api == nil {
			return &errors.ValidationError{Field: "api", Message: "cannot be nil"}
		}
		o.api = api
		return nil
	}
}

// WithStore uses an already opened local mirror. The caller keeps
// ownership and closes it.
func WithStore(s *store.Store) Option {
	return func(o *options) error {
		o.store = s
		return nil
	}
}

// WithStorePath opens the local mirror at path. The Client closes it.
func WithStorePath(path string) Option {
	return func(o *options) error {
		o.storePath = path
		return nil
	}
}

// WithUserProvider replaces how the current user is resolved.
func WithUserProvider(users UserProvider) Option {
	return func(o *options) error {
		o.users = users
		return nil
	}
}

// WithLocale sets the locale of user-facing messages.
func WithLocale(locale string) Option {
	return func(o *options) error {
		o.locale = locale
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}
