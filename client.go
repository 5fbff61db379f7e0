// Package sightings is a client for viewing, identifying, commenting on
// and faving species observations held by a remote biodiversity service,
// with a local embedded mirror that keeps working offline.
//
// The core of the package is the detail view: opening an observation marks
// it viewed, and identifications added from it appear immediately while
// the server is still answering, then either settle in place or roll back.
//
// Example usage:
//
//	client, err := sightings.New(
//	    sightings.WithToken(os.Getenv("SIGHTINGS_API_TOKEN")),
//	    sightings.WithStorePath("sightings.db"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.OnIdentificationRolledBack(func(uuid string, e reconcile.Entry, err error) {
//	    fmt.Println(err) // localized, ready to show
//	})
//
//	detail, err := client.Open(ctx, observationUUID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sub := detail.AddIdentification(ctx, reconcile.Draft{Taxon: taxon})
//	if err := sub.Wait(ctx); err != nil {
//	    fmt.Println(err)
//	}
package sightings

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/agentstation/sightings/internal/auth"
	"github.com/agentstation/sightings/internal/cache"
	"github.com/agentstation/sightings/internal/i18n"
	"github.com/agentstation/sightings/internal/remote"
	"github.com/agentstation/sightings/internal/store"
	"github.com/agentstation/sightings/internal/transport"
	"github.com/agentstation/sightings/pkg/constants"
	"github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/logging"
	"github.com/agentstation/sightings/pkg/observations"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// UserProvider resolves the signed-in user; nil means signed out.
type UserProvider interface {
	CurrentUser(ctx context.Context) (*observations.User, error)
}

// UserProviderFunc adapts a function to UserProvider.
type UserProviderFunc func(ctx context.Context) (*observations.User, error)

// CurrentUser implements UserProvider.
func (f UserProviderFunc) CurrentUser(ctx context.Context) (*observations.User, error) {
	return f(ctx)
}

// Viewer opens observations.
type Viewer interface {
	// Open loads an observation into a detail view and marks it viewed.
	Open(ctx context.Context, uuid string) (*Detail, error)

	// Observation returns an observation without opening it.
	Observation(ctx context.Context, uuid string) (*observations.Observation, error)
}

// ViewedSyncer flushes viewed flags the remote service missed.
type ViewedSyncer interface {
	SyncViewed(ctx context.Context) (int, error)
}

// Client manages detail views over the remote service and local mirror.
type Client interface {
	Viewer
	ViewedSyncer
	Hooks

	// CurrentUser returns the signed-in user or nil.
	CurrentUser(ctx context.Context) (*observations.User, error)

	// SignOut forgets the resolved user and clears the signed-in flag in
	// the local mirror. The API token itself stays configured.
	SignOut(ctx context.Context) error

	// Messages returns the localized user-facing strings.
	Messages() *i18n.Messages

	// Close closes open detail views, waits for background viewed
	// updates and closes the local mirror if the Client opened it.
	Close() error
}

// client is the internal implementation of the Client interface.
type client struct {
	*hooks

	api       remote.API
	store     *store.Store
	ownsStore bool
	users     UserProvider
	messages  *i18n.Messages
	logger    *zerolog.Logger
	recent    *cache.Cache[*observations.Observation]

	viewed *viewedSet

	mu      sync.Mutex
	details map[*Detail]struct{}
	bg      sync.WaitGroup
	closed  atomic.Bool
}

// New creates a new Client with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{
		hooks:    newHooks(),
		api:      o.api,
		store:    o.store,
		users:    o.users,
		messages: i18n.New(o.locale),
		logger:   o.logger,
		recent:   cache.New[*observations.Observation](constants.ObservationTTL, constants.CacheCleanupInterval),
		viewed:   newViewedSet(),
		details:  make(map[*Detail]struct{}),
	}

	if c.api == nil {
		topts := append([]transport.Option{
			transport.WithTokenSource(o.token),
			transport.WithLogger(o.logger),
		}, o.transports...)
		c.api = remote.NewClient(transport.New(o.apiURL, o.auth, topts...))
	}

	if c.store == nil && o.storePath != "" {
		c.store, err = store.Open(o.storePath)
		if err != nil {
			return nil, err
		}
		c.ownsStore = true
	}

	if c.users == nil {
		c.users = auth.NewProvider(o.token, c.store, c.api)
	}

	c.logger.Debug().
		Bool("local_store", c.store != nil).
		Str("locale", c.messages.Tag().String()).
		Msg("Client ready")

	return c, nil
}

// Messages implements Client.
func (c *client) Messages() *i18n.Messages {
	return c.messages
}

// CurrentUser implements Client.
func (c *client) CurrentUser(ctx context.Context) (*observations.User, error) {
	if c.closed.Load() {
		return nil, errors.ErrClosed
	}
	return c.users.CurrentUser(ctx)
}

// SignOut implements Client. Providers that keep no session state make it
// a no-op.
func (c *client) SignOut(ctx context.Context) error {
	if c.closed.Load() {
		return errors.ErrClosed
	}
	so, ok := c.users.(interface {
		SignOut(ctx context.Context) error
	})
	if !ok {
		return nil
	}
	if err := so.SignOut(ctx); err != nil {
		return err
	}
	c.logger.Info().Msg("Signed out")
	return nil
}

// Open implements Viewer.
func (c *client) Open(ctx context.Context, uuid string) (*Detail, error) {
	if c.closed.Load() {
		return nil, errors.ErrClosed
	}

	ctx = logging.WithObservation(logging.WithLogger(ctx, c.logger), uuid)
	obs, err := c.load(ctx, uuid, true)
	if err != nil {
		return nil, err
	}

	user, err := c.users.CurrentUser(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Could not resolve current user")
		user = nil
	}
	if user != nil {
		ctx = logging.WithUser(ctx, user.ID)
	}

	d := newDetail(c, obs, user)
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		d.rec.Close()
		return nil, errors.ErrClosed
	}
	c.details[d] = struct{}{}
	c.mu.Unlock()

	c.markViewed(ctx, d)
	return d, nil
}

// Observation implements Viewer. Recently fetched copies are reused.
func (c *client) Observation(ctx context.Context, uuid string) (*observations.Observation, error) {
	if c.closed.Load() {
		return nil, errors.ErrClosed
	}
	obs, err := c.load(ctx, uuid, false)
	if err != nil {
		return nil, err
	}
	return obs.Clone(), nil
}

// load fetches the server copy, mirrors it locally and falls back to the
// mirror when the remote service cannot answer. fresh skips the cache.
func (c *client) load(ctx context.Context, uuid string, fresh bool) (*observations.Observation, error) {
	if uuid == "" {
		return nil, errors.NewValidationError("uuid", uuid, "observation uuid is required")
	}
	if !fresh {
		if obs, ok := c.recent.Get(uuid); ok {
			return obs.Clone(), nil
		}
	}

	log := c.logger.With().Str("observation_uuid", uuid).Logger()

	obs, err := c.api.FetchObservation(ctx, uuid)
	if err != nil {
		if !offline(err) || c.store == nil {
			return nil, err
		}
		local, lerr := c.store.Observation(ctx, uuid)
		if lerr != nil {
			log.Debug().Err(lerr).Msg("No local copy to fall back to")
			return nil, err
		}
		log.Info().Err(err).Msg("Remote unavailable, using local copy")
		return local, nil
	}

	if c.store != nil {
		werr := c.store.Write(ctx, func(tx *store.Tx) error {
			if prev, err := tx.Observation(uuid); err == nil && prev.Viewed {
				obs.Viewed = true
			}
			return tx.PutObservation(obs)
		})
		if werr != nil {
			log.Warn().Err(werr).Msg("Could not mirror observation")
		}
	}

	c.recent.Set(uuid, obs.Clone())
	return obs, nil
}

// offline reports whether err means the remote service could not answer,
// as opposed to answering with a rejection.
func offline(err error) bool {
	return errors.IsRemoteUnavailable(err) || errors.IsRateLimited(err) || errors.IsTimeout(err)
}

// Close implements Client.
func (c *client) Close() error {
	// closed flips under mu so Open and markViewed never register work
	// after the snapshot below.
	c.mu.Lock()
	if c.closed.Swap(true) {
		c.mu.Unlock()
		return nil
	}
	open := make([]*Detail, 0, len(c.details))
	for d := range c.details {
		open = append(open, d)
	}
	c.mu.Unlock()
	for _, d := range open {
		d.Close()
	}

	c.bg.Wait()
	c.recent.Clear()

	if c.ownsStore && c.store != nil {
		return c.store.Close()
	}
	return nil
}

func (c *client) forget(d *Detail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.details, d)
}
