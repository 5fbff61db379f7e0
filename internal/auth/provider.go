package auth

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/agentstation/sightings/internal/cache"
	"github.com/agentstation/sightings/internal/store"
	"github.com/agentstation/sightings/internal/transport"
	"github.com/agentstation/sightings/pkg/constants"
	"github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/logging"
	"github.com/agentstation/sightings/pkg/observations"
)

// MeFetcher asks the remote service who owns the token.
type MeFetcher interface {
	Me(ctx context.Context) (*observations.User, error)
}

// Provider resolves the current user from the API token.
type Provider struct {
	token  transport.TokenSource
	store  *store.Store
	remote MeFetcher
	cache  *cache.Cache[*observations.User]
	logger *zerolog.Logger
}

// NewProvider creates a Provider. store and remote may be nil, in which
// case that source is skipped.
func NewProvider(token transport.TokenSource, st *store.Store, remote MeFetcher) *Provider {
	return &Provider{
		token:  token,
		store:  st,
		remote: remote,
		cache:  cache.New[*observations.User](constants.CurrentUserTTL, constants.CacheCleanupInterval),
		logger: logging.Default(),
	}
}

// CurrentUser returns the signed-in user, or nil for a signed-out session.
// The local mirror is preferred; the remote service fills in a user the
// mirror does not know yet, and the answer is written back to the mirror.
// When neither source can answer, a partial user built from the token is
// returned and not cached.
func (p *Provider) CurrentUser(ctx context.Context) (*observations.User, error) {
	if p.token == nil {
		return nil, nil
	}
	token, err := p.token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	claims, err := DecodeToken(token)
	if err != nil {
		return nil, err
	}

	key := "user:" + strconv.Itoa(claims.UserID)
	if u, ok := p.cache.Get(key); ok {
		return copyUser(u), nil
	}

	log := p.logger.With().Int("user_id", claims.UserID).Logger()

	if u := p.fromStore(ctx, claims.UserID); u != nil {
		p.cache.Set(key, u)
		return copyUser(u), nil
	}

	if p.remote != nil {
		u, err := p.remote.Me(ctx)
		switch {
		case err == nil && u != nil && u.ID == claims.UserID:
			u.SignedIn = true
			p.remember(ctx, u)
			p.cache.Set(key, u)
			return copyUser(u), nil
		case err == nil && u != nil:
			log.Warn().Int("remote_user_id", u.ID).Msg("Token and remote service disagree on the user")
		case errors.IsUnauthenticated(err):
			return nil, err
		case err != nil:
			log.Warn().Err(err).Msg("Could not fetch current user")
		}
	}

	return &observations.User{ID: claims.UserID, Login: claims.Login, SignedIn: true}, nil
}

// SignOut forgets the cached user and clears the signed-in flag locally.
func (p *Provider) SignOut(ctx context.Context) error {
	p.cache.Clear()
	if p.store == nil {
		return nil
	}
	return p.store.SetSignedIn(ctx, 0)
}

func (p *Provider) fromStore(ctx context.Context, id int) *observations.User {
	if p.store == nil {
		return nil
	}
	u, err := p.store.User(ctx, id)
	if err != nil {
		if !errors.IsNotFound(err) {
			p.logger.Warn().Err(err).Int("user_id", id).Msg("Could not read user from local store")
		}
		return nil
	}
	if u.Login == "" {
		return nil
	}
	u.SignedIn = true
	return u
}

func (p *Provider) remember(ctx context.Context, u *observations.User) {
	if p.store == nil {
		return
	}
	err := p.store.Write(ctx, func(tx *store.Tx) error {
		return tx.PutUser(u)
	})
	if err == nil {
		err = p.store.SetSignedIn(ctx, u.ID)
	}
	if err != nil {
		p.logger.Warn().Err(err).Int("user_id", u.ID).Msg("Could not mirror current user")
	}
}

func copyUser(u *observations.User) *observations.User {
	c := *u
	return &c
}
