package sightings

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/agentstation/sightings/internal/remote"
	"github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/logging"
	"github.com/agentstation/sightings/pkg/observations"
	"github.com/agentstation/sightings/pkg/reconcile"
)

// Detail is one opened observation. It owns the visible identification
// sequence and the in-progress comment. A Detail is safe for concurrent use.
type Detail struct {
	client *client
	uuid   string
	user   *observations.User
	logger zerolog.Logger

	mu    sync.RWMutex
	obs   *observations.Observation
	draft string

	seq    *reconcile.Sequence
	rec    *reconcile.Reconciler
	busy   atomic.Int32 // comments in flight
	closed atomic.Bool
}

func newDetail(c *client, obs *observations.Observation, user *observations.User) *Detail {
	d := &Detail{
		client: c,
		uuid:   obs.UUID,
		user:   user,
		obs:    obs,
		seq:    reconcile.NewSequence(obs.Identifications),
		logger: c.logger.With().Str("observation_uuid", obs.UUID).Logger(),
	}
	d.rec = reconcile.New(obs.UUID, d.seq, remote.Creator{API: c.api},
		reconcile.WithMessages(c.messages),
		reconcile.WithLogger(&d.logger),
		reconcile.WithListener(func(ev reconcile.Event) {
			c.triggerReconcile(d.uuid, ev)
		}),
	)
	return d
}

// UUID returns the observation's UUID.
func (d *Detail) UUID() string {
	return d.uuid
}

// Observation returns a copy of the current observation.
func (d *Detail) Observation() *observations.Observation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.obs.Clone()
}

// CurrentUser returns the user the view was opened for, or nil.
func (d *Detail) CurrentUser() *observations.User {
	if d.user == nil {
		return nil
	}
	u := *d.user
	return &u
}

// Identifications returns the visible identifications, pending ones included.
func (d *Detail) Identifications() []reconcile.Entry {
	return d.seq.Entries()
}

// Comments returns a copy of the observation's comments.
func (d *Detail) Comments() []observations.Comment {
	return d.Observation().Comments
}

// Faved reports whether the current user has faved the observation.
func (d *Detail) Faved() bool {
	if d.user == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.obs.FavedBy(d.user.ID)
}

// AddIdentification shows draft as a pending identification at once and
// creates it on the server in the background. See reconcile.Reconciler.Submit.
func (d *Detail) AddIdentification(ctx context.Context, draft reconcile.Draft) *reconcile.Submission {
	return d.rec.Submit(ctx, draft, d.user)
}

// AddToWorkspace puts the observation into ws so an identify flow can
// work on it.
func (d *Detail) AddToWorkspace(ws *Workspace) {
	ws.Add(d.Observation())
}

// ToggleFave faves the observation, or unfaves it when the current user
// already has, then reloads it. Failures are logged and returned; nothing
// is rolled back since nothing was applied locally.
func (d *Detail) ToggleFave(ctx context.Context) error {
	if d.closed.Load() {
		return errors.ErrClosed
	}
	if d.user == nil {
		return errors.ErrUnauthenticated
	}

	verb := remote.VerbFor(d.Faved())
	ctx = logging.WithOperation(logging.WithLogger(ctx, &d.logger), string(verb))
	log := logging.FromContext(ctx)
	if err := d.client.api.FaveObservation(ctx, d.uuid, verb); err != nil {
		log.Warn().Err(err).Msg("Fave failed")
		return errors.WrapResource(string(verb), "observation", d.uuid, err)
	}
	log.Debug().Msg("Fave applied")

	return d.Refresh(ctx)
}

// SetCommentDraft replaces the in-progress comment.
func (d *Detail) SetCommentDraft(body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draft = body
}

// CommentDraft returns the in-progress comment.
func (d *Detail) CommentDraft() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.draft
}

// Busy reports whether any comment is being submitted.
func (d *Detail) Busy() bool {
	return d.busy.Load() > 0
}

// SubmitComment sends the draft. The draft is cleared and Busy reports true
// before the request goes out; when the server returns the created comment
// the observation is reloaded. A failure is returned as a
// *errors.SubmissionError with a localized message.
func (d *Detail) SubmitComment(ctx context.Context) error {
	if d.closed.Load() {
		return errors.ErrClosed
	}

	d.mu.Lock()
	body := d.draft
	if strings.TrimSpace(body) == "" {
		d.mu.Unlock()
		return errors.NewValidationError("comment", body, "comment is empty")
	}
	d.draft = ""
	d.mu.Unlock()

	ctx = logging.WithOperation(logging.WithLogger(ctx, &d.logger), "comment")
	d.busy.Add(1)
	created, err := d.client.api.CreateComment(ctx, body, d.uuid)
	d.busy.Add(-1)

	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Comment failed")
		return errors.NewSubmissionError("", d.client.messages.CommentFailed(errors.Reason(err)), err)
	}
	if created == nil {
		return nil
	}
	return d.Refresh(ctx)
}

// Refresh reloads the observation. Identifications still pending keep
// their place after the server's list.
func (d *Detail) Refresh(ctx context.Context) error {
	if d.closed.Load() {
		return errors.ErrClosed
	}

	obs, err := d.client.load(ctx, d.uuid, true)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Refresh failed")
		return err
	}
	if d.closed.Load() {
		return nil
	}

	d.mu.Lock()
	if d.obs.Viewed {
		obs.Viewed = true
	}
	d.obs = obs
	d.seq.Reset(obs.Identifications)
	d.mu.Unlock()

	d.client.triggerRefreshed(obs)
	return nil
}

// Wait blocks until every identification submitted from this view settled.
func (d *Detail) Wait() {
	d.rec.Wait()
}

// Close ends the view. Identification results arriving later are dropped.
func (d *Detail) Close() {
	if d.closed.Swap(true) {
		return
	}
	d.rec.Close()
	d.client.forget(d)
}

func (d *Detail) viewed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.obs.Viewed
}

func (d *Detail) setViewed() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.obs.Viewed = true
}
