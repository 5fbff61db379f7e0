package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/sightings/internal/i18n"
	pkgerrors "github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/logging"
	"github.com/agentstation/sightings/pkg/observations"
)

// Request is what a Creator sends to the server for one submission.
type Request struct {
	ObservationUUID string
	TaxonID         int
	Body            string
	UUID            string
}

// Creator creates identifications on the server. Implementations return
// the created record, or an error when the server did not confirm exactly
// one record.
type Creator interface {
	CreateIdentification(ctx context.Context, req Request) (*observations.Identification, error)
}

// CreatorFunc adapts a function to Creator.
type CreatorFunc func(ctx context.Context, req Request) (*observations.Identification, error)

// CreateIdentification implements Creator.
func (f CreatorFunc) CreateIdentification(ctx context.Context, req Request) (*observations.Identification, error) {
	return f(ctx, req)
}

// Draft is what the user picked: a taxon and an optional remark.
// UUID may be preset; otherwise one is generated.
type Draft struct {
	Taxon *observations.Taxon
	Body  string
	UUID  string
}

// Validate checks the draft can be submitted.
func (d Draft) Validate() error {
	if d.Taxon == nil || d.Taxon.ID <= 0 {
		return pkgerrors.NewValidationError("taxon", d.Taxon, "a taxon with a positive id is required")
	}
	if d.UUID != "" {
		if _, err := uuid.Parse(d.UUID); err != nil {
			return pkgerrors.WrapValidation("uuid", err)
		}
	}
	return nil
}

// EventKind names a transition of a visible entry.
type EventKind string

// Event kinds.
const (
	EntryPending    EventKind = "identification.pending"
	EntryConfirmed  EventKind = "identification.confirmed"
	EntryRolledBack EventKind = "identification.rolled_back"
)

// Event reports a transition to listeners. Err is set for rollbacks.
type Event struct {
	Kind  EventKind
	Entry Entry
	Err   error
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMessages sets the locale used for user-facing failure messages.
func WithMessages(m *i18n.Messages) Option {
	return func(r *Reconciler) {
		if m != nil {
			r.messages = m
		}
	}
}

// WithListener registers a callback for entry transitions. It runs on the
// goroutine that caused the transition.
func WithListener(fn func(Event)) Option {
	return func(r *Reconciler) {
		if fn != nil {
			r.listeners = append(r.listeners, fn)
		}
	}
}

// WithLogger sets the logger for background reconciliation.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the timestamp source for optimistic entries.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// Reconciler applies optimistic identification submissions to a Sequence
// and reconciles them with the server's answers.
type Reconciler struct {
	observationUUID string
	seq             *Sequence
	creator         Creator
	messages        *i18n.Messages
	listeners       []func(Event)
	logger          *zerolog.Logger
	now             func() time.Time

	closed   atomic.Bool
	inflight sync.WaitGroup
}

// New creates a Reconciler for one observation.
func New(observationUUID string, seq *Sequence, creator Creator, opts ...Option) *Reconciler {
	r := &Reconciler{
		observationUUID: observationUUID,
		seq:             seq,
		creator:         creator,
		messages:        i18n.New(""),
		logger:          logging.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit shows the draft immediately as a pending entry authored by
// author, then creates it on the server in the background. On success the
// entry is confirmed in place; on failure it is removed and the Submission
// reports a *errors.SubmissionError with a localized message.
//
// The request is not cancelled when ctx is; it always runs to completion.
func (r *Reconciler) Submit(ctx context.Context, draft Draft, author *observations.User) *Submission {
	if err := draft.Validate(); err != nil {
		return finished(draft.UUID, err)
	}
	if r.closed.Load() {
		return finished(draft.UUID, pkgerrors.ErrClosed)
	}

	id := draft.UUID
	if id == "" {
		id = uuid.NewString()
	}

	entry := Entry{
		Identification: observations.Identification{
			UUID:      id,
			Body:      draft.Body,
			Taxon:     draft.Taxon,
			User:      partialUser(author),
			Vision:    false,
			CreatedAt: utc.Time{Time: r.now().UTC()},
		},
		State: Pending,
	}
	entry.Identification = entry.Identification.Clone()

	if !r.seq.insertPending(entry) {
		return finished(id, pkgerrors.NewValidationError("uuid", id, "an identification with this uuid is already confirmed"))
	}
	r.emit(Event{Kind: EntryPending, Entry: entry})

	sub := &Submission{uuid: id, done: make(chan struct{})}
	bg := context.WithoutCancel(ctx)
	req := Request{
		ObservationUUID: r.observationUUID,
		TaxonID:         draft.Taxon.ID,
		Body:            draft.Body,
		UUID:            id,
	}

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		stored, err := r.settle(bg, req, entry)
		sub.stored = stored
		sub.finish(err)
	}()

	return sub
}

// settle runs the server request and applies its outcome. It returns the
// UUID the server stored the identification under.
func (r *Reconciler) settle(ctx context.Context, req Request, entry Entry) (string, error) {
	log := r.logger.With().
		Str("observation_uuid", req.ObservationUUID).
		Str("identification_uuid", req.UUID).
		Logger()

	created, err := r.creator.CreateIdentification(ctx, req)
	if err == nil && created == nil {
		err = pkgerrors.ErrAmbiguousResult
	}

	if err == nil {
		stored := created.UUID
		if stored == "" {
			stored = req.UUID
		}
		if r.closed.Load() {
			log.Debug().Msg("Identification confirmed after view closed")
			return stored, nil
		}
		if stored == req.UUID {
			if r.seq.Confirm(req.UUID) {
				entry.State = Confirmed
				r.emit(Event{Kind: EntryConfirmed, Entry: entry})
			}
			log.Debug().Msg("Identification confirmed")
			return stored, nil
		}
		// The server keyed the record itself; its copy takes the slot.
		if r.seq.Settle(req.UUID, *created) {
			r.emit(Event{Kind: EntryConfirmed, Entry: Entry{Identification: created.Clone(), State: Confirmed}})
		}
		log.Debug().Str("server_uuid", stored).Msg("Identification confirmed under server uuid")
		return stored, nil
	}

	subErr := pkgerrors.NewSubmissionError(req.UUID, r.messages.IdentificationFailed(pkgerrors.Reason(err)), err)
	if r.closed.Load() {
		log.Debug().Err(err).Msg("Identification failed after view closed")
		return "", subErr
	}
	r.seq.Remove(req.UUID)
	r.emit(Event{Kind: EntryRolledBack, Entry: entry, Err: subErr})
	log.Warn().Err(err).Msg("Identification rolled back")
	return "", subErr
}

// Close stops applying results to the sequence. In-flight requests still
// complete and their Submissions still report the outcome.
func (r *Reconciler) Close() {
	r.closed.Store(true)
}

// Wait blocks until every in-flight submission has settled.
func (r *Reconciler) Wait() {
	r.inflight.Wait()
}

func (r *Reconciler) emit(ev Event) {
	for _, fn := range r.listeners {
		fn(ev)
	}
}

// partialUser keeps only what the client reliably knows about the author.
func partialUser(u *observations.User) *observations.User {
	if u == nil {
		return nil
	}
	return &observations.User{
		ID:       u.ID,
		Login:    u.Login,
		IconURL:  u.IconURL,
		SignedIn: true,
	}
}
