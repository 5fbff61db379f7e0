package remote

import (
	"context"
	"sync"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/observations"
)

// Call records one request made against a Fake.
type Call struct {
	Method string
	UUID   string
	Verb   Verb
	Body   string
}

// Fake is an in-memory API for tests. Fave and comment calls mutate the
// stored observations so a later fetch sees them, the way the server does.
type Fake struct {
	mu           sync.Mutex
	observations map[string]*observations.Observation
	me           *observations.User
	calls        []Call

	// Per-method failures; nil means succeed.
	FetchErr         error
	CreateIDErr      error
	CreateCommentErr error
	FaveErr          error
	MarkViewedErr    error
	MeErr            error

	// CommentNoRecord makes CreateComment accept without echoing a record.
	CommentNoRecord bool

	// IdentificationGate, when set, holds CreateIdentification until it
	// receives or is closed.
	IdentificationGate chan struct{}
}

var _ API = (*Fake)(nil)

// NewFake creates a Fake signed in as me holding the given observations.
func NewFake(me *observations.User, obs ...*observations.Observation) *Fake {
	f := &Fake{observations: make(map[string]*observations.Observation), me: me}
	for _, o := range obs {
		f.observations[o.UUID] = o.Clone()
	}
	return f
}

// Calls returns the recorded calls in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount counts recorded calls of one method.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Put stores or replaces an observation.
func (f *Fake) Put(o *observations.Observation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observations[o.UUID] = o.Clone()
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

// FetchObservation implements API.
func (f *Fake) FetchObservation(_ context.Context, id string) (*observations.Observation, error) {
	f.record(Call{Method: "FetchObservation", UUID: id})
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	o, ok := f.observations[id]
	if !ok {
		return nil, errors.NewNotFoundError("observation", id)
	}
	return o.Clone(), nil
}

// CreateIdentification implements API.
func (f *Fake) CreateIdentification(ctx context.Context, params IdentificationParams) (*observations.Identification, error) {
	f.record(Call{Method: "CreateIdentification", UUID: params.ObservationUUID, Body: params.Body})
	if f.IdentificationGate != nil {
		select {
		case <-f.IdentificationGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateIDErr != nil {
		return nil, f.CreateIDErr
	}
	id := observations.Identification{
		UUID:      params.UUID,
		Body:      params.Body,
		Taxon:     &observations.Taxon{ID: params.TaxonID},
		User:      f.me,
		CreatedAt: utc.Now(),
	}
	if id.UUID == "" {
		id.UUID = uuid.NewString()
	}
	if o, ok := f.observations[params.ObservationUUID]; ok {
		o.Identifications = append(o.Identifications, id.Clone())
	}
	return &id, nil
}

// CreateComment implements API.
func (f *Fake) CreateComment(_ context.Context, body, observationUUID string) (*observations.Comment, error) {
	f.record(Call{Method: "CreateComment", UUID: observationUUID, Body: body})
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateCommentErr != nil {
		return nil, f.CreateCommentErr
	}
	c := observations.Comment{UUID: uuid.NewString(), Body: body, User: f.me, CreatedAt: utc.Now()}
	if o, ok := f.observations[observationUUID]; ok {
		o.Comments = append(o.Comments, c)
	}
	if f.CommentNoRecord {
		return nil, nil
	}
	return &c, nil
}

// FaveObservation implements API.
func (f *Fake) FaveObservation(_ context.Context, id string, verb Verb) error {
	f.record(Call{Method: "FaveObservation", UUID: id, Verb: verb})
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FaveErr != nil {
		return f.FaveErr
	}
	o, ok := f.observations[id]
	if !ok || f.me == nil {
		return nil
	}
	switch verb {
	case Fave:
		if !o.FavedBy(f.me.ID) {
			o.Faves = append(o.Faves, observations.Fave{User: *f.me})
		}
	case Unfave:
		kept := o.Faves[:0]
		for _, fv := range o.Faves {
			if fv.User.ID != f.me.ID {
				kept = append(kept, fv)
			}
		}
		o.Faves = kept
	}
	return nil
}

// MarkObservationUpdatesViewed implements API.
func (f *Fake) MarkObservationUpdatesViewed(_ context.Context, id string) error {
	f.record(Call{Method: "MarkObservationUpdatesViewed", UUID: id})
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.MarkViewedErr
}

// Me implements API.
func (f *Fake) Me(_ context.Context) (*observations.User, error) {
	f.record(Call{Method: "Me"})
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MeErr != nil {
		return nil, f.MeErr
	}
	if f.me == nil {
		return nil, errors.ErrUnauthenticated
	}
	me := *f.me
	return &me, nil
}
