package sightings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightings/internal/remote"
	"github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/observations"
	"github.com/agentstation/sightings/pkg/reconcile"
)

func entryUUIDs(entries []reconcile.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.UUID()
	}
	return out
}

func TestAddIdentificationConfirms(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	api.IdentificationGate = make(chan struct{})
	c, _ := newTestClient(t, api)

	var mu sync.Mutex
	var events []string
	c.OnIdentificationPending(func(string, reconcile.Entry) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, "pending")
	})
	c.OnIdentificationConfirmed(func(string, reconcile.Entry) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, "confirmed")
	})

	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)

	sub := d.AddIdentification(context.Background(), reconcile.Draft{Taxon: oak, Body: "acorns"})
	entries := d.Identifications()
	require.Len(t, entries, 2)
	last := entries[1]
	assert.Equal(t, sub.UUID(), last.UUID())
	assert.True(t, last.Temporary())
	assert.Equal(t, me.Login, last.Identification.User.Login)

	close(api.IdentificationGate)
	require.NoError(t, sub.Wait(context.Background()))

	entries = d.Identifications()
	require.Len(t, entries, 2)
	assert.Equal(t, reconcile.Confirmed, entries[1].State)
	assert.Equal(t, "acorns", entries[1].Identification.Body)
	assert.Equal(t, oak.ID, entries[1].Identification.Taxon.ID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"pending", "confirmed"}, events)
}

func TestAddIdentificationRollsBack(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	api.CreateIDErr = errors.NewAPIError("POST /identifications", 422, "Taxon is inactive")
	c, _ := newTestClient(t, api, WithLocale("fr"))

	rolledBack := make(chan error, 1)
	c.OnIdentificationRolledBack(func(_ string, _ reconcile.Entry, err error) {
		rolledBack <- err
	})

	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)
	before := entryUUIDs(d.Identifications())

	sub := d.AddIdentification(context.Background(), reconcile.Draft{Taxon: oak})
	err = sub.Wait(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Impossible de créer l'identification : Taxon is inactive", err.Error())
	assert.Equal(t, before, entryUUIDs(d.Identifications()))

	select {
	case hookErr := <-rolledBack:
		assert.Equal(t, err.Error(), hookErr.Error())
	case <-time.After(time.Second):
		t.Fatal("rollback hook not called")
	}
}

// gatedAPI holds identification requests per body so tests decide the order
// in which they settle.
type gatedAPI struct {
	*remote.Fake
	mu    sync.Mutex
	gates map[string]chan error
}

func (g *gatedAPI) gate(body string) chan error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates == nil {
		g.gates = make(map[string]chan error)
	}
	ch, ok := g.gates[body]
	if !ok {
		ch = make(chan error, 1)
		g.gates[body] = ch
	}
	return ch
}

func (g *gatedAPI) CreateIdentification(ctx context.Context, p remote.IdentificationParams) (*observations.Identification, error) {
	if err := <-g.gate(p.Body); err != nil {
		return nil, err
	}
	return g.Fake.CreateIdentification(ctx, p)
}

func TestConcurrentIdentificationsIsolated(t *testing.T) {
	api := &gatedAPI{Fake: remote.NewFake(me, sampleObservation("obs-1"))}
	c, _ := newTestClient(t, api)

	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)

	first := d.AddIdentification(context.Background(), reconcile.Draft{Taxon: oak, Body: "first"})
	second := d.AddIdentification(context.Background(), reconcile.Draft{Taxon: bee, Body: "second"})
	assert.Len(t, d.Identifications(), 3)

	api.gate("first") <- errors.NewAPIError("POST /identifications", 500, "boom")
	require.Error(t, first.Wait(context.Background()))

	entries := d.Identifications()
	assert.Equal(t, []string{"11111111-1111-4111-8111-111111111111", second.UUID()}, entryUUIDs(entries))
	assert.Equal(t, reconcile.Pending, entries[1].State)

	api.gate("second") <- nil
	require.NoError(t, second.Wait(context.Background()))
	entries = d.Identifications()
	assert.Equal(t, reconcile.Confirmed, entries[1].State)
}

func TestClosedDetailDropsLateResults(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	api.IdentificationGate = make(chan struct{})
	api.CreateIDErr = errors.NewAPIError("POST /identifications", 500, "boom")
	c, _ := newTestClient(t, api)

	var rolledBack int
	var mu sync.Mutex
	c.OnIdentificationRolledBack(func(string, reconcile.Entry, error) {
		mu.Lock()
		defer mu.Unlock()
		rolledBack++
	})

	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)
	sub := d.AddIdentification(context.Background(), reconcile.Draft{Taxon: oak})
	d.Close()
	snapshot := entryUUIDs(d.Identifications())

	close(api.IdentificationGate)
	require.Error(t, sub.Wait(context.Background()))
	d.Wait()

	assert.Equal(t, snapshot, entryUUIDs(d.Identifications()))
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, rolledBack)

	after := d.AddIdentification(context.Background(), reconcile.Draft{Taxon: oak})
	assert.True(t, errors.IsClosed(after.Err()))
}

func TestToggleFave(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	c, _ := newTestClient(t, api)

	refreshed := 0
	c.OnObservationRefreshed(func(observations.Observation) { refreshed++ })

	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)
	fetches := api.CallCount("FetchObservation")

	require.NoError(t, d.ToggleFave(context.Background()))
	assert.True(t, d.Faved())
	require.NoError(t, d.ToggleFave(context.Background()))
	assert.False(t, d.Faved())

	var verbs []remote.Verb
	for _, call := range api.Calls() {
		if call.Method == "FaveObservation" {
			verbs = append(verbs, call.Verb)
		}
	}
	assert.Equal(t, []remote.Verb{remote.Fave, remote.Unfave}, verbs)
	assert.Equal(t, fetches+2, api.CallCount("FetchObservation"), "each toggle refetches")
	assert.Equal(t, 2, refreshed)
}

func TestToggleFaveFailures(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	api.FaveErr = errors.NewAPIError("POST /observations/obs-1/fave", 500, "boom")
	c, _ := newTestClient(t, api)

	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)
	err = d.ToggleFave(context.Background())
	var resErr *errors.ResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "fave", resErr.Operation)

	signedOut, _ := newTestClient(t, api, WithUserProvider(staticUser{}))
	d, err = signedOut.Open(context.Background(), "obs-1")
	require.NoError(t, err)
	assert.True(t, errors.IsUnauthenticated(d.ToggleFave(context.Background())))
}

// busyProbe records whether the detail was busy while the comment was in flight.
type busyProbe struct {
	*remote.Fake
	detail   func() *Detail
	sawBusy  bool
	sawDraft string
}

func (b *busyProbe) CreateComment(ctx context.Context, body, uuid string) (*observations.Comment, error) {
	if d := b.detail(); d != nil {
		b.sawBusy = d.Busy()
		b.sawDraft = d.CommentDraft()
	}
	return b.Fake.CreateComment(ctx, body, uuid)
}

func TestSubmitComment(t *testing.T) {
	var d *Detail
	api := &busyProbe{Fake: remote.NewFake(me, sampleObservation("obs-1")), detail: func() *Detail { return d }}
	c, _ := newTestClient(t, api)

	var err error
	d, err = c.Open(context.Background(), "obs-1")
	require.NoError(t, err)
	fetches := api.CallCount("FetchObservation")

	d.SetCommentDraft("Nice find")
	assert.Equal(t, "Nice find", d.CommentDraft())
	require.NoError(t, d.SubmitComment(context.Background()))

	assert.True(t, api.sawBusy)
	assert.Empty(t, api.sawDraft, "draft is cleared before the request")
	assert.False(t, d.Busy())
	assert.Empty(t, d.CommentDraft())
	assert.Equal(t, fetches+1, api.CallCount("FetchObservation"))
	require.Len(t, d.Comments(), 1)
	assert.Equal(t, "Nice find", d.Comments()[0].Body)
}

func TestSubmitCommentWithoutRecordSkipsRefresh(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	api.CommentNoRecord = true
	c, _ := newTestClient(t, api)

	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)
	fetches := api.CallCount("FetchObservation")

	d.SetCommentDraft("hello")
	require.NoError(t, d.SubmitComment(context.Background()))
	assert.Equal(t, fetches, api.CallCount("FetchObservation"))
}

func TestSubmitCommentFailures(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	c, _ := newTestClient(t, api)
	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)

	assert.True(t, errors.IsValidationError(d.SubmitComment(context.Background())))

	api.CreateCommentErr = errors.NewAPIError("POST /comments", 422, "Body is too long")
	d.SetCommentDraft("x")
	err = d.SubmitComment(context.Background())
	se, ok := errors.AsSubmission(err)
	require.True(t, ok)
	assert.Equal(t, "Couldn't create comment: Body is too long", se.Message)
	assert.False(t, d.Busy())
}

func TestRefreshKeepsPendingIdentifications(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	api.IdentificationGate = make(chan struct{})
	c, _ := newTestClient(t, api)

	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)
	sub := d.AddIdentification(context.Background(), reconcile.Draft{Taxon: oak})

	require.NoError(t, d.Refresh(context.Background()))
	assert.Equal(t, []string{"11111111-1111-4111-8111-111111111111", sub.UUID()}, entryUUIDs(d.Identifications()))

	close(api.IdentificationGate)
	require.NoError(t, sub.Wait(context.Background()))
}

// serverKeyedAPI lets the fake assign its own identification UUIDs.
type serverKeyedAPI struct {
	*remote.Fake
}

func (s serverKeyedAPI) CreateIdentification(ctx context.Context, p remote.IdentificationParams) (*observations.Identification, error) {
	p.UUID = ""
	return s.Fake.CreateIdentification(ctx, p)
}

func TestAddIdentificationUnderServerUUID(t *testing.T) {
	api := serverKeyedAPI{remote.NewFake(me, sampleObservation("obs-1"))}
	c, _ := newTestClient(t, api)

	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)

	sub := d.AddIdentification(context.Background(), reconcile.Draft{Taxon: oak, Body: "lobed leaves"})
	require.NoError(t, sub.Wait(context.Background()))

	entries := d.Identifications()
	require.Len(t, entries, 2)
	assert.NotEqual(t, sub.UUID(), entries[1].UUID())
	assert.Equal(t, reconcile.Confirmed, entries[1].State)
	assert.Equal(t, "lobed leaves", entries[1].Identification.Body)

	require.NoError(t, d.Refresh(context.Background()))
	assert.Len(t, d.Identifications(), 2)
}

// commentGateAPI holds each comment until the test releases its body.
type commentGateAPI struct {
	*remote.Fake
	arrived chan string
	mu      sync.Mutex
	gates   map[string]chan struct{}
}

func (g *commentGateAPI) gate(body string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[body]
	if !ok {
		ch = make(chan struct{})
		g.gates[body] = ch
	}
	return ch
}

func (g *commentGateAPI) CreateComment(ctx context.Context, body, uuid string) (*observations.Comment, error) {
	g.arrived <- body
	<-g.gate(body)
	return g.Fake.CreateComment(ctx, body, uuid)
}

func TestBusyWhileAnyCommentInFlight(t *testing.T) {
	api := &commentGateAPI{
		Fake:    remote.NewFake(me, sampleObservation("obs-1")),
		arrived: make(chan string, 2),
		gates:   make(map[string]chan struct{}),
	}
	c, _ := newTestClient(t, api)
	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)

	results := make(map[string]chan error)
	for _, body := range []string{"one", "two"} {
		done := make(chan error, 1)
		results[body] = done
		d.SetCommentDraft(body)
		go func() { done <- d.SubmitComment(context.Background()) }()
		<-api.arrived
	}
	assert.True(t, d.Busy())

	close(api.gate("one"))
	require.NoError(t, <-results["one"])
	assert.True(t, d.Busy(), "the second comment is still in flight")

	close(api.gate("two"))
	require.NoError(t, <-results["two"])
	assert.False(t, d.Busy())
}
