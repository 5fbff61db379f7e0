package sightings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightings/internal/remote"
	"github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/logging"
)

func TestOpenMarksViewedOnce(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	c, st := newTestClient(t, api)
	ctx := context.Background()

	d, err := c.Open(ctx, "obs-1")
	require.NoError(t, err)
	c.bg.Wait()

	assert.Equal(t, 1, api.CallCount("MarkObservationUpdatesViewed"))
	local, err := st.Observation(ctx, "obs-1")
	require.NoError(t, err)
	assert.True(t, local.Viewed)
	assert.True(t, d.Observation().Viewed)

	// Reopening, even after the view was closed, does not repeat the calls.
	d.Close()
	_, err = c.Open(ctx, "obs-1")
	require.NoError(t, err)
	c.bg.Wait()
	assert.Equal(t, 1, api.CallCount("MarkObservationUpdatesViewed"))
}

func TestOpenAlreadyViewedDoesNothing(t *testing.T) {
	obs := sampleObservation("obs-1")
	obs.Viewed = true
	api := remote.NewFake(me, obs)
	c, st := newTestClient(t, api)
	ctx := context.Background()

	_, err := c.Open(ctx, "obs-1")
	require.NoError(t, err)
	c.bg.Wait()

	assert.Zero(t, api.CallCount("MarkObservationUpdatesViewed"))
	pending, err := st.PendingViewed(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMarkViewedRemoteFailureIsSilent(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	api.MarkViewedErr = errors.NewAPIError("PUT /observations/obs-1/viewed_updates", 503, "down")
	c, st := newTestClient(t, api)
	ctx := context.Background()

	d, err := c.Open(ctx, "obs-1")
	require.NoError(t, err)
	c.bg.Wait()

	// The local write is independent of the remote one.
	assert.True(t, d.Observation().Viewed)
	pending, err := st.PendingViewed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"obs-1"}, pending)
}

func TestSyncViewed(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"), sampleObservation("obs-2"))
	api.MarkViewedErr = errors.NewAPIError("PUT", 503, "down")
	c, st := newTestClient(t, api)
	ctx := context.Background()

	for _, uuid := range []string{"obs-1", "obs-2"} {
		_, err := c.Open(ctx, uuid)
		require.NoError(t, err)
	}
	c.bg.Wait()

	n, err := c.SyncViewed(ctx)
	assert.Zero(t, n)
	assert.True(t, errors.IsRemoteUnavailable(err))

	api.MarkViewedErr = nil
	n, err = c.SyncViewed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := st.PendingViewed(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	n, err = c.SyncViewed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSyncViewedWithoutStore(t *testing.T) {
	c, err := New(WithAPI(remote.NewFake(me)), WithUserProvider(staticUser{me}))
	require.NoError(t, err)
	defer c.Close()

	n, err := c.SyncViewed(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestViewedSetClaim(t *testing.T) {
	v := newViewedSet()
	assert.True(t, v.claim("a"))
	assert.False(t, v.claim("a"))
	assert.True(t, v.claim("b"))
}

func TestMarkViewedRetriesAfterFailureWithoutStore(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	api.MarkViewedErr = errors.NewAPIError("PUT /observations/obs-1/viewed_updates", 503, "down")
	c, err := New(WithAPI(api), WithUserProvider(staticUser{me}))
	require.NoError(t, err)
	defer c.Close()
	impl := c.(*client)
	ctx := context.Background()

	first, err := c.Open(ctx, "obs-1")
	require.NoError(t, err)
	impl.bg.Wait()
	assert.False(t, first.Observation().Viewed)

	api.MarkViewedErr = nil
	second, err := c.Open(ctx, "obs-1")
	require.NoError(t, err)
	impl.bg.Wait()

	assert.Equal(t, 2, api.CallCount("MarkObservationUpdatesViewed"))
	assert.True(t, second.Observation().Viewed)

	_, err = c.Open(ctx, "obs-1")
	require.NoError(t, err)
	impl.bg.Wait()
	assert.Equal(t, 2, api.CallCount("MarkObservationUpdatesViewed"))
}

func TestViewedSetRelease(t *testing.T) {
	v := newViewedSet()
	require.True(t, v.claim("a"))
	v.release("a")
	assert.True(t, v.claim("a"))
}

func TestMarkViewedLogsWithContext(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	api.MarkViewedErr = errors.NewAPIError("PUT /observations/obs-1/viewed_updates", 503, "down")
	tl := logging.NewTestLogger(t)
	c, _ := newTestClient(t, api, WithLogger(tl.Logger))

	_, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)
	c.bg.Wait()

	tl.AssertContains(t, "Could not mark observation updates viewed remotely")
	tl.AssertContains(t, `"operation":"mark_viewed"`)
	tl.AssertContains(t, `"observation_uuid":"obs-1"`)
	tl.AssertContains(t, `"user_id":7`)
}
