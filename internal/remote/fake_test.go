package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightings/pkg/observations"
)

func TestFakeFaveRoundTrip(t *testing.T) {
	me := &observations.User{ID: 7, Login: "naturalist"}
	f := NewFake(me, &observations.Observation{UUID: "obs-1"})
	ctx := context.Background()

	require.NoError(t, f.FaveObservation(ctx, "obs-1", Fave))
	require.NoError(t, f.FaveObservation(ctx, "obs-1", Fave))
	obs, err := f.FetchObservation(ctx, "obs-1")
	require.NoError(t, err)
	assert.Len(t, obs.Faves, 1)

	require.NoError(t, f.FaveObservation(ctx, "obs-1", Unfave))
	obs, _ = f.FetchObservation(ctx, "obs-1")
	assert.False(t, obs.FavedBy(7))
	assert.Equal(t, 3, f.CallCount("FaveObservation"))
}

func TestFakeCreateAppends(t *testing.T) {
	f := NewFake(&observations.User{ID: 7}, &observations.Observation{UUID: "obs-1"})
	ctx := context.Background()

	id, err := f.CreateIdentification(ctx, IdentificationParams{ObservationUUID: "obs-1", TaxonID: 3, UUID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UUID)

	_, err = f.CreateComment(ctx, "hello", "obs-1")
	require.NoError(t, err)

	obs, _ := f.FetchObservation(ctx, "obs-1")
	assert.Len(t, obs.Identifications, 1)
	assert.Len(t, obs.Comments, 1)
}
