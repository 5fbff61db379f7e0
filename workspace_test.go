package sightings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightings/internal/remote"
	"github.com/agentstation/sightings/pkg/observations"
	"github.com/agentstation/sightings/pkg/reconcile"
)

func TestWorkspace(t *testing.T) {
	ws := NewWorkspace()
	assert.Zero(t, ws.Len())

	ws.Add(&observations.Observation{UUID: "a"}, nil, &observations.Observation{UUID: "b"})
	ws.Add(&observations.Observation{UUID: "a", PlaceGuess: "updated"})

	all := ws.Observations()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].UUID)
	assert.Equal(t, "updated", all[0].PlaceGuess)
	assert.Equal(t, "b", all[1].UUID)
	assert.Equal(t, 2, ws.Len())

	all[0].PlaceGuess = "caller copy"
	assert.Equal(t, "updated", ws.Observations()[0].PlaceGuess)
}

func TestIdentifyFromWorkspace(t *testing.T) {
	api := remote.NewFake(me, sampleObservation("obs-1"))
	c, _ := newTestClient(t, api)

	d, err := c.Open(context.Background(), "obs-1")
	require.NoError(t, err)

	ws := NewWorkspace()
	d.AddToWorkspace(ws)
	require.Equal(t, 1, ws.Len())
	require.Equal(t, "obs-1", ws.Observations()[0].UUID)

	sub := d.AddIdentification(context.Background(), reconcile.Draft{Taxon: oak})
	require.NoError(t, sub.Wait(context.Background()))
	assert.Equal(t, 1, api.CallCount("CreateIdentification"))
}
