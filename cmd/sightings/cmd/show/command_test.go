package show

import (
	"bytes"
	"context"
	"strings"
	"testing"

	appcontext "github.com/agentstation/sightings/cmd/sightings/context"
	"github.com/agentstation/sightings/internal/remote"
	"github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/observations"
)

const obsUUID = "9b2a6c1e-0000-4000-8000-000000000001"

func fixture() *observations.Observation {
	return &observations.Observation{
		UUID:       obsUUID,
		User:       &observations.User{ID: 2, Login: "grace"},
		Taxon:      &observations.Taxon{ID: 47851, Name: "Quercus", PreferredCommonName: "Oaks"},
		PlaceGuess: "Tilden",
		Identifications: []observations.Identification{
			{UUID: "aaaaaaaa-0000-4000-8000-000000000001", Taxon: &observations.Taxon{ID: 47851, Name: "Quercus"}},
		},
	}
}

func run(t *testing.T, appCtx *appcontext.MockContext, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(appCtx)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestShowTable(t *testing.T) {
	api := remote.NewFake(nil, fixture())
	out, err := run(t, appcontext.NewTestContext(t, api, nil, "table"), obsUUID)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"Oaks", "@grace", "Tilden", "confirmed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if api.CallCount("FetchObservation") != 1 {
		t.Errorf("FetchObservation calls = %d, want 1", api.CallCount("FetchObservation"))
	}
}

func TestShowJSON(t *testing.T) {
	api := remote.NewFake(nil, fixture())
	out, err := run(t, appcontext.NewTestContext(t, api, nil, "json"), obsUUID)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}

	for _, want := range []string{`"uuid": "` + obsUUID + `"`, `"state": "confirmed"`, `"faved": false`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestShowErrors(t *testing.T) {
	api := remote.NewFake(nil)

	_, err := run(t, appcontext.NewTestContext(t, api, nil, "table"), "not-a-uuid")
	if !errors.IsValidationError(err) {
		t.Errorf("bad uuid error = %v, want validation error", err)
	}

	_, err = run(t, appcontext.NewTestContext(t, api, nil, "table"), obsUUID)
	if !errors.IsNotFound(err) {
		t.Errorf("missing observation error = %v, want not found", err)
	}
}
