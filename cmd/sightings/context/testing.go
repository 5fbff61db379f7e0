package context

import (
	stdctx "context"
	"testing"

	"github.com/agentstation/sightings"
	"github.com/agentstation/sightings/internal/remote"
	"github.com/agentstation/sightings/pkg/observations"
)

// NewTestContext returns a MockContext whose client talks to api, is
// signed in as user (nil for signed out) and has no local mirror. The
// client is closed when the test ends.
func NewTestContext(t testing.TB, api remote.API, user *observations.User, format string) *MockContext {
	t.Helper()

	client, err := sightings.New(
		sightings.WithAPI(api),
		sightings.WithUserProvider(sightings.UserProviderFunc(func(stdctx.Context) (*observations.User, error) {
			return user, nil
		})),
	)
	if err != nil {
		t.Fatalf("sightings.New() failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return &MockContext{
		ClientFunc:       func() (sightings.Client, error) { return client, nil },
		OutputFormatFunc: func() string { return format },
	}
}
