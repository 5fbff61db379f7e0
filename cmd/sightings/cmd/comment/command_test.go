package comment

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

func TestComment(t *testing.T) {
	me := &observations.User{ID: 7, Login: "ada"}
	api := remote.NewFake(me, &observations.Observation{UUID: obsUUID})

	cmd := NewCommand(appcontext.NewTestContext(t, api, me, "table"))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{obsUUID, "Lovely", "find"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("comment failed: %v", err)
	}

	if !strings.Contains(out.String(), "Comment added") {
		t.Errorf("output = %q", out.String())
	}
	var body string
	for _, c := range api.Calls() {
		if c.Method == "CreateComment" {
			body = c.Body
		}
	}
	if body != "Lovely find" {
		t.Errorf("comment body = %q, want %q", body, "Lovely find")
	}
}

func TestCommentFailure(t *testing.T) {
	api := remote.NewFake(nil, &observations.Observation{UUID: obsUUID})
	api.CreateCommentErr = errors.NewAPIError("POST /comments", 422, "Body is too long")

	cmd := NewCommand(appcontext.NewTestContext(t, api, nil, "table"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{obsUUID, "x"})
	err := cmd.ExecuteContext(context.Background())
	if err == nil || err.Error() != "Couldn't create comment: Body is too long" {
		t.Errorf("error = %v", err)
	}
}

func TestCommentNeedsText(t *testing.T) {
	cmd := NewCommand(&appcontext.MockContext{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{obsUUID})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("expected an argument error")
	}
}
