// Package remote talks to the observation API. Callers work with typed
// records; the API's "total_results" envelope is interpreted here and
// nowhere else.
package remote

import (
	"context"

	"github.com/agentstation/sightings/pkg/observations"
)

// Verb is the fave action to apply.
type Verb string

// Fave verbs.
const (
	Fave   Verb = "fave"
	Unfave Verb = "unfave"
)

// VerbFor picks the verb that toggles the current state.
func VerbFor(faved bool) Verb {
	if faved {
		return Unfave
	}
	return Fave
}

// IdentificationParams describes an identification to create.
type IdentificationParams struct {
	ObservationUUID string `json:"observation_id"`
	TaxonID         int    `json:"taxon_id"`
	Body            string `json:"body,omitempty"`
	UUID            string `json:"uuid,omitempty"`
}

// API is the remote observation service.
type API interface {
	// FetchObservation returns the current server copy of an observation.
	FetchObservation(ctx context.Context, uuid string) (*observations.Observation, error)

	// CreateIdentification creates one identification. It fails with
	// errors.ErrAmbiguousResult unless the server confirms exactly one record.
	CreateIdentification(ctx context.Context, params IdentificationParams) (*observations.Identification, error)

	// CreateComment adds a comment to an observation. A nil comment with a
	// nil error means the server accepted the request without echoing a record.
	CreateComment(ctx context.Context, body, observationUUID string) (*observations.Comment, error)

	// FaveObservation applies a fave verb for the signed-in user.
	FaveObservation(ctx context.Context, uuid string, verb Verb) error

	// MarkObservationUpdatesViewed clears the observation's unread updates.
	MarkObservationUpdatesViewed(ctx context.Context, uuid string) error

	// Me returns the user the API token belongs to.
	Me(ctx context.Context) (*observations.User, error)
}
