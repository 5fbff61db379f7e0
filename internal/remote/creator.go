package remote

import (
	"context"

	"github.com/agentstation/sightings/pkg/observations"
	"github.com/agentstation/sightings/pkg/reconcile"
)

// Creator adapts an API to reconcile.Creator.
type Creator struct {
	API API
}

// CreateIdentification implements reconcile.Creator.
func (c Creator) CreateIdentification(ctx context.Context, req reconcile.Request) (*observations.Identification, error) {
	return c.API.CreateIdentification(ctx, IdentificationParams{
		ObservationUUID: req.ObservationUUID,
		TaxonID:         req.TaxonID,
		Body:            req.Body,
		UUID:            req.UUID,
	})
}
