package remote

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/sightings/internal/transport"
	"github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/logging"
	"github.com/agentstation/sightings/pkg/observations"
)

// envelope is the API's result wrapper.
type envelope[T any] struct {
	TotalResults int `json:"total_results"`
	Results      []T `json:"results"`
}

// single returns the one record of an envelope or ErrAmbiguousResult.
func (e *envelope[T]) single(endpoint string) (*T, error) {
	if e.TotalResults != 1 || len(e.Results) != 1 {
		return nil, &errors.APIError{
			Endpoint: endpoint,
			Message:  "expected exactly one result",
			Err:      errors.ErrAmbiguousResult,
		}
	}
	return &e.Results[0], nil
}

// Client is the HTTP implementation of API.
type Client struct {
	transport *transport.Client
	logger    *zerolog.Logger
}

var _ API = (*Client)(nil)

// NewClient creates a client over an authenticated transport.
func NewClient(t *transport.Client) *Client {
	return &Client{transport: t, logger: logging.Default()}
}

// FetchObservation implements API.
func (c *Client) FetchObservation(ctx context.Context, uuid string) (*observations.Observation, error) {
	if uuid == "" {
		return nil, errors.NewValidationError("uuid", uuid, "observation uuid is required")
	}
	path := "observations/" + url.PathEscape(uuid)

	resp, err := c.transport.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var env envelope[observations.Observation]
	if err := transport.DecodeResponse(resp, &env); err != nil {
		return nil, err
	}
	if env.TotalResults == 0 || len(env.Results) == 0 {
		return nil, errors.NewNotFoundError("observation", uuid)
	}
	obs, err := env.single("GET /" + path)
	if err != nil {
		return nil, err
	}
	return obs, nil
}

// CreateIdentification implements API.
func (c *Client) CreateIdentification(ctx context.Context, params IdentificationParams) (*observations.Identification, error) {
	if params.ObservationUUID == "" || params.TaxonID <= 0 {
		return nil, errors.NewValidationError("identification", params, "observation and taxon are required")
	}
	payload := struct {
		Identification IdentificationParams `json:"identification"`
	}{params}

	resp, err := c.transport.Send(ctx, http.MethodPost, "identifications", payload)
	if err != nil {
		return nil, err
	}
	var env envelope[observations.Identification]
	if err := transport.DecodeResponse(resp, &env); err != nil {
		return nil, err
	}
	return env.single("POST /identifications")
}

// CreateComment implements API.
func (c *Client) CreateComment(ctx context.Context, body, observationUUID string) (*observations.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.NewValidationError("body", body, "comment body is empty")
	}
	payload := map[string]any{
		"comment": map[string]string{
			"body":        body,
			"parent_type": "Observation",
			"parent_id":   observationUUID,
		},
	}

	resp, err := c.transport.Send(ctx, http.MethodPost, "comments", payload)
	if err != nil {
		return nil, err
	}
	var env envelope[observations.Comment]
	if err := transport.DecodeResponse(resp, &env); err != nil {
		return nil, err
	}
	if len(env.Results) == 0 {
		c.logger.Debug().Str("observation_uuid", observationUUID).Msg("Comment accepted without a record")
		return nil, nil
	}
	return &env.Results[0], nil
}

// FaveObservation implements API.
func (c *Client) FaveObservation(ctx context.Context, uuid string, verb Verb) error {
	method := http.MethodPost
	switch verb {
	case Fave:
	case Unfave:
		method = http.MethodDelete
	default:
		return errors.NewValidationError("verb", verb, "must be fave or unfave")
	}

	resp, err := c.transport.Send(ctx, method, "observations/"+url.PathEscape(uuid)+"/fave", nil)
	if err != nil {
		return err
	}
	return transport.DecodeResponse(resp, nil)
}

// MarkObservationUpdatesViewed implements API.
func (c *Client) MarkObservationUpdatesViewed(ctx context.Context, uuid string) error {
	resp, err := c.transport.Send(ctx, http.MethodPut, "observations/"+url.PathEscape(uuid)+"/viewed_updates", nil)
	if err != nil {
		return err
	}
	return transport.DecodeResponse(resp, nil)
}

// Me implements API.
func (c *Client) Me(ctx context.Context) (*observations.User, error) {
	resp, err := c.transport.Get(ctx, "users/me")
	if err != nil {
		return nil, err
	}
	var env envelope[observations.User]
	if err := transport.DecodeResponse(resp, &env); err != nil {
		return nil, err
	}
	return env.single("GET /users/me")
}
