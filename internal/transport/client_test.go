package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/agentstation/sightings/pkg/errors"
)

func TestClientSendsTokenAndJSON(t *testing.T) {
	var gotAuth, gotType, gotMethod, gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"total_results":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/v1/", &HeaderAuth{}, WithTokenSource(StaticToken("a.b.c")))
	resp, err := c.Send(context.Background(), http.MethodPost, "/comments", map[string]string{"body": "nice"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	var out struct {
		TotalResults int `json:"total_results"`
	}
	if err := DecodeResponse(resp, &out); err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}

	if gotAuth != "a.b.c" {
		t.Errorf("Authorization = %q, want a.b.c", gotAuth)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
	if gotMethod != http.MethodPost || gotPath != "/v1/comments" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if gotBody["body"] != "nice" {
		t.Errorf("body = %v", gotBody)
	}
	if out.TotalResults != 1 {
		t.Errorf("total_results = %d", out.TotalResults)
	}
}

func TestClientAnonymousWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		if r.Header.Get("Content-Type") != "" {
			t.Errorf("GET should not carry a content type")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, &HeaderAuth{}, WithTokenSource(StaticToken("")))
	resp, err := c.Get(context.Background(), "users/me")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := DecodeResponse(resp, nil); err != nil {
		t.Errorf("DecodeResponse(204) error = %v", err)
	}
}

func TestClientTokenSourceError(t *testing.T) {
	c := New("http://127.0.0.1:1", &HeaderAuth{}, WithTokenSource(func(context.Context) (string, error) {
		return "", errors.New("keychain locked")
	}))

	_, err := c.Get(context.Background(), "users/me")
	if err == nil || !strings.Contains(err.Error(), "keychain locked") {
		t.Errorf("expected token error, got %v", err)
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).Get(context.Background(), "observations/x")
	if !pkgerrors.IsRemoteUnavailable(err) {
		t.Errorf("expected remote unavailable, got %v", err)
	}
}

func TestDecodeResponseErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		check   func(error) bool
	}{
		{
			name:    "plain error string",
			status:  http.StatusUnprocessableEntity,
			body:    `{"error":"Taxon can't be blank"}`,
			message: "Taxon can't be blank",
		},
		{
			name:    "nested original error",
			status:  http.StatusUnprocessableEntity,
			body:    `{"error":{"original":{"error":"Observation is closed"}},"status":422}`,
			message: "Observation is closed",
		},
		{
			name:    "errors array",
			status:  http.StatusBadRequest,
			body:    `{"errors":[{"message":"body too long"}]}`,
			message: "body too long",
		},
		{
			name:    "non json body",
			status:  http.StatusBadGateway,
			body:    "upstream down",
			message: "upstream down",
			check:   pkgerrors.IsRemoteUnavailable,
		},
		{
			name:    "empty body falls back to status",
			status:  http.StatusUnauthorized,
			body:    "",
			message: "401 Unauthorized",
			check:   pkgerrors.IsUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := New(srv.URL, nil).Get(context.Background(), "x")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			err = DecodeResponse(resp, &struct{}{})

			var apiErr *pkgerrors.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Message != tt.message {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.message)
			}
			if apiErr.Endpoint != "GET /x" {
				t.Errorf("endpoint = %q", apiErr.Endpoint)
			}
			if tt.check != nil && !tt.check(err) {
				t.Errorf("classification check failed for %v", err)
			}
		})
	}
}

func TestDecodeResponseBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL, nil).Get(context.Background(), "x")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	var out map[string]any
	err = DecodeResponse(resp, &out)
	var parseErr *pkgerrors.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T", err)
	}
}

func TestURL(t *testing.T) {
	c := New("https://api.example.org/v1/", nil)
	if got := c.URL("/observations/abc"); got != "https://api.example.org/v1/observations/abc" {
		t.Errorf("URL() = %s", got)
	}
	if c.BaseURL() != "https://api.example.org/v1" {
		t.Errorf("BaseURL() = %s", c.BaseURL())
	}
}
