// Package client is an HTTP client for the user service's REST surface.
// Every remote call runs inside the retry wrapper, so consumers get bounded
// exponential backoff over transient failures for free.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-user-service/users"
)

// ErrUnauthorized is returned when the service rejects the client's bearer
// credential.
var ErrUnauthorized = errors.New("unauthorized")

// ErrRateLimited is returned when the service throttles the caller. Rate
// limit rejections are terminal, not retryable: hammering a throttled
// endpoint only extends the window.
var ErrRateLimited = errors.New("rate limited")

type UserClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	retryOpts   RetryOptions
}

type UserClientOption func(*UserClient)

// WithHTTPClient overrides the underlying HTTP client (primarily for testing
// and for callers that need custom transports).
func WithHTTPClient(httpClient *http.Client) UserClientOption {
	return func(c *UserClient) {
		c.httpClient = httpClient
	}
}

// WithRetryOptions overrides the default backoff configuration.
func WithRetryOptions(opts RetryOptions) UserClientOption {
	return func(c *UserClient) {
		c.retryOpts = opts
	}
}

func New(baseURL, bearerToken string, options ...UserClientOption) (*UserClient, error) {
	if baseURL == "" {
		return nil, errors.New("[client.New] baseURL is required")
	}

	c := &UserClient{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		retryOpts:   DefaultRetryOptions(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

type createUserRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// errorEnvelope is the service's error response body.
type errorEnvelope struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}

// CreateUser creates a user, retrying transient failures. Safe to retry:
// the service's conditional create means a re-delivered request either wins
// once or reports AlreadyExistsError.
func (c *UserClient) CreateUser(ctx context.Context, id, name string) (*users.User, error) {
	result, err := DoWithRetry(ctx, c.retryOpts, func(ctx context.Context) (*users.User, error) {
		return c.doUserRequest(ctx, http.MethodPost, "/api/v1/users", &createUserRequest{ID: id, Name: name}, id)
	})
	c.logWarnings("CreateUser", result.Warnings)
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

// GetUser fetches a user by id.
func (c *UserClient) GetUser(ctx context.Context, id string) (*users.User, error) {
	result, err := DoWithRetry(ctx, c.retryOpts, func(ctx context.Context) (*users.User, error) {
		return c.doUserRequest(ctx, http.MethodGet, "/api/v1/users/"+id, nil, id)
	})
	c.logWarnings("GetUser", result.Warnings)
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

// DeleteUser deletes a user by id. A repeat delete reports
// users.NotFoundError, never a spurious success.
func (c *UserClient) DeleteUser(ctx context.Context, id string) error {
	result, err := DoWithRetry(ctx, c.retryOpts, func(ctx context.Context) (*users.User, error) {
		return c.doUserRequest(ctx, http.MethodDelete, "/api/v1/users/"+id, nil, id)
	})
	c.logWarnings("DeleteUser", result.Warnings)
	return err
}

// doUserRequest performs one HTTP attempt and converts the response into a
// user or a typed error. Transport errors pass through untouched so the
// retry classifier can inspect them.
func (c *UserClient) doUserRequest(ctx context.Context, method, path string, body any, id string) (*users.User, error) {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "[UserClient] marshal request body")
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, errors.Wrap(err, "[UserClient] build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var user users.User
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, errors.Wrap(err, "[UserClient] decode response body")
		}
		return &user, nil

	case resp.StatusCode == http.StatusNoContent:
		return nil, nil

	case resp.StatusCode == http.StatusBadRequest:
		envelope := decodeEnvelope(resp.Body)
		violations := envelope.Violations
		if len(violations) == 0 {
			violations = []string{envelope.Error}
		}
		return nil, &users.ValidationError{Violations: violations}

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized

	case resp.StatusCode == http.StatusNotFound:
		return nil, &users.NotFoundError{ID: id}

	case resp.StatusCode == http.StatusConflict:
		return nil, &users.AlreadyExistsError{ID: id}

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited

	default:
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}
}

func decodeEnvelope(body io.Reader) errorEnvelope {
	var envelope errorEnvelope
	_ = json.NewDecoder(body).Decode(&envelope)
	return envelope
}

// logWarnings surfaces retry warnings for observability. Warnings never
// change the outcome of the call.
func (c *UserClient) logWarnings(operation string, warnings []string) {
	for _, warning := range warnings {
		log.Warn().Str("operation", operation).Msg(warning)
	}
}
