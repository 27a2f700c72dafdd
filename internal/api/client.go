// Package api is the typed client for the drivewise backend. Every endpoint
// answers with the {status, message, data} envelope; a non-success status is
// returned as a *errors.BackendError carrying the server's message, whatever
// the HTTP status code was.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
)

// TokenSource yields the bearer token at request time.
type TokenSource interface {
	Get() (string, error)
}

// Client calls the backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type validator interface {
	Validate() error
}

// call performs one request and decodes the envelope's data into out.
// out may be nil for endpoints whose payload is ignored.
func (c *Client) call(ctx context.Context, method, path string, auth bool, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		if v, ok := body.(validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("invalid request: %w", err)
			}
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &apperrors.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		token, err := c.token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &apperrors.TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return &apperrors.TransportError{Op: op, StatusCode: res.StatusCode, Err: err}
	}
	logger.Debug("API response", "op", op, "status", res.StatusCode, "bytes", len(raw))

	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if res.StatusCode >= 300 {
			return &apperrors.TransportError{Op: op, StatusCode: res.StatusCode, Err: errors.New(snippet(raw))}
		}
		return &apperrors.TransportError{Op: op, StatusCode: res.StatusCode, Err: fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)}
	}

	switch env.Status {
	case models.StatusSuccess:
	case models.StatusError:
		return &apperrors.BackendError{Op: op, Message: env.Message}
	default:
		if res.StatusCode >= 300 {
			return &apperrors.TransportError{Op: op, StatusCode: res.StatusCode, Err: errors.New(snippet(raw))}
		}
		return fmt.Errorf("%s: %w: unknown status %q", op, apperrors.ErrMalformedResponse, env.Status)
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		// list endpoints decode into a raw message and treat null as empty
		if _, ok := out.(*json.RawMessage); ok {
			return nil
		}
		return fmt.Errorf("%s: %w: missing data", op, apperrors.ErrMalformedResponse)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, apperrors.ErrMalformedResponse, err)
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s: %w: %v", op, apperrors.ErrMalformedResponse, err)
		}
	}
	return nil
}

func (c *Client) token() (string, error) {
	if c.tokens == nil {
		return "", apperrors.ErrAuthRequired
	}
	token, err := c.tokens.Get()
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return "", apperrors.ErrAuthRequired
	}
	return token, nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty response body"
	}
	return s
}

// Ping checks that the backend answers HTTP at all. Any status counts as
// reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return &apperrors.TransportError{Op: "GET /", Err: err}
	}
	res, err := c.http.Do(req)
	if err != nil {
		return &apperrors.TransportError{Op: "GET /", Err: err}
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return res.Body.Close()
}
