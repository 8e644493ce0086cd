// Package client is a REST client for the toolshelf API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultRetryDelay = 250 * time.Millisecond
	maxResponseBytes  = 8 << 20
)

type Options struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL    string
	Timeout    time.Duration
	RetryDelay time.Duration
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to a toolshelf server. Each request is retried once on a
// transport error or a 5xx response, never on a 4xx.
type Client struct {
	base       *url.URL
	http       *http.Client
	retryDelay time.Duration
	logger     logger.Logger
}

func New(opts Options, log logger.Logger) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("client: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("client: invalid base url %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{base: base, http: hc, retryDelay: opts.RetryDelay, logger: log}, nil
}

// APIError is a failure envelope returned by the server.
// errors.Is matches it against the domain sentinels.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Type, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Type {
	case "NotFound":
		return domain.ErrNotFound
	case "ValidationError", "BadRequest":
		return domain.ErrValidation
	case "CategoryNotEmpty":
		return domain.ErrCategoryNotEmpty
	case "Conflict":
		return domain.ErrConflict
	}
	return nil
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Scraped   json.RawMessage `json:"scraped"`
	Error     string          `json:"error"`
	ErrorType string          `json:"errorType"`
}

// do sends the request and decodes the envelope. The returned envelope is
// only valid when err is nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	target := *c.base
	target.Path = c.base.Path + path
	target.RawQuery = query.Encode()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying request",
				logger.String("method", method),
				logger.String("path", path),
				logger.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		env, err := c.once(ctx, method, target.String(), payload)
		if err == nil {
			return env, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return nil, lastErr
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	var decodeErr *decodeError
	return !errors.As(err, &decodeErr)
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "failed to decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) once(ctx context.Context, method, target string, payload []byte) (*envelope, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, &decodeError{fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, req.URL.Path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{Status: resp.StatusCode, Message: snippet(raw)}
		}
		return nil, &decodeError{err}
	}
	if resp.StatusCode >= 400 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Type: env.ErrorType, Message: msg}
	}
	return &env, nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// into decodes env.Data into out.
func into(env *envelope, out any) error {
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &decodeError{err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	env, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return into(env, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	env, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	return into(env, out)
}
