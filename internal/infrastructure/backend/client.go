// Package backend is the HTTP adapter for the vehicle-management REST API.
// It implements ports.AuthAPI and ports.ResourceAPI.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/diosesguerreros/vehicle-portal/internal/api/metrics"
	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// Config captures the settings needed to reach the backend.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks JSON (and multipart for uploads) to the backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New returns a Client for cfg. A default timeout is applied when none is provided.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend: base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "backend").Logger(),
	}, nil
}

// BaseURL returns the normalized backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// StatusError is a non-2xx backend answer.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
	base    error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *StatusError) Unwrap() error { return e.base }

// ServerMessage is the message the backend attached to the answer, if any.
func (e *StatusError) ServerMessage() string { return e.Message }

// DecodeError is a 2xx answer whose payload does not match the expected shape.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == domain.ErrMalformedResponse }

// errorBody covers both error envelopes the backend produces.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

// do sends req and returns the body of a 2xx answer. Non-2xx answers become a
// *StatusError wrapping the matching domain error; transport failures wrap
// domain.ErrNetwork.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(req.method, "error").Observe(time.Since(start).Seconds())
		c.log.Warn().Err(err).Str("method", req.method).Str("path", req.path).Msg("backend unreachable")
		return nil, fmt.Errorf("%s %s: %w: %v", req.method, req.path, domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.BackendRequestDuration.WithLabelValues(req.method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w: %v", req.method, req.path, domain.ErrNetwork, err)
	}

	c.log.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return payload, nil
	}
	return nil, statusError(req, resp.StatusCode, payload)
}

func statusError(req request, status int, payload []byte) *StatusError {
	var body errorBody
	_ = json.Unmarshal(payload, &body)
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}

	var base error
	switch status {
	case http.StatusUnauthorized:
		base = domain.ErrUnauthorized
	case http.StatusForbidden:
		base = domain.ErrForbidden
	case http.StatusNotFound:
		base = domain.ErrNotFound
	}
	return &StatusError{Method: req.method, Path: req.path, Status: status, Message: msg, base: base}
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return bytes.NewReader(b), nil
}

// Ping reports whether the backend answers at all. Any HTTP status counts as
// reachable; only transport failures are returned.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/"})
	if errors.Is(err, domain.ErrNetwork) {
		return err
	}
	return nil
}
