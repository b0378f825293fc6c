// Package client is a Go client for the MemoBread HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/memobread/memobread/internal/errors"
)

const (
	// DefaultTimeout is applied when the request context has no deadline.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "memobread-client"

	// maxErrorBody bounds how much of an error response is read
	maxErrorBody = 64 << 10
)

// Recording is a stored voice memo as returned by the API.
type Recording struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	City      *string   `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is a new memo submission.
type CreateRequest struct {
	AudioData string     `json:"audio_data"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	City      *string    `json:"city,omitempty"`
	Language  string     `json:"language,omitempty"`
}

// LocationGroup lists the recordings captured in one city.
type LocationGroup struct {
	City         string   `json:"city"`
	Count        int      `json:"count"`
	RecordingIDs []string `json:"recording_ids"`
}

// APIError is a non-2xx response decoded from the server error body.
type APIError struct {
	StatusCode    int    `json:"code"`
	ErrorText     string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.CorrelationID != "" {
		return fmt.Sprintf("api error %d: %s (correlation id %s)", e.StatusCode, msg, e.CorrelationID)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, msg)
}

// Client talks to one MemoBread server. Safe for concurrent use.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	defaultTimeout time.Duration
	userAgent      string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the timeout used when the context has no deadline
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		if err == nil {
			err = errors.NewStd("base URL needs a scheme and host")
		}
		return nil, errors.New(err).
			Component("client").
			Category(errors.CategoryConfiguration).
			Context("base_url", baseURL).
			Build()
	}

	c := &Client{
		baseURL:        u,
		defaultTimeout: DefaultTimeout,
		userAgent:      defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		// nil Transport means http.DefaultTransport, resolved per request
		c.http = &http.Client{}
	}
	return c, nil
}

// BaseURLForListener returns the URL a local client uses to reach a server
// listening on host:port. Wildcard hosts are replaced by localhost.
func BaseURLForListener(host, port string) string {
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Create submits a memo and returns the stored recording.
func (c *Client) Create(ctx context.Context, req *CreateRequest) (*Recording, error) {
	var rec Recording
	if err := c.do(ctx, http.MethodPost, "/api/recordings/", req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns all recordings in insertion order.
func (c *Client) List(ctx context.Context) ([]Recording, error) {
	recs := []Recording{}
	if err := c.do(ctx, http.MethodGet, "/api/recordings/", nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Get fetches one recording.
func (c *Client) Get(ctx context.Context, id string) (*Recording, error) {
	var rec Recording
	if err := c.do(ctx, http.MethodGet, "/api/recordings/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes one recording.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/recordings/"+url.PathEscape(id), nil, nil)
}

// Locations returns recordings grouped by city.
func (c *Client) Locations(ctx context.Context) ([]LocationGroup, error) {
	groups := []LocationGroup{}
	if err := c.do(ctx, http.MethodGet, "/api/locations", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return errors.Newf("unexpected health status %q", body.Status).
			Component("client").
			Category(errors.CategoryHTTP).
			Build()
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.defaultTimeout)
		defer cancel()
	}

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.New(err).
				Component("client").
				Category(errors.CategoryValidation).
				Context("operation", "marshal_request").
				Build()
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.baseURL.String() + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errors.New(err).
			Component("client").
			Category(errors.CategoryHTTP).
			Context("method", method).
			Context("path", path).
			Build()
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		category := errors.CategoryNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			category = errors.CategoryTimeout
		}
		return errors.New(err).
			Component("client").
			Category(category).
			Context("method", method).
			Context("path", path).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp, method, path)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.New(err).
			Component("client").
			Category(errors.CategoryHTTP).
			Context("operation", "decode_response").
			Context("path", path).
			Build()
	}
	return nil
}

func decodeAPIError(resp *http.Response, method, path string) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(data) > 0 {
		_ = json.Unmarshal(data, apiErr)
		// the body code is advisory, the status line wins
		apiErr.StatusCode = resp.StatusCode
	}

	return errors.New(apiErr).
		Component("client").
		Category(categoryForStatus(resp.StatusCode)).
		Context("method", method).
		Context("path", path).
		Context("status", resp.StatusCode).
		Build()
}

func categoryForStatus(status int) errors.ErrorCategory {
	switch {
	case status == http.StatusNotFound:
		return errors.CategoryNotFound
	case status == http.StatusConflict:
		return errors.CategoryConflict
	case status == http.StatusGatewayTimeout:
		return errors.CategoryTimeout
	case status == http.StatusBadGateway:
		return errors.CategoryIntegration
	case status >= 400 && status < 500:
		return errors.CategoryValidation
	default:
		return errors.CategoryHTTP
	}
}
