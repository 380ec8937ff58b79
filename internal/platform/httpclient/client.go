// Package httpclient provides the JSON-over-HTTP client shared by upstream
// gateways.
package httpclient

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 64 << 10

// ErrBaseURLRequired indicates a client built without an upstream address.
var ErrBaseURLRequired = errors.New("base url is required")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Service    string
	StatusCode int
	Status     string
	Body       []byte
}

// Error returns the upstream status message.
func (e *StatusError) Error() string {
	if e == nil {
		return "unexpected upstream status"
	}
	return fmt.Sprintf("%s returned %s", e.Service, e.Status)
}

// Request describes one JSON call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	// Body is encoded as JSON when non-nil.
	Body any
}

// Client sends JSON requests to one upstream service.
type Client struct {
	service string
	baseURL *url.URL
	http    *http.Client
}

// NewHTTPClient returns an http.Client whose transport records a client span
// per request and propagates trace context to the upstream.
func NewHTTPClient(timeout time.Duration, opts ...otelhttp.Option) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport, opts...),
	}
}

// New builds a client for service rooted at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(service, baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("%s: %w", service, ErrBaseURLRequired)
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s base url: %w", service, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%s base url %q must be absolute", service, baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		service: service,
		baseURL: parsed,
		http:    httpClient,
	}, nil
}

// Service returns the upstream service name.
func (c *Client) Service() string {
	return c.service
}

// Do sends req and decodes a 2xx JSON response into out. Non-2xx responses
// return *StatusError with a bounded copy of the body. A nil out discards
// the body.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.service, err)
		}
		body = bytes.NewReader(payload)
	}

	endpoint := c.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		endpoint.RawQuery = req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.service, err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       payload,
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.service, err)
	}
	return nil
}

// BearerHeader returns an Authorization header carrying token, or nil when
// token is blank.
func BearerHeader(token string) http.Header {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	return header
}
