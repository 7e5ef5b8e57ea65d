// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the dialog service API.
const (
	// DefaultBasePath is the API prefix every endpoint lives under.
	DefaultBasePath = "/api/v1"

	// DefaultTimeout is the timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the retry budget for idempotent requests.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// defaultRequestsPerSecond paces outbound requests so a busy UI
	// cannot hammer the service.
	defaultRequestsPerSecond = 10
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// One shared client for request/response calls, one without a timeout
	// for streaming bodies (lifetime controlled via context).
	sharedHTTPClient = &http.Client{
		Transport: newPooledTransport(),
		Timeout:   DefaultTimeout,
	}

	sharedStreamingClient = &http.Client{
		Transport: newPooledTransport(),
		// No timeout for streaming, controlled via context.
	}
)

func newPooledTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// TokenSource supplies the bearer credential for each request. The source
// is consulted per request so a rotated token takes effect without
// rebuilding the client.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource returning a fixed string.
type StaticToken string

func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", ErrNoCredential
	}
	return string(t), nil
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one dialog service instance.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	streaming  *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *log.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces both underlying HTTP clients. Intended for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
		cl.streaming = c
	}
}

// WithMaxRetries sets the retry budget for idempotent requests.
func WithMaxRetries(n int) Option {
	return func(cl *Client) {
		if n >= 0 {
			cl.maxRetries = n
		}
	}
}

// WithRateLimit sets the outbound request pacing in requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(cl *Client) {
		if perSecond > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(perSecond), int(perSecond))
		}
	}
}

// WithLogger sets the request logger. Only method, path, status, and
// duration are logged, never bodies or credentials.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New builds a Client for the service at baseURL (scheme and host, no
// trailing API prefix).
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + DefaultBasePath,
		tokens:     tokens,
		httpClient: sharedHTTPClient,
		streaming:  sharedStreamingClient,
		limiter:    rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestsPerSecond),
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved API root, mainly for status output.
func (c *Client) BaseURL() string { return c.baseURL }

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// newRequest builds an authenticated request. A missing credential fails
// here, before any network traffic.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, &AuthError{Reason: "no token available", Err: ErrNoCredential}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "parley-tui/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes a request and decodes a JSON response into out (which may be
// nil for endpoints with no interesting body).
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.execute(c.httpClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(req, resp)
	}
	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return nil
	}

	// SECURITY: Cap the body read regardless of Content-Length.
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return &TransportError{Op: opOf(req), Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: opOf(req), Status: resp.StatusCode,
			Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// doRetry is do with exponential backoff for transient failures. Only used
// for idempotent requests.
func (c *Client) doRetry(ctx context.Context, method, path string, body, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}
		req, err := c.newRequest(ctx, method, path, body)
		if err != nil {
			return err
		}
		lastErr = c.do(req, out)
		if lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// execute runs one HTTP round trip with rate limiting and request logging.
func (c *Client) execute(client *http.Client, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if c.logger != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.logger.Printf("%s %s -> %d (%s)", req.Method, req.URL.Path, status,
			time.Since(start).Round(time.Millisecond))
	}
	if err != nil {
		return nil, &TransportError{Op: opOf(req), Err: err}
	}
	return resp, nil
}

// errorFromResponse maps a non-success status onto the error taxonomy,
// consuming a bounded amount of the body for the service's detail string.
func (c *Client) errorFromResponse(req *http.Request, resp *http.Response) error {
	detail := readErrorDetail(resp.Body)
	op := opOf(req)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		reason := detail
		if reason == "" {
			reason = "credential rejected"
		}
		return &AuthError{Reason: reason, Err: ErrUnauthorized}
	case http.StatusNotFound:
		return &TransportError{Op: op, Status: resp.StatusCode, Err: ErrNotFound}
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		if detail == "" {
			detail = "request rejected by service"
		}
		return &ValidationError{Reason: detail}
	case http.StatusTooManyRequests:
		return &TransportError{Op: op, Status: resp.StatusCode, Err: ErrRateLimited}
	}
	if detail != "" {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", detail)}
	}
	return &TransportError{Op: op, Status: resp.StatusCode}
}

// readErrorDetail extracts {"detail": "..."} from an error body, tolerating
// anything else.
func readErrorDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &body) == nil && body.Detail != "" {
		return body.Detail
	}
	return ""
}

// isRetryable reports whether the request is worth repeating. Client-side
// errors and auth failures are not; 5xx, 429, and raw network failures are.
func isRetryable(err error) bool {
	if IsAuth(err) || IsValidation(err) {
		return false
	}
	status := StatusOf(err)
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}

// backoffDelay returns the exponential backoff delay for a retry attempt.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay * (1 << (attempt - 1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// opOf renders a request as a short operation label for errors and logs.
func opOf(req *http.Request) string {
	return req.Method + " " + req.URL.Path
}

// pageQuery builds the ?page=&size= suffix shared by the list endpoints.
func pageQuery(page, size int) string {
	v := url.Values{}
	if page > 0 {
		v.Set("page", fmt.Sprint(page))
	}
	if size > 0 {
		v.Set("size", fmt.Sprint(size))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
