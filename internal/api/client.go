// Package api is the client for the message backend's REST API. It maps
// the backend's loosely typed JSON onto the records in package model.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nhle/mailcal/internal/logging"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Client is a thin HTTP client for the message backend. It forwards the
// session cookie, decodes JSON, and retries throttled requests with
// exponential backoff.
type Client struct {
	baseURL     string
	cookieName  string
	session     string
	httpClient  *http.Client
	maxRetries  int
	backoffBase time.Duration
	loc         *time.Location
	log         *logrus.Entry
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxRetries sets how often a throttled request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBackoff sets the first retry delay; later delays double it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoffBase = d }
}

// WithLocation sets the time zone used to interpret delivery times.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.loc = loc }
}

// WithLogger sets the log entry used for request tracing.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client for the backend at baseURL. The session value
// is sent as the cookie named cookieName; an empty session sends no cookie.
func NewClient(baseURL, cookieName, session string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cookieName: cookieName,
		session:    session,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries:  3,
		backoffBase: time.Second,
		loc:         time.Local,
		log:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Location returns the time zone used for delivery times.
func (c *Client) Location() *time.Location {
	return c.loc
}

// getJSON performs a GET and unmarshals the JSON response into result.
func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", result)
}

// getRaw performs a GET and returns the undecoded response body.
func (c *Client) getRaw(ctx context.Context, path string) ([]byte, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, "", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// deleteJSON performs a DELETE, decoding the response when result is set.
func (c *Client) deleteJSON(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", result)
}

// postForm performs a form-encoded POST.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, result any) error {
	return c.do(ctx, http.MethodPost, path, []byte(form.Encode()), contentTypeForm, result)
}

// do is the core HTTP method that builds the request, attaches the session,
// retries on 429/503, and decodes the response.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body []byte,
	contentType string,
	result any,
) error {
	target := c.baseURL + path
	requestID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Accept", contentTypeJSON)
		req.Header.Set("X-Request-ID", requestID)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.session != "" {
			req.AddCookie(&http.Cookie{Name: c.cookieName, Value: c.session})
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.WithError(err).Warn("request failed")
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		log.WithFields(logrus.Fields{
			"status":  resp.StatusCode,
			"attempt": attempt,
			"elapsed": time.Since(start).String(),
		}).Debug("request done")

		if resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusServiceUnavailable {
			lastErr = &StatusError{Code: resp.StatusCode, Method: method, Path: path}
			if attempt == c.maxRetries {
				break
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryAfter(resp, attempt)):
				continue
			}
		}

		if err := checkStatus(resp.StatusCode, method, path, respBody); err != nil {
			return err
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfter reads the Retry-After header and computes a wait duration.
// Falls back to exponential backoff if the header is missing.
func (c *Client) retryAfter(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := c.backoffBase * time.Duration(1<<uint(attempt))
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
