// Package spreedly is a small client for the Spreedly core API. It sends
// authenticated JSON requests, unwraps the single resource carried by each
// response and separates transport errors from business failures: missing
// credentials, 404 and 401/403 are returned as errors, while other 4xx and 5xx
// responses come back as a *Result whose Fails method reports true.
package spreedly

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/spreedly-client/pkg/httpclient"
)

// Observer receives one notification per completed round trip. StatusCode is 0
// when the request never produced a response.
type Observer interface {
	ObserveCall(method string, statusCode int, elapsed time.Duration)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the resty-backed transport.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for per-call diagnostics.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver registers an observer for call latency and status.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// Client performs one HTTP call per invocation. It holds only immutable
// configuration and is safe for concurrent use.
type Client struct {
	opts     Options
	baseURL  string
	http     httpclient.Client
	log      Logger
	observer Observer
}

// New builds a client. Credentials are validated when a call is made, not here.
func New(opts Options, options ...Option) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		opts:    opts,
		baseURL: normalizeBaseURL(opts.BaseURL),
		http:    httpclient.NewRestyClient(timeout),
		log:     noopLogger{},
	}
	for _, o := range options {
		if o != nil {
			o(c)
		}
	}
	return c
}

// BaseURL returns the effective base URL, always ending in a single "/".
func (c *Client) BaseURL() string { return c.baseURL }

// URL joins endpoint onto the base URL.
func (c *Client) URL(endpoint string) string {
	return c.baseURL + strings.TrimLeft(strings.TrimSpace(endpoint), "/")
}

// Get issues a GET for endpoint with params as the query string.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string) (*Result, error) {
	return c.do(ctx, http.MethodGet, endpoint, params, nil)
}

// Post issues a POST for endpoint with body encoded as JSON. A nil body is sent as {}.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (*Result, error) {
	if body == nil {
		body = map[string]any{}
	}
	return c.do(ctx, http.MethodPost, endpoint, nil, body)
}

// Put issues a PUT for endpoint with body encoded as JSON. A nil body is sent as {}.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (*Result, error) {
	if body == nil {
		body = map[string]any{}
	}
	return c.do(ctx, http.MethodPut, endpoint, nil, body)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query map[string]string, body any) (*Result, error) {
	if err := c.opts.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	url := c.URL(endpoint)
	headers := map[string]string{"Accept": "application/json"}
	if body != nil {
		headers["Content-Type"] = "application/json"
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:   method,
		URL:      url,
		Headers:  headers,
		Query:    query,
		Body:     body,
		Username: strings.TrimSpace(c.opts.Key),
		Password: strings.TrimSpace(c.opts.Secret),
	})
	elapsed := time.Since(start)
	if err != nil {
		c.observe(method, 0, elapsed)
		c.log.ErrorObj("spreedly request failed", "spreedly_call", map[string]any{
			"method":   method,
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		return nil, &HTTPError{Method: method, URL: url, Err: err}
	}

	status := resp.StatusCode()
	c.observe(method, status, elapsed)
	c.log.DebugObj("spreedly request completed", "spreedly_call", map[string]any{
		"method":     method,
		"endpoint":   endpoint,
		"status":     status,
		"elapsed_ms": elapsed.Milliseconds(),
	})

	switch {
	case status == http.StatusNotFound:
		return nil, &NotFoundError{Method: method, URL: url}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, &UnauthorizedError{Method: method, URL: url, StatusCode: status}
	case status >= 200 && status < 300, status >= 400:
		res := NewResult(status, resp.Body())
		if res.Fails() {
			c.log.WarnObj("spreedly call failed", "spreedly_failure", map[string]any{
				"method":   method,
				"endpoint": endpoint,
				"status":   status,
				"errors":   res.ErrorsJoined(),
			})
		}
		return res, nil
	default:
		return nil, &HTTPError{Method: method, URL: url, StatusCode: status}
	}
}

func (c *Client) observe(method string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveCall(method, status, elapsed)
	}
}
