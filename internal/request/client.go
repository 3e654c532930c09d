// Package request is the single HTTP facade used by every API module. It
// attaches the bearer token, unwraps the {code, message, data} envelope and
// turns failures into notices and typed errors.
package request

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opshub/console/internal/logx"
	"github.com/opshub/console/internal/metrics"
	"github.com/opshub/console/internal/notify"
)

// DefaultTimeout applies to every call without an explicit timeout.
const DefaultTimeout = 60 * time.Second

// TokenSource supplies and forgets the bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Navigator performs the "go to the login screen" side effect after the
// session expired.
type Navigator interface {
	RedirectToLogin(ctx context.Context)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context)

func (f NavigatorFunc) RedirectToLogin(ctx context.Context) { f(ctx) }

// Envelope is the backend's response wrapper.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Success reports whether the envelope code means success.
func (e Envelope) Success() bool {
	return e.Code == 0 || e.Code == 200
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	// Timeout overrides the client default when non-zero.
	Timeout time.Duration
}

// Options configures a Client. Zero values fall back to sensible defaults.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     TokenSource
	Notifier   notify.Notifier
	Navigator  Navigator
	Metrics    *metrics.Metrics
}

// Client talks to the opshub REST backend.
type Client struct {
	baseURL   string
	timeout   time.Duration
	http      *http.Client
	tokens    TokenSource
	notifier  notify.Notifier
	navigator Navigator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts Options) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   opts.Timeout,
		http:      opts.HTTPClient,
		tokens:    opts.Tokens,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		metrics:   opts.Metrics,
		logger:    logx.Component("request"),
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.notifier == nil {
		c.notifier = notify.Discard
	}
	return c
}

// BaseURL returns the backend URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the current bearer token, or "" when none is stored.
func (c *Client) Token(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read token")
		return ""
	}
	return tok
}

// Do performs the call and returns the envelope's data on success.
func (c *Client) Do(ctx context.Context, r Request) (json.RawMessage, error) {
	body, resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.observe(r.Method, "decode_error")
		e := &Error{Status: resp.StatusCode, Message: MsgMalformedResponse, Method: r.Method, Path: r.Path, Err: err}
		if !isLoginPath(r.Path) {
			c.notify(ctx, notify.LevelError, e.Message, false)
		}
		return nil, e
	}

	if !env.Success() {
		c.observe(r.Method, "business_error")
		msg := env.Message
		if msg == "" {
			msg = MsgRequestFailed
		}
		if !isLoginPath(r.Path) && !isCaptchaPath(r.Path) {
			c.notify(ctx, notify.LevelError, msg, false)
		}
		return nil, &Error{Status: resp.StatusCode, Code: env.Code, Message: msg, Method: r.Method, Path: r.Path}
	}

	c.observe(r.Method, "success")
	return env.Data, nil
}

// Download performs the call and returns the raw response body without
// envelope unwrapping. HTTP failures are handled as in Do.
func (c *Client) Download(ctx context.Context, r Request) ([]byte, error) {
	body, _, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	c.observe(r.Method, "success")
	return body, nil
}

// send executes the HTTP exchange. A non-nil error has already been
// classified, notified and counted.
func (c *Client) send(ctx context.Context, r Request) ([]byte, *http.Response, error) {
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newHTTPRequest(reqCtx, r)
	if err != nil {
		return nil, nil, &Error{Message: err.Error(), Method: r.Method, Path: r.Path, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.metrics != nil {
		c.metrics.BackendRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.observe(r.Method, "transport_error")
		c.logger.Debug().Err(err).Str("method", r.Method).Str("path", r.Path).Msg("request failed")
		if !isLoginPath(r.Path) {
			c.notify(ctx, notify.LevelError, transportMessage(err), false)
		}
		return nil, nil, &Error{Message: transportMessage(err), Method: r.Method, Path: r.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(r.Method, "transport_error")
		return nil, resp, &Error{Status: resp.StatusCode, Message: MsgNetworkError, Method: r.Method, Path: r.Path, Err: err}
	}

	c.logger.Debug().
		Str("method", r.Method).
		Str("path", r.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, resp, nil
	}
	return nil, resp, c.httpFailure(ctx, r, resp.StatusCode, body)
}

func (c *Client) newHTTPRequest(ctx context.Context, r Request) (*http.Request, error) {
	u := c.baseURL + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var reader io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if tok := c.Token(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (c *Client) httpFailure(ctx context.Context, r Request, status int, body []byte) error {
	serverMsg := envelopeMessage(body)
	e := &Error{Status: status, Method: r.Method, Path: r.Path}

	switch status {
	case http.StatusUnauthorized:
		c.observe(r.Method, "unauthorized")
		if isLoginPath(r.Path) {
			e.Message = orDefault(serverMsg, MsgBadCredentials)
			return e
		}
		e.Message = MsgSessionExpired
		c.notify(ctx, notify.LevelError, MsgSessionExpired, false)
		if c.tokens != nil {
			if err := c.tokens.Clear(ctx); err != nil {
				c.logger.Warn().Err(err).Msg("failed to clear token")
			}
		}
		if c.navigator != nil {
			c.navigator.RedirectToLogin(ctx)
		}
		return e

	case http.StatusForbidden:
		c.observe(r.Method, "forbidden")
		e.Message = orDefault(serverMsg, MsgPermissionDenied)
		c.notify(ctx, notify.LevelError, e.Message, true)
		return e

	default:
		c.observe(r.Method, "http_error")
		e.Message = orDefault(serverMsg, fmt.Sprintf("request failed with status code %d", status))
		if !isLoginPath(r.Path) {
			c.notify(ctx, notify.LevelError, e.Message, false)
		}
		return e
	}
}

// notify delivers on a ctx detached from the call's deadline, so a
// timed-out request still reports its failure.
func (c *Client) notify(ctx context.Context, level notify.Level, msg string, durable bool) {
	n := notify.New(level, "%s", msg)
	n.Durable = durable
	c.notifier.Notify(context.WithoutCancel(ctx), n)
	if c.metrics != nil {
		c.metrics.NoticesTotal.WithLabelValues(string(level)).Inc()
	}
}

func (c *Client) observe(method, outcome string) {
	if c.metrics != nil {
		c.metrics.BackendRequestsTotal.WithLabelValues(method, outcome).Inc()
	}
}

func envelopeMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Message
}

func transportMessage(err error) string {
	if err == nil {
		return MsgNetworkError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return MsgNetworkError
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func isLoginPath(path string) bool   { return strings.Contains(path, "/login") }
func isCaptchaPath(path string) bool { return strings.Contains(path, "/captcha") }
