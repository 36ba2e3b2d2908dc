package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is the API root used when none is configured
	DefaultBaseURL = "http://localhost:8080/api/v1"
	// DefaultTimeout bounds every request
	DefaultTimeout = 60 * time.Second
	// TraceHeader carries the per request correlation id
	TraceHeader = "X-Trace-Id"
)

// Logger is the logging contract used by the client
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// TokenSource returns the current session token, empty when signed out
type TokenSource func() string

// UnauthorizedHandler runs once for every response classified as
// unauthorized, before the error reaches the caller. Credential exchanges
// never reach it.
type UnauthorizedHandler func(ctx context.Context, err error)

type ctxKey int

const credentialExchangeKey ctxKey = iota

// WithCredentialExchange marks requests made with ctx as exchanging
// credentials. An unauthorized answer then rejects the credentials, not
// the session token, and the unauthorized hook is skipped.
func WithCredentialExchange(ctx context.Context) context.Context {
	return context.WithValue(ctx, credentialExchangeKey, true)
}

func isCredentialExchange(ctx context.Context) bool {
	v, _ := ctx.Value(credentialExchangeKey).(bool)
	return v
}

// Config holds the API client configuration
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	HTTPClient     *http.Client
	Tokens         TokenSource
	OnUnauthorized UnauthorizedHandler
	Logger         Logger
}

// Client talks to the console API. Every request carries the bearer token
// read from Tokens at send time and a fresh trace id.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
	logger         Logger
	newTraceID     func() string
}

// New creates a client from cfg
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = func() string { return "" }
	}

	var logger Logger = defLogger{}
	if cfg.Logger != nil {
		logger = cfg.Logger
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     httpClient,
		tokens:         tokens,
		onUnauthorized: cfg.OnUnauthorized,
		logger:         logger,
		newTraceID:     NewTraceID,
	}
}

// WithTokenSource replaces the token source
func (c *Client) WithTokenSource(tokens TokenSource) *Client {
	if tokens != nil {
		c.tokens = tokens
	}
	return c
}

// WithUnauthorizedHandler replaces the unauthorized hook
func (c *Client) WithUnauthorizedHandler(h UnauthorizedHandler) *Client {
	c.onUnauthorized = h
	return c
}

func (c *Client) WithLogger(logger Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NewTraceID returns a dash free UUID, the format the API logs expect
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Request sends a request and returns the decoded response. Non successful
// responses are returned as classified errors together with the response.
func (c *Client) Request(ctx context.Context, method, path string, params url.Values, body any) (*Response, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	traceID := c.newTraceID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(TraceHeader, traceID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	meta := map[string]any{
		"method":   method,
		"path":     path,
		"trace_id": traceID,
	}

	c.logger.Debug("API request", "method", method, "path", path, "trace_id", traceID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("API request failed", "path", path, "trace_id", traceID, "error", err)
		return nil, wrapNetworkError(err, meta)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapNetworkError(err, meta)
	}

	out := &Response{
		Status:  resp.StatusCode,
		TraceID: traceID,
		Body:    raw,
	}

	if env, err := decodeEnvelope(raw); err == nil {
		out.Envelope = env
	} else {
		c.logger.Debug("API response is not an envelope", "path", path, "error", err)
	}

	if out.Success() {
		return out, nil
	}

	status := out.FailureStatus()
	meta["status"] = resp.StatusCode
	apiErr := newAPIError(KindForStatus(status), status, out.Message(), meta)

	c.logger.Info("API request rejected", "path", path, "status", status, "trace_id", traceID)

	if apiErr.TextCode == TextCodeUnauthorized && c.onUnauthorized != nil && !isCredentialExchange(ctx) {
		c.onUnauthorized(ctx, apiErr)
	}

	return out, apiErr
}

// Do sends a request and decodes the response payload into out
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	resp, err := c.Request(ctx, method, path, params, body)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	payload := resp.Payload()
	if len(payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return newAPIError(KindServer, resp.Status, "malformed api response", map[string]any{
			"path":     path,
			"trace_id": resp.TraceID,
			"reason":   err.Error(),
		})
	}
	return nil
}

// Get is a shortcut for Do with http.MethodGet
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, params, nil, out)
}

// Post is a shortcut for Do with http.MethodPost
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print(logLine("DBG", msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print(logLine("INF", msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print(logLine("WRN", msg, args))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print(logLine("ERR", msg, args))
}

func logLine(level, msg string, args []any) string {
	var b strings.Builder
	b.WriteString("[" + level + "] CLIENT " + msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, " %v", args[i])
	}
	b.WriteString("\n")
	return b.String()
}
