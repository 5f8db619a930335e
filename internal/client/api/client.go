package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mdrscore/client/internal/common"
	"github.com/mdrscore/client/internal/logging"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// CredentialSource resolves the bearer token for the next request.
// An empty token with a nil error means "send anonymously".
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func(ctx context.Context) (string, error)

func (f CredentialFunc) Credential(ctx context.Context) (string, error) { return f(ctx) }

// Anonymous never supplies a credential.
var Anonymous CredentialSource = CredentialFunc(func(context.Context) (string, error) { return "", nil })

type bearerKey struct{}

// WithBearer makes requests issued with the returned context carry token
// instead of whatever the client's CredentialSource would supply. Used to
// call the backend with a credential that is not persisted yet.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func (c *Client) credential(ctx context.Context) (string, error) {
	if tok, ok := ctx.Value(bearerKey{}).(string); ok {
		return tok, nil
	}
	return c.creds.Credential(ctx)
}

// Envelope is the common backend response wrapper.
type Envelope struct {
	Status  string          `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Doer is the request surface the stores and transports depend on.
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any) error
	Upload(ctx context.Context, path, field, filename string, content io.Reader, out any) error
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	creds   CredentialSource
	logger  logging.Logger
	newID   func() string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. Zero keeps transport defaults.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a Client for baseURL. creds may be nil for an anonymous client.
func New(baseURL string, creds CredentialSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if creds == nil {
		creds = Anonymous
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		creds:   creds,
		logger:  logging.Discard(),
		newID:   func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Do sends body (JSON-encoded when non-nil) and decodes a 2xx response into
// out (when non-nil and the body is not empty).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	contentType := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, r, contentType)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

// Upload posts content as a single multipart file field.
func (c *Client) Upload(ctx context.Context, path, field, filename string, content io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("multipart: %w", err)
	}
	if _, err := io.Copy(fw, content); err != nil {
		return fmt.Errorf("multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	token, err := c.credential(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve credential: %w", err)
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeader, c.newID())
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	ctx := req.Context()
	lctx := logging.ContextWithRequestID(ctx, req.Header.Get(common.RequestIDHeader))
	started := time.Now()
	log := c.logger.With("method", req.Method, "path", req.URL.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warn(lctx, "request failed", "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	log.Debug(lctx, "request done", "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(code int, body []byte) error {
	he := &HTTPError{StatusCode: code}

	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil {
		he.Status = env.Status
		he.Message = env.Message
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
		he.Message = text
	}
	return he
}

// IsUnauthorized is shorthand for errors.Is(err, ErrUnauthorized).
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
