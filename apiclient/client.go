// Package apiclient is the typed client of the external blog backend.
//
// There is one interface per backend resource (AuthAPI, BlogAPI, HiringAPI,
// ApplicationAPI) and one HTTP implementation of each. Every page service gets
// the interfaces injected, so no page builds URLs or decodes JSON on its own.
//
// The bearer token travels in the context (WithToken): the session middleware
// puts the staff member's token there once and every call below picks it up.
//
// Failures come back as *pkg.BackendError:
//   - network: the request produced no response
//   - status: non-2xx, Message is the backend's "message" when present
//   - decode: 2xx with a body that does not parse
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/pkg/telemetry"
)

var tracer = telemetry.GetTracer("blog-admin/apiclient")

// maxResponseSize caps how much of a backend response is read.
const maxResponseSize = 10 << 20

type tokenKey struct{}

// WithToken returns a context whose backend calls carry "Authorization: Bearer token".
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the token stored by WithToken.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Options configures the client.
type Options struct {
	// BaseURL is the backend origin, e.g. https://orrelng.com. Paths carry /api.
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client bundles the per-resource APIs.
type Client struct {
	Auth         AuthAPI
	Blogs        BlogAPI
	Hirings      HiringAPI
	Applications ApplicationAPI

	baseURL string
}

// New builds every resource client on one shared transport.
func New(opts Options, logger *zap.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	t := &transport{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  hc,
		logger:  logger.Named("apiclient"),
	}

	return &Client{
		Auth:         &authClient{t: t},
		Blogs:        &blogClient{t: t},
		Hirings:      &hiringClient{t: t},
		Applications: &applicationClient{t: t},
		baseURL:      t.baseURL,
	}
}

// BaseURL returns the backend origin (used to absolutise upload links).
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one backend request.
type call struct {
	op          string // span and log name, e.g. "blogs.list"
	method      string
	path        string
	body        io.Reader
	contentType string
	cookie      string
	// fallback is the staff-facing message when a non-2xx carries no "message".
	fallback string
}

// jsonBody encodes v for a JSON request.
func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

type transport struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// do runs c and returns the raw 2xx body and the response headers.
func (t *transport) do(ctx context.Context, c call) ([]byte, http.Header, error) {
	ctx, span := tracer.Start(ctx, c.op)
	defer span.End()

	url := t.baseURL + c.path
	span.SetAttributes(
		telemetry.String("http.method", c.method),
		telemetry.String("http.url", url),
	)

	req, err := http.NewRequestWithContext(ctx, c.method, url, c.body)
	if err != nil {
		span.RecordError(err)
		return nil, nil, pkg.NewBackendError(pkg.KindNetwork, c.op, 0, "Could not build the request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.contentType != "" {
		req.Header.Set("Content-Type", c.contentType)
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		t.logger.Error("backend request failed", zap.String("op", c.op), zap.Error(err))
		return nil, nil, pkg.NewBackendError(pkg.KindNetwork, c.op, 0, "Could not reach the server", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			t.logger.Warn("failed to close response body", zap.String("op", c.op), zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		span.RecordError(err)
		t.logger.Error("failed to read response", zap.String("op", c.op), zap.Error(err))
		return nil, nil, pkg.NewBackendError(pkg.KindNetwork, c.op, 0, "Could not read the server response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := backendMessage(body)
		if msg == "" {
			msg = c.fallback
		}
		if msg == "" {
			msg = fmt.Sprintf("Request failed (%d %s)", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		t.logger.Warn("unexpected status code",
			zap.String("op", c.op),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", msg),
		)
		return nil, nil, pkg.NewBackendError(pkg.KindStatus, c.op, resp.StatusCode, msg, nil)
	}

	t.logger.Debug("backend call ok", zap.String("op", c.op), zap.Int("status_code", resp.StatusCode))
	return body, resp.Header, nil
}

// doJSON runs c and decodes a 2xx body into out (skipped when out is nil).
func (t *transport) doJSON(ctx context.Context, c call, out any) error {
	body, _, err := t.do(ctx, c)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return t.decode(c.op, body, out)
}

func (t *transport) decode(op string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return t.decodeError(op, err)
	}
	return nil
}

func (t *transport) decodeError(op string, err error) error {
	t.logger.Error("failed to decode response", zap.String("op", op), zap.Error(err))
	return pkg.NewBackendError(pkg.KindDecode, op, 0, "Unexpected response from the server", err)
}

// backendMessage extracts {"message": "..."} (or {"error": "..."}) from an error body.
func backendMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	if m.Message != "" {
		return m.Message
	}
	return m.Error
}

// errMalformed is wrapped into decode errors for bodies that parse but miss a field.
var errMalformed = errors.New("malformed response")

func (t *transport) malformed(op, what string) error {
	t.logger.Error("malformed response", zap.String("op", op), zap.String("missing", what))
	return pkg.NewBackendError(pkg.KindDecode, op, 0, "Unexpected response from the server",
		fmt.Errorf("%w: missing %s", errMalformed, what))
}
