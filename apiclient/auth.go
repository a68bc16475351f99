package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/osmium/blog-admin/models"
)

// AuthAPI covers /api/auth/* and the verification endpoint.
type AuthAPI interface {
	// Login exchanges credentials for an access token and the backend's
	// refresh cookie.
	Login(ctx context.Context, req models.LoginRequest) (LoginResult, error)
	// Logout invalidates the refresh cookie on the backend.
	Logout(ctx context.Context, refreshCookie string) error
	// Verify resolves the bearer token in ctx to an identity (GET /api/protected).
	Verify(ctx context.Context) (models.Identity, error)
	// Register creates a staff account.
	Register(ctx context.Context, req models.CreateUserRequest) error
}

// LoginResult is what a successful login hands to the session slot.
type LoginResult struct {
	AccessToken string
	// RefreshCookie is the Cookie header value ("name=value; ...") to send back
	// on logout.
	RefreshCookie string
}

type authClient struct {
	t *transport
}

func (c *authClient) Login(ctx context.Context, req models.LoginRequest) (LoginResult, error) {
	const op = "auth.login"

	body, err := jsonBody(req)
	if err != nil {
		return LoginResult{}, err
	}

	raw, header, err := c.t.do(ctx, call{
		op:          op,
		method:      http.MethodPost,
		path:        "/api/auth/login",
		body:        body,
		contentType: "application/json",
		fallback:    "Login failed",
	})
	if err != nil {
		return LoginResult{}, err
	}

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.t.decode(op, raw, &out); err != nil {
		return LoginResult{}, err
	}
	token := strings.TrimSpace(out.AccessToken)
	if token == "" {
		return LoginResult{}, c.t.malformed(op, "accessToken")
	}

	return LoginResult{
		AccessToken:   token,
		RefreshCookie: cookieHeader(header),
	}, nil
}

func (c *authClient) Logout(ctx context.Context, refreshCookie string) error {
	return c.t.doJSON(ctx, call{
		op:       "auth.logout",
		method:   http.MethodPost,
		path:     "/api/auth/logout",
		cookie:   refreshCookie,
		fallback: "Logout failed",
	}, nil)
}

func (c *authClient) Verify(ctx context.Context) (models.Identity, error) {
	const op = "auth.verify"

	var out struct {
		UserID any `json:"userId"`
	}
	if err := c.t.doJSON(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   "/api/protected",
	}, &out); err != nil {
		return models.Identity{}, err
	}

	id := idString(out.UserID)
	if id == "" {
		return models.Identity{}, c.t.malformed(op, "userId")
	}
	return models.Identity{ID: id}, nil
}

func (c *authClient) Register(ctx context.Context, req models.CreateUserRequest) error {
	body, err := jsonBody(req)
	if err != nil {
		return err
	}
	return c.t.doJSON(ctx, call{
		op:          "auth.register",
		method:      http.MethodPost,
		path:        "/api/auth/register",
		body:        body,
		contentType: "application/json",
		fallback:    "Failed to create user",
	}, nil)
}

// cookieHeader turns the Set-Cookie lines of a response into a Cookie header
// value. Deleted cookies (MaxAge < 0 or empty value) are skipped.
func cookieHeader(h http.Header) string {
	var parts []string
	for _, line := range h.Values("Set-Cookie") {
		cookie, err := http.ParseSetCookie(line)
		if err != nil || cookie.Value == "" || cookie.MaxAge < 0 {
			continue
		}
		parts = append(parts, cookie.Name+"="+cookie.Value)
	}
	return strings.Join(parts, "; ")
}

// idString accepts the user id as a JSON string or number.
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	}
	return ""
}
