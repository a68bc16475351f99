package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/repository"
)

// GateState is where a gate run ended.
type GateState string

const (
	// GateLoading is only visible to the page tree while verification runs;
	// a finished run is always one of the two terminal states.
	GateLoading       GateState = "loading"
	GateAuthenticated GateState = "authenticated"
	GateRedirecting   GateState = "redirecting"
)

// LoginPath is where a redirecting gate sends the browser.
const LoginPath = "/login"

// GateResult is what the page tree sees: {user, loading} plus the state.
type GateResult struct {
	State   GateState        `json:"state"`
	User    *models.Identity `json:"user"`
	Loading bool             `json:"loading"`
}

// Gate decides whether a request may reach a protected page.
//
//   - no stored token: redirecting, the backend is not called
//   - token verified: authenticated with the backend's user id
//   - any verification failure: token cleared, redirecting
//
// What is the gate?
// Every protected page asks the backend "is this token still good?" before
// rendering. The console never trusts a stored token on its own: the backend
// may have revoked it, or the staff account may have been disabled.
//
// Why clear the token on any failure?
// A token the backend rejected once will be rejected again. Keeping it would
// make every page load repeat the same failed call. The same goes for a token
// the console can no longer decrypt (the session key was rotated).
//
// Why singleflight?
// A dashboard opens several panels at once, each behind the gate. Concurrent
// runs for the same session and token share one verification call, so there
// is never more than one verify in flight per session.
//
// There is no retry and no token refresh here.
type Gate struct {
	sessions SessionStore
	auth     apiclient.AuthAPI
	group    singleflight.Group
	logger   *zap.Logger
}

// NewGate, constructor.
func NewGate(sessions SessionStore, auth apiclient.AuthAPI, logger *zap.Logger) *Gate {
	return &Gate{
		sessions: sessions,
		auth:     auth,
		logger:   logger.Named("gate"),
	}
}

// Check runs the gate for sessionID. The error is only set when the session
// store itself failed; authentication failures are a GateRedirecting result.
func (g *Gate) Check(ctx context.Context, sessionID string) (GateResult, string, error) {
	redirect := GateResult{State: GateRedirecting}

	token, err := g.sessions.Token(ctx, sessionID)
	if errors.Is(err, pkg.ErrNotFound) {
		return redirect, "", nil
	}
	if errors.Is(err, repository.ErrUnreadable) {
		// A token we cannot open is no token. Clearing it stops every later
		// request from failing the same way until the cookie expires.
		g.logger.Warn("stored token unreadable, clearing",
			zap.String("session_id", sessionID),
			zap.Error(err))
		if cerr := g.sessions.ClearToken(ctx, sessionID); cerr != nil {
			return GateResult{}, "", cerr
		}
		return redirect, "", nil
	}
	if err != nil {
		return GateResult{}, "", err
	}
	if token == "" {
		return redirect, "", nil
	}

	// The key includes the token: a login in another tab that replaced the
	// token must not be answered with the old token's result.
	key := sessionID + "\x00" + token
	v, err, shared := g.group.Do(key, func() (any, error) {
		// Detached from the first caller: its cancellation must not fail
		// the callers sharing this verification.
		vctx := context.WithoutCancel(ctx)

		identity, err := g.auth.Verify(apiclient.WithToken(vctx, token))
		if err != nil {
			g.logger.Info("verification failed, clearing token",
				zap.String("session_id", sessionID),
				zap.Error(err))
			if cerr := g.sessions.ClearToken(vctx, sessionID); cerr != nil {
				g.logger.Error("failed to clear token", zap.String("session_id", sessionID), zap.Error(cerr))
			}
			return nil, err
		}
		return identity, nil
	})
	if err != nil {
		return redirect, "", nil
	}

	identity := v.(models.Identity)
	g.logger.Debug("session verified",
		zap.String("session_id", sessionID),
		zap.String("user_id", identity.ID),
		zap.Bool("shared", shared))

	return GateResult{State: GateAuthenticated, User: &identity}, token, nil
}
