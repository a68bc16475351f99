// Package middleware holds the wrappers every console request passes through.
//
// A middleware is func(next http.Handler) http.Handler: it does its part
// (log, check the session) and either calls next or answers itself.
package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/handlers"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/services"
)

// AuthMiddleware runs the auth gate in front of protected routes.
type AuthMiddleware struct {
	gate   *services.Gate
	cookie handlers.SessionCookie
	logger *zap.Logger
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(gate *services.Gate, cookie handlers.SessionCookie, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		gate:   gate,
		cookie: cookie,
		logger: logger.Named("auth_mw"),
	}
}

// Require blocks until the gate has an answer; the handler only runs for an
// authenticated session.
//
// A redirecting gate answers 401 on /api and /ws, and 303 to the login page
// for browser navigation. An authenticated request carries the identity
// (handlers.IdentityFrom) and the backend token (apiclient.TokenFrom).
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := m.cookie.Read(r)
		if sessionID == "" {
			m.redirect(w, r)
			return
		}

		res, token, err := m.gate.Check(r.Context(), sessionID)
		if err != nil {
			m.logger.Error("session lookup failed", zap.Error(err))
			pkg.Error(w, err)
			return
		}
		if res.State != services.GateAuthenticated {
			m.redirect(w, r)
			return
		}

		ctx := handlers.WithIdentity(r.Context(), *res.User, sessionID)
		ctx = apiclient.WithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) redirect(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		w.Header().Set("Location", services.LoginPath)
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	http.Redirect(w, r, services.LoginPath, http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	p := r.URL.Path
	return strings.HasPrefix(p, "/api/") || p == "/ws" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
