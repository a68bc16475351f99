// Package handlers holds the console's HTTP handlers.
//
// Handlers stay thin: decode the request, call a service, write the envelope.
// Page handlers own the request's list view (services.NewPostView and friends)
// and return its items, so what the browser sees is exactly what the service
// left in the view.
package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/pkg/ratelimit"
	"github.com/osmium/blog-admin/services"
)

// AuthHandler serves the login page, login/logout and the session probe.
type AuthHandler struct {
	authService   services.AuthService
	gate          *services.Gate
	cookie        SessionCookie
	loginLimiter  *ratelimit.LoginRateLimiter
	clientIP      *ratelimit.IPResolver
	originAllowed func(r *http.Request) bool
	home          string
	logger        *zap.Logger
}

// NewAuthHandler, constructor.
// loginLimiter may be nil to disable rate limiting; clientIP decides which
// address an attempt counts against. originAllowed guards login and logout
// against cross-site posts (see OriginAllowed). home is where a form login
// lands (the admin bundle's base path).
func NewAuthHandler(
	authService services.AuthService,
	gate *services.Gate,
	cookie SessionCookie,
	loginLimiter *ratelimit.LoginRateLimiter,
	clientIP *ratelimit.IPResolver,
	originAllowed func(r *http.Request) bool,
	home string,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		gate:          gate,
		cookie:        cookie,
		loginLimiter:  loginLimiter,
		clientIP:      clientIP,
		originAllowed: originAllowed,
		home:          home,
		logger:        logger.Named("auth_handler"),
	}
}

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Sign in</title></head>
<body>
  <form method="post" action="/login">
    <h1>Admin sign in</h1>
    {{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
    <label>Email <input type="email" name="email" value="{{.Email}}" required></label>
    <label>Password <input type="password" name="password" required></label>
    <button type="submit">Sign in</button>
  </form>
</body>
</html>`))

const crossSiteMessage = "cross-site request rejected"

type loginView struct {
	Email string
	Error string
}

// LoginPage godoc
// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, http.StatusOK, loginView{})
}

// Login godoc
// POST /login
// Body: {"email": "...", "password": "..."} as JSON or an HTML form.
//
// JSON callers get the envelope; form posts are redirected to the console home
// on success and get the login page with the error otherwise.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := isFormPost(r)

	if !h.originAllowed(r) {
		h.logger.Warn("cross-site login rejected",
			zap.String("origin", r.Header.Get("Origin")),
			zap.String("referer", r.Header.Get("Referer")))
		if form {
			h.renderLogin(w, http.StatusForbidden, loginView{Error: crossSiteMessage})
			return
		}
		pkg.ErrorWithMessage(w, http.StatusForbidden, crossSiteMessage)
		return
	}

	ip := h.clientIP.Resolve(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		msg := fmt.Sprintf("too many login attempts, please try again in %s",
			ratelimit.FormatRetryMessage(retryAfter))
		if form {
			h.renderLogin(w, http.StatusTooManyRequests, loginView{Error: msg})
			return
		}
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, msg)
		return
	}

	var req models.LoginRequest
	if form {
		if err := r.ParseForm(); err != nil {
			h.renderLogin(w, http.StatusBadRequest, loginView{Error: "invalid form"})
			return
		}
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.authService.Login(r.Context(), h.cookie.Read(r), req)
	if err != nil {
		if form {
			h.renderLogin(w, pkg.StatusFor(err), loginView{Email: req.Email, Error: pkg.UserMessage(err)})
			return
		}
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}
	h.cookie.Set(w, session.ID)

	if form {
		http.Redirect(w, r, h.home, http.StatusSeeOther)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"state": string(services.GateAuthenticated)})
}

// Logout godoc
// POST /logout
//
// The slot is cleared and the cookie expired even when the backend logout fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.originAllowed(r) {
		pkg.ErrorWithMessage(w, http.StatusForbidden, crossSiteMessage)
		return
	}

	if err := h.authService.Logout(r.Context(), h.cookie.Read(r)); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
	}
	h.cookie.Clear(w)

	if isFormPost(r) {
		http.Redirect(w, r, services.LoginPath, http.StatusSeeOther)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"redirect": services.LoginPath})
}

// Session godoc
// GET /api/session
//
// Runs the gate and reports {user, loading, state}; a redirecting session is a
// normal 200 answer here, the page tree decides to navigate.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	id := h.cookie.Read(r)
	if id == "" {
		pkg.JSON(w, http.StatusOK, services.GateResult{State: services.GateRedirecting})
		return
	}

	res, _, err := h.gate.Check(r.Context(), id)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, res)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, status int, v loginView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginPage.Execute(w, v); err != nil {
		h.logger.Error("failed to render login page", zap.Error(err))
	}
}

// isFormPost reports whether the body is an HTML form submission.
func isFormPost(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}
