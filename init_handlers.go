// Package main — handler wire-up.
package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/config"
	"github.com/osmium/blog-admin/handlers"
	"github.com/osmium/blog-admin/pkg/ratelimit"
	"github.com/osmium/blog-admin/ws"
)

// Handlers holds every handler instance.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Health     *handlers.HealthHandler
	Dashboard  *handlers.DashboardHandler
	Posts      *handlers.PostHandler
	Hirings    *handlers.HiringHandler
	Applicants *handlers.ApplicantHandler
	Users      *handlers.UserHandler
	WS         *ws.Handler
}

func initHandlers(
	cfg *config.Config,
	svcs *Services,
	hub *ws.Hub,
	cookie handlers.SessionCookie,
	loginLimiter *ratelimit.LoginRateLimiter,
	clientIP *ratelimit.IPResolver,
	logger *zap.Logger,
) *Handlers {
	identity := func(r *http.Request) (string, string, bool) {
		id, ok := handlers.IdentityFrom(r.Context())
		return id.ID, handlers.SessionIDFrom(r.Context()), ok
	}
	originAllowed := handlers.OriginAllowed(cfg.CORS.AllowedOrigins)

	return &Handlers{
		Auth:       handlers.NewAuthHandler(svcs.Auth, svcs.Gate, cookie, loginLimiter, clientIP, originAllowed, cfg.Server.BasePath, logger),
		Health:     handlers.NewHealthHandler(cfg.Backend.BaseURL),
		Dashboard:  handlers.NewDashboardHandler(svcs.Dashboard),
		Posts:      handlers.NewPostHandler(svcs.Posts, cfg.Upload.MaxSize),
		Hirings:    handlers.NewHiringHandler(svcs.Hirings),
		Applicants: handlers.NewApplicantHandler(svcs.Applicants, svcs.Hirings),
		Users:      handlers.NewUserHandler(svcs.Users),
		WS:         ws.NewHandler(hub, identity, originAllowed),
	}
}
