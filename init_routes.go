// Package main — HTTP route registration.
//
// Literal paths are registered before parametric ones for readability; the
// ServeMux picks the most specific pattern either way.
package main

import (
	"net/http"
	"strings"

	"github.com/osmium/blog-admin/middleware"
	"github.com/osmium/blog-admin/static"
)

func initRoutes(mux *http.ServeMux, h *Handlers, authMw *middleware.AuthMiddleware, basePath string) {
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}

	// Public
	mux.HandleFunc("GET /api/health", h.Health.Health)
	mux.HandleFunc("GET /login", h.Auth.LoginPage)
	mux.HandleFunc("POST /login", h.Auth.Login)
	mux.HandleFunc("POST /logout", h.Auth.Logout)
	mux.HandleFunc("GET /api/session", h.Auth.Session)

	// Dashboard
	mux.Handle("GET /api/dashboard", auth(h.Dashboard.Get))

	// Posts
	mux.Handle("GET /api/posts", auth(h.Posts.List))
	mux.Handle("GET /api/posts/{ref}", auth(h.Posts.Get))
	mux.Handle("POST /api/posts", auth(h.Posts.Create))
	mux.Handle("PUT /api/posts/{ref}", auth(h.Posts.Update))
	mux.Handle("DELETE /api/posts/{id}", auth(h.Posts.Delete))

	// Hirings
	mux.Handle("GET /api/hirings", auth(h.Hirings.List))
	mux.Handle("POST /api/hirings", auth(h.Hirings.Create))
	mux.Handle("PUT /api/hirings/{id}", auth(h.Hirings.Update))
	mux.Handle("DELETE /api/hirings/{id}", auth(h.Hirings.Delete))

	// Applicants
	mux.Handle("GET /api/applicants", auth(h.Applicants.List))
	mux.Handle("GET /api/applicants/jobs", auth(h.Applicants.JobOptions))
	mux.Handle("PATCH /api/applicants/{id}/status", auth(h.Applicants.UpdateStatus))

	// Users
	mux.Handle("POST /api/users", auth(h.Users.Create))

	// Change feed
	mux.Handle("GET /ws", auth(h.WS.HandleConnection))

	// Admin bundle; every page of it sits behind the gate.
	base := "/" + strings.Trim(basePath, "/")
	bundle := auth(static.Handler(base).ServeHTTP)
	if base == "/" {
		mux.Handle("GET /", bundle)
		return
	}
	mux.Handle("GET "+base+"/", bundle)
	mux.Handle("GET "+base, bundle)
	mux.Handle("GET /{$}", http.RedirectHandler(base+"/", http.StatusFound))
}
