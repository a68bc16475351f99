// Package main — service wire-up.
//
// initServices builds every service from the backend client, the session
// storage and the shared infrastructure (cache, change feed, mailer).
// Order matters only for the notifier, which every mutating service takes.
package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/config"
	"github.com/osmium/blog-admin/pkg/broker"
	"github.com/osmium/blog-admin/pkg/cache"
	"github.com/osmium/blog-admin/pkg/email"
	"github.com/osmium/blog-admin/services"
	"github.com/osmium/blog-admin/ws"
)

// Services holds every service instance.
type Services struct {
	Sessions   services.SessionStore
	Gate       *services.Gate
	Auth       services.AuthService
	Dashboard  services.DashboardService
	Posts      services.PostService
	Hirings    services.HiringService
	Applicants services.ApplicantService
	Users      services.UserService
	Notifier   *services.Notifier
}

// serviceDeps are the collaborators built in main before the services.
type serviceDeps struct {
	repos     *Repositories
	client    *apiclient.Client
	cache     cache.Cache
	hub       ws.EventPublisher
	publisher broker.Publisher // nil when NATS is not configured
	origin    string
	mailer    email.Sender
}

func initServices(cfg *config.Config, d serviceDeps, logger *zap.Logger) (*Services, error) {
	sessions := services.NewSessionStore(d.repos.DB.Conn, d.repos.Sessions, cfg.Session.TTL, logger)
	// A logged out session must not keep receiving change events.
	sessions.OnEnd(d.hub.DisconnectSession)
	notifier := services.NewNotifier(d.hub, d.publisher, d.origin, logger)
	dashboard := services.NewDashboardService(d.client.Blogs, d.cache, cfg.Cache.TTL, logger)

	applicants, err := services.NewApplicantService(d.client.Applications, d.mailer, notifier, d.client.BaseURL(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create applicant service: %w", err)
	}

	return &Services{
		Sessions:   sessions,
		Gate:       services.NewGate(sessions, d.client.Auth, logger),
		Auth:       services.NewAuthService(sessions, d.client.Auth, logger),
		Dashboard:  dashboard,
		Posts:      services.NewPostService(d.client.Blogs, dashboard, notifier, cfg.Upload.MaxSize, logger),
		Hirings:    services.NewHiringService(d.client.Hirings, d.cache, cfg.Cache.TTL, notifier, logger),
		Applicants: applicants,
		Users:      services.NewUserService(d.client.Auth, notifier, logger),
		Notifier:   notifier,
	}, nil
}
