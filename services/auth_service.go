package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/repository"
)

// AuthService runs the login and logout flows against the backend and keeps
// the session slot in step with them.
type AuthService interface {
	// Login verifies credentials with the backend and returns the session that
	// now holds the tokens. currentSessionID may be "".
	Login(ctx context.Context, currentSessionID string, req models.LoginRequest) (*models.Session, error)
	// Logout tells the backend and clears the slot, whatever the backend says.
	Logout(ctx context.Context, sessionID string) error
}

type authService struct {
	sessions SessionStore
	auth     apiclient.AuthAPI
	logger   *zap.Logger
}

// NewAuthService, constructor.
func NewAuthService(sessions SessionStore, auth apiclient.AuthAPI, logger *zap.Logger) AuthService {
	return &authService{
		sessions: sessions,
		auth:     auth,
		logger:   logger.Named("auth"),
	}
}

func (s *authService) Login(ctx context.Context, currentSessionID string, req models.LoginRequest) (*models.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	res, err := s.auth.Login(ctx, req)
	if err != nil {
		s.logger.Info("login rejected", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	session, err := s.sessions.Rotate(ctx, currentSessionID, res.AccessToken, res.RefreshCookie)
	if err != nil {
		return nil, err
	}

	s.logger.Info("staff signed in", zap.String("email", req.Email), zap.String("session_id", session.ID))
	return session, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil
	}
	if errors.Is(err, repository.ErrUnreadable) {
		// Nothing to forward to the backend; the slot still goes.
		return s.sessions.Destroy(ctx, sessionID)
	}
	if err != nil {
		return err
	}

	if session.RefreshCookie != "" {
		callCtx := apiclient.WithToken(ctx, session.AccessToken)
		if err := s.auth.Logout(callCtx, session.RefreshCookie); err != nil {
			s.logger.Warn("backend logout failed, clearing session anyway",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}

	return s.sessions.Destroy(ctx, sessionID)
}
