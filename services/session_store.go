// Package services holds the console's page logic.
//
// A service sits between the HTTP handlers and the outside world (the backend
// API client, the session table, the change feed). Services never see an
// http.Request; handlers never call the backend directly.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osmium/blog-admin/database"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/repository"
)

// SessionStore is the staff member's token slot.
//
// What is the slot?
// One row per browser session: the backend bearer token and its refresh
// cookie, sealed at rest, keyed by the id in the session cookie. Handlers get
// the id from the cookie and go through the typed accessors below.
//
// Why not one "current token" for the process?
// Two staff members (or two tabs after a re-login) would overwrite each
// other. Keying by session id keeps every browser on its own token, and a
// logout ends exactly one of them.
type SessionStore interface {
	// Start creates an empty session.
	Start(ctx context.Context) (*models.Session, error)
	// Get returns pkg.ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*models.Session, error)
	// Token returns the whitespace-trimmed bearer token, "" when none is stored.
	Token(ctx context.Context, id string) (string, error)
	// SetToken stores a token pair and extends the session.
	SetToken(ctx context.Context, id, token, refreshCookie string) error
	// ClearToken empties the slot but keeps the session.
	ClearToken(ctx context.Context, id string) error
	// Rotate replaces session oldID (may be "") with a new session holding the
	// given tokens. Used at login so a pre-login session id is never reused.
	Rotate(ctx context.Context, oldID, token, refreshCookie string) (*models.Session, error)
	// Destroy deletes the session.
	Destroy(ctx context.Context, id string) error
	// Sweep deletes expired sessions.
	Sweep(ctx context.Context) (int64, error)
	// OnEnd registers fn to run after a session loses its token (ClearToken,
	// Destroy, or Rotate away from it). Call once during wiring.
	OnEnd(fn func(sessionID string))
}

type sessionStore struct {
	db     *sql.DB
	repo   repository.SessionRepository
	repoTx func(database.TxQuerier) repository.SessionRepository
	ttl    time.Duration
	logger *zap.Logger
	onEnd  func(sessionID string)
}

// NewSessionStore, constructor. repoFor builds a repository on a querier, so
// Rotate can run its delete and insert in one transaction.
func NewSessionStore(
	db *sql.DB,
	repoFor func(database.TxQuerier) repository.SessionRepository,
	ttl time.Duration,
	logger *zap.Logger,
) SessionStore {
	return &sessionStore{
		db:     db,
		repo:   repoFor(db),
		repoTx: repoFor,
		ttl:    ttl,
		logger: logger.Named("sessions"),
	}
}

func (s *sessionStore) Start(ctx context.Context) (*models.Session, error) {
	session := &models.Session{
		ID:        uuid.NewString(),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, pkg.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *sessionStore) Token(ctx context.Context, id string) (string, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(session.AccessToken), nil
}

func (s *sessionStore) SetToken(ctx context.Context, id, token, refreshCookie string) error {
	return s.repo.SetTokens(ctx, id, strings.TrimSpace(token), refreshCookie, time.Now().Add(s.ttl))
}

func (s *sessionStore) ClearToken(ctx context.Context, id string) error {
	err := s.repo.ClearTokens(ctx, id)
	if errors.Is(err, pkg.ErrNotFound) {
		// Nothing to clear.
		return nil
	}
	if err != nil {
		return err
	}
	s.ended(id)
	return nil
}

func (s *sessionStore) Rotate(ctx context.Context, oldID, token, refreshCookie string) (*models.Session, error) {
	session := &models.Session{
		ID:            uuid.NewString(),
		AccessToken:   strings.TrimSpace(token),
		RefreshCookie: refreshCookie,
		ExpiresAt:     time.Now().Add(s.ttl),
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := s.repoTx(tx)
		if oldID != "" {
			if err := repo.DeleteByID(ctx, oldID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}
	if oldID != "" {
		s.ended(oldID)
	}
	return session, nil
}

func (s *sessionStore) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.ended(id)
	return nil
}

func (s *sessionStore) OnEnd(fn func(sessionID string)) {
	s.onEnd = fn
}

func (s *sessionStore) ended(id string) {
	if s.onEnd != nil {
		s.onEnd(id)
	}
}

func (s *sessionStore) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", zap.Int64("count", n))
	}
	return n, nil
}
