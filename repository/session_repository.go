package repository

import (
	"context"
	"errors"
	"time"

	"github.com/osmium/blog-admin/models"
)

// ErrUnreadable means a session row exists but its tokens do not open: the
// sealing key changed since they were written, or the row was altered.
// The slot is unusable, not lost; callers clear it and send the user to login.
var ErrUnreadable = errors.New("session tokens unreadable")

// SessionRepository persists console session slots.
// Tokens cross this interface in plaintext; the implementation seals them.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// GetByID returns pkg.ErrNotFound for unknown or expired sessions and
	// ErrUnreadable when the tokens cannot be unsealed.
	GetByID(ctx context.Context, id string) (*models.Session, error)
	SetTokens(ctx context.Context, id, accessToken, refreshCookie string, expiresAt time.Time) error
	ClearTokens(ctx context.Context, id string) error
	DeleteByID(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
