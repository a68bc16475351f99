package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/osmium/blog-admin/database"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/pkg/crypto"
)

// sqliteSessionRepo is the SQLite SessionRepository.
// Token columns are sealed with the session id as additional data, so a
// ciphertext copied onto another row does not open.
type sqliteSessionRepo struct {
	db     database.TxQuerier
	sealer *crypto.Sealer
	now    func() time.Time
}

// NewSQLiteSessionRepo, constructor. db may be a *sql.DB or a *sql.Tx.
func NewSQLiteSessionRepo(db database.TxQuerier, sealer *crypto.Sealer) SessionRepository {
	return &sqliteSessionRepo{db: db, sealer: sealer, now: time.Now}
}

func (r *sqliteSessionRepo) Create(ctx context.Context, session *models.Session) error {
	access, refresh, err := r.seal(session.ID, session.AccessToken, session.RefreshCookie)
	if err != nil {
		return err
	}

	now := r.now().UTC()
	query := `
		INSERT INTO sessions (id, access_token, refresh_cookie, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query,
		session.ID, access, refresh, now, now, session.ExpiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	session.CreatedAt = now
	session.UpdatedAt = now
	return nil
}

func (r *sqliteSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, access_token, refresh_cookie, created_at, updated_at, expires_at
		FROM sessions WHERE id = ?`

	var access, refresh string
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &access, &refresh,
		&session.CreatedAt, &session.UpdatedAt, &session.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if !session.ExpiresAt.After(r.now()) {
		return nil, pkg.ErrNotFound
	}

	if session.AccessToken, err = r.sealer.Open(access, session.ID); err != nil {
		return nil, fmt.Errorf("%w: access token: %v", ErrUnreadable, err)
	}
	if session.RefreshCookie, err = r.sealer.Open(refresh, session.ID); err != nil {
		return nil, fmt.Errorf("%w: refresh cookie: %v", ErrUnreadable, err)
	}

	return session, nil
}

func (r *sqliteSessionRepo) SetTokens(ctx context.Context, id, accessToken, refreshCookie string, expiresAt time.Time) error {
	access, refresh, err := r.seal(id, accessToken, refreshCookie)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET access_token = ?, refresh_cookie = ?, updated_at = ?, expires_at = ?
		WHERE id = ?`,
		access, refresh, r.now().UTC(), expiresAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set session tokens: %w", err)
	}
	return requireRow(res)
}

func (r *sqliteSessionRepo) ClearTokens(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET access_token = '', refresh_cookie = '', updated_at = ?
		WHERE id = ?`,
		r.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to clear session tokens: %w", err)
	}
	return requireRow(res)
}

func (r *sqliteSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *sqliteSessionRepo) seal(id, accessToken, refreshCookie string) (string, string, error) {
	access, err := r.sealer.Seal(accessToken, id)
	if err != nil {
		return "", "", fmt.Errorf("failed to seal access token: %w", err)
	}
	refresh, err := r.sealer.Seal(refreshCookie, id)
	if err != nil {
		return "", "", fmt.Errorf("failed to seal refresh cookie: %w", err)
	}
	return access, refresh, nil
}

// requireRow turns "no row updated" into pkg.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return pkg.ErrNotFound
	}
	return nil
}
