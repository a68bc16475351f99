package devbackend

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
)

// RefreshCookieName is the cookie the backend keeps its refresh token in.
const RefreshCookieName = "refreshToken"

// bcryptCost matches what production hashes with.
const bcryptCost = 12

// claims is the access token payload.
type claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type userIDKey struct{}

// SeedAdmin creates the first staff account unless the email already exists.
func (s *Server) SeedAdmin(ctx context.Context, name, email, password string) error {
	req := models.CreateUserRequest{Name: name, Email: email, Password: password}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid admin seed: %w", err)
	}

	_, err := s.createUser(ctx, req)
	if errors.Is(err, pkg.ErrAlreadyExists) {
		return nil
	}
	if err == nil {
		s.logger.Info("admin account seeded", zap.String("email", req.Email))
	}
	return err
}

func (s *Server) createUser(ctx context.Context, req models.CreateUserRequest) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return s.store.CreateUser(ctx, req.Name, strings.ToLower(req.Email), string(hash))
}

// POST /api/auth/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, err := s.store.UserByEmail(r.Context(), strings.ToLower(req.Email))
	if errors.Is(err, pkg.ErrNotFound) {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		s.writeError(w, err, "Login failed")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	access, err := s.signAccess(u.ID)
	if err != nil {
		s.writeError(w, err, "Login failed")
		return
	}

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		s.writeError(w, err, "Login failed")
		return
	}
	refresh := hex.EncodeToString(refreshBytes)
	if err := s.store.CreateRefresh(r.Context(), refresh, u.ID, s.now().Add(s.opts.RefreshTTL)); err != nil {
		s.writeError(w, err, "Login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refresh,
		Path:     "/",
		MaxAge:   int(s.opts.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

// POST /api/auth/logout
// Forgets the refresh session named by the cookie. Unknown cookies are fine.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		if err := s.store.DeleteRefresh(r.Context(), c.Value); err != nil {
			s.writeError(w, err, "Logout failed")
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
	})
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// POST /api/auth/register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.createUser(r.Context(), req)
	if err != nil {
		s.writeError(w, err, "Registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully", "userId": id})
}

// GET /api/protected
func (s *Server) protected(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"userId": userIDFrom(r.Context())})
}

func (s *Server) signAccess(userID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString([]byte(s.opts.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *Server) parseAccess(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.opts.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.UserID == "" {
		return "", fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	return c.UserID, nil
}

// requireUser checks the Bearer access token and that its user still exists.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeMessage(w, http.StatusUnauthorized, "No token provided")
			return
		}

		userID, err := s.parseAccess(strings.TrimSpace(raw))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		exists, err := s.store.UserExists(r.Context(), userID)
		if err != nil {
			s.writeError(w, err, "Authentication failed")
			return
		}
		if !exists {
			writeMessage(w, http.StatusUnauthorized, "User not found")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next(w, r.WithContext(ctx))
	}
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}
