package models

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// emailRegex is a loose format check; the backend does the real validation.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailRegex returns the shared email format regexp.
func EmailRegex() *regexp.Regexp {
	return emailRegex
}

// CreateUserRequest is the "create user" form. Staff create accounts for other
// staff; the backend registers them through /api/auth/register.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *CreateUserRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)

	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(r.Name) > 100 {
		return fmt.Errorf("name must be at most 100 characters")
	}
	if !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if utf8.RuneCountInString(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// Identity is the verified staff member behind a session, as resolved by the
// backend's /api/protected endpoint.
type Identity struct {
	ID string `json:"id"`
}
