package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
)

func TestLoginRotatesSession(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()
	old, _ := sessions.Start(ctx)

	auth := &fakeAuth{loginResult: apiclient.LoginResult{AccessToken: "tok", RefreshCookie: "refreshToken=r"}}
	svc := NewAuthService(sessions, auth, zap.NewNop())

	session, err := svc.Login(ctx, old.ID, models.LoginRequest{Email: "a@b.co", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.ID == old.ID {
		t.Fatal("session id reused across login")
	}
	if _, err := sessions.Get(ctx, old.ID); !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("old session survived: %v", err)
	}
	if token, _ := sessions.Token(ctx, session.ID); token != "tok" {
		t.Fatalf("token = %q", token)
	}
}

func TestLoginFailureKeepsSlotEmpty(t *testing.T) {
	sessions := newTestSessions(t)
	auth := &fakeAuth{loginErr: pkg.NewBackendError(pkg.KindStatus, "auth.login", 400, "Invalid credentials", nil)}
	svc := NewAuthService(sessions, auth, zap.NewNop())

	_, err := svc.Login(context.Background(), "", models.LoginRequest{Email: "a@b.co", Password: "bad"})
	if pkg.UserMessage(err) != "Invalid credentials" {
		t.Fatalf("err = %v", err)
	}
}

func TestLoginValidates(t *testing.T) {
	svc := NewAuthService(newTestSessions(t), &fakeAuth{}, zap.NewNop())
	_, err := svc.Login(context.Background(), "", models.LoginRequest{Email: "a@b.co"})
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Fatalf("err = %v", err)
	}
}

func TestLogoutClearsEvenWhenBackendFails(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()
	session, _ := sessions.Rotate(ctx, "", "tok", "refreshToken=r")

	auth := &fakeAuth{logoutErr: backendErr("auth.logout")}
	if err := NewAuthService(sessions, auth, zap.NewNop()).Logout(ctx, session.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(auth.logouts) != 1 || auth.logouts[0] != "refreshToken=r" {
		t.Fatalf("logouts = %v", auth.logouts)
	}
	if _, err := sessions.Get(ctx, session.ID); !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("session survived logout: %v", err)
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	auth := &fakeAuth{}
	if err := NewAuthService(newTestSessions(t), auth, zap.NewNop()).Logout(context.Background(), "missing"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(auth.logouts) != 0 {
		t.Fatal("backend called without a session")
	}
}
