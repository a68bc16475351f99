package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
)

func TestUserCreate(t *testing.T) {
	auth := &fakeAuth{}
	notifier, hub := newTestNotifier()
	svc := NewUserService(auth, notifier, zap.NewNop())

	err := svc.Create(context.Background(), "u1", models.CreateUserRequest{Name: "Ada", Email: "ada@orrelng.com", Password: "secret"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(auth.registered) != 1 || len(hub.changes()) != 1 {
		t.Fatalf("registered %d, changes %d", len(auth.registered), len(hub.changes()))
	}
}

func TestUserCreateSurfacesBackendMessage(t *testing.T) {
	auth := &fakeAuth{registerErr: pkg.NewBackendError(pkg.KindStatus, "auth.register", 409, "User already exists", nil)}
	notifier, hub := newTestNotifier()
	svc := NewUserService(auth, notifier, zap.NewNop())

	err := svc.Create(context.Background(), "u1", models.CreateUserRequest{Name: "Ada", Email: "ada@orrelng.com", Password: "secret"})
	if !errors.Is(err, pkg.ErrAlreadyExists) || pkg.UserMessage(err) != "User already exists" {
		t.Fatalf("err = %v", err)
	}
	if len(hub.changes()) != 0 {
		t.Fatal("change broadcast for a failed create")
	}
}

func TestUserCreateValidation(t *testing.T) {
	auth := &fakeAuth{}
	notifier, _ := newTestNotifier()
	err := NewUserService(auth, notifier, zap.NewNop()).Create(context.Background(), "u1", models.CreateUserRequest{Name: "Ada", Email: "nope", Password: "secret"})
	if !errors.Is(err, pkg.ErrBadRequest) || pkg.UserMessage(err) != "invalid email format" {
		t.Fatalf("err = %v", err)
	}
}
