package services

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/osmium/blog-admin/pkg"
)

func TestSessionEndHookFiresOnClearDestroyAndRotate(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessions(t)
	hub := &recordingHub{}
	sessions.OnEnd(hub.DisconnectSession)

	cleared, err := sessions.Rotate(ctx, "", "tok-a", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := sessions.ClearToken(ctx, cleared.ID); err != nil {
		t.Fatal(err)
	}

	relogged, err := sessions.Rotate(ctx, cleared.ID, "tok-b", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := sessions.Destroy(ctx, relogged.ID); err != nil {
		t.Fatal(err)
	}

	want := []string{cleared.ID, cleared.ID, relogged.ID}
	if !slices.Equal(hub.disconnected, want) {
		t.Fatalf("disconnected = %v, want %v", hub.disconnected, want)
	}
	if _, err := sessions.Get(ctx, relogged.ID); !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("Get after Destroy: %v", err)
	}
}

func TestSessionEndHookSkipsUnknownSession(t *testing.T) {
	sessions := newTestSessions(t)
	hub := &recordingHub{}
	sessions.OnEnd(hub.DisconnectSession)

	if err := sessions.ClearToken(context.Background(), "missing"); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if len(hub.disconnected) != 0 {
		t.Fatalf("disconnected = %v", hub.disconnected)
	}
}
