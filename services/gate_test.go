package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/pkg"
)

func TestGateNoSessionRedirectsWithoutVerify(t *testing.T) {
	auth := &fakeAuth{userID: "u1"}
	gate := NewGate(newTestSessions(t), auth, zap.NewNop())

	res, _, err := gate.Check(context.Background(), "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.State != GateRedirecting || res.User != nil {
		t.Fatalf("res = %+v", res)
	}
	if auth.verifyCalls != 0 {
		t.Fatalf("verify called %d times", auth.verifyCalls)
	}
}

func TestGateEmptySlotRedirectsWithoutVerify(t *testing.T) {
	sessions := newTestSessions(t)
	session, err := sessions.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// A whitespace-only token counts as absent.
	if err := sessions.SetToken(context.Background(), session.ID, "   ", ""); err != nil {
		t.Fatal(err)
	}

	auth := &fakeAuth{userID: "u1"}
	res, _, err := NewGate(sessions, auth, zap.NewNop()).Check(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.State != GateRedirecting || auth.verifyCalls != 0 {
		t.Fatalf("res = %+v, verify calls = %d", res, auth.verifyCalls)
	}
}

func TestGateAuthenticated(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()
	session, _ := sessions.Rotate(ctx, "", " tok ", "")

	auth := &fakeAuth{userID: "u1"}
	res, token, err := NewGate(sessions, auth, zap.NewNop()).Check(ctx, session.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.State != GateAuthenticated || res.User == nil || res.User.ID != "u1" || res.Loading {
		t.Fatalf("res = %+v", res)
	}
	if token != "tok" || auth.tokensSeen[0] != "tok" {
		t.Fatalf("token = %q, seen %v", token, auth.tokensSeen)
	}
}

func TestGateFailureClearsToken(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()
	session, _ := sessions.Rotate(ctx, "", "tok", "refreshToken=r")

	auth := &fakeAuth{verifyErr: pkg.NewBackendError(pkg.KindStatus, "auth.verify", 401, "Unauthorized", nil)}
	res, _, err := NewGate(sessions, auth, zap.NewNop()).Check(ctx, session.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.State != GateRedirecting {
		t.Fatalf("res = %+v", res)
	}

	token, err := sessions.Token(ctx, session.ID)
	if err != nil || token != "" {
		t.Fatalf("token after failure = %q, %v", token, err)
	}
}

func TestGateNetworkFailureClearsToken(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()
	session, _ := sessions.Rotate(ctx, "", "tok", "")

	auth := &fakeAuth{verifyErr: pkg.NewBackendError(pkg.KindNetwork, "auth.verify", 0, "Could not reach the server", context.DeadlineExceeded)}
	res, _, _ := NewGate(sessions, auth, zap.NewNop()).Check(ctx, session.ID)
	if res.State != GateRedirecting {
		t.Fatalf("res = %+v", res)
	}
	if token, _ := sessions.Token(ctx, session.ID); token != "" {
		t.Fatalf("token kept after network failure: %q", token)
	}
}

func TestGateConcurrentRunsShareOneVerification(t *testing.T) {
	sessions := newTestSessions(t)
	ctx := context.Background()
	session, _ := sessions.Rotate(ctx, "", "tok", "")

	auth := &fakeAuth{userID: "u1", verifyDelay: 50 * time.Millisecond}
	gate := NewGate(sessions, auth, zap.NewNop())

	const runs = 8
	var wg sync.WaitGroup
	results := make([]GateResult, runs)
	for i := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _, _ = gate.Check(ctx, session.ID)
		}()
	}
	wg.Wait()

	auth.mu.Lock()
	defer auth.mu.Unlock()
	if auth.maxInFlight != 1 {
		t.Fatalf("max verifications in flight = %d", auth.maxInFlight)
	}
	for i, r := range results {
		if r.State != GateAuthenticated {
			t.Fatalf("run %d: %+v", i, r)
		}
	}
}
