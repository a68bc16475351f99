package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/database"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/pkg/crypto"
	"github.com/osmium/blog-admin/pkg/email"
	"github.com/osmium/blog-admin/repository"
	"github.com/osmium/blog-admin/ws"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// newTestSessions returns a SessionStore on an in-memory database.
func newTestSessions(t *testing.T) SessionStore {
	t.Helper()

	db, err := database.New(context.Background(), ":memory:", database.Migrations(), zap.NewNop())
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	key, _ := crypto.DeriveKey(testKey)
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		t.Fatal(err)
	}

	repoFor := func(q database.TxQuerier) repository.SessionRepository {
		return repository.NewSQLiteSessionRepo(q, sealer)
	}
	return NewSessionStore(db.Conn, repoFor, time.Hour, zap.NewNop())
}

// recordingHub is a ws.EventPublisher that keeps what was broadcast.
type recordingHub struct {
	mu           sync.Mutex
	events       []ws.Event
	disconnected []string
}

func (h *recordingHub) BroadcastToAll(e ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHub) BroadcastToAllExcept(_ string, e ws.Event) { h.BroadcastToAll(e) }
func (h *recordingHub) GetOnlineUserIDs() []string              { return nil }

func (h *recordingHub) DisconnectSession(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = append(h.disconnected, id)
}

func (h *recordingHub) changes() []ws.ChangeData {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []ws.ChangeData
	for _, e := range h.events {
		if c, ok := e.Data.(ws.ChangeData); ok {
			out = append(out, c)
		}
	}
	return out
}

func newTestNotifier() (*Notifier, *recordingHub) {
	hub := &recordingHub{}
	return NewNotifier(hub, nil, "test", zap.NewNop()), hub
}

// backendErr is a 500-style backend failure.
func backendErr(op string) error {
	return pkg.NewBackendError(pkg.KindStatus, op, 500, "Server error", nil)
}

// fakeAuth implements apiclient.AuthAPI.
type fakeAuth struct {
	mu          sync.Mutex
	verifyCalls int
	inFlight    int
	maxInFlight int
	verifyDelay time.Duration
	verifyErr   error
	userID      string
	tokensSeen  []string

	loginResult apiclient.LoginResult
	loginErr    error
	logoutErr   error
	logouts     []string
	registerErr error
	registered  []models.CreateUserRequest
}

func (f *fakeAuth) Login(_ context.Context, _ models.LoginRequest) (apiclient.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) Logout(_ context.Context, cookie string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts = append(f.logouts, cookie)
	return f.logoutErr
}

func (f *fakeAuth) Verify(ctx context.Context) (models.Identity, error) {
	f.mu.Lock()
	f.verifyCalls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.tokensSeen = append(f.tokensSeen, apiclient.TokenFrom(ctx))
	f.mu.Unlock()

	time.Sleep(f.verifyDelay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if f.verifyErr != nil {
		return models.Identity{}, f.verifyErr
	}
	return models.Identity{ID: f.userID}, nil
}

func (f *fakeAuth) Register(_ context.Context, req models.CreateUserRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, req)
	return nil
}

// fakeBlogs implements apiclient.BlogAPI.
type fakeBlogs struct {
	posts      []models.BlogPost
	listCalls  int
	listErr    error
	writeErr   error
	deleteErr  error
	createSlug string
	drafts     []models.BlogDraft
	deleted    []string
	stats      models.BlogStats
	statsCalls int
}

func (f *fakeBlogs) List(context.Context) ([]models.BlogPost, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.BlogPost(nil), f.posts...), nil
}

func (f *fakeBlogs) Recent(ctx context.Context) ([]models.BlogPost, error) { return f.List(ctx) }

func (f *fakeBlogs) Stats(context.Context) (models.BlogStats, error) {
	f.statsCalls++
	return f.stats, nil
}

func (f *fakeBlogs) Get(_ context.Context, ref string) (models.BlogPost, error) {
	for _, p := range f.posts {
		if p.Ref() == ref || p.ID == ref {
			return p, nil
		}
	}
	return models.BlogPost{}, pkg.NewBackendError(pkg.KindStatus, "blogs.get", 404, "Post not found", nil)
}

func (f *fakeBlogs) Create(_ context.Context, d models.BlogDraft) (string, error) {
	if f.writeErr != nil {
		return "", f.writeErr
	}
	f.drafts = append(f.drafts, d)
	f.posts = append(f.posts, models.BlogPost{ID: "new", Slug: f.createSlug, Title: d.Title})
	return f.createSlug, nil
}

func (f *fakeBlogs) Update(_ context.Context, ref string, d models.BlogDraft) (string, error) {
	if f.writeErr != nil {
		return "", f.writeErr
	}
	f.drafts = append(f.drafts, d)
	return ref + "-v2", nil
}

func (f *fakeBlogs) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeHirings implements apiclient.HiringAPI.
type fakeHirings struct {
	jobs      []models.Job
	listCalls int
	writeErr  error
	created   []models.JobInput
}

func (f *fakeHirings) List(context.Context) ([]models.Job, error) {
	f.listCalls++
	return append([]models.Job(nil), f.jobs...), nil
}

func (f *fakeHirings) Stats(context.Context) (models.HiringStats, error) {
	return models.HiringStats{TotalJobs: len(f.jobs)}, nil
}

func (f *fakeHirings) Create(_ context.Context, in models.JobInput) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.created = append(f.created, in)
	f.jobs = append(f.jobs, models.Job{ID: "j-new", Title: in.Title})
	return nil
}

func (f *fakeHirings) Update(_ context.Context, _ string, _ models.JobInput) error { return f.writeErr }

func (f *fakeHirings) Delete(_ context.Context, _ string) error { return f.writeErr }

// fakeApplications implements apiclient.ApplicationAPI.
type fakeApplications struct {
	apps      []models.Application
	lastJob   string
	updateErr error
	updates   int
}

func (f *fakeApplications) List(_ context.Context, jobID string) ([]models.Application, error) {
	f.lastJob = jobID
	out := make([]models.Application, len(f.apps))
	copy(out, f.apps)
	return out, nil
}

func (f *fakeApplications) UpdateStatus(context.Context, string, models.ApplicationStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	return nil
}

// recordingMailer implements email.Sender.
type recordingMailer struct {
	sent []email.DecisionEmail
	err  error
}

func (m *recordingMailer) SendDecision(_ context.Context, msg email.DecisionEmail) error {
	m.sent = append(m.sent, msg)
	return m.err
}
