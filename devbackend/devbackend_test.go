package devbackend

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/database"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
)

const (
	adminEmail    = "admin@orrelng.com"
	adminPassword = "correct-horse"
)

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type fixture struct {
	server *Server
	http   *httptest.Server
	client *apiclient.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.New(context.Background(), ":memory:", Migrations(), zap.NewNop())
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := NewServer(NewStore(db.Conn), Options{
		JWTSecret:  strings.Repeat("k", 32),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
		UploadDir:  t.TempDir(),
	}, zap.NewNop())
	if err := srv.SeedAdmin(context.Background(), "Admin", adminEmail, adminPassword); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	hs := httptest.NewServer(srv.Routes())
	t.Cleanup(hs.Close)

	return &fixture{
		server: srv,
		http:   hs,
		client: apiclient.New(apiclient.Options{BaseURL: hs.URL, Timeout: 5 * time.Second}, zap.NewNop()),
	}
}

// authed logs in as the seeded admin and returns a context carrying the token.
func (f *fixture) authed(t *testing.T) context.Context {
	t.Helper()
	res, err := f.client.Auth.Login(context.Background(), models.LoginRequest{Email: adminEmail, Password: adminPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return apiclient.WithToken(context.Background(), res.AccessToken)
}

func backendMessage(t *testing.T, err error) (int, string) {
	t.Helper()
	var be *pkg.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want BackendError", err)
	}
	return be.Status, be.Message
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World 2!":      "hello-world-2",
		"  Go   Concurrency  ": "go-concurrency",
		"Çay ve Şeker":         "çay-ve-şeker",
		"!!!":                  "post",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoginVerifyLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.client.Auth.Login(ctx, models.LoginRequest{Email: "ADMIN@orrelng.com", Password: adminPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || !strings.HasPrefix(res.RefreshCookie, RefreshCookieName+"=") {
		t.Fatalf("res = %+v", res)
	}

	identity, err := f.client.Auth.Verify(apiclient.WithToken(ctx, res.AccessToken))
	if err != nil || identity.ID == "" {
		t.Fatalf("Verify = %+v, %v", identity, err)
	}

	if err := f.client.Auth.Logout(ctx, res.RefreshCookie); err != nil {
		t.Fatalf("Logout: %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.client.Auth.Login(context.Background(), models.LoginRequest{Email: adminEmail, Password: "nope"})
	if status, msg := backendMessage(t, err); status != http.StatusUnauthorized || msg != "Invalid credentials" {
		t.Fatalf("status %d msg %q", status, msg)
	}
}

func TestVerifyRejectsMissingAndExpiredTokens(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.Auth.Verify(context.Background())
	if status, msg := backendMessage(t, err); status != http.StatusUnauthorized || msg != "No token provided" {
		t.Fatalf("status %d msg %q", status, msg)
	}

	past := time.Now().Add(-time.Hour)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		UserID: "someone",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past.Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(past),
		},
	})
	signed, err := expired.SignedString([]byte(f.server.opts.JWTSecret))
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.client.Auth.Verify(apiclient.WithToken(context.Background(), signed))
	if !errors.Is(err, pkg.ErrUnauthorized) {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := f.authed(t)
	req := models.CreateUserRequest{Name: "Editor", Email: "editor@orrelng.com", Password: "secret1"}

	if err := f.client.Auth.Register(ctx, req); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := f.client.Auth.Register(ctx, req)
	if !errors.Is(err, pkg.ErrAlreadyExists) || pkg.UserMessage(err) != "User already exists" {
		t.Fatalf("duplicate: %v", err)
	}

	if err := f.client.Auth.Register(context.Background(), req); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Fatalf("anonymous register: %v", err)
	}
}

func TestBlogLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := f.authed(t)

	draft := models.BlogDraft{
		Title: "Hello World", Summary: "First post", Author: "Ada", Category: "News", Content: "<p>hi</p>",
		Images: []models.ImageUpload{{Filename: "a.png", Size: int64(len(pngBytes)), Body: bytes.NewReader(pngBytes)}},
	}
	slug, err := f.client.Blogs.Create(ctx, draft)
	if err != nil || slug != "hello-world" {
		t.Fatalf("Create = %q, %v", slug, err)
	}

	draft.Images = nil
	slug2, err := f.client.Blogs.Create(ctx, draft)
	if err != nil || slug2 != "hello-world-2" {
		t.Fatalf("second Create = %q, %v", slug2, err)
	}

	post, err := f.client.Blogs.Get(ctx, "hello-world")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(post.Images) != 1 || !strings.HasPrefix(post.Images[0], "/uploads/") || post.Date == "" {
		t.Fatalf("post = %+v", post)
	}

	img, err := http.Get(f.http.URL + post.Images[0])
	if err != nil || img.StatusCode != http.StatusOK {
		t.Fatalf("image not served: %v", err)
	}
	img.Body.Close()

	draft.Title = "Renamed"
	newSlug, err := f.client.Blogs.Update(ctx, post.ID, draft)
	if err != nil || newSlug != "renamed" {
		t.Fatalf("Update = %q, %v", newSlug, err)
	}
	updated, _ := f.client.Blogs.Get(ctx, "renamed")
	if len(updated.Images) != 1 {
		t.Fatal("update without images dropped the stored ones")
	}

	stats, err := f.client.Blogs.Stats(ctx)
	if err != nil || stats.TotalPosts != 2 || stats.TotalAuthors != 1 || stats.TotalCategories != 1 {
		t.Fatalf("Stats = %+v, %v", stats, err)
	}

	if err := f.client.Blogs.Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = f.client.Blogs.Get(ctx, "renamed")
	if status, msg := backendMessage(t, err); status != http.StatusNotFound || msg != "Blog not found" {
		t.Fatalf("status %d msg %q", status, msg)
	}

	posts, _ := f.client.Blogs.List(ctx)
	if len(posts) != 1 {
		t.Fatalf("%d posts left", len(posts))
	}
}

func TestBlogCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := f.authed(t)

	_, err := f.client.Blogs.Create(ctx, models.BlogDraft{Title: "Only a title"})
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Fatalf("missing fields: %v", err)
	}

	text := []byte("just text")
	_, err = f.client.Blogs.Create(ctx, models.BlogDraft{
		Title: "T", Summary: "S", Author: "A",
		Images: []models.ImageUpload{{Filename: "a.png", Size: int64(len(text)), Body: bytes.NewReader(text)}},
	})
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Fatalf("text as image: %v", err)
	}

	_, err = f.client.Blogs.Create(context.Background(), models.BlogDraft{Title: "T", Summary: "S", Author: "A"})
	if !errors.Is(err, pkg.ErrUnauthorized) {
		t.Fatalf("anonymous create: %v", err)
	}
}

func TestHiringsAndApplications(t *testing.T) {
	f := newFixture(t)
	ctx := f.authed(t)

	in := models.JobInput{Title: "Engineer", Department: "R&D", Type: "Full-time", Deadline: "2026-12-31"}
	if err := f.client.Hirings.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	jobs, err := f.client.Hirings.List(ctx)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("List = %+v, %v", jobs, err)
	}
	job := jobs[0]

	if err := f.client.Hirings.Update(ctx, job.ID, models.JobInput{Title: "Senior Engineer"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	jobs, _ = f.client.Hirings.List(ctx)
	if jobs[0].Title != "Senior Engineer" || jobs[0].Department != "R&D" {
		t.Fatalf("partial update lost fields: %+v", jobs[0])
	}

	stats, _ := f.client.Hirings.Stats(ctx)
	if stats.TotalJobs != 1 || stats.TotalDepartments != 1 || stats.TotalTypes != 1 {
		t.Fatalf("Stats = %+v", stats)
	}

	body := `{"name":"Grace","email":"grace@example.com","cvUrl":"/uploads/cv.pdf"}`
	resp, err := http.Post(f.http.URL+"/api/applications/"+job.ID, "application/json", strings.NewReader(body))
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("apply: %v %v", resp, err)
	}
	resp.Body.Close()

	apps, err := f.client.Applications.List(ctx, job.ID)
	if err != nil || len(apps) != 1 {
		t.Fatalf("List(job) = %+v, %v", apps, err)
	}
	if apps[0].Job.Title != "Senior Engineer" || apps[0].Status != models.StatusPending {
		t.Fatalf("app = %+v", apps[0])
	}

	if err := f.client.Applications.UpdateStatus(ctx, apps[0].ID, models.StatusAccepted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	apps, _ = f.client.Applications.List(ctx, models.JobFilterAll)
	if len(apps) != 1 || apps[0].Status != models.StatusAccepted {
		t.Fatalf("after update: %+v", apps)
	}

	err = f.client.Applications.UpdateStatus(ctx, "missing", models.StatusRejected)
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("missing application: %v", err)
	}

	if err := f.client.Hirings.Delete(ctx, job.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	apps, _ = f.client.Applications.List(ctx, "")
	if len(apps) != 0 {
		t.Fatal("applications survived their job")
	}
}
