// Package devbackend is a local stand-in for the blog backend the console
// talks to. It implements the same routes and response shapes: bare JSON
// bodies, {"message": "..."} errors, a Bearer access token and a refreshToken
// cookie. Data lives in SQLite, uploaded images on disk.
//
// It exists so the console can be run and tested end to end without the
// production backend.
package devbackend

import (
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/pkg"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations returns the dev backend's schema.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Options configures a Server.
type Options struct {
	JWTSecret    string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	CookieSecure bool
	// UploadDir is where post images are written and served from (/uploads/).
	UploadDir string
	// MaxImageSize is the per-image limit in bytes.
	MaxImageSize int64
}

// Server serves the backend API.
type Server struct {
	store  *Store
	opts   Options
	now    func() time.Time
	logger *zap.Logger
}

// NewServer, constructor.
func NewServer(store *Store, opts Options, logger *zap.Logger) *Server {
	if opts.MaxImageSize == 0 {
		opts.MaxImageSize = 5 << 20
	}
	return &Server{
		store:  store,
		opts:   opts,
		now:    time.Now,
		logger: logger.Named("devbackend"),
	}
}

// Routes returns the backend's router.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/logout", s.logout)
	mux.HandleFunc("POST /api/auth/register", s.requireUser(s.register))
	mux.HandleFunc("GET /api/protected", s.requireUser(s.protected))

	// Blogs; literal paths take precedence over {ref}.
	mux.HandleFunc("GET /api/blogs", s.listBlogs)
	mux.HandleFunc("GET /api/blogs/recent", s.recentBlogs)
	mux.HandleFunc("GET /api/blogs/dashboard", s.blogStats)
	mux.HandleFunc("GET /api/blogs/{ref}", s.getBlog)
	mux.HandleFunc("POST /api/blogs", s.requireUser(s.createBlog))
	mux.HandleFunc("PUT /api/blogs/{ref}", s.requireUser(s.updateBlog))
	mux.HandleFunc("DELETE /api/blogs/{id}", s.requireUser(s.deleteBlog))

	// Hirings
	mux.HandleFunc("GET /api/hirings", s.listJobs)
	mux.HandleFunc("GET /api/hirings/dashboard", s.jobStats)
	mux.HandleFunc("POST /api/hirings", s.requireUser(s.createJob))
	mux.HandleFunc("PUT /api/hirings/{id}", s.requireUser(s.updateJob))
	mux.HandleFunc("DELETE /api/hirings/{id}", s.requireUser(s.deleteJob))

	// Applications
	mux.HandleFunc("GET /api/applications", s.requireUser(s.listApplications))
	mux.HandleFunc("GET /api/applications/{jobId}", s.requireUser(s.listApplications))
	mux.HandleFunc("POST /api/applications/{jobId}", s.apply)
	mux.HandleFunc("PATCH /api/applications/app/{id}", s.requireUser(s.updateApplicationStatus))

	// Uploaded images
	if s.opts.UploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.opts.UploadDir))))
	}

	return mux
}

// writeJSON writes a bare JSON body, the backend has no envelope.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeMessage writes {"message": msg}, the backend's error and ack shape.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError maps a store error to a status and message.
func (s *Server) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, pkg.ErrNotFound):
		writeMessage(w, http.StatusNotFound, pkg.UserMessage(err))
	case errors.Is(err, pkg.ErrAlreadyExists):
		writeMessage(w, http.StatusConflict, pkg.UserMessage(err))
	case errors.Is(err, pkg.ErrBadRequest):
		writeMessage(w, http.StatusBadRequest, pkg.UserMessage(err))
	case errors.Is(err, pkg.ErrTooLarge):
		writeMessage(w, http.StatusRequestEntityTooLarge, pkg.UserMessage(err))
	case errors.Is(err, pkg.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, pkg.UserMessage(err))
	default:
		s.logger.Error(fallback, zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}
