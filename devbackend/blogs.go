package devbackend

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/pkg/upload"
)

// Slugify lowercases title and joins its letters and digits with hyphens:
// "Hello, World 2!" becomes "hello-world-2".
func Slugify(title string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			hyphen = false
			continue
		}
		hyphen = true
	}
	if b.Len() == 0 {
		return "post"
	}
	return b.String()
}

// GET /api/blogs
func (s *Server) listBlogs(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListBlogs(r.Context(), 0)
	if err != nil {
		s.writeError(w, err, "Failed to fetch blogs")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// GET /api/blogs/recent
func (s *Server) recentBlogs(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListBlogs(r.Context(), 5)
	if err != nil {
		s.writeError(w, err, "Failed to fetch blogs")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// GET /api/blogs/dashboard
func (s *Server) blogStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.BlogStats(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /api/blogs/{ref}
func (s *Server) getBlog(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.GetBlog(r.Context(), r.PathValue("ref"))
	if err != nil {
		s.writeError(w, err, "Failed to fetch blog")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// POST /api/blogs
func (s *Server) createBlog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	draft, err := s.readDraft(w, r)
	if err != nil {
		s.writeError(w, err, "Failed to create blog")
		return
	}

	images, err := s.saveImages(draft.Images)
	if err != nil {
		s.writeError(w, err, "Failed to create blog")
		return
	}

	post := models.BlogPost{
		Title:    draft.Title,
		Summary:  draft.Summary,
		Author:   draft.Author,
		Date:     draft.Date,
		Category: draft.Category,
		Content:  draft.Content,
		Images:   images,
	}
	if post.Date == "" {
		post.Date = s.now().Format(time.DateOnly)
	}
	if post.Slug, err = s.store.UniqueSlug(ctx, Slugify(post.Title), ""); err != nil {
		s.writeError(w, err, "Failed to create blog")
		return
	}
	if err := s.store.InsertBlog(ctx, &post); err != nil {
		s.removeImages(images)
		s.writeError(w, err, "Failed to create blog")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Blog created successfully", "blog": post})
}

// PUT /api/blogs/{ref}
// New images replace the stored ones; without new images they are kept.
// The slug follows the title.
func (s *Server) updateBlog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := s.store.GetBlog(ctx, r.PathValue("ref"))
	if err != nil {
		s.writeError(w, err, "Failed to update blog")
		return
	}

	draft, err := s.readDraft(w, r)
	if err != nil {
		s.writeError(w, err, "Failed to update blog")
		return
	}

	old := post.Images
	if len(draft.Images) > 0 {
		if post.Images, err = s.saveImages(draft.Images); err != nil {
			s.writeError(w, err, "Failed to update blog")
			return
		}
	}

	post.Title = draft.Title
	post.Summary = draft.Summary
	post.Author = draft.Author
	post.Category = draft.Category
	post.Content = draft.Content
	if draft.Date != "" {
		post.Date = draft.Date
	}
	if post.Slug, err = s.store.UniqueSlug(ctx, Slugify(post.Title), post.ID); err != nil {
		s.writeError(w, err, "Failed to update blog")
		return
	}

	if err := s.store.UpdateBlog(ctx, post); err != nil {
		s.writeError(w, err, "Failed to update blog")
		return
	}
	if len(draft.Images) > 0 {
		s.removeImages(old)
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Blog updated successfully", "blog": post})
}

// DELETE /api/blogs/{id}
func (s *Server) deleteBlog(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.DeleteBlog(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err, "Failed to delete blog")
		return
	}
	s.removeImages(post.Images)
	writeMessage(w, http.StatusOK, "Blog deleted successfully")
}

// readDraft parses and validates the multipart post form.
// Image bodies are read fully here, the multipart files are closed on return.
func (s *Server) readDraft(w http.ResponseWriter, r *http.Request) (models.BlogDraft, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(models.MaxBlogImages)*s.opts.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.BlogDraft{}, fmt.Errorf("%w: Upload too large", pkg.ErrTooLarge)
		}
		return models.BlogDraft{}, fmt.Errorf("%w: Invalid form data", pkg.ErrBadRequest)
	}
	defer r.MultipartForm.RemoveAll()

	draft := models.BlogDraft{
		Title:    r.FormValue("title"),
		Summary:  r.FormValue("summary"),
		Author:   r.FormValue("author"),
		Date:     strings.TrimSpace(r.FormValue("date")),
		Content:  r.FormValue("content"),
		Category: strings.TrimSpace(r.FormValue("category")),
	}

	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			return draft, fmt.Errorf("%w: unreadable image", pkg.ErrBadRequest)
		}
		body, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return draft, fmt.Errorf("failed to read image: %w", err)
		}
		draft.Images = append(draft.Images, models.ImageUpload{
			Filename: fh.Filename,
			Size:     int64(len(body)),
			Body:     bytes.NewReader(body),
		})
	}

	if err := draft.Validate(); err != nil {
		return draft, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	checked, err := upload.CheckImages(draft.Images, s.opts.MaxImageSize)
	if err != nil {
		return draft, err
	}
	draft.Images = checked
	return draft, nil
}

// saveImages writes the uploads under UploadDir and returns their URLs.
func (s *Server) saveImages(imgs []models.ImageUpload) ([]string, error) {
	urls := []string{}
	if len(imgs) == 0 {
		return urls, nil
	}
	if s.opts.UploadDir == "" {
		return nil, fmt.Errorf("%w: image uploads are disabled", pkg.ErrBadRequest)
	}
	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	for _, img := range imgs {
		ext, _ := upload.Extension(img.ContentType)
		name := newID() + ext

		f, err := os.Create(filepath.Join(s.opts.UploadDir, name))
		if err != nil {
			s.removeImages(urls)
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		_, err = io.Copy(f, img.Body)
		f.Close()
		if err != nil {
			s.removeImages(append(urls, "/uploads/"+name))
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		urls = append(urls, "/uploads/"+name)
	}
	return urls, nil
}

func (s *Server) removeImages(urls []string) {
	if s.opts.UploadDir == "" {
		return
	}
	for _, u := range urls {
		name := path.Base(u)
		if err := os.Remove(filepath.Join(s.opts.UploadDir, name)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove image", zap.String("file", name), zap.Error(err))
		}
	}
}
