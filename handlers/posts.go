package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/services"
)

// multipartMemory is how much of a post form is kept in memory before
// the rest spills to temp files.
const multipartMemory = 8 << 20

// PostHandler serves the posts page.
type PostHandler struct {
	posts   services.PostService
	maxBody int64
}

// NewPostHandler, constructor. maxImage is the per-image limit; the whole
// form may carry MaxBlogImages of them plus the text fields.
func NewPostHandler(posts services.PostService, maxImage int64) *PostHandler {
	return &PostHandler{
		posts:   posts,
		maxBody: int64(models.MaxBlogImages)*maxImage + 1<<20,
	}
}

// postMutation is the answer to create and update: the new slug and the
// refreshed list.
type postMutation struct {
	services.MutationResult
	Posts []models.BlogPost `json:"posts"`
}

// List godoc
// GET /api/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	view := services.NewPostView()
	if err := h.posts.Load(r.Context(), view); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, view.Items())
}

// Get godoc
// GET /api/posts/{ref}
// ref is a post id or slug.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), r.PathValue("ref"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, post)
}

// Create godoc
// POST /api/posts
// multipart/form-data: title, summary, author, date, content, category, images[]
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	draft, cleanup, err := h.parseDraft(w, r)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	defer cleanup()

	view := services.NewPostView()
	res, err := h.posts.Create(r.Context(), actor(r.Context()), view, draft)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, postMutation{MutationResult: res, Posts: view.Items()})
}

// Update godoc
// PUT /api/posts/{ref}
// Same form as Create. The response carries the post's slug after the edit,
// which changes when the title does.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	draft, cleanup, err := h.parseDraft(w, r)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	defer cleanup()

	view := services.NewPostView()
	res, err := h.posts.Update(r.Context(), actor(r.Context()), view, r.PathValue("ref"), draft)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, postMutation{MutationResult: res, Posts: view.Items()})
}

// Delete godoc
// DELETE /api/posts/{id}
// Returns the list without the deleted post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := services.NewPostView()
	if err := h.posts.Load(ctx, view); err != nil {
		pkg.Error(w, err)
		return
	}
	if err := h.posts.Delete(ctx, actor(ctx), view, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, view.Items())
}

// parseDraft reads the post form. The returned cleanup closes the image
// files and removes multipart temp files.
func (h *PostHandler) parseDraft(w http.ResponseWriter, r *http.Request) (models.BlogDraft, func(), error) {
	noop := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.BlogDraft{}, noop, fmt.Errorf("%w: form exceeds %d bytes", pkg.ErrTooLarge, tooLarge.Limit)
		}
		return models.BlogDraft{}, noop, fmt.Errorf("%w: expected a multipart form", pkg.ErrBadRequest)
	}

	draft := models.BlogDraft{
		Title:    r.FormValue("title"),
		Summary:  r.FormValue("summary"),
		Author:   r.FormValue("author"),
		Date:     r.FormValue("date"),
		Content:  r.FormValue("content"),
		Category: r.FormValue("category"),
	}

	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			c()
		}
		r.MultipartForm.RemoveAll()
	}

	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return models.BlogDraft{}, noop, fmt.Errorf("%w: unreadable image %q", pkg.ErrBadRequest, fh.Filename)
		}
		closers = append(closers, f.Close)
		draft.Images = append(draft.Images, models.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return draft, cleanup, nil
}
