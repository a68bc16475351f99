package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/osmium/blog-admin/models"
)

// BlogAPI covers /api/blogs.
type BlogAPI interface {
	List(ctx context.Context) ([]models.BlogPost, error)
	Recent(ctx context.Context) ([]models.BlogPost, error)
	Stats(ctx context.Context) (models.BlogStats, error)
	// Get loads a post by id or slug.
	Get(ctx context.Context, ref string) (models.BlogPost, error)
	// Create uploads a new post and returns its slug.
	Create(ctx context.Context, draft models.BlogDraft) (string, error)
	// Update replaces the post at ref and returns its (possibly new) slug.
	Update(ctx context.Context, ref string, draft models.BlogDraft) (string, error)
	Delete(ctx context.Context, id string) error
}

type blogClient struct {
	t *transport
}

func (c *blogClient) List(ctx context.Context) ([]models.BlogPost, error) {
	return c.list(ctx, "blogs.list", "/api/blogs")
}

func (c *blogClient) Recent(ctx context.Context) ([]models.BlogPost, error) {
	return c.list(ctx, "blogs.recent", "/api/blogs/recent")
}

func (c *blogClient) list(ctx context.Context, op, path string) ([]models.BlogPost, error) {
	raw, _, err := c.t.do(ctx, call{op: op, method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	posts, err := decodeList[models.BlogPost](raw, "blogs", "posts")
	if err != nil {
		return nil, c.t.decodeError(op, err)
	}
	return posts, nil
}

func (c *blogClient) Stats(ctx context.Context) (models.BlogStats, error) {
	var stats models.BlogStats
	err := c.t.doJSON(ctx, call{
		op:     "blogs.stats",
		method: http.MethodGet,
		path:   "/api/blogs/dashboard",
	}, &stats)
	return stats, err
}

func (c *blogClient) Get(ctx context.Context, ref string) (models.BlogPost, error) {
	const op = "blogs.get"

	raw, _, err := c.t.do(ctx, call{
		op:       op,
		method:   http.MethodGet,
		path:     "/api/blogs/" + url.PathEscape(ref),
		fallback: "Post not found",
	})
	if err != nil {
		return models.BlogPost{}, err
	}

	post, err := decodeWrapped[models.BlogPost](raw, "blog")
	if err != nil {
		return models.BlogPost{}, c.t.decodeError(op, err)
	}
	return post, nil
}

func (c *blogClient) Create(ctx context.Context, draft models.BlogDraft) (string, error) {
	return c.send(ctx, "blogs.create", http.MethodPost, "/api/blogs", draft, "Failed to create post")
}

func (c *blogClient) Update(ctx context.Context, ref string, draft models.BlogDraft) (string, error) {
	return c.send(ctx, "blogs.update", http.MethodPut, "/api/blogs/"+url.PathEscape(ref), draft, "Failed to update post")
}

func (c *blogClient) send(ctx context.Context, op, method, path string, draft models.BlogDraft, fallback string) (string, error) {
	body, contentType, err := encodeDraft(draft)
	if err != nil {
		return "", fmt.Errorf("encode post form: %w", err)
	}

	raw, _, err := c.t.do(ctx, call{
		op:          op,
		method:      method,
		path:        path,
		body:        body,
		contentType: contentType,
		fallback:    fallback,
	})
	if err != nil {
		return "", err
	}

	// Create answers {blog:{slug}}, some backend versions answer {slug}.
	post, err := decodeWrapped[models.BlogPost](raw, "blog")
	if err != nil {
		return "", c.t.decodeError(op, err)
	}
	if post.Slug == "" {
		return "", c.t.malformed(op, "slug")
	}
	return post.Slug, nil
}

func (c *blogClient) Delete(ctx context.Context, id string) error {
	return c.t.doJSON(ctx, call{
		op:       "blogs.delete",
		method:   http.MethodDelete,
		path:     "/api/blogs/" + url.PathEscape(id),
		fallback: "Failed to delete post",
	}, nil)
}

// encodeDraft builds the multipart form the backend expects: one text field
// per post field and one "images" file part per upload.
func encodeDraft(d models.BlogDraft) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"title", d.Title},
		{"summary", d.Summary},
		{"author", d.Author},
		{"date", d.Date},
		{"content", d.Content},
		{"category", d.Category},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	for _, img := range d.Images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, quoteEscaper.Replace(img.Filename)))
		contentType := img.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, img.Body); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
