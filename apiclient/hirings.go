package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/osmium/blog-admin/models"
)

// HiringAPI covers /api/hirings.
type HiringAPI interface {
	List(ctx context.Context) ([]models.Job, error)
	Stats(ctx context.Context) (models.HiringStats, error)
	Create(ctx context.Context, in models.JobInput) error
	Update(ctx context.Context, id string, in models.JobInput) error
	Delete(ctx context.Context, id string) error
}

type hiringClient struct {
	t *transport
}

func (c *hiringClient) List(ctx context.Context) ([]models.Job, error) {
	const op = "hirings.list"

	raw, _, err := c.t.do(ctx, call{op: op, method: http.MethodGet, path: "/api/hirings"})
	if err != nil {
		return nil, err
	}
	jobs, err := decodeList[models.Job](raw, "hirings", "jobs")
	if err != nil {
		return nil, c.t.decodeError(op, err)
	}
	return jobs, nil
}

func (c *hiringClient) Stats(ctx context.Context) (models.HiringStats, error) {
	var stats models.HiringStats
	err := c.t.doJSON(ctx, call{
		op:     "hirings.stats",
		method: http.MethodGet,
		path:   "/api/hirings/dashboard",
	}, &stats)
	return stats, err
}

// Create sends the form with empty fields stripped, so optional fields left
// blank are not stored as "".
func (c *hiringClient) Create(ctx context.Context, in models.JobInput) error {
	return c.write(ctx, "hirings.create", http.MethodPost, "/api/hirings", in.Payload(), "Failed to create job")
}

// Update sends every field. The edit form holds the whole job, so an empty
// field is one staff cleared and the backend must store it empty.
func (c *hiringClient) Update(ctx context.Context, id string, in models.JobInput) error {
	return c.write(ctx, "hirings.update", http.MethodPut, "/api/hirings/"+url.PathEscape(id), in, "Failed to update job")
}

func (c *hiringClient) write(ctx context.Context, op, method, path string, payload any, fallback string) error {
	body, err := jsonBody(payload)
	if err != nil {
		return err
	}
	return c.t.doJSON(ctx, call{
		op:          op,
		method:      method,
		path:        path,
		body:        body,
		contentType: "application/json",
		fallback:    fallback,
	}, nil)
}

func (c *hiringClient) Delete(ctx context.Context, id string) error {
	return c.t.doJSON(ctx, call{
		op:       "hirings.delete",
		method:   http.MethodDelete,
		path:     "/api/hirings/" + url.PathEscape(id),
		fallback: "Failed to delete job",
	}, nil)
}
