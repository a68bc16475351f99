package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/osmium/blog-admin/models"
)

// ApplicationAPI covers /api/applications.
type ApplicationAPI interface {
	// List returns every application, or those of one job when jobID is set
	// (and is not models.JobFilterAll).
	List(ctx context.Context, jobID string) ([]models.Application, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
}

type applicationClient struct {
	t *transport
}

func (c *applicationClient) List(ctx context.Context, jobID string) ([]models.Application, error) {
	const op = "applications.list"

	path := "/api/applications"
	if jobID != "" && jobID != models.JobFilterAll {
		path += "/" + url.PathEscape(jobID)
	}

	raw, _, err := c.t.do(ctx, call{op: op, method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}

	// The per-job endpoint may answer a single object; it is wrapped.
	apps, err := decodeList[models.Application](raw, "applications")
	if err != nil {
		return nil, c.t.decodeError(op, err)
	}
	return apps, nil
}

func (c *applicationClient) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	body, err := jsonBody(models.StatusUpdate{Status: status})
	if err != nil {
		return err
	}
	return c.t.doJSON(ctx, call{
		op:          "applications.update_status",
		method:      http.MethodPatch,
		path:        "/api/applications/app/" + url.PathEscape(id),
		body:        body,
		contentType: "application/json",
		fallback:    "Failed to update status",
	}, nil)
}
