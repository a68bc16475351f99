package services

import (
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg/mirror"
)

// A view is the request-scoped copy of a backend list that a page works on.
// Handlers create one per request, let the service load and mutate it, and
// return its items.

// NewPostView returns an empty posts view keyed by post id.
func NewPostView() *mirror.List[models.BlogPost] {
	return mirror.New(func(p models.BlogPost) string { return p.ID })
}

// NewJobView returns an empty jobs view keyed by job id.
func NewJobView() *mirror.List[models.Job] {
	return mirror.New(func(j models.Job) string { return j.ID })
}

// NewApplicationView returns an empty applications view keyed by id.
func NewApplicationView() *mirror.List[models.Application] {
	return mirror.New(func(a models.Application) string { return a.ID })
}

// MutationResult is returned by create and update flows.
type MutationResult struct {
	// Slug is the post's slug after a post create or update.
	Slug string `json:"slug,omitempty"`
	// Stale is set when the change was stored but the refetch that follows it
	// failed; the view then still holds the list from before the change.
	Stale bool `json:"stale,omitempty"`
}
