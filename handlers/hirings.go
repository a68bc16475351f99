package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/services"
)

// HiringHandler serves the hiring page.
type HiringHandler struct {
	hirings services.HiringService
}

// NewHiringHandler, constructor.
func NewHiringHandler(hirings services.HiringService) *HiringHandler {
	return &HiringHandler{hirings: hirings}
}

type hiringPage struct {
	Jobs  []models.Job       `json:"jobs"`
	Stats models.HiringStats `json:"stats"`
}

type jobMutation struct {
	services.MutationResult
	Jobs []models.Job `json:"jobs"`
}

// List godoc
// GET /api/hirings
// Returns the jobs and the hiring counters.
func (h *HiringHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := services.NewJobView()
	if err := h.hirings.Load(ctx, view); err != nil {
		pkg.Error(w, err)
		return
	}
	stats, err := h.hirings.Stats(ctx)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, hiringPage{Jobs: view.Items(), Stats: stats})
}

// Create godoc
// POST /api/hirings
func (h *HiringHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.JobInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view := services.NewJobView()
	res, err := h.hirings.Create(r.Context(), actor(r.Context()), view, in)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, jobMutation{MutationResult: res, Jobs: view.Items()})
}

// Update godoc
// PUT /api/hirings/{id}
func (h *HiringHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in models.JobInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view := services.NewJobView()
	res, err := h.hirings.Update(r.Context(), actor(r.Context()), view, r.PathValue("id"), in)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, jobMutation{MutationResult: res, Jobs: view.Items()})
}

// Delete godoc
// DELETE /api/hirings/{id}
func (h *HiringHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := services.NewJobView()
	if err := h.hirings.Load(ctx, view); err != nil {
		pkg.Error(w, err)
		return
	}
	if err := h.hirings.Delete(ctx, actor(ctx), view, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, view.Items())
}
