package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/services"
)

// ApplicantHandler serves the applicants page.
type ApplicantHandler struct {
	applicants services.ApplicantService
	hirings    services.HiringService
}

// NewApplicantHandler, constructor. hirings supplies the job filter options.
func NewApplicantHandler(applicants services.ApplicantService, hirings services.HiringService) *ApplicantHandler {
	return &ApplicantHandler{applicants: applicants, hirings: hirings}
}

// List godoc
// GET /api/applicants?job=<id|all>
func (h *ApplicantHandler) List(w http.ResponseWriter, r *http.Request) {
	view := services.NewApplicationView()
	if err := h.applicants.Load(r.Context(), view, r.URL.Query().Get("job")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, view.Items())
}

// JobOptions godoc
// GET /api/applicants/jobs
// The entries of the job filter.
func (h *ApplicantHandler) JobOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.hirings.JobOptions(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, options)
}

// UpdateStatus godoc
// PATCH /api/applicants/{id}/status?job=<id|all>
// Body: {"status": "Pending" | "Reviewed" | "Accepted" | "Rejected"}
//
// Answers with the page's list (same job filter) after the change.
func (h *ApplicantHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	view := services.NewApplicationView()
	if err := h.applicants.Load(ctx, view, r.URL.Query().Get("job")); err != nil {
		pkg.Error(w, err)
		return
	}
	if err := h.applicants.UpdateStatus(ctx, actor(ctx), view, r.PathValue("id"), req.Status); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, view.Items())
}
