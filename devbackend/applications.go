package devbackend

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/osmium/blog-admin/models"
)

// GET /api/applications and GET /api/applications/{jobId}
func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.ListApplications(r.Context(), r.PathValue("jobId"))
	if err != nil {
		s.writeError(w, err, "Failed to fetch applications")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// POST /api/applications/{jobId}
// The public careers form. Unauthenticated, like the real site.
func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Email       string   `json:"email"`
		Phone       string   `json:"phone"`
		CoverLetter string   `json:"coverLetter"`
		CVURL       string   `json:"cvUrl"`
		Documents   []string `json:"documents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || !models.EmailRegex().MatchString(req.Email) {
		writeMessage(w, http.StatusBadRequest, "Name and a valid email are required")
		return
	}

	app := models.Application{
		Job:         models.JobRef{ID: r.PathValue("jobId")},
		Name:        req.Name,
		Email:       req.Email,
		Phone:       strings.TrimSpace(req.Phone),
		CoverLetter: req.CoverLetter,
		CVURL:       req.CVURL,
		Documents:   req.Documents,
	}
	if err := s.store.InsertApplication(r.Context(), &app); err != nil {
		s.writeError(w, err, "Failed to submit application")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Application submitted", "application": app})
}

// PATCH /api/applications/app/{id}
func (s *Server) updateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid status")
		return
	}

	if err := s.store.UpdateApplicationStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		s.writeError(w, err, "Failed to update status")
		return
	}
	writeMessage(w, http.StatusOK, "Status updated successfully")
}
