package devbackend

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/osmium/blog-admin/models"
)

// jobFields are the wire names a job body may carry.
var jobFields = []string{
	"title", "department", "location", "type", "summary",
	"description", "requirements", "salaryRange", "deadline",
}

// readJobFields decodes a job body, keeping only known fields, trimmed.
func readJobFields(r *http.Request) (map[string]string, bool) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, false
	}
	fields := make(map[string]string)
	for _, key := range jobFields {
		if v, ok := raw[key].(string); ok {
			fields[key] = strings.TrimSpace(v)
		}
	}
	return fields, true
}

func jobInput(f map[string]string) models.JobInput {
	return models.JobInput{
		Title:        f["title"],
		Department:   f["department"],
		Location:     f["location"],
		Type:         f["type"],
		Summary:      f["summary"],
		Description:  f["description"],
		Requirements: f["requirements"],
		SalaryRange:  f["salaryRange"],
		Deadline:     f["deadline"],
	}
}

// GET /api/hirings
func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to fetch jobs")
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GET /api/hirings/dashboard
func (s *Server) jobStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.JobStats(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// POST /api/hirings
func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	fields, ok := readJobFields(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in := jobInput(fields)
	if err := in.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	job := models.Job{
		Title:        in.Title,
		Department:   in.Department,
		Location:     in.Location,
		Type:         in.Type,
		Summary:      in.Summary,
		Description:  in.Description,
		Requirements: in.Requirements,
		SalaryRange:  in.SalaryRange,
		Deadline:     in.Deadline,
	}
	if err := s.store.InsertJob(r.Context(), &job); err != nil {
		s.writeError(w, err, "Failed to create job")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Job created successfully", "hiring": job})
}

// PUT /api/hirings/{id}
// Only the fields present in the body change.
func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	fields, ok := readJobFields(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if title, ok := fields["title"]; ok && title == "" {
		writeMessage(w, http.StatusBadRequest, "job title is required")
		return
	}
	if _, ok := fields["deadline"]; ok {
		in := models.JobInput{Title: "-", Deadline: fields["deadline"]}
		if err := in.Validate(); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.store.UpdateJob(r.Context(), r.PathValue("id"), fields); err != nil {
		s.writeError(w, err, "Failed to update job")
		return
	}
	writeMessage(w, http.StatusOK, "Job updated successfully")
}

// DELETE /api/hirings/{id}
// Applications to the job go with it.
func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteJob(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err, "Failed to delete job")
		return
	}
	writeMessage(w, http.StatusOK, "Job deleted successfully")
}
