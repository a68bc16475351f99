package models

import (
	"fmt"
	"strings"
	"time"
)

// JobTypes are the employment types offered in the hiring form.
var JobTypes = []string{"Full-time", "Part-time", "Contract", "Internship", "Remote"}

// Job is a job posting as stored by the backend (/api/hirings).
type Job struct {
	ID           string `json:"_id"`
	Title        string `json:"title"`
	Department   string `json:"department"`
	Location     string `json:"location"`
	Type         string `json:"type"`
	Summary      string `json:"summary"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	SalaryRange  string `json:"salaryRange,omitempty"`
	Deadline     string `json:"deadline,omitempty"`
}

// JobInput is the create/edit form of a job posting.
type JobInput struct {
	Title        string `json:"title"`
	Department   string `json:"department"`
	Location     string `json:"location"`
	Type         string `json:"type"`
	Summary      string `json:"summary"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	SalaryRange  string `json:"salaryRange"`
	Deadline     string `json:"deadline"`
}

// Validate trims the form and checks required fields.
// Deadline, when set, must be a calendar date (the form uses <input type=date>).
func (in *JobInput) Validate() error {
	for _, f := range []*string{
		&in.Title, &in.Department, &in.Location, &in.Type, &in.Summary,
		&in.Description, &in.Requirements, &in.SalaryRange, &in.Deadline,
	} {
		*f = strings.TrimSpace(*f)
	}

	if in.Title == "" {
		return fmt.Errorf("job title is required")
	}
	if in.Deadline != "" {
		if _, err := time.Parse(time.DateOnly, in.Deadline); err != nil {
			return fmt.Errorf("deadline must be a date (YYYY-MM-DD)")
		}
	}
	return nil
}

// Payload returns the fields to send to the backend with empty strings removed,
// so optional fields the form left blank are not stored as "".
func (in JobInput) Payload() map[string]string {
	all := map[string]string{
		"title":        in.Title,
		"department":   in.Department,
		"location":     in.Location,
		"type":         in.Type,
		"summary":      in.Summary,
		"description":  in.Description,
		"requirements": in.Requirements,
		"salaryRange":  in.SalaryRange,
		"deadline":     in.Deadline,
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// HiringStats is the summary returned by /api/hirings/dashboard.
type HiringStats struct {
	TotalJobs        int `json:"totalJobs"`
	TotalDepartments int `json:"totalDepartments"`
	TotalTypes       int `json:"totalTypes"`
}
