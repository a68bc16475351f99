package models

import (
	"encoding/json"
	"fmt"
)

// ApplicationStatus is the review state of a job application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "Pending"
	StatusReviewed ApplicationStatus = "Reviewed"
	StatusAccepted ApplicationStatus = "Accepted"
	StatusRejected ApplicationStatus = "Rejected"
)

// ApplicationStatuses lists every valid status in review order.
var ApplicationStatuses = []ApplicationStatus{StatusPending, StatusReviewed, StatusAccepted, StatusRejected}

// Valid reports whether s is one of the four known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// IsDecision reports whether s is a final decision the applicant is told about.
func (s ApplicationStatus) IsDecision() bool {
	return s == StatusAccepted || s == StatusRejected
}

// JobRef is the job an application points to. The backend populates it as
// {_id, title}; unpopulated records carry only the id string.
type JobRef struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

func (j *JobRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		j.ID = id
		return nil
	}

	type alias JobRef
	return json.Unmarshal(data, (*alias)(j))
}

// Application is a candidate's application to a job.
type Application struct {
	ID          string            `json:"_id"`
	Job         JobRef            `json:"job"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	CoverLetter string            `json:"coverLetter"`
	CVURL       string            `json:"cvUrl,omitempty"`
	Documents   []string          `json:"documents"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   string            `json:"createdAt,omitempty"`
}

// StatusUpdate is the body of a status change.
type StatusUpdate struct {
	Status ApplicationStatus `json:"status"`
}

func (u StatusUpdate) Validate() error {
	if !u.Status.Valid() {
		return fmt.Errorf("status must be one of Pending, Reviewed, Accepted, Rejected")
	}
	return nil
}

// JobFilterAll is the applicant filter value meaning "every job".
const JobFilterAll = "all"
