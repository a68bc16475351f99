package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/pkg/email"
	"github.com/osmium/blog-admin/pkg/mirror"
	"github.com/osmium/blog-admin/ws"
)

// ApplicantService is the applicants page: review and status changes.
type ApplicantService interface {
	// Load fills view with the applications of jobFilter ("" or "all" for every job).
	Load(ctx context.Context, view *mirror.List[models.Application], jobFilter string) error
	// UpdateStatus changes one application's status and patches it in view.
	UpdateStatus(ctx context.Context, by string, view *mirror.List[models.Application], id string, status models.ApplicationStatus) error
}

type applicantService struct {
	applications apiclient.ApplicationAPI
	mailer       email.Sender
	notifier     *Notifier
	base         *url.URL
	logger       *zap.Logger
}

// NewApplicantService, constructor. backendURL is used to turn the relative
// CV and document paths the backend stores into links staff can open.
func NewApplicantService(
	applications apiclient.ApplicationAPI,
	mailer email.Sender,
	notifier *Notifier,
	backendURL string,
	logger *zap.Logger,
) (ApplicantService, error) {
	base, err := url.Parse(strings.TrimRight(backendURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	return &applicantService{
		applications: applications,
		mailer:       mailer,
		notifier:     notifier,
		base:         base,
		logger:       logger.Named("applicants"),
	}, nil
}

func (s *applicantService) Load(ctx context.Context, view *mirror.List[models.Application], jobFilter string) error {
	apps, err := s.applications.List(ctx, strings.TrimSpace(jobFilter))
	if err != nil {
		s.logger.Error("failed to load applications", zap.String("job", jobFilter), zap.Error(err))
		return err
	}

	for i := range apps {
		apps[i].CVURL = s.absolute(apps[i].CVURL)
		for j, doc := range apps[i].Documents {
			apps[i].Documents[j] = s.absolute(doc)
		}
		if apps[i].Documents == nil {
			apps[i].Documents = []string{}
		}
	}

	view.Replace(apps)
	return nil
}

func (s *applicantService) UpdateStatus(ctx context.Context, by string, view *mirror.List[models.Application], id string, status models.ApplicationStatus) error {
	if id == "" {
		return fmt.Errorf("%w: application id is required", pkg.ErrBadRequest)
	}
	if err := (models.StatusUpdate{Status: status}).Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if err := s.applications.UpdateStatus(ctx, id, status); err != nil {
		s.logger.Error("failed to update status",
			zap.String("id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return err
	}

	var previous models.ApplicationStatus
	view.Patch(id, func(a *models.Application) {
		previous = a.Status
		a.Status = status
	})

	s.notifier.Changed(ctx, by, ws.ChangeData{
		Resource: ws.ResourceApplications,
		Action:   ws.ActionUpdate,
		ID:       id,
		Status:   string(status),
	})

	if status.IsDecision() && previous != status {
		if app, ok := view.Find(id); ok {
			s.notify(ctx, app)
		}
	}
	return nil
}

// notify emails the applicant about an accept/reject decision. The status is
// already stored, so a failed email is only logged.
func (s *applicantService) notify(ctx context.Context, app models.Application) {
	if app.Email == "" {
		return
	}
	err := s.mailer.SendDecision(ctx, email.DecisionEmail{
		To:        app.Email,
		Applicant: app.Name,
		JobTitle:  app.Job.Title,
		Decision:  email.Decision(app.Status),
	})
	if err != nil {
		s.logger.Warn("failed to send decision email",
			zap.String("application_id", app.ID),
			zap.Error(err))
	}
}

// absolute resolves a backend-relative path ("/uploads/cv.pdf") against the
// backend origin. Absolute URLs and empty strings are returned unchanged.
func (s *applicantService) absolute(link string) string {
	if link == "" {
		return link
	}
	u, err := url.Parse(link)
	if err != nil || u.IsAbs() {
		return link
	}
	return s.base.ResolveReference(u).String()
}
