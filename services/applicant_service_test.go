package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
)

func newApplicantFixture(t *testing.T) (*fakeApplications, *recordingMailer, *recordingHub, ApplicantService) {
	t.Helper()
	apps := &fakeApplications{apps: []models.Application{
		{ID: "a1", Name: "Ada", Email: "ada@example.com", Status: models.StatusPending,
			Job: models.JobRef{ID: "j1", Title: "Engineer"}, CVURL: "/uploads/cv.pdf",
			Documents: []string{"uploads/a.pdf", "https://cdn.example.com/b.pdf"}},
		{ID: "a2", Name: "Bob", Status: models.StatusReviewed},
	}}
	mailer := &recordingMailer{}
	notifier, hub := newTestNotifier()

	svc, err := NewApplicantService(apps, mailer, notifier, "https://orrelng.com", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return apps, mailer, hub, svc
}

func TestApplicantLoadAbsolutisesLinks(t *testing.T) {
	apps, _, _, svc := newApplicantFixture(t)
	view := NewApplicationView()

	if err := svc.Load(context.Background(), view, " j1 "); err != nil {
		t.Fatal(err)
	}
	if apps.lastJob != "j1" {
		t.Fatalf("job filter = %q", apps.lastJob)
	}

	a, _ := view.Find("a1")
	if a.CVURL != "https://orrelng.com/uploads/cv.pdf" {
		t.Errorf("cv = %q", a.CVURL)
	}
	if a.Documents[0] != "https://orrelng.com/uploads/a.pdf" || a.Documents[1] != "https://cdn.example.com/b.pdf" {
		t.Errorf("documents = %v", a.Documents)
	}

	b, _ := view.Find("a2")
	if b.Documents == nil {
		t.Error("nil documents")
	}
}

func TestApplicantStatusPatchesOnce(t *testing.T) {
	_, mailer, hub, svc := newApplicantFixture(t)
	ctx := context.Background()
	view := NewApplicationView()
	svc.Load(ctx, view, "all")
	v := view.Version()

	if err := svc.UpdateStatus(ctx, "u1", view, "a1", models.StatusAccepted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if view.Version() != v+1 {
		t.Fatalf("version %d -> %d", v, view.Version())
	}
	a, _ := view.Find("a1")
	if a.Status != models.StatusAccepted {
		t.Fatalf("status = %s", a.Status)
	}

	if len(mailer.sent) != 1 || mailer.sent[0].JobTitle != "Engineer" || mailer.sent[0].Decision != "Accepted" {
		t.Fatalf("sent = %+v", mailer.sent)
	}
	if c := hub.changes(); len(c) != 1 || c[0].Status != "Accepted" {
		t.Fatalf("changes = %+v", c)
	}
}

func TestApplicantStatusFailureLeavesView(t *testing.T) {
	apps, mailer, _, svc := newApplicantFixture(t)
	apps.updateErr = backendErr("applications.update_status")
	ctx := context.Background()
	view := NewApplicationView()
	svc.Load(ctx, view, "")
	v := view.Version()

	if err := svc.UpdateStatus(ctx, "u1", view, "a1", models.StatusRejected); err == nil {
		t.Fatal("UpdateStatus succeeded")
	}
	if view.Version() != v {
		t.Fatal("view mutated on failure")
	}
	if len(mailer.sent) != 0 {
		t.Fatal("email sent for a failed update")
	}
}

func TestApplicantStatusValidation(t *testing.T) {
	apps, _, _, svc := newApplicantFixture(t)
	err := svc.UpdateStatus(context.Background(), "u1", NewApplicationView(), "a1", "Hired")
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Fatalf("err = %v", err)
	}
	if apps.updates != 0 {
		t.Fatal("invalid status reached the backend")
	}
}

func TestApplicantEmailFailureIsNotAnError(t *testing.T) {
	_, mailer, _, svc := newApplicantFixture(t)
	mailer.err = errors.New("resend down")
	ctx := context.Background()
	view := NewApplicationView()
	svc.Load(ctx, view, "")

	if err := svc.UpdateStatus(ctx, "u1", view, "a1", models.StatusRejected); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
}

func TestApplicantNonDecisionSendsNoEmail(t *testing.T) {
	_, mailer, _, svc := newApplicantFixture(t)
	ctx := context.Background()
	view := NewApplicationView()
	svc.Load(ctx, view, "")

	svc.UpdateStatus(ctx, "u1", view, "a1", models.StatusReviewed)
	if len(mailer.sent) != 0 {
		t.Fatal("email sent for Reviewed")
	}
}
