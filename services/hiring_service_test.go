package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/pkg/cache"
)

func newHiringFixture(t *testing.T) (*fakeHirings, HiringService) {
	t.Helper()
	hirings := &fakeHirings{jobs: []models.Job{{ID: "j1", Title: "Engineer"}, {ID: "j2", Title: "Designer"}}}
	mem := cache.NewMemory(cache.DefaultOptions())
	t.Cleanup(func() { mem.Close() })
	notifier, _ := newTestNotifier()
	return hirings, NewHiringService(hirings, mem, time.Minute, notifier, zap.NewNop())
}

func TestHiringCreateRefetches(t *testing.T) {
	hirings, svc := newHiringFixture(t)
	ctx := context.Background()
	view := NewJobView()
	svc.Load(ctx, view)
	v := view.Version()

	res, err := svc.Create(ctx, "u1", view, models.JobInput{Title: " QA ", Deadline: "2026-12-01"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Stale || view.Version() != v+1 || view.Len() != 3 {
		t.Fatalf("res = %+v, version %d -> %d", res, v, view.Version())
	}
	if hirings.created[0].Title != "QA" {
		t.Fatalf("title not trimmed: %q", hirings.created[0].Title)
	}
}

func TestHiringFailuresLeaveView(t *testing.T) {
	hirings, svc := newHiringFixture(t)
	hirings.writeErr = backendErr("hirings")
	ctx := context.Background()
	view := NewJobView()
	svc.Load(ctx, view)
	v := view.Version()

	if _, err := svc.Create(ctx, "u1", view, models.JobInput{Title: "QA"}); err == nil {
		t.Fatal("Create succeeded")
	}
	if err := svc.Delete(ctx, "u1", view, "j1"); err == nil {
		t.Fatal("Delete succeeded")
	}
	if view.Version() != v || view.Len() != 2 {
		t.Fatal("view mutated on failure")
	}
}

func TestHiringDeleteRemovesOnce(t *testing.T) {
	_, svc := newHiringFixture(t)
	ctx := context.Background()
	view := NewJobView()
	svc.Load(ctx, view)
	v := view.Version()

	if err := svc.Delete(ctx, "u1", view, "j2"); err != nil {
		t.Fatal(err)
	}
	if view.Version() != v+1 || view.Len() != 1 {
		t.Fatalf("version %d -> %d", v, view.Version())
	}
}

func TestHiringValidation(t *testing.T) {
	_, svc := newHiringFixture(t)
	_, err := svc.Create(context.Background(), "u1", NewJobView(), models.JobInput{Title: "QA", Deadline: "tomorrow"})
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Fatalf("err = %v", err)
	}
}

func TestJobOptionsCachedAndInvalidated(t *testing.T) {
	hirings, svc := newHiringFixture(t)
	ctx := context.Background()

	opts, err := svc.JobOptions(ctx)
	if err != nil || len(opts) != 2 || opts[0].Title != "Engineer" {
		t.Fatalf("JobOptions = %+v, %v", opts, err)
	}
	svc.JobOptions(ctx)
	if hirings.listCalls != 1 {
		t.Fatalf("list calls = %d", hirings.listCalls)
	}

	svc.Create(ctx, "u1", NewJobView(), models.JobInput{Title: "QA"})
	calls := hirings.listCalls
	opts, _ = svc.JobOptions(ctx)
	if hirings.listCalls != calls+1 || len(opts) != 3 {
		t.Fatalf("options not refreshed after create: %+v", opts)
	}
}
