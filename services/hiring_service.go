package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/pkg/cache"
	"github.com/osmium/blog-admin/pkg/mirror"
	"github.com/osmium/blog-admin/ws"
)

const jobOptionsCacheKey = "hirings:options"

// JobOption is one entry of the applicants page's job filter.
type JobOption struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// HiringService is the hiring page: job postings and their counters.
type HiringService interface {
	Load(ctx context.Context, view *mirror.List[models.Job]) error
	Stats(ctx context.Context) (models.HiringStats, error)
	Create(ctx context.Context, by string, view *mirror.List[models.Job], in models.JobInput) (MutationResult, error)
	Update(ctx context.Context, by string, view *mirror.List[models.Job], id string, in models.JobInput) (MutationResult, error)
	Delete(ctx context.Context, by string, view *mirror.List[models.Job], id string) error
	// JobOptions lists the jobs for the applicants filter, cached.
	JobOptions(ctx context.Context) ([]JobOption, error)
}

type hiringService struct {
	hirings  apiclient.HiringAPI
	cache    cache.Cache
	ttl      time.Duration
	notifier *Notifier
	logger   *zap.Logger
}

// NewHiringService, constructor.
func NewHiringService(hirings apiclient.HiringAPI, c cache.Cache, ttl time.Duration, notifier *Notifier, logger *zap.Logger) HiringService {
	return &hiringService{
		hirings:  hirings,
		cache:    c,
		ttl:      ttl,
		notifier: notifier,
		logger:   logger.Named("hirings"),
	}
}

func (s *hiringService) Load(ctx context.Context, view *mirror.List[models.Job]) error {
	jobs, err := s.hirings.List(ctx)
	if err != nil {
		s.logger.Error("failed to load jobs", zap.Error(err))
		return err
	}
	view.Replace(jobs)
	return nil
}

func (s *hiringService) Stats(ctx context.Context) (models.HiringStats, error) {
	return s.hirings.Stats(ctx)
}

func (s *hiringService) Create(ctx context.Context, by string, view *mirror.List[models.Job], in models.JobInput) (MutationResult, error) {
	if err := in.Validate(); err != nil {
		return MutationResult{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if err := s.hirings.Create(ctx, in); err != nil {
		s.logger.Error("failed to create job", zap.String("title", in.Title), zap.Error(err))
		return MutationResult{}, err
	}

	s.afterWrite(ctx, by, ws.ActionCreate, "")
	return MutationResult{Stale: s.refetch(ctx, view) != nil}, nil
}

func (s *hiringService) Update(ctx context.Context, by string, view *mirror.List[models.Job], id string, in models.JobInput) (MutationResult, error) {
	if id == "" {
		return MutationResult{}, fmt.Errorf("%w: job id is required", pkg.ErrBadRequest)
	}
	if err := in.Validate(); err != nil {
		return MutationResult{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if err := s.hirings.Update(ctx, id, in); err != nil {
		s.logger.Error("failed to update job", zap.String("id", id), zap.Error(err))
		return MutationResult{}, err
	}

	s.afterWrite(ctx, by, ws.ActionUpdate, id)
	return MutationResult{Stale: s.refetch(ctx, view) != nil}, nil
}

func (s *hiringService) Delete(ctx context.Context, by string, view *mirror.List[models.Job], id string) error {
	if id == "" {
		return fmt.Errorf("%w: job id is required", pkg.ErrBadRequest)
	}

	if err := s.hirings.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete job", zap.String("id", id), zap.Error(err))
		return err
	}

	view.Remove(id)
	s.afterWrite(ctx, by, ws.ActionDelete, id)
	return nil
}

func (s *hiringService) JobOptions(ctx context.Context) ([]JobOption, error) {
	var cached []JobOption
	err := s.cache.Get(ctx, jobOptionsCacheKey, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("cache error for job options", zap.Error(err))
	}

	jobs, err := s.hirings.List(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]JobOption, 0, len(jobs))
	for _, j := range jobs {
		options = append(options, JobOption{ID: j.ID, Title: j.Title})
	}

	if err := s.cache.Set(ctx, jobOptionsCacheKey, options, s.ttl); err != nil {
		s.logger.Warn("failed to cache job options", zap.Error(err))
	}
	return options, nil
}

func (s *hiringService) afterWrite(ctx context.Context, by, action, id string) {
	if err := s.cache.Delete(ctx, jobOptionsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate job options", zap.Error(err))
	}
	s.notifier.Changed(ctx, by, ws.ChangeData{Resource: ws.ResourceHirings, Action: action, ID: id})
}

func (s *hiringService) refetch(ctx context.Context, view *mirror.List[models.Job]) error {
	jobs, err := s.hirings.List(ctx)
	if err != nil {
		s.logger.Warn("job stored but list refresh failed", zap.Error(err))
		return err
	}
	view.Replace(jobs)
	return nil
}
