package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg/cache"
	"github.com/osmium/blog-admin/pkg/telemetry"
)

var tracer = telemetry.GetTracer("blog-admin/services")

const dashboardCacheKey = "dashboard:blogs"

// Dashboard is the landing page: post counters and the latest posts.
type Dashboard struct {
	Stats  models.BlogStats  `json:"stats"`
	Recent []models.BlogPost `json:"recent"`
}

// DashboardService serves the landing page from a short-lived cache.
type DashboardService interface {
	Get(ctx context.Context) (*Dashboard, error)
	// Invalidate drops the cached dashboard; post mutations call it.
	Invalidate(ctx context.Context)
}

type dashboardService struct {
	blogs  apiclient.BlogAPI
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService, constructor.
func NewDashboardService(blogs apiclient.BlogAPI, c cache.Cache, ttl time.Duration, logger *zap.Logger) DashboardService {
	return &dashboardService{
		blogs:  blogs,
		cache:  c,
		ttl:    ttl,
		logger: logger.Named("dashboard"),
	}
}

func (s *dashboardService) Get(ctx context.Context) (*Dashboard, error) {
	ctx, span := tracer.Start(ctx, "dashboard.get")
	defer span.End()

	var cached Dashboard
	err := s.cache.Get(ctx, dashboardCacheKey, &cached)
	switch {
	case err == nil:
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		return &cached, nil
	case errors.Is(err, cache.ErrNotFound):
		span.SetAttributes(telemetry.String("cache.result", "miss"))
	default:
		span.SetAttributes(telemetry.String("cache.result", "error"))
		span.RecordError(err)
		s.logger.Warn("cache error for dashboard", zap.Error(err))
	}

	stats, err := s.blogs.Stats(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.blogs.Recent(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Stats: stats, Recent: recent}
	if err := s.cache.Set(ctx, dashboardCacheKey, d, s.ttl); err != nil {
		s.logger.Warn("failed to cache dashboard", zap.Error(err))
	}
	return d, nil
}

func (s *dashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("failed to invalidate dashboard", zap.Error(err))
	}
}
