package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/pkg/mirror"
	"github.com/osmium/blog-admin/pkg/upload"
	"github.com/osmium/blog-admin/ws"
)

// PostService is the posts page.
//
// Every mutation changes the view only after the backend accepted it, and
// then exactly once: create and update refetch, delete removes the row.
type PostService interface {
	Load(ctx context.Context, view *mirror.List[models.BlogPost]) error
	Get(ctx context.Context, ref string) (models.BlogPost, error)
	Create(ctx context.Context, by string, view *mirror.List[models.BlogPost], draft models.BlogDraft) (MutationResult, error)
	Update(ctx context.Context, by string, view *mirror.List[models.BlogPost], ref string, draft models.BlogDraft) (MutationResult, error)
	Delete(ctx context.Context, by string, view *mirror.List[models.BlogPost], id string) error
}

type postService struct {
	blogs     apiclient.BlogAPI
	dashboard DashboardService
	notifier  *Notifier
	maxImage  int64
	logger    *zap.Logger
}

// NewPostService, constructor. maxImage is the per-image size limit in bytes.
func NewPostService(
	blogs apiclient.BlogAPI,
	dashboard DashboardService,
	notifier *Notifier,
	maxImage int64,
	logger *zap.Logger,
) PostService {
	return &postService{
		blogs:     blogs,
		dashboard: dashboard,
		notifier:  notifier,
		maxImage:  maxImage,
		logger:    logger.Named("posts"),
	}
}

func (s *postService) Load(ctx context.Context, view *mirror.List[models.BlogPost]) error {
	posts, err := s.blogs.List(ctx)
	if err != nil {
		s.logger.Error("failed to load posts", zap.Error(err))
		return err
	}
	view.Replace(posts)
	return nil
}

func (s *postService) Get(ctx context.Context, ref string) (models.BlogPost, error) {
	if ref == "" {
		return models.BlogPost{}, fmt.Errorf("%w: post reference is required", pkg.ErrBadRequest)
	}
	return s.blogs.Get(ctx, ref)
}

func (s *postService) Create(ctx context.Context, by string, view *mirror.List[models.BlogPost], draft models.BlogDraft) (MutationResult, error) {
	if err := s.prepare(&draft); err != nil {
		return MutationResult{}, err
	}

	slug, err := s.blogs.Create(ctx, draft)
	if err != nil {
		s.logger.Error("failed to create post", zap.String("title", draft.Title), zap.Error(err))
		return MutationResult{}, err
	}

	s.afterWrite(ctx, by, ws.ActionCreate, slug)
	return MutationResult{Slug: slug, Stale: s.refetch(ctx, view) != nil}, nil
}

func (s *postService) Update(ctx context.Context, by string, view *mirror.List[models.BlogPost], ref string, draft models.BlogDraft) (MutationResult, error) {
	if ref == "" {
		return MutationResult{}, fmt.Errorf("%w: post reference is required", pkg.ErrBadRequest)
	}
	if err := s.prepare(&draft); err != nil {
		return MutationResult{}, err
	}

	slug, err := s.blogs.Update(ctx, ref, draft)
	if err != nil {
		s.logger.Error("failed to update post", zap.String("ref", ref), zap.Error(err))
		return MutationResult{}, err
	}

	s.afterWrite(ctx, by, ws.ActionUpdate, slug)
	return MutationResult{Slug: slug, Stale: s.refetch(ctx, view) != nil}, nil
}

func (s *postService) Delete(ctx context.Context, by string, view *mirror.List[models.BlogPost], id string) error {
	if id == "" {
		return fmt.Errorf("%w: post id is required", pkg.ErrBadRequest)
	}

	if err := s.blogs.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete post", zap.String("id", id), zap.Error(err))
		return err
	}

	view.Remove(id)
	s.dashboard.Invalidate(ctx)
	s.notifier.Changed(ctx, by, ws.ChangeData{Resource: ws.ResourcePosts, Action: ws.ActionDelete, ID: id})
	return nil
}

// prepare validates the form and sniffs the images.
func (s *postService) prepare(draft *models.BlogDraft) error {
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	images, err := upload.CheckImages(draft.Images, s.maxImage)
	if err != nil {
		return err
	}
	draft.Images = images
	return nil
}

func (s *postService) afterWrite(ctx context.Context, by, action, slug string) {
	s.dashboard.Invalidate(ctx)
	s.notifier.Changed(ctx, by, ws.ChangeData{Resource: ws.ResourcePosts, Action: action, Ref: slug})
}

// refetch replaces the view with the backend's list. On failure the view is
// left as it was and the caller reports the result as stale.
func (s *postService) refetch(ctx context.Context, view *mirror.List[models.BlogPost]) error {
	posts, err := s.blogs.List(ctx)
	if err != nil {
		s.logger.Warn("post stored but list refresh failed", zap.Error(err))
		return err
	}
	view.Replace(posts)
	return nil
}
