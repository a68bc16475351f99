package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/apiclient"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/ws"
)

// UserService is the "create user" page.
type UserService interface {
	Create(ctx context.Context, by string, req models.CreateUserRequest) error
}

type userService struct {
	auth     apiclient.AuthAPI
	notifier *Notifier
	logger   *zap.Logger
}

// NewUserService, constructor.
func NewUserService(auth apiclient.AuthAPI, notifier *Notifier, logger *zap.Logger) UserService {
	return &userService{auth: auth, notifier: notifier, logger: logger.Named("users")}
}

func (s *userService) Create(ctx context.Context, by string, req models.CreateUserRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if err := s.auth.Register(ctx, req); err != nil {
		s.logger.Error("failed to create user", zap.String("email", req.Email), zap.Error(err))
		return err
	}

	s.logger.Info("user created", zap.String("email", req.Email), zap.String("by", by))
	s.notifier.Changed(ctx, by, ws.ChangeData{Resource: ws.ResourceUsers, Action: ws.ActionCreate})
	return nil
}
