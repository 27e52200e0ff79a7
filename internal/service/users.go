package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
)

type UserService struct {
	users repository.UserRepo
	log   *logger.Logger
}

func NewUserService(users repository.UserRepo, baseLog *logger.Logger) *UserService {
	return &UserService{users: users, log: baseLog.With("service", "UserService")}
}

func (s *UserService) List(ctx context.Context, page repository.Page) ([]*models.User, int64, error) {
	return s.users.List(ctx, nil, page)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateStorageError(err, ErrIntegrity)
	}
	return user, nil
}

// Me loads the caller's own account.
func (s *UserService) Me(ctx context.Context, actor Actor) (*models.User, error) {
	if actor.Anonymous() {
		return nil, ErrUnauthenticated
	}
	return s.Get(ctx, actor.UserID)
}
