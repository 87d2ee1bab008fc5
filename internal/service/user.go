package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barberapp/internal/domain"
	"barberapp/internal/repository"
)

type UserServiceImpl struct {
	repo   repository.UserRepository
	logger *zap.Logger
}

func NewUserService(repo repository.UserRepository, logger *zap.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

// GetByID returns a user profile. Callers may read their own profile;
// admins may read any.
func (s *UserServiceImpl) GetByID(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.User, error) {
	if principal.UserID != id && !principal.IsAdmin() {
		return nil, domain.NewForbiddenError("FORBIDDEN", "you cannot view this profile")
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Debug("user lookup failed", zap.String("user_id", id.String()), zap.Error(err))
		return nil, err
	}

	return user, nil
}
