package service

import (
	"context"
	"fmt"

	"wheelio-backend/internal/domain"
)

// UserService is the identity lookup: it resolves a user id to a display
// identity and nothing more.
type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return user, nil
}
