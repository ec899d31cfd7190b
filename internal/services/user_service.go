package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"petition/internal/models"
	"petition/internal/repositories"
)

var ErrUserNotFound = errors.New("user not found")

const (
	defaultUserPageSize = 50
	maxUserPageSize     = 500
)

type UserService interface {
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetValidVote(ctx context.Context, id uuid.UUID, valid bool) (*models.User, error)
	CountValid(ctx context.Context) (int, error)
}

type userService struct {
	store repositories.Store
	log   *zap.Logger
}

func NewUserService(store repositories.Store, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{store: store, log: log}
}

func (s *userService) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultUserPageSize
	}
	if filter.Limit > maxUserPageSize {
		filter.Limit = maxUserPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.Users().List(ctx, filter)
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// SetValidVote lets an admin void (or restore) a signature. It only changes
// the real count; the displayed fake counter is left alone.
func (s *userService) SetValidVote(ctx context.Context, id uuid.UUID, valid bool) (*models.User, error) {
	if err := s.store.Users().SetValidVote(ctx, id, valid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.log.Info("user vote updated", zap.String("user_id", id.String()), zap.Bool("valid_vote", valid))
	return s.GetUserByID(ctx, id)
}

func (s *userService) CountValid(ctx context.Context) (int, error) {
	return s.store.Users().CountValid(ctx)
}
