package service

import (
	"context"

	"github.com/moimhub/moim-backend/internal/domain"
)

type AuthServiceInterface interface {
	Signup(ctx context.Context, in SignupInput) (int64, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	CurrentUser(ctx context.Context, sessionID string) (*domain.User, error)
	Logout(ctx context.Context, sessionID string) error
	CheckUsername(ctx context.Context, username string) (bool, error)
	CheckNickname(ctx context.Context, nickname string) (bool, error)
}
