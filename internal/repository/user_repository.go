package repository

import (
	"context"
	"errors"

	"github.com/moimhub/moim-backend/internal/domain"
	"github.com/moimhub/moim-backend/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrNicknameTaken = errors.New("nickname already taken")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	NicknameExists(ctx context.Context, nickname string) (bool, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

// Create inserts the user. Username and nickname races are settled by the
// unique indexes, not by a check-then-insert: a constraint violation is
// translated here into ErrUsernameTaken or ErrNicknameTaken.
func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(ctx, "user", "create", "duplicate")
			return r.classifyDuplicate(ctx, user)
		}
		observability.RecordRepositoryOperation(ctx, "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "user", "create", "success")
	return nil
}

// classifyDuplicate decides which unique index fired. Driver error strings
// are not portable across postgres and sqlite, so the committed state is
// consulted instead: whichever value already exists caused the violation.
func (r *GormUserRepository) classifyDuplicate(ctx context.Context, user *domain.User) error {
	taken, err := r.UsernameExists(ctx, user.Username)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}
	return ErrNicknameTaken
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "user", "find_by_username", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(ctx, "user", "find_by_username", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "user", "find_by_username", "success")
	return &u, nil
}

func (r *GormUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "user", "username_exists", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(ctx, "user", "username_exists", "success")
	return count > 0, nil
}

func (r *GormUserRepository) NicknameExists(ctx context.Context, nickname string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("nickname = ?", nickname).Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "user", "nickname_exists", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(ctx, "user", "nickname_exists", "success")
	return count > 0, nil
}
