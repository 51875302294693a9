package repository

import (
	"context"
	"errors"
	"time"

	"github.com/moimhub/moim-backend/internal/domain"
	"github.com/moimhub/moim-backend/internal/observability"

	"gorm.io/gorm"
)

// ErrSessionNotFound covers a missing row, an expired row, and a session
// whose user no longer exists. Callers cannot tell these apart, which is
// intentional: all of them mean "not logged in".
var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	ResolveUser(ctx context.Context, sessionID string, now time.Time) (*domain.User, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "session", "create", "success")
	return nil
}

// ResolveUser joins the session to its user and requires expires_at to be
// strictly in the future. Expiry is checked lazily here; no sweeper has to
// run for an expired session to become unusable.
func (r *GormSessionRepository) ResolveUser(ctx context.Context, sessionID string, now time.Time) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Joins("JOIN sessions s ON s.user_id = users.id").
		Where("s.id = ? AND s.expires_at > ?", sessionID, now).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "session", "resolve_user", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(ctx, "session", "resolve_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "resolve_user", "success")
	return &u, nil
}

// Delete is idempotent; removing an id that is already gone is a no-op.
func (r *GormSessionRepository) Delete(ctx context.Context, sessionID string) error {
	err := r.db.WithContext(ctx).Delete(&domain.Session{}, "id = ?", sessionID).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "delete", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "session", "delete", "success")
	return nil
}

func (r *GormSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "session", "delete_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "session", "delete_expired", "success")
	return res.RowsAffected, nil
}
