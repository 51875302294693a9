package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/moimhub/moim-backend/internal/domain"
	"github.com/moimhub/moim-backend/internal/observability"
	"github.com/moimhub/moim-backend/internal/repository"
	"github.com/moimhub/moim-backend/internal/security"
)

const (
	MinUsernameLen = 3
	MinPasswordLen = 10
	MinNicknameLen = 2
)

// Letters, digits, and Hangul syllables; the charset the signup form allows.
var nicknamePattern = regexp.MustCompile(`^[A-Za-z0-9가-힣]+$`)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

type SignupInput struct {
	Username    string
	Password    string
	Nickname    string
	Email       *string
	Phone       *string
	Intro       *string
	Recommender *string
}

type LoginInput struct {
	Username string
	Password string
	// PriorSessionID is the session cookie the caller already holds, if any.
	// Whether it gets revoked on a fresh login is a policy decision.
	PriorSessionID string
}

type LoginResult struct {
	User      *domain.User
	SessionID string
	ExpiresAt time.Time
	TTL       time.Duration
}

type AuthService struct {
	users              repository.UserRepository
	sessions           repository.SessionRepository
	hasher             PasswordHasher
	tokens             security.TokenSource
	clock              Clock
	takenNames         TakenNameCacheStore
	sessionTTL         time.Duration
	cacheTTL           time.Duration
	revokePriorSession bool
}

type AuthServiceOptions struct {
	SessionTTL           time.Duration
	AvailabilityCacheTTL time.Duration
	RevokePriorSession   bool
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hasher PasswordHasher,
	tokens security.TokenSource,
	clock Clock,
	takenNames TakenNameCacheStore,
	opts AuthServiceOptions,
) *AuthService {
	if takenNames == nil {
		takenNames = NewNoopTakenNameCacheStore()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:              users,
		sessions:           sessions,
		hasher:             hasher,
		tokens:             tokens,
		clock:              clock,
		takenNames:         takenNames,
		sessionTTL:         opts.SessionTTL,
		cacheTTL:           opts.AvailabilityCacheTTL,
		revokePriorSession: opts.RevokePriorSession,
	}
}

// Signup validates input in a fixed order (username, password, nickname),
// hashes the password, and inserts the account. Duplicates surface as
// repository sentinel errors settled by the store's unique indexes. Signup
// never issues a session.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (int64, error) {
	if err := validateUsername(in.Username); err != nil {
		observability.RecordAuthSignup(ctx, "validation_failed")
		return 0, err
	}
	if len(in.Password) < MinPasswordLen {
		observability.RecordAuthSignup(ctx, "validation_failed")
		return 0, newValidationError("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	if err := validateNickname(in.Nickname); err != nil {
		observability.RecordAuthSignup(ctx, "validation_failed")
		return 0, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		observability.RecordAuthSignup(ctx, "error")
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     in.Username,
		PasswordHash: hash,
		Nickname:     in.Nickname,
		Email:        in.Email,
		Phone:        in.Phone,
		Intro:        in.Intro,
		Recommender:  in.Recommender,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) || errors.Is(err, repository.ErrNicknameTaken) {
			observability.RecordAuthSignup(ctx, "duplicate")
			return 0, err
		}
		observability.RecordAuthSignup(ctx, "error")
		return 0, err
	}

	// Accounts are never deleted, so marking the new names taken right away
	// can never go stale.
	_ = s.takenNames.Set(ctx, namespaceUsername, in.Username, s.cacheTTL)
	_ = s.takenNames.Set(ctx, namespaceNickname, in.Nickname, s.cacheTTL)

	observability.RecordAuthSignup(ctx, "success")
	return user.ID, nil
}

// Login verifies credentials and issues a fresh session. The unknown-user and
// wrong-password paths return the same error on purpose.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.Username == "" || in.Password == "" {
		observability.RecordAuthLogin(ctx, "validation_failed")
		return nil, newValidationError("credentials", "username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthLogin(ctx, "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		observability.RecordAuthLogin(ctx, "error")
		return nil, err
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		observability.RecordAuthLogin(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	if s.revokePriorSession && in.PriorSessionID != "" {
		if err := s.sessions.Delete(ctx, in.PriorSessionID); err != nil {
			observability.RecordAuthLogin(ctx, "error")
			return nil, fmt.Errorf("revoke prior session: %w", err)
		}
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:        s.tokens.NewToken(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return nil, fmt.Errorf("create session: %w", err)
	}

	observability.RecordAuthLogin(ctx, "success")
	return &LoginResult{User: user, SessionID: session.ID, ExpiresAt: session.ExpiresAt, TTL: s.sessionTTL}, nil
}

// CurrentUser resolves the cookie token to its user. Missing, unknown, and
// expired sessions all collapse into ErrUnauthenticated.
func (s *AuthService) CurrentUser(ctx context.Context, sessionID string) (*domain.User, error) {
	if sessionID == "" {
		observability.RecordSessionResolution(ctx, "missing")
		return nil, ErrUnauthenticated
	}
	user, err := s.sessions.ResolveUser(ctx, sessionID, s.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordSessionResolution(ctx, "invalid")
			return nil, ErrUnauthenticated
		}
		observability.RecordSessionResolution(ctx, "error")
		return nil, err
	}
	observability.RecordSessionResolution(ctx, "valid")
	return user, nil
}

// Logout revokes the session if one was presented. It always succeeds for
// absent or already-revoked sessions.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		observability.RecordAuthLogout(ctx, "no_session")
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		observability.RecordAuthLogout(ctx, "error")
		return err
	}
	observability.RecordAuthLogout(ctx, "success")
	return nil
}

// CheckUsername reports whether the username is free to register.
func (s *AuthService) CheckUsername(ctx context.Context, username string) (bool, error) {
	if err := validateUsername(username); err != nil {
		return false, err
	}
	taken, err := s.nameTaken(ctx, namespaceUsername, username, s.users.UsernameExists)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// CheckNickname reports whether the nickname is free to register.
func (s *AuthService) CheckNickname(ctx context.Context, nickname string) (bool, error) {
	if err := validateNickname(nickname); err != nil {
		return false, err
	}
	taken, err := s.nameTaken(ctx, namespaceNickname, nickname, s.users.NicknameExists)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// nameTaken consults the taken-name cache before the store. Cache misses fall
// through; cache failures are treated as misses so availability checks never
// depend on redis being up.
func (s *AuthService) nameTaken(ctx context.Context, namespace, name string, exists func(context.Context, string) (bool, error)) (bool, error) {
	if hit, err := s.takenNames.Get(ctx, namespace, name); err == nil && hit {
		return true, nil
	}
	taken, err := exists(ctx, name)
	if err != nil {
		return false, err
	}
	if taken {
		_ = s.takenNames.Set(ctx, namespace, name, s.cacheTTL)
	}
	return taken, nil
}

func validateUsername(username string) error {
	if utf8.RuneCountInString(username) < MinUsernameLen {
		return newValidationError("username", fmt.Sprintf("username must be at least %d characters", MinUsernameLen))
	}
	return nil
}

func validateNickname(nickname string) error {
	if utf8.RuneCountInString(nickname) < MinNicknameLen {
		return newValidationError("nickname", fmt.Sprintf("nickname must be at least %d characters", MinNicknameLen))
	}
	if !nicknamePattern.MatchString(nickname) {
		return newValidationError("nickname", "nickname may only contain letters, digits, or Hangul")
	}
	return nil
}
