package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/moimhub/moim-backend/internal/domain"
	"github.com/moimhub/moim-backend/internal/http/response"
	"github.com/moimhub/moim-backend/internal/security"
	"github.com/moimhub/moim-backend/internal/service"
)

type contextKey string

const userContextKey contextKey = "user"

// SessionResolver is the slice of the auth service the middleware needs.
type SessionResolver interface {
	CurrentUser(ctx context.Context, sessionID string) (*domain.User, error)
}

// SessionAuth resolves the session cookie to its user and stores the user on
// the request context. Requests without a live session get the /me failure
// shape so the front end can flip to its logged-out panels.
func SessionAuth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := security.GetCookie(r, security.SessionCookieName)
			user, err := resolver.CurrentUser(r.Context(), sessionID)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					response.JSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "loggedIn": false})
					return
				}
				response.Fail(w, http.StatusInternalServerError, "internal server error", nil)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userContextKey).(*domain.User)
	return u, ok
}
