package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/moimhub/moim-backend/internal/http/middleware"
	"github.com/moimhub/moim-backend/internal/http/response"
	"github.com/moimhub/moim-backend/internal/observability"
	"github.com/moimhub/moim-backend/internal/repository"
	"github.com/moimhub/moim-backend/internal/security"
	"github.com/moimhub/moim-backend/internal/service"
)

type AuthHandler struct {
	auth service.AuthServiceInterface
}

func NewAuthHandler(auth service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signupRequest struct {
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	Nickname    string  `json:"nickname"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Intro       *string `json:"intro"`
	Recommender *string `json:"recommender"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

type profileView struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Nickname string  `json:"nickname"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	userID, err := h.auth.Signup(r.Context(), service.SignupInput{
		Username:    strings.TrimSpace(req.Username),
		Password:    req.Password,
		Nickname:    strings.TrimSpace(req.Nickname),
		Email:       trimOptional(req.Email),
		Phone:       trimOptional(req.Phone),
		Intro:       trimOptional(req.Intro),
		Recommender: trimOptional(req.Recommender),
	})
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}

	observability.Audit(r, "auth.signup", "user_id", userID)
	response.OK(w, map[string]any{"user_id": userID})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	res, err := h.auth.Login(r.Context(), service.LoginInput{
		Username:       strings.TrimSpace(req.Username),
		Password:       req.Password,
		PriorSessionID: security.GetCookie(r, security.SessionCookieName),
	})
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}

	http.SetCookie(w, security.NewSessionCookie(res.SessionID, res.ExpiresAt, res.TTL))
	observability.Audit(r, "auth.login", "user_id", res.User.ID)
	response.OK(w, map[string]any{"user": userView{
		ID:       res.User.ID,
		Username: res.User.Username,
		Nickname: res.User.Nickname,
	}})
}

// Logout always succeeds: revoking an absent or already-gone session is a
// no-op, and the cookie is cleared either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := security.GetCookie(r, security.SessionCookieName)
	if err := h.auth.Logout(r.Context(), sessionID); err != nil {
		slog.ErrorContext(r.Context(), "logout failed", "error", err)
	}
	http.SetCookie(w, security.ClearSessionCookie())
	observability.Audit(r, "auth.logout")
	response.OK(w, nil)
}

// Me runs behind the session middleware, which already resolved the user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.JSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "loggedIn": false})
		return
	}
	response.OK(w, map[string]any{
		"loggedIn": true,
		"user": profileView{
			ID:       user.ID,
			Username: user.Username,
			Nickname: user.Nickname,
			Email:    user.Email,
			Phone:    user.Phone,
		},
	})
}

func (h *AuthHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	available, err := h.auth.CheckUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err, map[string]any{"available": false})
		return
	}
	response.OK(w, map[string]any{"available": available})
}

func (h *AuthHandler) CheckNickname(w http.ResponseWriter, r *http.Request) {
	nickname := strings.TrimSpace(r.URL.Query().Get("nickname"))
	available, err := h.auth.CheckNickname(r.Context(), nickname)
	if err != nil {
		h.writeError(w, r, err, map[string]any{"available": false})
		return
	}
	msg := "nickname is available"
	if !available {
		msg = "nickname is already in use"
	}
	response.OK(w, map[string]any{"available": available, "msg": msg})
}

// writeError maps service errors onto the status taxonomy. Unexpected errors
// become a generic 500; detail stays in the log, never in the body.
func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error, extra map[string]any) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Fail(w, http.StatusBadRequest, verr.Message, extra)
	case errors.Is(err, repository.ErrUsernameTaken):
		response.Fail(w, http.StatusConflict, "username is already in use", extra)
	case errors.Is(err, repository.ErrNicknameTaken):
		response.Fail(w, http.StatusConflict, "nickname is already in use", extra)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(w, http.StatusUnauthorized, "invalid username or password", extra)
	case errors.Is(err, service.ErrUnauthenticated):
		response.JSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "loggedIn": false})
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		response.Fail(w, http.StatusInternalServerError, "internal server error", extra)
	}
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
