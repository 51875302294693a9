package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/moimhub/moim-backend/internal/domain"
	"github.com/moimhub/moim-backend/internal/repository"
	"github.com/moimhub/moim-backend/internal/security"
	"github.com/moimhub/moim-backend/internal/service"
)

type fakeAuthService struct {
	signupFn        func(ctx context.Context, in service.SignupInput) (int64, error)
	loginFn         func(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	currentUserFn   func(ctx context.Context, sessionID string) (*domain.User, error)
	logoutFn        func(ctx context.Context, sessionID string) error
	checkUsernameFn func(ctx context.Context, username string) (bool, error)
	checkNicknameFn func(ctx context.Context, nickname string) (bool, error)

	loggedOutSession string
}

func (f *fakeAuthService) Signup(ctx context.Context, in service.SignupInput) (int64, error) {
	return f.signupFn(ctx, in)
}

func (f *fakeAuthService) Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error) {
	return f.loginFn(ctx, in)
}

func (f *fakeAuthService) CurrentUser(ctx context.Context, sessionID string) (*domain.User, error) {
	return f.currentUserFn(ctx, sessionID)
}

func (f *fakeAuthService) Logout(ctx context.Context, sessionID string) error {
	f.loggedOutSession = sessionID
	if f.logoutFn != nil {
		return f.logoutFn(ctx, sessionID)
	}
	return nil
}

func (f *fakeAuthService) CheckUsername(ctx context.Context, username string) (bool, error) {
	return f.checkUsernameFn(ctx, username)
}

func (f *fakeAuthService) CheckNickname(ctx context.Context, nickname string) (bool, error) {
	return f.checkNicknameFn(ctx, nickname)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func TestSignupSuccess(t *testing.T) {
	var got service.SignupInput
	h := NewAuthHandler(&fakeAuthService{
		signupFn: func(_ context.Context, in service.SignupInput) (int64, error) {
			got = in
			return 42, nil
		},
	})

	payload := `{"username":"  newuser  ","password":"longenough1","nickname":" 모임러 ","email":"  ","intro":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["ok"] != true {
		t.Fatalf("ok = %v, want true", body["ok"])
	}
	if body["user_id"] != float64(42) {
		t.Fatalf("user_id = %v, want 42", body["user_id"])
	}
	if got.Username != "newuser" || got.Nickname != "모임러" {
		t.Fatalf("fields not trimmed: %q %q", got.Username, got.Nickname)
	}
	if got.Email != nil {
		t.Fatalf("blank email should be dropped, got %q", *got.Email)
	}
	if got.Intro == nil || *got.Intro != "hello" {
		t.Fatalf("intro = %v, want hello", got.Intro)
	}
}

func TestSignupErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", &service.ValidationError{Field: "username", Message: "username must be at least 3 characters"}, http.StatusBadRequest, "username must be at least 3 characters"},
		{"username taken", repository.ErrUsernameTaken, http.StatusConflict, "username is already in use"},
		{"nickname taken", repository.ErrNicknameTaken, http.StatusConflict, "nickname is already in use"},
		{"internal", errors.New("db down"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&fakeAuthService{
				signupFn: func(context.Context, service.SignupInput) (int64, error) {
					return 0, tc.err
				},
			})
			req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"username":"a","password":"b","nickname":"c"}`))
			rec := httptest.NewRecorder()
			h.Signup(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			body := decodeBody(t, rec)
			if body["ok"] != false {
				t.Fatalf("ok = %v, want false", body["ok"])
			}
			if body["msg"] != tc.wantMsg {
				t.Fatalf("msg = %q, want %q", body["msg"], tc.wantMsg)
			}
		})
	}
}

func TestSignupRejectsMalformedBody(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"username":`))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	expires := time.Now().Add(7 * 24 * time.Hour).UTC()
	h := NewAuthHandler(&fakeAuthService{
		loginFn: func(_ context.Context, in service.LoginInput) (*service.LoginResult, error) {
			if in.PriorSessionID != "stale-session" {
				t.Fatalf("prior session = %q, want stale-session", in.PriorSessionID)
			}
			return &service.LoginResult{
				User:      &domain.User{ID: 7, Username: "newuser", Nickname: "모임러"},
				SessionID: "fresh-session",
				ExpiresAt: expires,
				TTL:       7 * 24 * time.Hour,
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"newuser","password":"longenough1"}`))
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "stale-session"})
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != security.SessionCookieName || c.Value != "fresh-session" {
		t.Fatalf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Fatalf("cookie attributes wrong: %+v", c)
	}

	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("user missing from body: %v", body)
	}
	if user["username"] != "newuser" || user["nickname"] != "모임러" {
		t.Fatalf("user = %v", user)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{
		loginFn: func(context.Context, service.LoginInput) (*service.LoginResult, error) {
			return nil, service.ErrInvalidCredentials
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"x","password":"y"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("failed login must not set a cookie")
	}
	body := decodeBody(t, rec)
	if body["msg"] != "invalid username or password" {
		t.Fatalf("msg = %q", body["msg"])
	}
}

func TestLogoutClearsCookieEvenWithoutSession(t *testing.T) {
	fake := &fakeAuthService{}
	h := NewAuthHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Fatalf("expected a clearing cookie, got %+v", cookies)
	}
	if fake.loggedOutSession != "" {
		t.Fatalf("logged out session = %q, want empty", fake.loggedOutSession)
	}
}

func TestLogoutSucceedsWhenRevocationFails(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{
		logoutFn: func(context.Context, string) error { return errors.New("redis down") },
	})
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "sess"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCheckUsername(t *testing.T) {
	tests := []struct {
		name          string
		available     bool
		err           error
		wantStatus    int
		wantAvailable any
	}{
		{"available", true, nil, http.StatusOK, true},
		{"taken", false, nil, http.StatusOK, false},
		{"too short", false, &service.ValidationError{Field: "username", Message: "username must be at least 3 characters"}, http.StatusBadRequest, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&fakeAuthService{
				checkUsernameFn: func(context.Context, string) (bool, error) {
					return tc.available, tc.err
				},
			})
			req := httptest.NewRequest(http.MethodGet, "/check-username?username=someone", nil)
			rec := httptest.NewRecorder()
			h.CheckUsername(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			body := decodeBody(t, rec)
			if body["available"] != tc.wantAvailable {
				t.Fatalf("available = %v, want %v", body["available"], tc.wantAvailable)
			}
		})
	}
}

func TestCheckNicknameMessages(t *testing.T) {
	for _, tc := range []struct {
		available bool
		wantMsg   string
	}{
		{true, "nickname is available"},
		{false, "nickname is already in use"},
	} {
		h := NewAuthHandler(&fakeAuthService{
			checkNicknameFn: func(context.Context, string) (bool, error) {
				return tc.available, nil
			},
		})
		req := httptest.NewRequest(http.MethodGet, "/check-nickname?nickname=모임러", nil)
		rec := httptest.NewRecorder()
		h.CheckNickname(rec, req)

		body := decodeBody(t, rec)
		if body["available"] != tc.available || body["msg"] != tc.wantMsg {
			t.Fatalf("body = %v", body)
		}
	}
}
