package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moimhub/moim-backend/internal/domain"
	"github.com/moimhub/moim-backend/internal/http/handler"
	"github.com/moimhub/moim-backend/internal/http/router"
	"github.com/moimhub/moim-backend/internal/repository"
	"github.com/moimhub/moim-backend/internal/security"
	"github.com/moimhub/moim-backend/internal/service"
)

type authTestServerOptions struct {
	revokePriorSession bool
	sessionTTL         time.Duration
}

// newAuthTestServer stands up the real HTTP stack over an in-memory sqlite
// database and a miniredis-backed availability cache.
func newAuthTestServer(t *testing.T) (string, *http.Client, func()) {
	t.Helper()
	return newAuthTestServerWithOptions(t, authTestServerOptions{
		revokePriorSession: true,
		sessionTTL:         7 * 24 * time.Hour,
	})
}

func newAuthTestServerWithOptions(t *testing.T, opts authTestServerOptions) (string, *http.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Session{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	auth := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		security.NewPasswordHasher(100_000),
		security.NewUUIDTokenSource(),
		service.SystemClock{},
		service.NewRedisTakenNameCacheStore(redisClient, "itest"),
		service.AuthServiceOptions{
			SessionTTL:           opts.sessionTTL,
			AvailabilityCacheTTL: 30 * time.Second,
			RevokePriorSession:   opts.revokePriorSession,
		},
	)

	// The session cookie is marked Secure, so the test server must speak TLS
	// for the jar to replay it.
	srv := httptest.NewTLSServer(router.NewRouter(router.Dependencies{
		AuthHandler: handler.NewAuthHandler(auth),
		AuthService: auth,
	}))

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := srv.Client()
	client.Jar = jar

	closeFn := func() {
		srv.Close()
		_ = redisClient.Close()
	}
	return srv.URL, client, closeFn
}

type envelope struct {
	OK        bool            `json:"ok"`
	Msg       string          `json:"msg"`
	LoggedIn  *bool           `json:"loggedIn"`
	Available *bool           `json:"available"`
	UserID    int64           `json:"user_id"`
	User      json.RawMessage `json:"user"`
}

func doJSON(t *testing.T, client *http.Client, method, rawURL string, body any) (*http.Response, envelope) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, rawURL, &payload)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, rawURL, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response from %s: %v", rawURL, err)
	}
	return resp, env
}

func cookieValue(t *testing.T, client *http.Client, baseURL, name string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
