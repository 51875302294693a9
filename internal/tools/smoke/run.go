package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// Config drives one smoke pass against a running server.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Seed    int64
}

type Result struct {
	Steps []string
}

type apiEnvelope struct {
	OK       bool   `json:"ok"`
	Msg      string `json:"msg"`
	LoggedIn *bool  `json:"loggedIn"`
}

// Run walks the whole account lifecycle against a live server: health,
// availability check, signup, login, me, logout, and the post-logout 401.
// It creates a throwaway account each pass, so it is safe to repeat but
// should only point at disposable environments.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	// The session cookie is Secure, so a standard cookie jar would refuse
	// to replay it over the plain-HTTP addresses dev servers listen on.
	// Carry it by hand instead.
	client := &sessionClient{http: &http.Client{}}
	base := strings.TrimRight(cfg.BaseURL, "/")
	res := &Result{}

	status, _, err := call(ctx, client, http.MethodGet, base+"/health/live", nil)
	if err != nil {
		return res, fmt.Errorf("health/live: %w", err)
	}
	if status != http.StatusOK {
		return res, fmt.Errorf("health/live: status=%d", status)
	}
	res.Steps = append(res.Steps, "health/live: ok")

	rng := rand.New(rand.NewSource(seed(cfg)))
	username := fmt.Sprintf("smoke%08d", rng.Intn(100_000_000))
	password := fmt.Sprintf("smoke-pass-%08d", rng.Intn(100_000_000))
	nickname := fmt.Sprintf("smoke%08d", rng.Intn(100_000_000))

	status, _, err = call(ctx, client, http.MethodGet, base+"/check-username?username="+username, nil)
	if err != nil {
		return res, fmt.Errorf("check-username: %w", err)
	}
	if status != http.StatusOK {
		return res, fmt.Errorf("check-username: status=%d", status)
	}
	res.Steps = append(res.Steps, "check-username: ok")

	status, env, err := call(ctx, client, http.MethodPost, base+"/signup", map[string]string{
		"username": username,
		"password": password,
		"nickname": nickname,
	})
	if err != nil {
		return res, fmt.Errorf("signup: %w", err)
	}
	if status != http.StatusOK || !env.OK {
		return res, fmt.Errorf("signup: status=%d msg=%q", status, env.Msg)
	}
	res.Steps = append(res.Steps, "signup: ok user="+username)

	status, env, err = call(ctx, client, http.MethodPost, base+"/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return res, fmt.Errorf("login: %w", err)
	}
	if status != http.StatusOK || !env.OK {
		return res, fmt.Errorf("login: status=%d msg=%q", status, env.Msg)
	}
	res.Steps = append(res.Steps, "login: ok")

	status, env, err = call(ctx, client, http.MethodGet, base+"/me", nil)
	if err != nil {
		return res, fmt.Errorf("me: %w", err)
	}
	if status != http.StatusOK || env.LoggedIn == nil || !*env.LoggedIn {
		return res, fmt.Errorf("me: status=%d loggedIn=%v", status, env.LoggedIn)
	}
	res.Steps = append(res.Steps, "me: ok")

	status, _, err = call(ctx, client, http.MethodPost, base+"/logout", nil)
	if err != nil {
		return res, fmt.Errorf("logout: %w", err)
	}
	if status != http.StatusOK {
		return res, fmt.Errorf("logout: status=%d", status)
	}
	res.Steps = append(res.Steps, "logout: ok")

	status, _, err = call(ctx, client, http.MethodGet, base+"/me", nil)
	if err != nil {
		return res, fmt.Errorf("me after logout: %w", err)
	}
	if status != http.StatusUnauthorized {
		return res, fmt.Errorf("me after logout: status=%d, want 401", status)
	}
	res.Steps = append(res.Steps, "me after logout: 401 as expected")

	return res, nil
}

func seed(cfg Config) int64 {
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	return time.Now().UnixNano()
}

type sessionClient struct {
	http    *http.Client
	session string
}

func call(ctx context.Context, client *sessionClient, method, rawURL string, body any) (int, apiEnvelope, error) {
	var env apiEnvelope

	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return 0, env, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, &payload)
	if err != nil {
		return 0, env, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if client.session != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: client.session})
	}

	resp, err := client.http.Do(req)
	if err != nil {
		return 0, env, err
	}
	defer func() { _ = resp.Body.Close() }()

	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			client.session = c.Value
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, env, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return resp.StatusCode, env, nil
}
