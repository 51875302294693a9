package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/moimhub/moim-backend/internal/health"
	"github.com/moimhub/moim-backend/internal/http/handler"
	"github.com/moimhub/moim-backend/internal/http/middleware"
	"github.com/moimhub/moim-backend/internal/http/response"
	"github.com/moimhub/moim-backend/internal/service"
)

type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	AuthService    service.AuthServiceInterface
	CORSOrigins    []string
	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

// NewRouter mounts the auth endpoints at the root, mirroring the paths the
// static front end calls.
func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unready", "checks": results})
	})

	r.Get("/check-username", dep.AuthHandler.CheckUsername)
	r.Get("/check-nickname", dep.AuthHandler.CheckNickname)
	r.Post("/signup", dep.AuthHandler.Signup)
	r.Post("/login", dep.AuthHandler.Login)
	r.Post("/logout", dep.AuthHandler.Logout)
	r.With(middleware.SessionAuth(dep.AuthService)).Get("/me", dep.AuthHandler.Me)

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
