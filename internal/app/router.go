package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/appbox-io/appbox/internal/auth"
	"github.com/appbox-io/appbox/internal/builds"
	"github.com/appbox-io/appbox/internal/observability"
	"github.com/appbox-io/appbox/internal/platform/httpx"
	"github.com/appbox-io/appbox/internal/security"
	"github.com/appbox-io/appbox/internal/users"
	"github.com/appbox-io/appbox/jobs"
	"github.com/appbox-io/appbox/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Authenticator security.Authenticator
	Guard         security.Guard
	AuthHandler   *auth.Handler
	UsersHandler  *users.Handler
	BuildsHandler *builds.Handler
	JobsHandler   *jobs.Handler
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with appbox defaults. Everything under
// /api answers with the canonical error body, including 404 and 405.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:        params.Logger,
		Config:        params.Config,
		Authenticator: params.Authenticator,
		Metrics:       params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(httpx.NotFound(params.Logger))
	r.MethodNotAllowed(httpx.MethodNotAllowed(r, params.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/", params.AuthHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(params.Guard.Require(security.Authenticated()))
			r.Put("/", params.AuthHandler.Refresh)
			r.Delete("/", params.AuthHandler.Logout)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", params.UsersHandler.Register)
		r.With(params.Guard.Require(security.HasRole(security.RoleAdmin))).
			Get("/", params.UsersHandler.List)
		r.Route("/me", func(r chi.Router) {
			r.Use(params.Guard.Require(security.Authenticated()))
			r.Get("/", params.UsersHandler.Me)
			r.Put("/password", params.UsersHandler.ChangePassword)
			r.Post("/avatar", params.UsersHandler.UploadAvatar)
		})
	})

	r.With(params.Guard.Require(security.HasRole(security.RoleAdmin))).
		Post("/api/builds", params.BuildsHandler.Upload)

	if params.JobsHandler != nil {
		r.Route("/api/jobs", func(r chi.Router) {
			r.Use(params.Guard.Require(security.HasRole(security.RoleAdmin)))
			params.JobsHandler.MountRoutes(r)
		})
	}

	docsFS, err := fs.Sub(web.Docs, "docs")
	if err != nil {
		params.Logger.Error("create docs sub filesystem", slog.Any("error", err))
	} else {
		docServer := http.StripPrefix("/swagger/", http.FileServer(http.FS(docsFS)))
		r.Handle("/swagger/*", docServer)
	}

	return r
}
