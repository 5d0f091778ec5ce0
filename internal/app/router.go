package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/passage-app/passage/internal/auth"
	"github.com/passage-app/passage/internal/observability"
	"github.com/passage-app/passage/internal/pages"
	"github.com/passage-app/passage/internal/platform/httpx"
	"github.com/passage-app/passage/internal/shared"
	"github.com/passage-app/passage/internal/users"
	"github.com/passage-app/passage/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	UserStore      users.Store
	PagesHandler   *pages.Handler
	AuthHandler    *auth.Handler
	UsersHandler   *users.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults. Operational
// endpoints and static assets bypass the session stack.
func NewRouter(params RouterParams) (http.Handler, error) {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	static, err := staticHandler()
	if err != nil {
		return nil, err
	}
	r.Handle("/static/*", static)

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			UserStore:      params.UserStore,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}
		r.Use(chimw.Logger)

		params.PagesHandler.MountRoutes(r)
		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r)
			params.AuthHandler.MountRoutes(r, LoginRateLimiter(params.Config))
		})
	})

	return r, nil
}
