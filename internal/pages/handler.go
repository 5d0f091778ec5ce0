// Package pages serves the public landing page and the member dashboard.
package pages

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/passage-app/passage/internal/auth"
	"github.com/passage-app/passage/internal/shared"
	"github.com/passage-app/passage/internal/view"
)

// Handler renders the landing page and dashboard.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, templates: templates, csrf: csrf}
}

// MountRoutes registers the landing page and the guarded dashboard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showWelcome)
	r.With(auth.RequireUser).Get("/dashboard", h.showDashboard)
}

type dashboardPageData struct {
	MemberSince time.Time
}

func (h *Handler) showWelcome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/welcome.html", "Welcome", nil)
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	var data dashboardPageData
	if user := auth.UserFromContext(r.Context()); user != nil {
		data.MemberSince = user.CreatedAt
	}
	h.render(w, r, "pages/dashboard.html", "Dashboard", data)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	viewData := view.NewTemplateData(r, h.csrf, title, data)
	if err := h.templates.Render(w, name, viewData); err != nil {
		h.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
