package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/passage-app/passage/internal/observability"
	"github.com/passage-app/passage/internal/shared"
	"github.com/passage-app/passage/internal/view"
)

// Handler serves the registration pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	metrics   *observability.Metrics
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, metrics: metrics}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
}

type registerForm struct {
	Name  string
	Email string
}

type registerPageData struct {
	Form   registerForm
	Errors []string
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	if shared.IdentityFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, registerPageData{})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := RegisterInput{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		PasswordConfirm: r.PostFormValue("password2"),
	}
	// Passwords are never echoed back into the form.
	echo := registerForm{Name: in.Name, Email: in.Email}

	user, err := h.service.Register(r.Context(), in)
	var invalid *ValidationError
	switch {
	case errors.As(err, &invalid):
		h.metrics.RecordAuthEvent("register", "invalid")
		h.render(w, r, http.StatusBadRequest, registerPageData{Form: echo, Errors: invalid.Problems})
	case errors.Is(err, ErrDuplicateEmail):
		h.metrics.RecordAuthEvent("register", "duplicate")
		h.render(w, r, http.StatusConflict, registerPageData{Form: echo, Errors: []string{MsgDuplicateEmail}})
	case err != nil:
		h.metrics.RecordAuthEvent("register", "error")
		h.logger.Error("register user", slog.Any("error", err))
		shared.AddFlash(r.Context(), shared.FlashError, shared.GenericErrorMessage)
		http.Redirect(w, r, "/users/register", http.StatusSeeOther)
	default:
		h.metrics.RecordAuthEvent("register", "success")
		h.logger.Info("user registered", slog.String("user_id", user.ID))
		shared.AddFlash(r.Context(), shared.FlashSuccess, MsgRegistered)
		http.Redirect(w, r, "/users/login", http.StatusSeeOther)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data registerPageData) {
	viewData := view.NewTemplateData(r, h.csrf, "Register", data)
	if err := h.templates.RenderStatus(w, status, "pages/register.html", viewData); err != nil {
		h.logger.Error("render register", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
