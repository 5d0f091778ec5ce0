package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/passage-app/passage/internal/observability"
	"github.com/passage-app/passage/internal/shared"
	"github.com/passage-app/passage/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	strategy       Strategy
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	metrics        *observability.Metrics
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, strategy Strategy, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		strategy:       strategy,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		metrics:        metrics,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router. loginMiddleware wraps
// the credential submission only.
func (h *Handler) MountRoutes(r chi.Router, loginMiddleware ...func(http.Handler) http.Handler) {
	r.Get("/login", h.showLogin)
	r.With(loginMiddleware...).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginPageData struct {
	Email string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if shared.IdentityFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	viewData := view.NewTemplateData(r, h.csrfManager, "Login", loginPageData{})
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	creds := Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validator.Struct(creds); err != nil {
		h.metrics.RecordAuthEvent("login", "invalid")
		h.fail(w, r, MsgMissingCredentials)
		return
	}

	user, err := h.strategy.Authenticate(r.Context(), creds)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.metrics.RecordAuthEvent("login", "rejected")
			h.logger.Info("login rejected", slog.String("strategy", h.strategy.Name()))
			h.fail(w, r, MsgInvalidCredentials)
			return
		}
		h.metrics.RecordAuthEvent("login", "error")
		h.logger.Error("authenticate", slog.String("strategy", h.strategy.Name()), slog.Any("error", err))
		h.fail(w, r, shared.GenericErrorMessage)
		return
	}

	h.sessionManager.Renew(sess)
	h.csrfManager.Rotate(sess)
	sess.SetUser(user.ID)
	h.metrics.RecordAuthEvent("login", "success")
	h.logger.Info("user logged in", slog.String("user_id", user.ID))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessionManager.Reset(sess)
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: MsgLoggedOut})
	}
	http.Redirect(w, r, "/users/login", http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string) {
	shared.AddFlash(r.Context(), shared.FlashError, message)
	http.Redirect(w, r, "/users/login", http.StatusSeeOther)
}
