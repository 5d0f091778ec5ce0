package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/passage-app/passage/internal/shared"
	"github.com/passage-app/passage/internal/users"
)

// Identify resolves the user ID serialized in the session into the full
// account and stores it on the request context. Sessions that point at a
// missing account are cleared; store failures leave the request anonymous.
func Identify(store users.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, ok := shared.SessionUserID(ctx)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			user, err := store.FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					shared.SessionFromContext(ctx).ClearUser()
				} else {
					logger.Error("identify session user", slog.String("user_id", id), slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx = ContextWithUser(ctx, user)
			ctx = shared.ContextWithIdentity(ctx, &shared.Identity{ID: user.ID, Name: user.Name, Email: user.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser lets authenticated requests through and sends everyone else to
// the login page with a notice.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.IdentityFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		shared.AddFlash(r.Context(), shared.FlashError, MsgLoginRequired)
		http.Redirect(w, r, "/users/login", http.StatusSeeOther)
	})
}
