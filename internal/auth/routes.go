package auth

import (
	"net/http"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the auth endpoints. Credential-bearing endpoints sit
// behind the per-IP rate limiter; session-scoped ones behind the session
// middleware. The user list is admin-gated. Logout takes no middleware:
// it must work for anonymous callers.
func SetupRoutes(h *Handlers, sessions *SessionStore, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	session := middleware.SessionMiddleware(sessions)
	admin := middleware.AdminMiddleware(sessions)
	limited := middleware.RateLimit(limiter)

	r.With(limited).Post("/login", h.LoginHandler)
	r.With(limited).Post("/register", h.RegisterHandler)
	r.With(limited).Post("/bootstrap", h.BootstrapAdminHandler)
	r.Post("/logout", h.LogoutHandler)
	r.Get("/setup", h.SetupStatusHandler)
	r.With(session).Get("/me", h.MeHandler)
	r.With(session).Post("/password", h.UpdatePasswordHandler)
	r.With(admin).Get("/admin/users", h.ListUsersHandler)

	// PHP-era clients sent every auth form as GET to the login page;
	// reject those explicitly instead of 404ing.
	r.Get("/login", methodNotAllowed)
	r.Get("/register", methodNotAllowed)

	return r
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
