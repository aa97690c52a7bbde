package proxy

import (
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the proxy entry point. All methods land on the same
// handler; per-action method checks happen inside dispatch.
func SetupRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Handle("/", h)
	return r
}
