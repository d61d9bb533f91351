// internal/app/features/goals/routes.go
package goals

import (
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the signed-in user's goals.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.List)
	r.Post("/create", h.Create)
	r.Get("/{goalId}/progress", h.Progress)

	return r
}
