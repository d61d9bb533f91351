// internal/app/features/analytics/routes.go
package analytics

import (
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the report endpoints. A signed-in user may
// only read their own reports.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		self := pr.With(auth.RequireSelf("userId"))
		self.Get("/weekly/{userId}", h.Weekly)
		self.Get("/timeslot/{userId}", h.TimeSlot)
		self.Get("/summary/{userId}", h.Summary)
		self.Get("/{userId}", h.Daily)
	})

	return r
}
