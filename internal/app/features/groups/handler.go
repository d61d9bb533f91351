// internal/app/features/groups/handler.go
package groups

import (
	"context"

	uierrors "github.com/dalemusser/codetrackr/internal/app/features/errors"
	activitystore "github.com/dalemusser/codetrackr/internal/app/store/activity"
	groupstore "github.com/dalemusser/codetrackr/internal/app/store/groups"
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TotalsReader aggregates activity per user for the group leaderboard.
type TotalsReader interface {
	TotalsByUser(ctx context.Context, userIDs []string) (map[string]activitystore.UserTotals, error)
}

// Handler owns the group endpoints.
type Handler struct {
	Groups   *groupstore.Store
	Activity TotalsReader
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler creates a groups Handler.
func NewHandler(groups *groupstore.Store, activity TotalsReader, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Groups: groups, Activity: activity, Log: logger, ErrLog: errLog}
}

// Routes returns the router mounted at /api/groups. Every endpoint needs a
// signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/create", h.Create)
	r.Get("/my-groups", h.MyGroups)
	r.Get("/discover", h.Discover)

	r.Route("/{groupId}", func(gr chi.Router) {
		gr.Get("/details", h.Details)
		gr.Post("/join", h.Join)
		gr.Post("/leave", h.Leave)
	})

	return r
}
