// Package leaderboard serves the global ranking of active users by coding time.
package leaderboard

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codetrackr/internal/app/features/errors"
	activitystore "github.com/dalemusser/codetrackr/internal/app/store/activity"
	"github.com/dalemusser/codetrackr/internal/app/system/jsonutil"
	"github.com/dalemusser/codetrackr/internal/app/system/scoring"
	"github.com/dalemusser/codetrackr/internal/app/system/timeouts"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserLister lists the users eligible for the board.
type UserLister interface {
	ListActive(ctx context.Context) ([]models.User, error)
}

// TotalsReader aggregates activity per user.
type TotalsReader interface {
	TotalsByUser(ctx context.Context, userIDs []string) (map[string]activitystore.UserTotals, error)
}

type Handler struct {
	Users    UserLister
	Activity TotalsReader
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(users UserLister, activity TotalsReader, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Activity: activity, Log: logger, ErrLog: errLog}
}

// Routes mounts GET / (the board). The board is public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Board)
	return r
}

// Board handles GET /api/leaderboard.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "leaderboard")
	defer cancel()

	users, err := h.Users.ListActive(ctx)
	if err != nil {
		h.ErrLog.Log(r, "failed to list users for leaderboard", err)
		jsonutil.InternalError(w, "Error fetching leaderboard data")
		return
	}

	ids := make([]string, len(users))
	players := make([]scoring.Player, len(users))
	for i, u := range users {
		ids[i] = u.ID.Hex()
		players[i] = scoring.Player{
			UserID:            ids[i],
			Name:              u.FullName,
			Email:             u.Email,
			ProfilePictureURL: u.ProfilePictureURL,
		}
	}

	agg, err := h.Activity.TotalsByUser(ctx, ids)
	if err != nil {
		h.ErrLog.Log(r, "failed to aggregate leaderboard totals", err)
		jsonutil.InternalError(w, "Error fetching leaderboard data")
		return
	}

	jsonutil.OK(w, scoring.Board(players, toScoring(agg)))
}

func toScoring(in map[string]activitystore.UserTotals) map[string]scoring.Totals {
	out := make(map[string]scoring.Totals, len(in))
	for id, t := range in {
		out[id] = scoring.Totals{
			Seconds:       t.Seconds,
			LinesAdded:    t.LinesAdded,
			LinesRemoved:  t.LinesRemoved,
			ProjectCount:  t.ProjectCount,
			ActivityCount: t.ActivityCount,
		}
	}
	return out
}
