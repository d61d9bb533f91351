// internal/app/features/goals/handler.go
package goals

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/codetrackr/internal/app/features/errors"
	goalstore "github.com/dalemusser/codetrackr/internal/app/store/goals"
	"github.com/dalemusser/codetrackr/internal/app/system/apperr"
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/app/system/inputval"
	"github.com/dalemusser/codetrackr/internal/app/system/jsonutil"
	"github.com/dalemusser/codetrackr/internal/app/system/reports"
	"github.com/dalemusser/codetrackr/internal/app/system/timeouts"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProgressReader sums tracked seconds toward a goal.
type ProgressReader interface {
	SumDuration(ctx context.Context, userID, language string, until time.Time) (int64, error)
}

type Handler struct {
	Goals    *goalstore.Store
	Activity ProgressReader
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(goals *goalstore.Store, activity ProgressReader, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Goals: goals, Activity: activity, Log: logger, ErrLog: errLog}
}

type createGoalInput struct {
	Title       string    `json:"title" validate:"required,max=200" label:"Title"`
	Description string    `json:"description" validate:"max=2000" label:"Description"`
	TargetHours float64   `json:"targetHours" validate:"atleastone" label:"Target hours"`
	TechStack   string    `json:"techStack" validate:"required,max=100" label:"Tech stack"`
	Deadline    time.Time `json:"deadline" label:"Deadline"`
}

// Create handles POST /create.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var in createGoalInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.Fail(w, err)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.Fail(w, res.Err())
		return
	}
	if in.Deadline.IsZero() {
		jsonutil.Fail(w, &apperr.ValidationError{
			Message: "Deadline is required.",
			Fields:  map[string]string{"deadline": "Deadline is required."},
		})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create goal")
	defer cancel()

	g, err := h.Goals.Create(ctx, models.Goal{
		UserID:      u.UserID(),
		Title:       in.Title,
		Description: in.Description,
		TargetHours: in.TargetHours,
		TechStack:   in.TechStack,
		Deadline:    in.Deadline,
	})
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to create goal", err, zap.String("user_id", u.ID))
		jsonutil.InternalError(w, "Error creating goal")
		return
	}
	jsonutil.Created(w, g)
}

// List handles GET /.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list goals")
	defer cancel()

	goals, err := h.Goals.ListByUser(ctx, u.UserID())
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to list goals", err, zap.String("user_id", u.ID))
		jsonutil.InternalError(w, "Error fetching goals")
		return
	}
	jsonutil.OK(w, goals)
}

// Progress handles GET /{goalId}/progress.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	goalID, err := inputval.ObjectID(chi.URLParam(r, "goalId"), "Goal ID")
	if err != nil {
		jsonutil.Fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "goal progress")
	defer cancel()

	g, err := h.Goals.GetForUser(ctx, goalID, u.UserID())
	if errors.Is(err, goalstore.ErrNotFound) {
		jsonutil.NotFound(w, "Goal not found")
		return
	}
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to load goal", err, zap.String("goal_id", goalID.Hex()))
		jsonutil.InternalError(w, "Error fetching goal progress")
		return
	}

	seconds, err := h.Activity.SumDuration(ctx, u.ID, g.TechStack, g.Deadline)
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to sum goal progress", err, zap.String("goal_id", goalID.Hex()))
		jsonutil.InternalError(w, "Error fetching goal progress")
		return
	}

	hours, percent := reports.GoalProgress(*g, seconds)
	jsonutil.OK(w, map[string]any{
		"goal":         g,
		"currentHours": hours,
		"progress":     percent,
	})
}
