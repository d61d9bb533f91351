// internal/app/features/analytics/reports.go
package analytics

import (
	"net/http"

	"github.com/dalemusser/codetrackr/internal/app/system/inputval"
	"github.com/dalemusser/codetrackr/internal/app/system/jsonutil"
	"github.com/dalemusser/codetrackr/internal/app/system/reports"
	"github.com/dalemusser/codetrackr/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Daily handles GET /{userId}?timezone=<offset minutes>.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	tz, err := inputval.QueryInt(r, "timezone", 0)
	if err != nil {
		jsonutil.Fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "daily report")
	defer cancel()

	now := h.Now()
	records, err := h.Activity.FindByUserSince(ctx, userID, reports.DailyWindow(now))
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to load daily activity", err, zap.String("user_id", userID))
		jsonutil.InternalError(w, "Failed to fetch daily analytics")
		return
	}
	jsonutil.OK(w, reports.Daily(records, now, tz))
}

// Weekly handles GET /weekly/{userId}. Day boundaries follow the server's
// report time zone.
func (h *Handler) Weekly(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "weekly report")
	defer cancel()

	now := h.Now().In(h.Location)
	records, err := h.Activity.FindByUserSince(ctx, userID, reports.WeeklyWindow(now))
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to load weekly activity", err, zap.String("user_id", userID))
		jsonutil.InternalError(w, "Failed to fetch weekly analytics")
		return
	}
	jsonutil.OK(w, reports.Weekly(records, now))
}

// TimeSlot handles GET /timeslot/{userId}?start=&end=&timezone=.
// end defaults to start+2.
func (h *Handler) TimeSlot(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	start, err := inputval.QueryInt(r, "start", 0)
	if err != nil {
		jsonutil.Fail(w, err)
		return
	}
	end, err := inputval.QueryInt(r, "end", start+2)
	if err != nil {
		jsonutil.Fail(w, err)
		return
	}
	tz, err := inputval.QueryInt(r, "timezone", 0)
	if err != nil {
		jsonutil.Fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "time slot report")
	defer cancel()

	from, to := reports.TimeSlotWindow(h.Now(), start, end, tz)
	records, err := h.Activity.FindByUserInRange(ctx, userID, from, to)
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to load time slot activity", err, zap.String("user_id", userID))
		jsonutil.InternalError(w, "Failed to fetch time slot analytics")
		return
	}
	jsonutil.OK(w, reports.TimeSlot(records, from, start))
}

// Summary handles GET /summary/{userId}: lifetime hours per day and per language.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "summary report")
	defer cancel()

	daily, err := h.Activity.DailyTotals(ctx, userID)
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to aggregate daily totals", err, zap.String("user_id", userID))
		jsonutil.InternalError(w, "Failed to fetch analytics")
		return
	}
	stacks, err := h.Activity.StackTotals(ctx, userID)
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to aggregate stack totals", err, zap.String("user_id", userID))
		jsonutil.InternalError(w, "Failed to fetch analytics")
		return
	}
	jsonutil.OK(w, map[string]any{
		"dailyTotals": daily,
		"stackTotals": stacks,
	})
}
