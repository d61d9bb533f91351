// Package notifications serves the signed-in user's in-app notifications.
package notifications

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/codetrackr/internal/app/features/errors"
	notificationstore "github.com/dalemusser/codetrackr/internal/app/store/notifications"
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/app/system/inputval"
	"github.com/dalemusser/codetrackr/internal/app/system/jsonutil"
	"github.com/dalemusser/codetrackr/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Notifications *notificationstore.Store
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
}

func NewHandler(store *notificationstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Notifications: store, Log: logger, ErrLog: errLog}
}

// Routes mounts the notification endpoints behind sign-in.
//
//	GET    /               - newest notifications
//	GET    /unread-count   - {count}
//	PATCH  /mark-all-read
//	PATCH  /{id}/read
//	DELETE /{id}
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.List)
	r.Get("/unread-count", h.UnreadCount)
	r.Patch("/mark-all-read", h.MarkAllRead)
	r.Patch("/{id}/read", h.MarkRead)
	r.Delete("/{id}", h.Delete)

	return r
}

// List handles GET /.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list notifications")
	defer cancel()

	items, err := h.Notifications.List(ctx, u.UserID())
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to list notifications", err, zap.String("user_id", u.ID))
		jsonutil.InternalError(w, "Error fetching notifications")
		return
	}
	jsonutil.OK(w, items)
}

// UnreadCount handles GET /unread-count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "count unread notifications")
	defer cancel()

	n, err := h.Notifications.UnreadCount(ctx, u.UserID())
	if err != nil {
		h.ErrLog.LogWithFields(r, "failed to count unread notifications", err, zap.String("user_id", u.ID))
		jsonutil.InternalError(w, "Error fetching unread count")
		return
	}
	jsonutil.OK(w, map[string]int64{"count": n})
}

// MarkRead handles PATCH /{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id, err := inputval.ObjectID(chi.URLParam(r, "id"), "Notification ID")
	if err != nil {
		jsonutil.Fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "mark notification read")
	defer cancel()

	n, err := h.Notifications.MarkRead(ctx, id, u.UserID())
	switch {
	case errors.Is(err, notificationstore.ErrNotFound):
		jsonutil.NotFound(w, "Notification not found")
	case err != nil:
		h.ErrLog.LogWithFields(r, "failed to mark notification read", err, zap.String("notification_id", id.Hex()))
		jsonutil.InternalError(w, "Error updating notification")
	default:
		jsonutil.OK(w, map[string]any{"notification": n})
	}
}

// MarkAllRead handles PATCH /mark-all-read.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "mark all notifications read")
	defer cancel()

	if _, err := h.Notifications.MarkAllRead(ctx, u.UserID()); err != nil {
		h.ErrLog.LogWithFields(r, "failed to mark notifications read", err, zap.String("user_id", u.ID))
		jsonutil.InternalError(w, "Error updating notifications")
		return
	}
	jsonutil.OK(w, map[string]string{"message": "All notifications marked as read"})
}

// Delete handles DELETE /{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id, err := inputval.ObjectID(chi.URLParam(r, "id"), "Notification ID")
	if err != nil {
		jsonutil.Fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete notification")
	defer cancel()

	err = h.Notifications.Delete(ctx, id, u.UserID())
	switch {
	case errors.Is(err, notificationstore.ErrNotFound):
		jsonutil.NotFound(w, "Notification not found")
	case err != nil:
		h.ErrLog.LogWithFields(r, "failed to delete notification", err, zap.String("notification_id", id.Hex()))
		jsonutil.InternalError(w, "Error deleting notification")
	default:
		jsonutil.OK(w, map[string]string{"message": "Notification deleted"})
	}
}
