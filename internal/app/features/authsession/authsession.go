// internal/app/features/authsession/authsession.go
package authsession

import (
	"net/http"

	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// Handler serves the browser session endpoints under /auth.
type Handler struct {
	sessionMgr *auth.SessionManager
	logger     *zap.Logger
}

// NewHandler creates a new session Handler.
func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		sessionMgr: sessionMgr,
		logger:     logger,
	}
}

// Routes returns a chi.Router with the current-user and logout routes.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/current-user", h.CurrentUser)
	r.Post("/logout", h.Logout)
	return r
}

type currentUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Picture      string `json:"profilePictureUrl,omitempty"`
	IsFirstLogin bool   `json:"isFirstLogin"`
}

// CurrentUser reports who is signed in. The CSRF token for subsequent
// state-changing requests is returned in the X-CSRF-Token header.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if tok := csrf.Token(r); tok != "" {
		w.Header().Set("X-CSRF-Token", tok)
	}

	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.JSON(w, http.StatusUnauthorized, map[string]any{"user": nil})
		return
	}
	jsonutil.OK(w, map[string]any{"user": currentUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Picture:      u.Picture,
		IsFirstLogin: u.IsFirstLogin,
	}})
}

// Logout ends the browser session. It succeeds for anonymous callers too.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.logger.Info("user signed out", zap.String("user_id", u.ID))
	}
	h.sessionMgr.DestroySession(w, r)
	jsonutil.OK(w, map[string]any{"success": true, "message": "Logged out successfully"})
}
