// internal/app/features/profile/profile.go
package profile

import (
	"errors"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/codetrackr/internal/app/features/errors"
	userstore "github.com/dalemusser/codetrackr/internal/app/store/users"
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/app/system/jsonutil"
	"github.com/dalemusser/codetrackr/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler provides the signed-in user's profile and API key endpoints.
type Handler struct {
	userStore *userstore.Store
	errLog    *errorsfeature.ErrorLogger
	logger    *zap.Logger
}

// NewHandler creates a new profile Handler.
func NewHandler(users *userstore.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		userStore: users,
		errLog:    errLog,
		logger:    logger,
	}
}

// Routes returns the router mounted at /api/user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/profile", h.ServeProfile)
	r.Post("/regenerate-api-key", h.HandleRegenerateAPIKey)
	r.Post("/complete-onboarding", h.HandleCompleteOnboarding)

	return r
}

type profileView struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	ProfilePictureURL string     `json:"profilePictureUrl,omitempty"`
	APIKeyPrefix      string     `json:"apiKeyPrefix,omitempty"`
	HasAPIKey         bool       `json:"hasApiKey"`
	IsFirstLogin      bool       `json:"isFirstLogin"`
	LastLogin         *time.Time `json:"lastLogin,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// ServeProfile handles GET /profile. The API key itself is never returned;
// only its lookup prefix.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	cu, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.logger, "load profile")
	defer cancel()

	u, err := h.userStore.GetByID(ctx, cu.UserID())
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.NotFound(w, "User not found")
		return
	}
	if err != nil {
		h.errLog.Log(r, "failed to load profile", err)
		jsonutil.InternalError(w, "Failed to fetch profile")
		return
	}

	jsonutil.OK(w, map[string]any{
		"success": true,
		"user": profileView{
			ID:                u.ID.Hex(),
			Name:              u.FullName,
			Email:             u.Email,
			ProfilePictureURL: u.ProfilePictureURL,
			APIKeyPrefix:      u.APIKeyPrefix,
			HasAPIKey:         u.APIKeyHash != "",
			IsFirstLogin:      u.IsFirstLogin,
			LastLogin:         u.LastLogin,
			CreatedAt:         u.CreatedAt,
		},
	})
}

// HandleRegenerateAPIKey handles POST /regenerate-api-key. The new key is
// shown once in the response.
func (h *Handler) HandleRegenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	cu, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.logger, "regenerate api key")
	defer cancel()

	key, err := h.userStore.RegenerateAPIKey(ctx, cu.UserID())
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.NotFound(w, "User not found")
		return
	}
	if err != nil {
		h.errLog.Log(r, "failed to regenerate api key", err)
		jsonutil.InternalError(w, "Failed to regenerate API key")
		return
	}

	h.logger.Info("api key regenerated", zap.String("user_id", cu.ID))
	jsonutil.OK(w, map[string]any{
		"success": true,
		"message": "API key regenerated successfully",
		"apiKey":  key,
	})
}

// HandleCompleteOnboarding handles POST /complete-onboarding.
func (h *Handler) HandleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	cu, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.logger, "complete onboarding")
	defer cancel()

	err := h.userStore.CompleteOnboarding(ctx, cu.UserID())
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.NotFound(w, "User not found")
		return
	}
	if err != nil {
		h.errLog.Log(r, "failed to complete onboarding", err)
		jsonutil.InternalError(w, "Failed to complete onboarding")
		return
	}
	jsonutil.OK(w, map[string]any{"success": true, "message": "Onboarding completed"})
}
