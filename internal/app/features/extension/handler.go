// Package extension serves the endpoints the editor extension calls.
//
// Endpoints (mounted at /api/extension, API key in the x-api-key header):
//   - POST /track       - record one activity
//   - POST /track/batch - record many activities, all or nothing
//   - GET  /verify      - check the key and return its owner
package extension

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	activitystore "github.com/dalemusser/codetrackr/internal/app/store/activity"
	"github.com/dalemusser/codetrackr/internal/app/system/apperr"
	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/app/system/jsonutil"
	"github.com/dalemusser/codetrackr/internal/app/system/metrics"
	"github.com/dalemusser/codetrackr/internal/app/system/timeouts"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultMaxBatch is used when the handler is built with a non-positive limit.
const DefaultMaxBatch = 500

const msgMissingFields = "Missing required fields: fileName, language, and duration are required"

// ActivityWriter persists activity records.
type ActivityWriter interface {
	Insert(ctx context.Context, a *models.Activity) error
	InsertBatch(ctx context.Context, acts []models.Activity) (string, error)
}

var _ ActivityWriter = (*activitystore.Store)(nil)

// Handler handles extension API requests.
type Handler struct {
	activity ActivityWriter
	metrics  *metrics.Metrics
	logger   *zap.Logger
	maxBatch int
}

// NewHandler creates an extension handler. m may be nil.
func NewHandler(activity ActivityWriter, m *metrics.Metrics, maxBatch int, logger *zap.Logger) *Handler {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &Handler{activity: activity, metrics: m, logger: logger, maxBatch: maxBatch}
}

// activityInput is one activity as the extension sends it.
type activityInput struct {
	FileName     string     `json:"fileName"`
	FileType     string     `json:"fileType"`
	ProjectName  string     `json:"projectName"`
	Language     string     `json:"language"`
	Duration     *int64     `json:"duration"`
	LinesAdded   int64      `json:"linesAdded"`
	LinesRemoved int64      `json:"linesRemoved"`
	Timestamp    *time.Time `json:"timestamp"`
}

// toActivity validates in and applies the ingestion defaults.
func (in activityInput) toActivity(userID string) (models.Activity, error) {
	fileName := strings.TrimSpace(in.FileName)
	language := strings.TrimSpace(in.Language)
	if fileName == "" || language == "" || in.Duration == nil || *in.Duration == 0 {
		return models.Activity{}, apperr.Validation(msgMissingFields)
	}
	if *in.Duration < 0 {
		return models.Activity{}, apperr.Validation("duration must not be negative")
	}
	if in.LinesAdded < 0 || in.LinesRemoved < 0 {
		return models.Activity{}, apperr.Validation("linesAdded and linesRemoved must not be negative")
	}

	a := models.Activity{
		UserID:       userID,
		FileName:     fileName,
		FileType:     strings.TrimSpace(in.FileType),
		ProjectName:  strings.TrimSpace(in.ProjectName),
		Language:     language,
		Duration:     *in.Duration,
		LinesAdded:   in.LinesAdded,
		LinesRemoved: in.LinesRemoved,
	}
	if a.FileType == "" {
		a.FileType = models.UnknownFileType
	}
	if a.ProjectName == "" {
		a.ProjectName = models.UnknownProjectName
	}
	if in.Timestamp != nil {
		a.Timestamp = *in.Timestamp
	}
	return a, nil
}

type trackedActivity struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	Language  string    `json:"language"`
	Duration  int64     `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

func apiUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, ok := auth.APIUser(r)
	if !ok {
		jsonutil.Unauthorized(w, auth.MsgAPIKeyRequired)
	}
	return u, ok
}

// Track handles POST /track.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	u, ok := apiUser(w, r)
	if !ok {
		return
	}

	var in activityInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.Fail(w, err)
		return
	}
	a, err := in.toActivity(u.ID.Hex())
	if err != nil {
		jsonutil.Fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.logger, "track activity")
	defer cancel()

	if err := h.activity.Insert(ctx, &a); err != nil {
		h.logger.Error("failed to track activity",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to track activity")
		return
	}
	h.metrics.Ingested("single", 1)

	jsonutil.Created(w, map[string]any{
		"success": true,
		"message": "Activity tracked successfully",
		"activity": trackedActivity{
			ID:        a.ID.Hex(),
			FileName:  a.FileName,
			Language:  a.Language,
			Duration:  a.Duration,
			Timestamp: a.Timestamp,
		},
	})
}

// TrackBatch handles POST /track/batch. One invalid element rejects the
// whole batch and nothing is stored.
func (h *Handler) TrackBatch(w http.ResponseWriter, r *http.Request) {
	u, ok := apiUser(w, r)
	if !ok {
		return
	}

	var in struct {
		Activities []activityInput `json:"activities"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.Fail(w, err)
		return
	}
	if len(in.Activities) == 0 {
		jsonutil.BadRequest(w, "activities must be a non-empty array")
		return
	}
	if len(in.Activities) > h.maxBatch {
		jsonutil.BadRequest(w, fmt.Sprintf("activities must not contain more than %d items", h.maxBatch))
		return
	}

	userID := u.ID.Hex()
	acts := make([]models.Activity, 0, len(in.Activities))
	for i, item := range in.Activities {
		a, err := item.toActivity(userID)
		if err != nil {
			jsonutil.BadRequest(w, fmt.Sprintf("activities[%d]: %s", i, err.Error()))
			return
		}
		acts = append(acts, a)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.logger, "track activity batch")
	defer cancel()

	if _, err := h.activity.InsertBatch(ctx, acts); err != nil {
		h.logger.Error("failed to track activity batch",
			zap.String("user_id", userID),
			zap.Int("count", len(acts)),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to track activities")
		return
	}
	h.metrics.Ingested("batch", len(acts))

	jsonutil.Created(w, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%d activities tracked successfully", len(acts)),
		"count":   len(acts),
	})
}

// Verify handles GET /verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	u, ok := apiUser(w, r)
	if !ok {
		return
	}
	jsonutil.OK(w, map[string]any{
		"success": true,
		"message": "API key is valid",
		"user": map[string]string{
			"id":    u.ID.Hex(),
			"name":  u.FullName,
			"email": u.Email,
		},
	})
}
