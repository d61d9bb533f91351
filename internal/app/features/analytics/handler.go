// internal/app/features/analytics/handler.go
package analytics

import (
	"context"
	"time"

	uierrors "github.com/dalemusser/codetrackr/internal/app/features/errors"
	activitystore "github.com/dalemusser/codetrackr/internal/app/store/activity"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"go.uber.org/zap"
)

// ActivityReader is the part of the activity store the reports read from.
type ActivityReader interface {
	FindByUserSince(ctx context.Context, userID string, since time.Time) ([]models.Activity, error)
	FindByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]models.Activity, error)
	DailyTotals(ctx context.Context, userID string) ([]activitystore.DayTotal, error)
	StackTotals(ctx context.Context, userID string) ([]activitystore.StackTotal, error)
}

// Handler owns the analytics endpoints.
type Handler struct {
	Activity ActivityReader
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger

	// Location sets the day boundaries of the weekly report.
	Location *time.Location
	Now      func() time.Time
}

// NewHandler creates an analytics Handler. A nil loc means the process zone.
func NewHandler(activity ActivityReader, loc *time.Location, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		Activity: activity,
		Log:      logger,
		ErrLog:   errLog,
		Location: loc,
		Now:      time.Now,
	}
}
