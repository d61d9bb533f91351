// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	"errors"
	"time"

	activitystore "github.com/dalemusser/codetrackr/internal/app/store/activity"
	goalstore "github.com/dalemusser/codetrackr/internal/app/store/goals"
	groupstore "github.com/dalemusser/codetrackr/internal/app/store/groups"
	userstore "github.com/dalemusser/codetrackr/internal/app/store/users"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DemoUserName is the display name of the seeded account.
const DemoUserName = "Demo Developer"

// demoFiles cycles through a small project so every report has data.
var demoFiles = []struct {
	file, fileType, lang, project string
}{
	{"main.go", "go", "go", "codetrackr"},
	{"reports.go", "go", "go", "codetrackr"},
	{"App.tsx", "tsx", "typescriptreact", "dashboard"},
	{"api.ts", "ts", "typescript", "dashboard"},
	{"README.md", "md", "markdown", "codetrackr"},
}

// SeedDemo creates a demo user with a week of activity, one goal and one
// group. It does nothing when a user with email already exists, so it is
// safe to run on every start.
func SeedDemo(ctx context.Context, db *mongo.Database, logger *zap.Logger, email string, now time.Time) error {
	users := userstore.New(db)

	if _, err := users.GetByEmail(ctx, email); err == nil {
		logger.Debug("demo data already present", zap.String("email", email))
		return nil
	} else if !errors.Is(err, userstore.ErrNotFound) {
		return err
	}

	u, _, err := users.Create(ctx, models.User{FullName: DemoUserName, Email: email})
	if err != nil {
		return err
	}

	acts := demoActivities(u.ID.Hex(), now)
	if _, err := activitystore.New(db, logger).InsertBatch(ctx, acts); err != nil {
		logger.Error("failed to seed demo activity", zap.Error(err))
		return err
	}

	if _, err := goalstore.New(db).Create(ctx, models.Goal{
		UserID:      u.ID,
		Title:       "Ship the analytics dashboard",
		Description: "Twenty hours of Go before the end of the month.",
		TargetHours: 20,
		TechStack:   "go",
		Deadline:    now.AddDate(0, 0, 21),
	}); err != nil {
		return err
	}

	if _, err := groupstore.New(db, logger).Create(ctx, groupstore.CreateInput{
		Name:        "Demo Team",
		Description: "A public group to try the leaderboard.",
		Visibility:  models.GroupPublic,
		CreatedBy:   u.ID,
	}); err != nil {
		return err
	}

	logger.Info("seeded demo data",
		zap.String("email", email),
		zap.String("user_id", u.ID.Hex()),
		zap.Int("count", len(acts)))
	return nil
}

// demoActivities spreads sessions over the 7 days ending at now, a few each
// day in working hours, skipping one day so the streak is visible.
func demoActivities(userID string, now time.Time) []models.Activity {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var out []models.Activity
	for d := 6; d >= 0; d-- {
		if d == 3 {
			continue
		}
		base := day.AddDate(0, 0, -d)
		for i := 0; i < 4; i++ {
			f := demoFiles[(d+i)%len(demoFiles)]
			ts := base.Add(time.Duration(9+i*2)*time.Hour + time.Duration(d*7)*time.Minute)
			if ts.After(now) {
				continue
			}
			out = append(out, models.Activity{
				UserID:       userID,
				FileName:     f.file,
				FileType:     f.fileType,
				ProjectName:  f.project,
				Language:     f.lang,
				Duration:     int64(900 + 300*i),
				LinesAdded:   int64(20 + 5*i + d),
				LinesRemoved: int64(3 + i),
				Timestamp:    ts,
			})
		}
	}
	return out
}
