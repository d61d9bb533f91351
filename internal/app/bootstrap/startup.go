// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	activitystore "github.com/dalemusser/codetrackr/internal/app/store/activity"
	goalstore "github.com/dalemusser/codetrackr/internal/app/store/goals"
	notificationstore "github.com/dalemusser/codetrackr/internal/app/store/notifications"
	"github.com/dalemusser/codetrackr/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/codetrackr/internal/app/store/users"
	"github.com/dalemusser/codetrackr/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema setup are complete,
// but before the HTTP handler is built. It starts the background task
// runner; returning an error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	startTaskRunner(appCfg, deps, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner registers the goal and cleanup jobs and starts them.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	db := deps.MongoDatabase

	taskRunner = tasks.New(logger).WithObserver(deps.Metrics.JobRun)

	jobs := &tasks.GoalJobs{
		Goals:          goalstore.New(db),
		Notifications:  notificationstore.New(db),
		Activity:       activitystore.New(db, logger),
		Users:          userstore.New(db),
		Logger:         logger,
		Interval:       appCfg.ReminderInterval,
		ReminderLead:   appCfg.ReminderLead,
		ReminderWindow: appCfg.ReminderWindow,
		DashboardURL:   appCfg.FrontendURL,
	}
	// Assign only when set; a typed nil *Mailer is not a nil Sender.
	if deps.Mailer != nil {
		jobs.Mail = deps.Mailer
	}
	jobs.Register(taskRunner)

	taskRunner.Register(tasks.OAuthStateCleanupJob(oauthstate.New(db), logger))

	taskRunner.Start()
	logger.Info("background task runner started", zap.Strings("jobs", taskRunner.Jobs()))
}
