// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	activitystore "github.com/dalemusser/codetrackr/internal/app/store/activity"
	goalstore "github.com/dalemusser/codetrackr/internal/app/store/goals"
	notificationstore "github.com/dalemusser/codetrackr/internal/app/store/notifications"
	"github.com/dalemusser/codetrackr/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/codetrackr/internal/app/store/users"
	"github.com/dalemusser/codetrackr/internal/app/system/mailer"
	"github.com/dalemusser/codetrackr/internal/app/system/reports"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"go.uber.org/zap"
)

// Job names
const (
	JobGoalReminders    = "goal-deadline-reminders"
	JobGoalOverdue      = "goal-overdue"
	JobGoalCompletion   = "goal-completion"
	JobOAuthStateExpiry = "oauth-state-cleanup"
)

// GoalJobs builds the goal scheduler jobs. Mail is optional; when nil only
// in-app notifications are created.
type GoalJobs struct {
	Goals         *goalstore.Store
	Notifications *notificationstore.Store
	Activity      *activitystore.Store
	Users         *userstore.Store
	Mail          mailer.Sender
	Logger        *zap.Logger

	Interval       time.Duration // default 1h
	ReminderLead   time.Duration // default 6h
	ReminderWindow time.Duration // default 1h
	DashboardURL   string
}

func (g *GoalJobs) interval() time.Duration {
	if g.Interval <= 0 {
		return time.Hour
	}
	return g.Interval
}

func (g *GoalJobs) log() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

// Register adds the reminder, overdue and completion jobs to r.
func (g *GoalJobs) Register(r *Runner) {
	r.Register(Job{Name: JobGoalReminders, Interval: g.interval(), Run: g.SendReminders})
	r.Register(Job{Name: JobGoalOverdue, Interval: g.interval(), Run: g.FlagOverdue})
	r.Register(Job{Name: JobGoalCompletion, Interval: g.interval(), Run: g.CompleteReached})
}

// SendReminders notifies owners of in-progress goals whose deadline falls in
// [now+lead, now+lead+window). Each goal is reminded at most once; a claim
// whose notification could not be written is released for the next run.
func (g *GoalJobs) SendReminders(ctx context.Context, now time.Time) error {
	lead, window := g.ReminderLead, g.ReminderWindow
	if lead <= 0 {
		lead = 6 * time.Hour
	}
	if window <= 0 {
		window = time.Hour
	}
	from := now.Add(lead)

	due, err := g.Goals.DueForReminder(ctx, from, from.Add(window))
	if err != nil {
		return fmt.Errorf("find goals due for reminder: %w", err)
	}

	sent := 0
	for _, goal := range due {
		claimed, err := g.Goals.MarkReminderSent(ctx, goal.ID)
		if err != nil {
			return fmt.Errorf("mark reminder sent: %w", err)
		}
		if !claimed {
			continue
		}

		hoursLeft := int(math.Round(goal.Deadline.Sub(now).Hours()))
		gid := goal.ID
		if _, err := g.Notifications.Create(ctx, models.Notification{
			UserID:  goal.UserID,
			GoalID:  &gid,
			Type:    models.NotificationDeadlineReminder,
			Title:   "Goal Deadline Approaching!",
			Message: fmt.Sprintf("Your goal %q is due in %d hours! Time to wrap it up.", goal.Title, hoursLeft),
		}); err != nil {
			if rerr := g.Goals.ReleaseReminder(ctx, goal.ID); rerr != nil {
				g.log().Error("goal reminder lost: notification failed and claim could not be released",
					zap.String("goal_id", goal.ID.Hex()), zap.Error(rerr))
			}
			return fmt.Errorf("create reminder notification: %w", err)
		}
		sent++
		g.mailReminder(ctx, goal)
	}

	if sent > 0 {
		g.log().Info("goal reminders created", zap.Int("count", sent))
	}
	return nil
}

func (g *GoalJobs) mailReminder(ctx context.Context, goal models.Goal) {
	if g.Mail == nil || g.Users == nil {
		return
	}
	u, err := g.Users.GetByID(ctx, goal.UserID)
	if err != nil {
		g.log().Warn("reminder email skipped: user lookup failed",
			zap.String("user_id", goal.UserID.Hex()), zap.Error(err))
		return
	}
	seconds, err := g.Activity.SumDuration(ctx, goal.UserID.Hex(), goal.TechStack, goal.Deadline)
	if err != nil {
		g.log().Warn("reminder email skipped: progress lookup failed",
			zap.String("goal_id", goal.ID.Hex()), zap.Error(err))
		return
	}
	hours, _ := reports.GoalProgress(goal, seconds)

	text, html := mailer.GoalReminderEmail(mailer.GoalReminderEmailData{
		AppName:      g.Mail.FromName(),
		UserName:     u.FullName,
		GoalTitle:    goal.Title,
		TechStack:    goal.TechStack,
		TargetHours:  goal.TargetHours,
		CurrentHours: hours,
		Deadline:     goal.Deadline,
		DashboardURL: g.dashboard(),
	})
	if err := g.Mail.Send(mailer.Email{
		To:       u.Email,
		Subject:  "Goal deadline approaching: " + goal.Title,
		TextBody: text,
		HTMLBody: html,
	}); err != nil {
		g.log().Warn("reminder email failed", zap.String("goal_id", goal.ID.Hex()), zap.Error(err))
	}
}

func (g *GoalJobs) dashboard() string {
	return strings.TrimRight(g.DashboardURL, "/") + "/dashboard"
}

// FlagOverdue creates one deadline_missed notification per in-progress goal
// whose deadline has passed.
func (g *GoalJobs) FlagOverdue(ctx context.Context, now time.Time) error {
	overdue, err := g.Goals.Overdue(ctx, now)
	if err != nil {
		return fmt.Errorf("find overdue goals: %w", err)
	}

	created := 0
	for _, goal := range overdue {
		exists, err := g.Notifications.ExistsForGoal(ctx, goal.ID, models.NotificationDeadlineMissed)
		if err != nil {
			return fmt.Errorf("check overdue notification: %w", err)
		}
		if exists {
			continue
		}
		gid := goal.ID
		if _, err := g.Notifications.Create(ctx, models.Notification{
			UserID:  goal.UserID,
			GoalID:  &gid,
			Type:    models.NotificationDeadlineMissed,
			Title:   "Goal Deadline Missed",
			Message: fmt.Sprintf("The deadline for %q has passed. Consider updating or completing it.", goal.Title),
		}); err != nil {
			return fmt.Errorf("create overdue notification: %w", err)
		}
		created++
	}

	if created > 0 {
		g.log().Info("overdue goal notifications created", zap.Int("count", created))
	}
	return nil
}

// CompleteReached marks in-progress goals whose tracked hours reached the
// target as completed and notifies their owners.
func (g *GoalJobs) CompleteReached(ctx context.Context, now time.Time) error {
	goals, err := g.Goals.InProgress(ctx)
	if err != nil {
		return fmt.Errorf("find in-progress goals: %w", err)
	}

	completed := 0
	for _, goal := range goals {
		seconds, err := g.Activity.SumDuration(ctx, goal.UserID.Hex(), goal.TechStack, goal.Deadline)
		if err != nil {
			return fmt.Errorf("sum goal progress: %w", err)
		}
		if !reports.GoalReached(goal, seconds) {
			continue
		}
		ok, err := g.Goals.MarkCompleted(ctx, goal.ID, now)
		if err != nil {
			return fmt.Errorf("mark goal completed: %w", err)
		}
		if !ok {
			continue
		}
		gid := goal.ID
		if _, err := g.Notifications.Create(ctx, models.Notification{
			UserID:  goal.UserID,
			GoalID:  &gid,
			Type:    models.NotificationGoalCompleted,
			Title:   "Goal Completed!",
			Message: fmt.Sprintf("You reached your goal %q: %.2f hours of %s.", goal.Title, goal.TargetHours, goal.TechStack),
		}); err != nil {
			return fmt.Errorf("create completion notification: %w", err)
		}
		completed++
		g.mailCompleted(ctx, goal)
	}

	if completed > 0 {
		g.log().Info("goals completed", zap.Int("count", completed))
	}
	return nil
}

func (g *GoalJobs) mailCompleted(ctx context.Context, goal models.Goal) {
	if g.Mail == nil || g.Users == nil {
		return
	}
	u, err := g.Users.GetByID(ctx, goal.UserID)
	if err != nil {
		return
	}
	text, html := mailer.GoalCompletedEmail(mailer.GoalCompletedEmailData{
		AppName:      g.Mail.FromName(),
		UserName:     u.FullName,
		GoalTitle:    goal.Title,
		TargetHours:  goal.TargetHours,
		DashboardURL: g.dashboard(),
	})
	if err := g.Mail.Send(mailer.Email{
		To:       u.Email,
		Subject:  "Goal completed: " + goal.Title,
		TextBody: text,
		HTMLBody: html,
	}); err != nil {
		g.log().Warn("completion email failed", zap.String("goal_id", goal.ID.Hex()), zap.Error(err))
	}
}

// OAuthStateCleanupJob removes expired OAuth state tokens. The TTL index
// does the same eventually; this keeps the collection small between TTL passes.
func OAuthStateCleanupJob(states *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     JobOAuthStateExpiry,
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context, now time.Time) error {
			deleted, err := states.DeleteExpired(ctx, now)
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("cleaned up expired oauth states",
					zap.Int64("deleted", deleted))
			}
			return nil
		},
	}
}
