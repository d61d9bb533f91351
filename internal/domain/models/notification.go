// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an in-app message about one of the user's goals.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"userId"`
	GoalID    *primitive.ObjectID `bson:"goal_id,omitempty" json:"goalId,omitempty"`
	Type      string              `bson:"type" json:"type"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	Read      bool                `bson:"read" json:"read"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
}

// Notification types
const (
	NotificationDeadlineReminder = "deadline_reminder"
	NotificationDeadlineMissed   = "deadline_missed"
	NotificationGoalCompleted    = "goal_completed"
)
