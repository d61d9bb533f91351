// internal/domain/models/goal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Goal is a target number of coding hours in one language before a deadline.
type Goal struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"userId"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	TargetHours  float64            `bson:"target_hours" json:"targetHours"`
	TechStack    string             `bson:"tech_stack" json:"techStack"` // matched against Activity.Language
	Deadline     time.Time          `bson:"deadline" json:"deadline"`
	Status       string             `bson:"status" json:"status"`
	ReminderSent bool               `bson:"reminder_sent" json:"reminderSent"`
	CompletedAt  *time.Time         `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Goal statuses
const (
	GoalStatusInProgress = "in-progress"
	GoalStatusCompleted  = "completed"
)

// Progress returns the percentage of TargetHours covered by hours, capped at 100.
func (g Goal) Progress(hours float64) float64 {
	if g.TargetHours <= 0 {
		return 0
	}
	p := hours / g.TargetHours * 100
	if p > 100 {
		return 100
	}
	return p
}
