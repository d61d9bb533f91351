// internal/app/store/goals/goalstore.go
package goalstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/codetrackr/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a goal does not exist or belongs to another user.
var ErrNotFound = errors.New("goal not found")

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("goals"), now: time.Now}
}

// Create inserts a new in-progress goal.
func (s *Store) Create(ctx context.Context, g models.Goal) (models.Goal, error) {
	now := s.now().UTC()
	g.ID = primitive.NewObjectID()
	g.Title = strings.TrimSpace(g.Title)
	g.Description = strings.TrimSpace(g.Description)
	g.TechStack = strings.TrimSpace(g.TechStack)
	g.Deadline = g.Deadline.UTC()
	g.Status = models.GoalStatusInProgress
	g.ReminderSent = false
	g.CompletedAt = nil
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Goal{}, err
	}
	return g, nil
}

func (s *Store) list(ctx context.Context, filter bson.M, sort bson.D) ([]models.Goal, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Goal{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns the user's goals, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Goal, error) {
	return s.list(ctx, bson.M{"user_id": userID},
		bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
}

// GetForUser loads a goal owned by userID.
func (s *Store) GetForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Goal, error) {
	var g models.Goal
	err := s.c.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// DueForReminder returns in-progress goals without a reminder whose
// deadline falls in [from, to).
func (s *Store) DueForReminder(ctx context.Context, from, to time.Time) ([]models.Goal, error) {
	return s.list(ctx, bson.M{
		"status":        models.GoalStatusInProgress,
		"reminder_sent": false,
		"deadline":      bson.M{"$gte": from, "$lt": to},
	}, bson.D{{Key: "deadline", Value: 1}})
}

// Overdue returns in-progress goals whose deadline is before now.
func (s *Store) Overdue(ctx context.Context, now time.Time) ([]models.Goal, error) {
	return s.list(ctx, bson.M{
		"status":   models.GoalStatusInProgress,
		"deadline": bson.M{"$lt": now},
	}, bson.D{{Key: "deadline", Value: 1}})
}

// InProgress returns every in-progress goal.
func (s *Store) InProgress(ctx context.Context) ([]models.Goal, error) {
	return s.list(ctx, bson.M{"status": models.GoalStatusInProgress},
		bson.D{{Key: "deadline", Value: 1}})
}

// MarkReminderSent flags the goal so no second reminder is created.
// It reports false when another run already flagged it.
func (s *Store) MarkReminderSent(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "reminder_sent": false},
		bson.M{"$set": bson.M{"reminder_sent": true, "updated_at": s.now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseReminder undoes MarkReminderSent so the next sweep retries the goal.
func (s *Store) ReleaseReminder(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "reminder_sent": true},
		bson.M{"$set": bson.M{"reminder_sent": false, "updated_at": s.now().UTC()}},
	)
	return err
}

// MarkCompleted moves an in-progress goal to completed.
// It reports false when the goal was not in progress.
func (s *Store) MarkCompleted(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	at = at.UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.GoalStatusInProgress},
		bson.M{"$set": bson.M{
			"status":       models.GoalStatusCompleted,
			"completed_at": at,
			"updated_at":   at,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
