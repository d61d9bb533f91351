// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/codetrackr/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListLimit caps how many notifications List returns.
const ListLimit = 50

// ErrNotFound is returned when a notification does not exist or belongs to another user.
var ErrNotFound = errors.New("notification not found")

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications"), now: time.Now}
}

// Create inserts a notification for the goal's owner.
func (s *Store) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.ID = primitive.NewObjectID()
	n.Read = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// ExistsForGoal reports whether a notification of type exists for the goal.
func (s *Store) ExistsForGoal(ctx context.Context, goalID primitive.ObjectID, typ string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"goal_id": goalID, "type": typ}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GoalSummary is the part of a goal shown next to its notification.
type GoalSummary struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Deadline    time.Time          `bson:"deadline" json:"deadline"`
}

// Item is a notification with its goal attached.
// Goal is nil when the goal has since been deleted.
type Item struct {
	models.Notification `bson:",inline"`
	Goal                *GoalSummary `bson:"goal,omitempty" json:"goal,omitempty"`
}

// List returns the user's newest notifications, at most ListLimit.
func (s *Store) List(ctx context.Context, userID primitive.ObjectID) ([]Item, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$limit", Value: ListLimit}},
		{{Key: "$lookup", Value: bson.M{
			"from": "goals",
			"let":  bson.M{"gid": "$goal_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$gid"}}}},
				bson.M{"$project": bson.M{"title": 1, "description": 1, "deadline": 1}},
			},
			"as": "goal",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$goal", "preserveNullAndEmptyArrays": true}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Item{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadCount counts the user's unread notifications.
func (s *Store) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

var optsAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

// MarkRead marks one of the user's notifications as read and returns it.
func (s *Store) MarkRead(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
		optsAfter,
	).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *Store) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes one of the user's notifications.
func (s *Store) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
