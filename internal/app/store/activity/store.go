// internal/app/store/activity/store.go
package activity

// Terminology: User Identifiers
//   - UserID / userID / user_id: hex of the user's ObjectID, stored as a string on each record

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/codetrackr/internal/app/system/txn"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CollectionName is the MongoDB collection holding activity records.
const CollectionName = "activities"

// Store manages activity records.
type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
	now func() time.Time
}

// New creates a new activity Store. logger may be nil.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:  db,
		c:   db.Collection(CollectionName),
		log: logger,
		now: time.Now,
	}
}

// prepare fills the server-owned fields of a record.
func (s *Store) prepare(a *models.Activity, batchID string) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	a.Timestamp = a.Timestamp.UTC()
	a.Date = models.DateOf(a.Timestamp)
	a.BatchID = batchID
	a.CreatedAt = s.now().UTC()
}

// Insert records a single activity.
func (s *Store) Insert(ctx context.Context, a *models.Activity) error {
	s.prepare(a, "")
	_, err := s.c.InsertOne(ctx, a)
	return err
}

// InsertBatch stores all records or none of them and returns the batch ID
// shared by the inserted records.
//
// The records are written with one ordered InsertMany inside a transaction.
// When the deployment cannot run transactions, a failed insert is undone by
// deleting every record carrying the batch ID.
func (s *Store) InsertBatch(ctx context.Context, acts []models.Activity) (string, error) {
	if len(acts) == 0 {
		return "", nil
	}

	batchID := uuid.NewString()
	docs := make([]interface{}, len(acts))
	for i := range acts {
		s.prepare(&acts[i], batchID)
		docs[i] = acts[i]
	}
	insert := func(ctx context.Context) error {
		_, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
		return err
	}

	err := txn.RunWithFallback(ctx, s.db, s.log, insert, func(ctx context.Context) error {
		if err := insert(ctx); err != nil {
			if _, derr := s.c.DeleteMany(ctx, bson.M{"batch_id": batchID}); derr != nil {
				s.log.Error("failed to roll back partial activity batch",
					zap.String("batch_id", batchID),
					zap.Error(derr))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("insert activity batch: %w", err)
	}
	return batchID, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Activity
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByUserSince returns the user's records with timestamp >= since, oldest first.
func (s *Store) FindByUserSince(ctx context.Context, userID string, since time.Time) ([]models.Activity, error) {
	return s.find(ctx, bson.M{
		"user_id":   userID,
		"timestamp": bson.M{"$gte": since},
	})
}

// FindByUserInRange returns the user's records in [start, end), oldest first.
func (s *Store) FindByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]models.Activity, error) {
	return s.find(ctx, bson.M{
		"user_id":   userID,
		"timestamp": bson.M{"$gte": start, "$lt": end},
	})
}

// CountByUser returns how many records the user has.
func (s *Store) CountByUser(ctx context.Context, userID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID})
}

// DayTotal is the hours recorded on one UTC day.
type DayTotal struct {
	Day        string  `bson:"_id" json:"_id"` // YYYY-MM-DD
	TotalHours float64 `bson:"totalHours" json:"totalHours"`
}

// StackTotal is the hours recorded in one language.
type StackTotal struct {
	Language   string  `bson:"_id" json:"_id"`
	TotalHours float64 `bson:"totalHours" json:"totalHours"`
}

func (s *Store) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}

var hoursSum = bson.M{"$sum": bson.M{"$divide": bson.A{"$duration", 3600}}}

// DailyTotals sums hours per UTC day over all of the user's records,
// oldest day first.
func (s *Store) DailyTotals(ctx context.Context, userID string) ([]DayTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$timestamp"}},
			"totalHours": hoursSum,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	out := []DayTotal{}
	if err := s.aggregate(ctx, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StackTotals sums hours per language over all of the user's records,
// most hours first. Records without a language count as "Unknown".
func (s *Store) StackTotals(ctx context.Context, userID string) ([]StackTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$ifNull": bson.A{"$language", models.UnknownLanguage}},
			"totalHours": hoursSum,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalHours", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	out := []StackTotal{}
	if err := s.aggregate(ctx, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserTotals aggregates every record of one user.
type UserTotals struct {
	UserID        string `bson:"_id"`
	Seconds       int64  `bson:"seconds"`
	LinesAdded    int64  `bson:"lines_added"`
	LinesRemoved  int64  `bson:"lines_removed"`
	ProjectCount  int    `bson:"project_count"`
	ActivityCount int64  `bson:"activity_count"`
}

// TotalsByUser aggregates records per user. A nil userIDs covers every user.
func (s *Store) TotalsByUser(ctx context.Context, userIDs []string) (map[string]UserTotals, error) {
	match := bson.M{}
	if userIDs != nil {
		match["user_id"] = bson.M{"$in": userIDs}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$user_id",
			"seconds":        bson.M{"$sum": "$duration"},
			"lines_added":    bson.M{"$sum": "$lines_added"},
			"lines_removed":  bson.M{"$sum": "$lines_removed"},
			"activity_count": bson.M{"$sum": 1},
			"projects":       bson.M{"$addToSet": "$project_name"},
		}}},
		{{Key: "$project", Value: bson.M{
			"seconds":        1,
			"lines_added":    1,
			"lines_removed":  1,
			"activity_count": 1,
			"project_count": bson.M{"$size": bson.M{
				"$setDifference": bson.A{"$projects", bson.A{"", nil}},
			}},
		}}},
	}

	var rows []UserTotals
	if err := s.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]UserTotals, len(rows))
	for _, r := range rows {
		out[r.UserID] = r
	}
	return out, nil
}

// SumDuration returns the total seconds the user spent in language up to
// and including until.
func (s *Store) SumDuration(ctx context.Context, userID, language string, until time.Time) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"user_id":   userID,
			"language":  language,
			"timestamp": bson.M{"$lte": until},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"seconds": bson.M{"$sum": "$duration"},
		}}},
	}
	var rows []struct {
		Seconds int64 `bson:"seconds"`
	}
	if err := s.aggregate(ctx, pipeline, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Seconds, nil
}

// DeleteByUser removes every record of the user. Used by demo seeding.
func (s *Store) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
