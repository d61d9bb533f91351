// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/codetrackr/internal/app/system/authutil"
	"github.com/dalemusser/codetrackr/internal/app/system/normalize"
	"github.com/dalemusser/codetrackr/internal/app/system/txn"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when the group does not exist.
	ErrNotFound = errors.New("group not found")
	// ErrAlreadyMember is returned when joining a group twice.
	ErrAlreadyMember = errors.New("you are already a member of this group")
	// ErrNotMember is returned when leaving a group the user is not in.
	ErrNotMember = errors.New("you are not a member of this group")
)

type Store struct {
	db      *mongo.Database
	groups  *mongo.Collection
	members *mongo.Collection
	log     *zap.Logger
	now     func() time.Time
}

// New creates a group Store. logger may be nil.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:      db,
		groups:  db.Collection("groups"),
		members: db.Collection("group_members"),
		log:     logger,
		now:     time.Now,
	}
}

// CreateInput describes a new group. Password is only used for private groups.
type CreateInput struct {
	Name        string
	Description string
	Visibility  string
	Password    string
	CreatedBy   primitive.ObjectID
}

// Create inserts the group and makes its creator the first member.
func (s *Store) Create(ctx context.Context, in CreateInput) (models.Group, error) {
	now := s.now().UTC()
	g := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        normalize.Name(in.Name),
		Description: strings.TrimSpace(in.Description),
		Visibility:  normalize.Visibility(in.Visibility),
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
	}
	g.NameCI = text.Fold(g.Name)

	if g.Visibility == models.GroupPrivate {
		hash, err := authutil.HashSecret(in.Password)
		if err != nil {
			return models.Group{}, err
		}
		g.PasswordHash = hash
	}

	m := models.GroupMember{
		ID:       primitive.NewObjectID(),
		GroupID:  g.ID,
		UserID:   in.CreatedBy,
		JoinedAt: now,
	}

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.groups.InsertOne(ctx, g); err != nil {
			return err
		}
		_, err := s.members.InsertOne(ctx, m)
		return err
	})
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Get loads a group by ID.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	err := s.groups.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CheckPassword reports whether password opens the group.
// Public groups accept anything.
func CheckPassword(g *models.Group, password string) bool {
	if g.Visibility != models.GroupPrivate {
		return true
	}
	return authutil.CheckSecret(password, g.PasswordHash)
}

// IsMember reports whether the user belongs to the group.
func (s *Store) IsMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	err := s.members.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Join adds the user to the group.
func (s *Store) Join(ctx context.Context, groupID, userID primitive.ObjectID) error {
	_, err := s.members.InsertOne(ctx, models.GroupMember{
		ID:       primitive.NewObjectID(),
		GroupID:  groupID,
		UserID:   userID,
		JoinedAt: s.now().UTC(),
	})
	if wafflemongo.IsDup(err) {
		return ErrAlreadyMember
	}
	return err
}

// Leave removes the user from the group. When nobody is left the group
// itself is deleted and groupDeleted is true.
func (s *Store) Leave(ctx context.Context, groupID, userID primitive.ObjectID) (groupDeleted bool, err error) {
	res, err := s.members.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	if err != nil {
		return false, err
	}
	if res.DeletedCount == 0 {
		return false, ErrNotMember
	}

	remaining, err := s.members.CountDocuments(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}
	if _, err := s.groups.DeleteOne(ctx, bson.M{"_id": groupID}); err != nil {
		return false, err
	}
	return true, nil
}

// Person is the public part of a user shown in group listings.
type Person struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"full_name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

// Summary is a group with its creator and member count.
type Summary struct {
	models.Group `bson:",inline"`
	Creator      *Person `bson:"creator,omitempty" json:"createdByUser,omitempty"`
	MemberCount  int     `bson:"member_count" json:"memberCount"`
}

// summaryStages attaches creator and member_count to group documents.
func summaryStages() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from": "users",
			"let":  bson.M{"uid": "$created_by"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$uid"}}}},
				bson.M{"$project": bson.M{"full_name": 1, "email": 1}},
			},
			"as": "creator",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$creator", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "group_members",
			"let":  bson.M{"gid": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$group_id", "$$gid"}}}},
				bson.M{"$count": "n"},
			},
			"as": "member_count",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"member_count": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$member_count.n", 0}}, 0}},
		}}},
	}
}

func (s *Store) summaries(ctx context.Context, match bson.M, sort bson.D) ([]Summary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: sort}},
	}
	pipeline = append(pipeline, summaryStages()...)

	cur, err := s.groups.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Summary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) memberGroupIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids, err := s.members.Distinct(ctx, "group_id", bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if oid, ok := v.(primitive.ObjectID); ok {
			out = append(out, oid)
		}
	}
	return out, nil
}

// MyGroups returns the groups the user belongs to, newest first.
func (s *Store) MyGroups(ctx context.Context, userID primitive.ObjectID) ([]Summary, error) {
	ids, err := s.memberGroupIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Summary{}, nil
	}
	return s.summaries(ctx, bson.M{"_id": bson.M{"$in": ids}},
		bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
}

// Discover returns groups the user has not joined, newest first. A non-empty
// search keeps only groups whose folded name contains the folded search.
func (s *Store) Discover(ctx context.Context, userID primitive.ObjectID, search string) ([]Summary, error) {
	ids, err := s.memberGroupIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	match := bson.M{"_id": bson.M{"$nin": ids}}
	if q := text.Fold(normalize.QueryParam(search)); q != "" {
		match["name_ci"] = bson.M{"$regex": regexp.QuoteMeta(q)}
	}
	return s.summaries(ctx, match, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
}

// Member is a group member with their profile.
type Member struct {
	ID       primitive.ObjectID `bson:"user_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	JoinedAt time.Time          `bson:"joined_at" json:"joinedAt"`
}

// Members lists the group's members in join order. Members whose user
// record no longer exists are left out.
func (s *Store) Members(ctx context.Context, groupID primitive.ObjectID) ([]Member, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"group_id": groupID}}},
		{{Key: "$sort", Value: bson.D{{Key: "joined_at", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.M{
			"user_id":   1,
			"joined_at": 1,
			"name":      "$user.full_name",
			"email":     "$user.email",
		}}},
	}

	cur, err := s.members.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Member{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
