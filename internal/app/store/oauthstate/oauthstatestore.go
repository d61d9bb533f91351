// internal/app/store/oauthstate/oauthstatestore.go
package oauthstate

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Lifetime is how long a sign-in state token stays valid.
const Lifetime = 10 * time.Minute

// State is a single-use token that ties a Google callback to the request
// that started the sign-in.
type State struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	State     string             `bson:"state"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store provides access to the oauth_states collection.
// Indexes (unique state, TTL on expires_at) are created by system/indexes.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates a new OAuth state store.
func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection("oauth_states"),
		now: time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Create stores a new state token that expires after Lifetime.
func (s *Store) Create(ctx context.Context, state string) error {
	now := s.now()
	_, err := s.c.InsertOne(ctx, State{
		ID:        primitive.NewObjectID(),
		State:     state,
		ExpiresAt: now.Add(Lifetime),
		CreatedAt: now,
	})
	return err
}

// Verify consumes a state token. It returns true only once per token and
// only before the token expires.
func (s *Store) Verify(ctx context.Context, state string) bool {
	if state == "" {
		return false
	}
	filter := bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": s.now()},
	}
	return s.c.FindOneAndDelete(ctx, filter).Err() == nil
}

// DeleteExpired removes tokens that expired before now and returns how many
// were removed. The TTL index does the same eventually; the scheduler calls
// this so cleanup does not depend on the TTL monitor's cadence.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
