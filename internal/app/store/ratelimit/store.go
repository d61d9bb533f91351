// internal/app/store/ratelimit/store.go
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record tracks failed API-key presentations from one client.
// Key is the client address as seen by the server.
type Record struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Key          string             `bson:"key"`
	FailureCount int                `bson:"failure_count"` // failures in current window
	WindowStart  time.Time          `bson:"window_start"`
	LockedUntil  *time.Time         `bson:"locked_until"` // nil when not locked
	LastFailure  time.Time          `bson:"last_failure"` // TTL anchor
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// Store locks out clients that keep presenting invalid API keys.
// Lookups fail open: a database error never blocks a request.
type Store struct {
	c               *mongo.Collection
	maxFailures     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	now             func() time.Time
}

// New creates a Store that locks a key for lockout after maxFailures
// failures within window.
func New(db *mongo.Database, maxFailures int, window, lockout time.Duration) *Store {
	return &Store{
		c:               db.Collection("rate_limits"),
		maxFailures:     maxFailures,
		windowDuration:  window,
		lockoutDuration: lockout,
		now:             time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Locked reports whether key is currently locked out and until when.
// tracked is true when key has a failure record, i.e. Clear has work to do.
func (s *Store) Locked(ctx context.Context, key string) (locked bool, until *time.Time, tracked bool) {
	var rec Record
	err := s.c.FindOne(ctx, bson.M{"key": normalizeKey(key)}).Decode(&rec)
	if err != nil {
		return false, nil, false
	}
	if rec.LockedUntil != nil && s.now().Before(*rec.LockedUntil) {
		return true, rec.LockedUntil, true
	}
	return false, nil, true
}

// RecordFailure counts one failure for key and reports whether it caused
// (or extended into) a lockout.
func (s *Store) RecordFailure(ctx context.Context, key string) (lockedOut bool, lockedUntil *time.Time) {
	key = normalizeKey(key)
	now := s.now()

	var rec Record
	err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&rec)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		rec = Record{
			ID:          primitive.NewObjectID(),
			Key:         key,
			WindowStart: now,
			CreatedAt:   now,
		}
	case err != nil:
		return false, nil
	}

	if now.After(rec.WindowStart.Add(s.windowDuration)) {
		rec.FailureCount = 0
		rec.WindowStart = now
		rec.LockedUntil = nil
	}
	rec.FailureCount++
	rec.LastFailure = now
	rec.UpdatedAt = now

	if rec.FailureCount >= s.maxFailures {
		until := now.Add(s.lockoutDuration)
		rec.LockedUntil = &until
		lockedOut, lockedUntil = true, &until
	}

	_, _ = s.c.UpdateOne(ctx,
		bson.M{"_id": rec.ID},
		bson.M{
			"$set": bson.M{
				"key":           rec.Key,
				"failure_count": rec.FailureCount,
				"window_start":  rec.WindowStart,
				"locked_until":  rec.LockedUntil,
				"last_failure":  rec.LastFailure,
				"updated_at":    rec.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": rec.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	return lockedOut, lockedUntil
}

// Clear forgets all failures for key. Called after a valid key is presented.
func (s *Store) Clear(ctx context.Context, key string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"key": normalizeKey(key)})
	return err
}

// Get returns the record for key, or nil when there is none.
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	var rec Record
	err := s.c.FindOne(ctx, bson.M{"key": normalizeKey(key)}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
