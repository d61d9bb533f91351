// internal/app/store/users/userstore.go
package userstore

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - GoogleID / google_id: The subject identifier Google returns for the account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/codetrackr/internal/app/system/auth"
	"github.com/dalemusser/codetrackr/internal/app/system/authutil"
	"github.com/dalemusser/codetrackr/internal/app/system/normalize"
	"github.com/dalemusser/codetrackr/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// API keys look like "ctk_" followed by 64 hex characters. The first
// APIKeyPrefixLen characters are stored in clear for lookup.
const (
	APIKeyScheme    = "ctk_"
	APIKeyPrefixLen = len(APIKeyScheme) + 8
)

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidAPIKey is returned when a presented API key matches no active user.
	ErrInvalidAPIKey = auth.ErrInvalidAPIKey
	// ErrDuplicateEmail is returned when another account already uses the email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
)

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), now: time.Now}
}

// GenerateAPIKey returns a new random key and its lookup prefix.
func GenerateAPIKey() (fullKey, prefix string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	fullKey = APIKeyScheme + hex.EncodeToString(b)
	return fullKey, fullKey[:APIKeyPrefixLen], nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by lowercase email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListActive returns every active user ordered by name.
func (s *Store) ListActive(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"status": bson.M{"$ne": models.UserStatusDisabled}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Create inserts a new user with a fresh API key and returns the key in
// clear. This is the only time the plaintext key is available.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, string, error) {
	fullKey, prefix, err := GenerateAPIKey()
	if err != nil {
		return models.User{}, "", err
	}
	hash, err := authutil.HashSecret(fullKey)
	if err != nil {
		return models.User{}, "", err
	}

	now := s.now()
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.APIKeyHash = hash
	u.APIKeyPrefix = prefix
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, "", ErrDuplicateEmail
		}
		return models.User{}, "", err
	}
	return u, fullKey, nil
}

// GoogleProfile is the subset of the Google userinfo response we keep.
type GoogleProfile struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// UpsertGoogle signs in a Google account. An existing user is matched by
// google_id, then by email (linking the Google account to it); otherwise a
// new user is created with IsFirstLogin set and an API key issued.
// created reports whether a new user was inserted.
func (s *Store) UpsertGoogle(ctx context.Context, p GoogleProfile) (u models.User, created bool, err error) {
	now := s.now()
	email := normalize.Email(p.Email)

	filter := bson.M{"google_id": p.GoogleID}
	err = s.c.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) && email != "" {
		filter = bson.M{"email": email}
		err = s.c.FindOne(ctx, filter).Decode(&u)
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		u, _, err = s.Create(ctx, models.User{
			GoogleID:          p.GoogleID,
			FullName:          p.Name,
			Email:             email,
			ProfilePictureURL: p.Picture,
			IsFirstLogin:      true,
			LastLogin:         &now,
		})
		if err != nil {
			return models.User{}, false, err
		}
		return u, true, nil
	case err != nil:
		return models.User{}, false, err
	}

	set := bson.M{
		"google_id":  p.GoogleID,
		"last_login": now,
		"updated_at": now,
	}
	if name := normalize.Name(p.Name); name != "" {
		set["full_name"] = name
		u.FullName = name
	}
	if p.Picture != "" {
		set["profile_picture_url"] = p.Picture
		u.ProfilePictureURL = p.Picture
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": set}); err != nil {
		return models.User{}, false, err
	}
	u.GoogleID = p.GoogleID
	u.LastLogin = &now
	u.UpdatedAt = now
	return u, false, nil
}

// ValidateAPIKey returns the active user owning key.
// It returns ErrInvalidAPIKey for unknown keys and disabled users.
func (s *Store) ValidateAPIKey(ctx context.Context, key string) (*models.User, error) {
	key = strings.TrimSpace(key)
	if len(key) < APIKeyPrefixLen || !strings.HasPrefix(key, APIKeyScheme) {
		return nil, ErrInvalidAPIKey
	}

	cur, err := s.c.Find(ctx, bson.M{"api_key_prefix": key[:APIKeyPrefixLen]})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			continue
		}
		if authutil.CheckSecret(key, u.APIKeyHash) {
			if !u.IsActive() {
				return nil, ErrInvalidAPIKey
			}
			return &u, nil
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return nil, ErrInvalidAPIKey
}

// RegenerateAPIKey replaces the user's key and returns the new key in clear.
// The old key stops working immediately.
func (s *Store) RegenerateAPIKey(ctx context.Context, id primitive.ObjectID) (string, error) {
	fullKey, prefix, err := GenerateAPIKey()
	if err != nil {
		return "", err
	}
	hash, err := authutil.HashSecret(fullKey)
	if err != nil {
		return "", err
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"api_key_hash":   hash,
		"api_key_prefix": prefix,
		"updated_at":     s.now(),
	}})
	if err != nil {
		return "", err
	}
	if res.MatchedCount == 0 {
		return "", ErrNotFound
	}
	return fullKey, nil
}

// CompleteOnboarding clears the first-login flag.
func (s *Store) CompleteOnboarding(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_first_login": false,
		"updated_at":     s.now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus enables or disables a user.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	status = normalize.Status(status)
	if status != models.UserStatusActive && status != models.UserStatusDisabled {
		return errors.New(`status must be "active"|"disabled"`)
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": s.now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
