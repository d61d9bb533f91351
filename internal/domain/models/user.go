// internal/domain/models/user.go
package models

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - GoogleID / google_id: The subject identifier Google returns for the account

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a developer who signs in with Google and reports activity
// through an API key.
//
// The API key itself is never stored. APIKeyHash holds a bcrypt hash and
// APIKeyPrefix holds the first characters of the key, used to find the
// candidate record before comparing hashes.
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GoogleID          string             `bson:"google_id,omitempty" json:"-"`
	FullName          string             `bson:"full_name" json:"name"`
	Email             string             `bson:"email" json:"email"` // lowercase
	ProfilePictureURL string             `bson:"profile_picture_url,omitempty" json:"profilePictureUrl,omitempty"`

	APIKeyHash   string `bson:"api_key_hash,omitempty" json:"-"`
	APIKeyPrefix string `bson:"api_key_prefix,omitempty" json:"apiKeyPrefix,omitempty"`

	IsFirstLogin bool       `bson:"is_first_login" json:"isFirstLogin"`
	LastLogin    *time.Time `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	Status       string     `bson:"status" json:"status"` // active, disabled

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// User statuses
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// IsActive reports whether the user may sign in and submit activity.
func (u User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}
