// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a named set of users who compare their coding activity.
// Private groups require a password to join.
type Group struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"` // folded for case/diacritic-insensitive search
	Description  string             `bson:"description" json:"description"`
	Visibility   string             `bson:"visibility" json:"visibility"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	CreatedBy    primitive.ObjectID `bson:"created_by" json:"createdBy"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}

// Group visibilities
const (
	GroupPublic  = "public"
	GroupPrivate = "private"
)

// GroupMember records that a user belongs to a group.
// The (group_id, user_id) pair is unique.
type GroupMember struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	GroupID  primitive.ObjectID `bson:"group_id" json:"groupId"`
	UserID   primitive.ObjectID `bson:"user_id" json:"userId"`
	JoinedAt time.Time          `bson:"joined_at" json:"joinedAt"`
}
