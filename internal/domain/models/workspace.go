// internal/domain/models/workspace.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace is the tenant boundary that owns members and tasks.
//
// Members is embedded on the document so that the "at least one Admin"
// invariant can be checked and committed in a single-document update.
// Version is bumped on every membership change and is used as the
// compare-and-swap token for those updates.
type Workspace struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"-"` // folded for sorting and search

	// Owner is the creator. Set once at creation and never reassigned.
	Owner primitive.ObjectID `bson:"owner" json:"owner"`

	Members []Membership `bson:"members" json:"members"`
	Version int64        `bson:"version" json:"version"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Membership binds one user to one role inside a workspace.
// Exactly one entry per user_id per workspace.
type Membership struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role   Role               `bson:"role" json:"role"`
}

// RoleOf returns the role userID holds in the workspace, or RoleNone.
func (w Workspace) RoleOf(userID primitive.ObjectID) Role {
	for _, m := range w.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return RoleNone
}

// HasMember reports whether userID has any membership in the workspace.
func (w Workspace) HasMember(userID primitive.ObjectID) bool {
	return w.RoleOf(userID) != RoleNone
}
