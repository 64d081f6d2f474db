// internal/domain/models/invitation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvitationStatus is the lifecycle state of an invitation.
// Pending -> Accepted is the only transition; Accepted is terminal.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "Pending"
	InvitationAccepted InvitationStatus = "Accepted"
)

// Invitation is a pending offer of membership keyed by email.
// Email is stored trimmed and lowercased.
type Invitation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Email       string             `bson:"email" json:"email"`
	Role        Role               `bson:"role" json:"role"`
	InvitedBy   primitive.ObjectID `bson:"invited_by" json:"invited_by"`
	Status      InvitationStatus   `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsPending reports whether the invitation can still be accepted for the first time.
func (i Invitation) IsPending() bool {
	return i.Status == InvitationPending
}
