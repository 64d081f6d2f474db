// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account known to the bundled identity provider.
//
// NOTE:
//   - Users carry no role. Roles live on workspace memberships.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"` // trimmed, lowercased
	PasswordHash string             `bson:"password_hash" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Identity is the verified caller of a request.
// It is produced by the identity provider and never modified afterwards.
type Identity struct {
	ID    primitive.ObjectID
	Email string
	Name  string
}
