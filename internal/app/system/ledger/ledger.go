// Package ledger applies membership changes to a workspace snapshot and
// enforces the "at least one Admin" invariant.
//
// Every function takes the current member list and returns a new list; the
// input slice is never modified. A failed check therefore leaves the
// caller's snapshot exactly as it was, and only a successful result is ever
// handed to the store for a version-conditioned commit.
package ledger

import (
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Add appends a membership for userID. Additions cannot break the Admin
// invariant, so no count check is made.
func Add(members []models.Membership, userID primitive.ObjectID, role models.Role) ([]models.Membership, error) {
	if !role.Valid() {
		return nil, apperr.Validation("Invalid role.")
	}
	if Find(members, userID) >= 0 {
		return nil, apperr.Conflict("User already exists in workspace.")
	}
	out := clone(members, 1)
	out = append(out, models.Membership{UserID: userID, Role: role})
	return out, nil
}

// ChangeRole sets userID's role. The last write wins; setting the same role
// again is allowed and returns an equal list.
func ChangeRole(members []models.Membership, userID primitive.ObjectID, role models.Role) ([]models.Membership, error) {
	if !role.Valid() {
		return nil, apperr.Validation("Invalid role.")
	}
	i := Find(members, userID)
	if i < 0 {
		return nil, apperr.NotFound("Member not found in this workspace.")
	}
	out := clone(members, 0)
	out[i].Role = role
	if AdminCount(out) == 0 {
		return nil, apperr.InvariantViolation()
	}
	return out, nil
}

// Remove deletes userID's membership.
func Remove(members []models.Membership, userID primitive.ObjectID) ([]models.Membership, error) {
	i := Find(members, userID)
	if i < 0 {
		return nil, apperr.NotFound("Member not found in this workspace.")
	}
	out := make([]models.Membership, 0, len(members)-1)
	out = append(out, members[:i]...)
	out = append(out, members[i+1:]...)
	if AdminCount(out) == 0 {
		return nil, apperr.InvariantViolation()
	}
	return out, nil
}

// Find returns the index of userID's membership, or -1.
func Find(members []models.Membership, userID primitive.ObjectID) int {
	for i, m := range members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

// AdminCount returns how many memberships hold the Admin role.
func AdminCount(members []models.Membership) int {
	n := 0
	for _, m := range members {
		if m.Role == models.RoleAdmin {
			n++
		}
	}
	return n
}

// Satisfied reports whether members satisfies the Admin invariant.
func Satisfied(members []models.Membership) bool {
	return AdminCount(members) >= 1
}

// Initial returns the member list of a freshly created workspace: the
// creator as its only Admin.
func Initial(creator primitive.ObjectID) []models.Membership {
	return []models.Membership{{UserID: creator, Role: models.RoleAdmin}}
}

func clone(members []models.Membership, extra int) []models.Membership {
	out := make([]models.Membership, len(members), len(members)+extra)
	copy(out, members)
	return out
}
