// Package invitations holds the Pending -> Accepted state machine for
// workspace invitations. The functions here decide; the caller persists.
package invitations

import (
	"strings"

	"github.com/dalemusser/taskhub/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/domain/models"
)

// Request is the validated input for a new invitation.
type Request struct {
	Email string
	Role  models.Role
}

// ParseRequest normalizes the email and role of an invitation request.
// An empty role defaults to Member.
func ParseRequest(email, role string) (Request, error) {
	e := normalize.Email(email)
	if !inputval.IsValidEmail(e) {
		return Request{}, apperr.Validation("A valid email is required.")
	}
	r := models.RoleMember
	if strings.TrimSpace(role) != "" {
		var ok bool
		if r, ok = models.ParseRole(role); !ok {
			return Request{}, apperr.Validation("Invalid role.")
		}
	}
	return Request{Email: e, Role: r}, nil
}

// CheckCreate guards invitation creation. inviterRole is the caller's role
// in the workspace; pendingExists reports whether a Pending invitation for
// the same (workspace, email) is already stored.
func CheckCreate(inviterRole models.Role, pendingExists bool) error {
	if !workspacepolicy.CanManageWorkspace(inviterRole) {
		return apperr.Forbidden("Only workspace admins can send invitations.")
	}
	if pendingExists {
		return apperr.Conflict("An invitation is already pending for this email.")
	}
	return nil
}

// Decision is the outcome of an accept attempt.
type Decision struct {
	// AddMembership is true when the invitee must be added to the workspace.
	AddMembership bool
	// MarkAccepted is true when the invitation status must be written.
	MarkAccepted bool
}

// DecideAccept evaluates an accept attempt by callerEmail. isMember reports
// whether the caller already holds a membership in the invitation's
// workspace.
//
// A Pending invitation accepted by its invitee adds the membership (unless
// one already exists) and marks the invitation Accepted. An already
// Accepted invitation is accepted again as a no-op when the invitee is
// still a member, so retries are safe; otherwise it is NotFound.
func DecideAccept(inv models.Invitation, callerEmail string, isMember bool) (Decision, error) {
	if inv.Status != models.InvitationPending && inv.Status != models.InvitationAccepted {
		return Decision{}, apperr.NotFound("Invitation not found.")
	}
	if normalize.Email(callerEmail) != inv.Email {
		return Decision{}, apperr.Forbidden("This invitation was sent to a different email.")
	}
	if inv.IsPending() {
		return Decision{AddMembership: !isMember, MarkAccepted: true}, nil
	}
	if isMember {
		return Decision{}, nil
	}
	return Decision{}, apperr.NotFound("Invitation not found or already accepted.")
}
