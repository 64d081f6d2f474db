// Package access resolves a caller's effective role in a workspace.
//
// Every workspace- and task-scoped operation goes through Resolve, and
// workspace listings go through Memberships; no other code derives a role
// from membership data.
package access

import (
	"context"
	"errors"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkspaceGetter loads workspace snapshots. A missing workspace must be
// reported with an error matching apperr.ErrNotFound.
type WorkspaceGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Workspace, error)
}

// Resolver maps (workspace, identity) to a role.
type Resolver struct {
	workspaces WorkspaceGetter
}

// New returns a Resolver backed by ws.
func New(ws WorkspaceGetter) *Resolver {
	return &Resolver{workspaces: ws}
}

// Resolve returns the workspace snapshot and the caller's role in it.
//
// When the workspace does not exist the returned workspace is the zero value
// and the role is RoleNone. When it exists but the caller has no membership
// the snapshot is returned with RoleNone. Other store errors propagate.
func (r *Resolver) Resolve(ctx context.Context, workspaceID primitive.ObjectID, who models.Identity) (models.Workspace, models.Role, error) {
	ws, err := r.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Workspace{}, models.RoleNone, nil
		}
		return models.Workspace{}, models.RoleNone, err
	}
	return ws, ws.RoleOf(who.ID), nil
}

// Membership is one workspace together with the caller's role in it.
type Membership struct {
	Workspace models.Workspace
	Role      models.Role
}

// Memberships returns every workspace the caller belongs to with the
// caller's role, in store order. Snapshots where the caller holds no role
// (a membership removed after the listing query matched) are dropped.
func (r *Resolver) Memberships(ctx context.Context, who models.Identity) ([]Membership, error) {
	list, err := r.workspaces.ListForUser(ctx, who.ID)
	if err != nil {
		return nil, err
	}
	out := make([]Membership, 0, len(list))
	for _, ws := range list {
		if role := ws.RoleOf(who.ID); role != models.RoleNone {
			out = append(out, Membership{Workspace: ws, Role: role})
		}
	}
	return out, nil
}

// Found reports whether ws is a resolved snapshot rather than the zero
// value returned for a missing workspace.
func Found(ws models.Workspace) bool {
	return !ws.ID.IsZero()
}
