package service

import (
	"context"

	"github.com/dalemusser/taskhub/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/taskhub/internal/app/system/access"
	"github.com/dalemusser/taskhub/internal/app/system/invitations"
	"github.com/dalemusser/taskhub/internal/app/system/ledger"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateInvitation invites email to the workspace. Admin only; at most one
// Pending invitation per (workspace, email).
func (s *Service) CreateInvitation(ctx context.Context, who models.Identity, id primitive.ObjectID, email, role string) (models.Invitation, error) {
	req, err := invitations.ParseRequest(email, role)
	if err != nil {
		return models.Invitation{}, err
	}

	_, callerRole, err := s.member(ctx, id, who)
	if err != nil {
		return models.Invitation{}, err
	}
	err = invitations.CheckCreate(callerRole, false)
	s.record(workspacepolicy.OpManageWorkspace, err)
	if err != nil {
		return models.Invitation{}, err
	}

	pending, err := s.invitations.HasPending(ctx, id, req.Email)
	if err != nil {
		return models.Invitation{}, err
	}
	if err := invitations.CheckCreate(callerRole, pending); err != nil {
		return models.Invitation{}, err
	}

	// The partial unique index still rejects a concurrent duplicate with Conflict.
	inv, err := s.invitations.Create(ctx, models.Invitation{
		WorkspaceID: id,
		Email:       req.Email,
		Role:        req.Role,
		InvitedBy:   who.ID,
	})
	if err != nil {
		return models.Invitation{}, err
	}

	s.log.Info("invitation created",
		zap.String("invitation_id", inv.ID.Hex()),
		zap.String("workspace_id", id.Hex()),
		zap.String("role", string(req.Role)),
		zap.String("by", who.ID.Hex()))
	return inv, nil
}

// AcceptInvitation accepts invitation id on behalf of the caller. The
// caller's email must match the invitation. Accepting again after success
// is a no-op.
func (s *Service) AcceptInvitation(ctx context.Context, who models.Identity, id primitive.ObjectID) (models.Invitation, error) {
	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return models.Invitation{}, err
	}

	ws, role, err := s.access.Resolve(ctx, inv.WorkspaceID, who)
	if err != nil {
		return models.Invitation{}, err
	}
	if !access.Found(ws) {
		return models.Invitation{}, errWorkspaceNotFound
	}

	d, err := invitations.DecideAccept(inv, who.Email, role != models.RoleNone)
	if err != nil {
		return models.Invitation{}, err
	}

	if d.AddMembership {
		// A concurrent accept may have landed between the decision and the
		// commit; a role on the reloaded snapshot ends the commit quietly.
		joinOnce := func(role models.Role) error {
			if role != models.RoleNone {
				return errUnchanged
			}
			return nil
		}
		_, err := s.commitMembers(ctx, inv.WorkspaceID, who, joinOnce, func(members []models.Membership) ([]models.Membership, error) {
			return ledger.Add(members, who.ID, inv.Role)
		})
		if err != nil {
			return models.Invitation{}, err
		}
		s.log.Info("member joined by invitation",
			zap.String("workspace_id", inv.WorkspaceID.Hex()),
			zap.String("user_id", who.ID.Hex()),
			zap.String("role", string(inv.Role)))
	}

	if d.MarkAccepted {
		if err := s.invitations.MarkAccepted(ctx, inv.ID); err != nil {
			return models.Invitation{}, err
		}
		inv.Status = models.InvitationAccepted
		inv.UpdatedAt = s.now()
		s.log.Info("invitation accepted",
			zap.String("invitation_id", inv.ID.Hex()),
			zap.String("user_id", who.ID.Hex()))
	}
	return inv, nil
}

// ListMyInvitations returns the Pending invitations addressed to the
// caller's email.
func (s *Service) ListMyInvitations(ctx context.Context, who models.Identity) ([]models.Invitation, error) {
	return s.invitations.ListPendingForEmail(ctx, normalize.Email(who.Email))
}

// ListWorkspaceInvitations returns every invitation of a workspace. Admin only.
func (s *Service) ListWorkspaceInvitations(ctx context.Context, who models.Identity, id primitive.ObjectID) ([]models.Invitation, error) {
	if _, err := s.manage(ctx, id, who, "Only admin can view invitations."); err != nil {
		return nil, err
	}
	return s.invitations.ListByWorkspace(ctx, id)
}
