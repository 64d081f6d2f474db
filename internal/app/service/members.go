package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/system/ledger"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func parseRole(s string, def models.Role) (models.Role, error) {
	if strings.TrimSpace(s) == "" && def != models.RoleNone {
		return def, nil
	}
	r, ok := models.ParseRole(s)
	if !ok {
		return models.RoleNone, apperr.Validation("Invalid role.")
	}
	return r, nil
}

// AddMember adds the account registered under email to the workspace.
// The role defaults to Member. Admin only.
func (s *Service) AddMember(ctx context.Context, who models.Identity, id primitive.ObjectID, email, role string) (models.Workspace, error) {
	email = normalize.Email(email)
	if !inputval.IsValidEmail(email) {
		return models.Workspace{}, apperr.Validation("Invalid email.")
	}
	r, err := parseRole(role, models.RoleMember)
	if err != nil {
		return models.Workspace{}, err
	}

	const denied = "Only admin can add members."
	if _, err := s.manage(ctx, id, who, denied); err != nil {
		return models.Workspace{}, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Workspace{}, apperr.NotFound("User with this email does not exist.")
		}
		return models.Workspace{}, err
	}

	ws, err := s.commitMembers(ctx, id, who, s.requireManager(denied), func(members []models.Membership) ([]models.Membership, error) {
		return ledger.Add(members, u.ID, r)
	})
	if err != nil {
		return models.Workspace{}, err
	}

	s.log.Info("member added",
		zap.String("workspace_id", id.Hex()),
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", string(r)),
		zap.String("by", who.ID.Hex()))
	return ws, nil
}

// ChangeRole sets a member's role. Fails with InvariantViolation when the
// change would leave the workspace without an Admin. Admin only.
func (s *Service) ChangeRole(ctx context.Context, who models.Identity, id, userID primitive.ObjectID, role string) (models.Workspace, error) {
	r, err := parseRole(role, models.RoleNone)
	if err != nil {
		return models.Workspace{}, err
	}

	const denied = "Only admin can change member roles."
	ws, err := s.commitMembers(ctx, id, who, s.requireManager(denied), func(members []models.Membership) ([]models.Membership, error) {
		return ledger.ChangeRole(members, userID, r)
	})
	if err != nil {
		return models.Workspace{}, err
	}

	s.log.Info("member role changed",
		zap.String("workspace_id", id.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("role", string(r)),
		zap.String("by", who.ID.Hex()))
	return ws, nil
}

// RemoveMember removes a member. Fails with InvariantViolation when the
// last Admin would be removed. Admin only.
func (s *Service) RemoveMember(ctx context.Context, who models.Identity, id, userID primitive.ObjectID) (models.Workspace, error) {
	const denied = "Only admin can remove members."
	ws, err := s.commitMembers(ctx, id, who, s.requireManager(denied), func(members []models.Membership) ([]models.Membership, error) {
		return ledger.Remove(members, userID)
	})
	if err != nil {
		return models.Workspace{}, err
	}

	s.log.Info("member removed",
		zap.String("workspace_id", id.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("by", who.ID.Hex()))
	return ws, nil
}
