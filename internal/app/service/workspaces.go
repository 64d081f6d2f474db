package service

import (
	"context"
	"fmt"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/system/ledger"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WorkspaceView is a workspace together with the caller's role in it.
type WorkspaceView struct {
	models.Workspace
	Role models.Role `json:"role"`
}

// WorkspaceDetail adds member account details to a WorkspaceView.
type WorkspaceDetail struct {
	WorkspaceView
	People []MemberView `json:"people"`
}

// MemberView is one membership with the member's display fields.
type MemberView struct {
	UserID primitive.ObjectID `json:"user_id"`
	Name   string             `json:"name"`
	Email  string             `json:"email"`
	Role   models.Role        `json:"role"`
}

type workspaceInput struct {
	Name string `validate:"required,notblank,max=100" label:"Workspace name"`
}

func parseWorkspaceName(name string) (string, error) {
	in := workspaceInput{Name: normalize.Name(name)}
	if res := inputval.Validate(in); res.HasErrors() {
		return "", apperr.Validation(res.First())
	}
	return in.Name, nil
}

// CreateWorkspace creates a workspace with the caller as its only Admin.
func (s *Service) CreateWorkspace(ctx context.Context, who models.Identity, name string) (models.Workspace, error) {
	name, err := parseWorkspaceName(name)
	if err != nil {
		return models.Workspace{}, err
	}

	ws, err := s.workspaces.Create(ctx, models.Workspace{
		Name:    name,
		Owner:   who.ID,
		Members: ledger.Initial(who.ID),
	})
	if err != nil {
		return models.Workspace{}, err
	}

	s.log.Info("workspace created",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("owner", who.ID.Hex()))
	return ws, nil
}

// RenameWorkspace changes a workspace's name. Admin only.
func (s *Service) RenameWorkspace(ctx context.Context, who models.Identity, id primitive.ObjectID, name string) (models.Workspace, error) {
	name, err := parseWorkspaceName(name)
	if err != nil {
		return models.Workspace{}, err
	}
	if _, err := s.manage(ctx, id, who, "Only admin can rename the workspace."); err != nil {
		return models.Workspace{}, err
	}

	ws, err := s.workspaces.Rename(ctx, id, name)
	if err != nil {
		return models.Workspace{}, err
	}
	s.log.Info("workspace renamed",
		zap.String("workspace_id", id.Hex()),
		zap.String("by", who.ID.Hex()))
	return ws, nil
}

// DeleteWorkspace removes a workspace and then, best effort, its tasks and
// invitations. Cascade failures are logged and not returned. Admin only.
func (s *Service) DeleteWorkspace(ctx context.Context, who models.Identity, id primitive.ObjectID) error {
	if _, err := s.manage(ctx, id, who, "Only admin can delete the workspace."); err != nil {
		return err
	}

	n, err := s.workspaces.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return errWorkspaceNotFound
	}

	// The two cascades touch different collections and run side by side.
	var tasks, invs int64
	var g errgroup.Group
	g.Go(func() error {
		n, err := s.tasks.DeleteByWorkspace(ctx, id)
		tasks = n
		if err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		n, err := s.invitations.DeleteByWorkspace(ctx, id)
		invs = n
		if err != nil {
			return fmt.Errorf("delete invitations: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Error("workspace cascade incomplete", zap.Error(err), zap.String("workspace_id", id.Hex()))
	}

	s.log.Info("workspace deleted",
		zap.String("workspace_id", id.Hex()),
		zap.String("by", who.ID.Hex()),
		zap.Int64("tasks", tasks),
		zap.Int64("invitations", invs))
	return nil
}

// ListWorkspaces returns every workspace the caller belongs to, newest first.
func (s *Service) ListWorkspaces(ctx context.Context, who models.Identity) ([]WorkspaceView, error) {
	list, err := s.access.Memberships(ctx, who)
	if err != nil {
		return nil, err
	}
	out := make([]WorkspaceView, 0, len(list))
	for _, m := range list {
		out = append(out, WorkspaceView{Workspace: m.Workspace, Role: m.Role})
	}
	return out, nil
}

// GetWorkspace returns one workspace the caller belongs to, with member
// names and emails.
func (s *Service) GetWorkspace(ctx context.Context, who models.Identity, id primitive.ObjectID) (WorkspaceDetail, error) {
	ws, role, err := s.member(ctx, id, who)
	if err != nil {
		return WorkspaceDetail{}, err
	}

	ids := make([]primitive.ObjectID, 0, len(ws.Members))
	for _, m := range ws.Members {
		ids = append(ids, m.UserID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return WorkspaceDetail{}, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	people := make([]MemberView, 0, len(ws.Members))
	for _, m := range ws.Members {
		u := byID[m.UserID]
		people = append(people, MemberView{UserID: m.UserID, Name: u.Name, Email: u.Email, Role: m.Role})
	}
	return WorkspaceDetail{
		WorkspaceView: WorkspaceView{Workspace: ws, Role: role},
		People:        people,
	}, nil
}
