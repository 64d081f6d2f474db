package service

import (
	"context"

	"github.com/dalemusser/taskhub/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/taskhub/internal/app/system/access"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/app/system/taskguard"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errTaskNotFound = apperr.NotFound("Task not found.")

// workspaceForTasks resolves a workspace for a task operation. Unlike the
// governance operations, a caller without membership gets the snapshot
// with RoleNone so that taskguard answers Forbidden.
func (s *Service) workspaceForTasks(ctx context.Context, id primitive.ObjectID, who models.Identity) (models.Workspace, models.Role, error) {
	ws, role, err := s.access.Resolve(ctx, id, who)
	if err != nil {
		return models.Workspace{}, models.RoleNone, err
	}
	if !access.Found(ws) {
		return models.Workspace{}, models.RoleNone, errWorkspaceNotFound
	}
	return ws, role, nil
}

// loadTask returns a task with its workspace and the caller's role there.
func (s *Service) loadTask(ctx context.Context, taskID primitive.ObjectID, who models.Identity) (models.Task, models.Workspace, models.Role, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, models.Workspace{}, models.RoleNone, err
	}
	ws, role, err := s.access.Resolve(ctx, t.WorkspaceID, who)
	if err != nil {
		return models.Task{}, models.Workspace{}, models.RoleNone, err
	}
	if !access.Found(ws) {
		return models.Task{}, models.Workspace{}, models.RoleNone, errTaskNotFound
	}
	return t, ws, role, nil
}

// CreateTask adds a task to a workspace. Admins and Members only.
func (s *Service) CreateTask(ctx context.Context, who models.Identity, workspaceID primitive.ObjectID, in taskguard.NewTask) (models.Task, error) {
	ws, role, err := s.workspaceForTasks(ctx, workspaceID, who)
	if err != nil {
		return models.Task{}, err
	}

	t, err := taskguard.Create(ws, role, who.ID, in, s.now())
	s.record(workspacepolicy.OpCreateTask, err)
	if err != nil {
		return models.Task{}, err
	}

	t, err = s.tasks.Create(ctx, t)
	if err != nil {
		return models.Task{}, err
	}
	s.log.Debug("task created",
		zap.String("task_id", t.ID.Hex()),
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("by", who.ID.Hex()))
	return t, nil
}

// ListTasks returns the workspace's tasks matching f, newest first. Any
// member may list.
func (s *Service) ListTasks(ctx context.Context, who models.Identity, workspaceID primitive.ObjectID, f models.TaskFilter) ([]models.Task, error) {
	f = models.TaskFilter{
		Status:   normalize.QueryParam(f.Status),
		Priority: normalize.QueryParam(f.Priority),
		Query:    normalize.QueryParam(f.Query),
	}
	// Unknown status or priority values do not filter.
	if !models.IsValidTaskStatus(f.Status) {
		f.Status = ""
	}
	if !models.IsValidTaskPriority(f.Priority) {
		f.Priority = ""
	}

	_, role, err := s.workspaceForTasks(ctx, workspaceID, who)
	if err != nil {
		return nil, err
	}
	err = taskguard.AuthorizeView(role)
	s.record(workspacepolicy.OpViewTasks, err)
	if err != nil {
		return nil, err
	}
	return s.tasks.List(ctx, workspaceID, f)
}

// GetTask returns one task. Any member of its workspace may read it.
func (s *Service) GetTask(ctx context.Context, who models.Identity, taskID primitive.ObjectID) (models.Task, error) {
	t, _, role, err := s.loadTask(ctx, taskID, who)
	if err != nil {
		return models.Task{}, err
	}
	err = taskguard.AuthorizeView(role)
	s.record(workspacepolicy.OpViewTasks, err)
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// UpdateTask applies a partial update. Admins may edit any task; Members
// only tasks assigned to them.
func (s *Service) UpdateTask(ctx context.Context, who models.Identity, taskID primitive.ObjectID, p taskguard.Patch) (models.Task, error) {
	t, ws, role, err := s.loadTask(ctx, taskID, who)
	if err != nil {
		return models.Task{}, err
	}

	m, err := taskguard.Update(ws, role, t, who.ID, p, s.now())
	s.record(updateOp(t, who), err)
	if err != nil {
		return models.Task{}, err
	}
	return s.tasks.Apply(ctx, taskID, m)
}

// AttachImage records an attachment on a task. Same permission as UpdateTask.
func (s *Service) AttachImage(ctx context.Context, who models.Identity, taskID primitive.ObjectID, url, name string) (models.Task, error) {
	t, _, role, err := s.loadTask(ctx, taskID, who)
	if err != nil {
		return models.Task{}, err
	}

	m, err := taskguard.AttachImage(role, t, who.ID, url, name, s.now())
	s.record(updateOp(t, who), err)
	if err != nil {
		return models.Task{}, err
	}
	return s.tasks.Apply(ctx, taskID, m)
}

// DeleteTask removes a task. Admin only, whoever the assignee is.
func (s *Service) DeleteTask(ctx context.Context, who models.Identity, taskID primitive.ObjectID) error {
	_, _, role, err := s.loadTask(ctx, taskID, who)
	if err != nil {
		return err
	}

	err = taskguard.AuthorizeDelete(role)
	s.record(workspacepolicy.OpDeleteTask, err)
	if err != nil {
		return err
	}

	n, err := s.tasks.Delete(ctx, taskID)
	if err != nil {
		return err
	}
	if n == 0 {
		return errTaskNotFound
	}
	s.log.Info("task deleted",
		zap.String("task_id", taskID.Hex()),
		zap.String("by", who.ID.Hex()))
	return nil
}

func updateOp(t models.Task, who models.Identity) workspacepolicy.Operation {
	if t.IsAssignedTo(who.ID) {
		return workspacepolicy.OpUpdateTask
	}
	return workspacepolicy.OpUpdateTaskUnassigned
}
