// Package workspacepolicy is the decision table for workspace-scoped operations.
//
// Authorization rules:
//   - Admins can do everything, including managing the workspace and its members
//   - Members can view tasks, create tasks, and update tasks assigned to them
//   - Viewers can only view tasks
//   - Callers with no membership can do nothing, not even view
//
// Assignee status only ever adds permission for Members. It never reduces
// what an Admin can do and never grants anything to a Viewer.
//
// The functions here are pure; resolving the caller's role is the job of
// the access resolver.
package workspacepolicy

import "github.com/dalemusser/taskhub/internal/domain/models"

// Operation is a guarded workspace or task action.
type Operation int

const (
	// OpManageWorkspace covers rename, delete, invite, and add/remove/re-role member.
	OpManageWorkspace Operation = iota
	OpCreateTask
	// OpUpdateTaskUnassigned is updating or deleting a task the caller is not assigned to.
	OpUpdateTaskUnassigned
	// OpUpdateTask is updating a task; the assignee flag decides Member access.
	OpUpdateTask
	OpDeleteTask
	OpViewTasks
)

// Operations lists every guarded operation.
var Operations = []Operation{
	OpManageWorkspace,
	OpCreateTask,
	OpUpdateTaskUnassigned,
	OpUpdateTask,
	OpDeleteTask,
	OpViewTasks,
}

func (op Operation) String() string {
	switch op {
	case OpManageWorkspace:
		return "manage_workspace"
	case OpCreateTask:
		return "create_task"
	case OpUpdateTaskUnassigned:
		return "update_task_unassigned"
	case OpUpdateTask:
		return "update_task"
	case OpDeleteTask:
		return "delete_task"
	case OpViewTasks:
		return "view_tasks"
	default:
		return "unknown"
	}
}

// Allowed reports whether role may perform op. isAssignee is whether the
// caller is the assignee of the task in question; it is ignored for
// operations that are not about a specific task.
func Allowed(role models.Role, op Operation, isAssignee bool) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleMember:
		switch op {
		case OpCreateTask, OpViewTasks:
			return true
		case OpUpdateTask:
			return isAssignee
		default:
			return false
		}
	case models.RoleViewer:
		return op == OpViewTasks
	default:
		// No membership: no access at all.
		return false
	}
}

// CanManageWorkspace reports whether role may rename, delete, invite to,
// or change the membership of a workspace.
func CanManageWorkspace(role models.Role) bool {
	return Allowed(role, OpManageWorkspace, false)
}

// CanCreateTask reports whether role may create tasks.
func CanCreateTask(role models.Role) bool {
	return Allowed(role, OpCreateTask, false)
}

// CanUpdateTask reports whether role may update a task, given whether the
// caller is that task's assignee.
func CanUpdateTask(role models.Role, isAssignee bool) bool {
	return Allowed(role, OpUpdateTask, isAssignee)
}

// CanDeleteTask reports whether role may delete tasks. Assignment does not matter.
func CanDeleteTask(role models.Role) bool {
	return Allowed(role, OpDeleteTask, false)
}

// CanViewTasks reports whether role may list and read tasks.
func CanViewTasks(role models.Role) bool {
	return Allowed(role, OpViewTasks, false)
}
