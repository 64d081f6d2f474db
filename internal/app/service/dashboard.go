package service

import (
	"context"
	"math"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnassignedKey is the TasksPerUser bucket for tasks with no assignee.
const UnassignedKey = "Unassigned"

// DashboardStats summarizes the tasks of every workspace the caller belongs to.
type DashboardStats struct {
	TotalTasks     int            `json:"totalTasks"`
	CompletedTasks int            `json:"completedTasks"`
	PendingTasks   int            `json:"pendingTasks"`
	OverdueTasks   int            `json:"overdueTasks"`
	CompletionRate int            `json:"completionRate"` // whole percent
	TasksPerUser   map[string]int `json:"tasksPerUser"`   // assignee id hex, or UnassignedKey
}

// DashboardStats computes task counts across the caller's workspaces.
// A task is overdue when it is not Done and its due date has passed.
func (s *Service) DashboardStats(ctx context.Context, who models.Identity) (DashboardStats, error) {
	list, err := s.access.Memberships(ctx, who)
	if err != nil {
		return DashboardStats{}, err
	}
	ids := make([]primitive.ObjectID, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.Workspace.ID)
	}

	stats := DashboardStats{TasksPerUser: map[string]int{}}
	if len(ids) == 0 {
		return stats, nil
	}

	tasks, err := s.tasks.ListForWorkspaces(ctx, ids)
	if err != nil {
		return DashboardStats{}, err
	}

	now := s.now()
	for _, t := range tasks {
		stats.TotalTasks++
		if t.Status == models.TaskStatusDone {
			stats.CompletedTasks++
		} else {
			stats.PendingTasks++
			if t.DueDate != nil && t.DueDate.Before(now) {
				stats.OverdueTasks++
			}
		}

		key := UnassignedKey
		if t.AssignedTo != nil {
			key = t.AssignedTo.Hex()
		}
		stats.TasksPerUser[key]++
	}
	if stats.TotalTasks > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100))
	}
	return stats, nil
}
