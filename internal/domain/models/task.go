// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Canonical task status values.
const (
	TaskStatusTodo       = "To Do"
	TaskStatusInProgress = "In Progress"
	TaskStatusDone       = "Done"
)

// Canonical task priority values.
const (
	TaskPriorityLow    = "Low"
	TaskPriorityMedium = "Medium"
	TaskPriorityHigh   = "High"
)

// TaskStatuses and TaskPriorities are the closed value sets for validation.
var (
	TaskStatuses   = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}
	TaskPriorities = []string{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh}
)

// IsValidTaskStatus reports whether s is one of TaskStatuses (exact match).
func IsValidTaskStatus(s string) bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidTaskPriority reports whether p is one of TaskPriorities (exact match).
func IsValidTaskPriority(p string) bool {
	for _, v := range TaskPriorities {
		if v == p {
			return true
		}
	}
	return false
}

// Task is a unit of work inside a workspace.
//
// NOTE:
//   - Comments are append-only; authorship comes from the authenticated caller.
//   - Images record where an attachment lives; the file itself is stored elsewhere.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID  `bson:"workspace_id" json:"workspace_id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"created_by" json:"created_by"`
	Status      string              `bson:"status" json:"status"`
	Priority    string              `bson:"priority" json:"priority"`
	DueDate     *time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`
	Comments    []Comment           `bson:"comments" json:"comments"`
	Images      []Image             `bson:"images" json:"images"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsAssignedTo reports whether userID is the task's current assignee.
func (t Task) IsAssignedTo(userID primitive.ObjectID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// Comment is one entry in a task's discussion.
type Comment struct {
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Image is an attachment reference.
type Image struct {
	URL        string    `bson:"url" json:"url"`
	Name       string    `bson:"name" json:"name"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// TaskFilter narrows a task listing. Empty fields match everything.
// Query is a case-insensitive substring of the title.
type TaskFilter struct {
	Status   string
	Priority string
	Query    string
}
