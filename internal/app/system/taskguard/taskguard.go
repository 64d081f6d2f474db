// Package taskguard authorizes task mutations and turns validated requests
// into store-agnostic changes.
//
// Authorization rules:
//   - Create: CreateTask (Admin, Member). A named assignee must be a member.
//   - Update and attach: UpdateTask, with isAssignee = task.AssignedTo == caller.
//   - Delete: DeleteTask (Admin only), whatever the assignee.
//   - View: ViewTasks (any member).
//
// The caller's role must come from the access resolver; nothing here looks
// up membership by other means.
package taskguard

import (
	"path"
	"strings"
	"time"

	"github.com/dalemusser/taskhub/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewTask is the input for task creation.
type NewTask struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	AssignedTo  *primitive.ObjectID
}

// Patch is a partial task update. Nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string

	DueDate      *time.Time
	ClearDueDate bool

	AssignedTo    *primitive.ObjectID
	ClearAssignee bool

	// Comment is appended; it never replaces existing comments.
	Comment *string
}

// Mutation is the validated effect of a Patch or an attachment.
// Stores translate it into a single-document update.
type Mutation struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string

	DueDate      *time.Time
	UnsetDueDate bool

	AssignedTo    *primitive.ObjectID
	UnsetAssignee bool

	PushComment *models.Comment
	PushImage   *models.Image

	UpdatedAt time.Time
}

// ApplyTo returns t with the mutation applied.
func (m Mutation) ApplyTo(t models.Task) models.Task {
	if m.Title != nil {
		t.Title = *m.Title
	}
	if m.Description != nil {
		t.Description = *m.Description
	}
	if m.Status != nil {
		t.Status = *m.Status
	}
	if m.Priority != nil {
		t.Priority = *m.Priority
	}
	if m.UnsetDueDate {
		t.DueDate = nil
	} else if m.DueDate != nil {
		d := *m.DueDate
		t.DueDate = &d
	}
	if m.UnsetAssignee {
		t.AssignedTo = nil
	} else if m.AssignedTo != nil {
		a := *m.AssignedTo
		t.AssignedTo = &a
	}
	if m.PushComment != nil {
		t.Comments = append(append([]models.Comment(nil), t.Comments...), *m.PushComment)
	}
	if m.PushImage != nil {
		t.Images = append(append([]models.Image(nil), t.Images...), *m.PushImage)
	}
	t.UpdatedAt = m.UpdatedAt
	return t
}

// Create authorizes and validates a new task in ws, returning the task to
// insert. Status defaults to "To Do" and priority to "Medium".
func Create(ws models.Workspace, role models.Role, caller primitive.ObjectID, in NewTask, now time.Time) (models.Task, error) {
	if !workspacepolicy.CanCreateTask(role) {
		return models.Task{}, apperr.Forbidden("You do not have permission to create tasks in this workspace.")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, apperr.Validation("Title is required.")
	}
	status := models.TaskStatusTodo
	if in.Status != "" {
		if !models.IsValidTaskStatus(in.Status) {
			return models.Task{}, apperr.Validation("Invalid status.")
		}
		status = in.Status
	}
	priority := models.TaskPriorityMedium
	if in.Priority != "" {
		if !models.IsValidTaskPriority(in.Priority) {
			return models.Task{}, apperr.Validation("Invalid priority.")
		}
		priority = in.Priority
	}
	if in.AssignedTo != nil && !ws.HasMember(*in.AssignedTo) {
		return models.Task{}, apperr.Validation("Assignee must be a member of this workspace.")
	}

	t := models.Task{
		WorkspaceID: ws.ID,
		Title:       title,
		Description: htmlsanitize.PlainText(in.Description),
		CreatedBy:   caller,
		Status:      status,
		Priority:    priority,
		Comments:    []models.Comment{},
		Images:      []models.Image{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.AssignedTo != nil {
		a := *in.AssignedTo
		t.AssignedTo = &a
	}
	if in.DueDate != nil {
		d := in.DueDate.UTC()
		t.DueDate = &d
	}
	return t, nil
}

// AuthorizeUpdate checks whether caller, holding role, may edit t.
func AuthorizeUpdate(role models.Role, t models.Task, caller primitive.ObjectID) error {
	if !workspacepolicy.CanUpdateTask(role, t.IsAssignedTo(caller)) {
		return apperr.Forbidden("You do not have permission to update this task.")
	}
	return nil
}

// AuthorizeDelete checks whether role may delete tasks.
func AuthorizeDelete(role models.Role) error {
	if !workspacepolicy.CanDeleteTask(role) {
		return apperr.Forbidden("Only workspace admins can delete tasks.")
	}
	return nil
}

// AuthorizeView checks whether role may read tasks.
func AuthorizeView(role models.Role) error {
	if !workspacepolicy.CanViewTasks(role) {
		return apperr.Forbidden("You do not have access to this workspace.")
	}
	return nil
}

// Update authorizes p against t and returns the mutation to commit.
// ws must be the task's workspace.
func Update(ws models.Workspace, role models.Role, t models.Task, caller primitive.ObjectID, p Patch, now time.Time) (Mutation, error) {
	if err := AuthorizeUpdate(role, t, caller); err != nil {
		return Mutation{}, err
	}

	m := Mutation{UpdatedAt: now}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Mutation{}, apperr.Validation("Title cannot be blank.")
		}
		m.Title = &title
	}
	if p.Description != nil {
		d := htmlsanitize.PlainText(*p.Description)
		m.Description = &d
	}
	if p.Status != nil {
		if !models.IsValidTaskStatus(*p.Status) {
			return Mutation{}, apperr.Validation("Invalid status.")
		}
		s := *p.Status
		m.Status = &s
	}
	if p.Priority != nil {
		if !models.IsValidTaskPriority(*p.Priority) {
			return Mutation{}, apperr.Validation("Invalid priority.")
		}
		pr := *p.Priority
		m.Priority = &pr
	}

	switch {
	case p.ClearDueDate && p.DueDate != nil:
		return Mutation{}, apperr.Validation("Cannot set and clear the due date at once.")
	case p.ClearDueDate:
		m.UnsetDueDate = true
	case p.DueDate != nil:
		d := p.DueDate.UTC()
		m.DueDate = &d
	}

	switch {
	case p.ClearAssignee && p.AssignedTo != nil:
		return Mutation{}, apperr.Validation("Cannot set and clear the assignee at once.")
	case p.ClearAssignee:
		m.UnsetAssignee = true
	case p.AssignedTo != nil:
		if !ws.HasMember(*p.AssignedTo) {
			return Mutation{}, apperr.Validation("Assignee must be a member of this workspace.")
		}
		a := *p.AssignedTo
		m.AssignedTo = &a
	}

	// A comment that is empty after sanitizing is treated as absent.
	if p.Comment != nil {
		if text := htmlsanitize.PlainText(*p.Comment); text != "" {
			m.PushComment = &models.Comment{UserID: caller, Text: text, CreatedAt: now}
		}
	}

	return m, nil
}

type attachmentInput struct {
	URL string `validate:"required,httpurl" label:"Image URL"`
}

// AttachImage authorizes recording an attachment on t. The file itself is
// stored elsewhere; only its URL and display name are kept. A blank name
// falls back to the last path segment of the URL.
func AttachImage(role models.Role, t models.Task, caller primitive.ObjectID, url, name string, now time.Time) (Mutation, error) {
	if err := AuthorizeUpdate(role, t, caller); err != nil {
		return Mutation{}, err
	}
	url = strings.TrimSpace(url)
	if res := inputval.Validate(attachmentInput{URL: url}); res.HasErrors() {
		return Mutation{}, apperr.Validation(res.First())
	}
	name = htmlsanitize.PlainText(name)
	if name == "" {
		name = path.Base(strings.SplitN(url, "?", 2)[0])
	}
	return Mutation{
		PushImage: &models.Image{URL: url, Name: name, UploadedAt: now},
		UpdatedAt: now,
	}, nil
}
