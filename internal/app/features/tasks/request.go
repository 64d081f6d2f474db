package tasks

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/jsonio"
	"github.com/dalemusser/taskhub/internal/app/system/taskguard"
)

// nullable tells an absent field apart from an explicit null.
type nullable struct {
	Set   bool
	Value string
}

func (n *nullable) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = ""
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// cleared reports whether the field was sent as null or "".
func (n nullable) cleared() bool {
	return n.Set && strings.TrimSpace(n.Value) == ""
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
	AssignedTo  string `json:"assigned_to"`
}

func (req createRequest) toNewTask() (taskguard.NewTask, error) {
	due, err := parseDate(req.DueDate)
	if err != nil {
		return taskguard.NewTask{}, err
	}
	assignee, err := jsonio.ObjectID(req.AssignedTo, "assignee")
	if err != nil {
		return taskguard.NewTask{}, err
	}
	return taskguard.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Status:      strings.TrimSpace(req.Status),
		Priority:    strings.TrimSpace(req.Priority),
		DueDate:     due,
		AssignedTo:  assignee,
	}, nil
}

// patchRequest is a partial update. due_date and assigned_to are cleared
// by sending null or "".
type patchRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
	Priority    *string  `json:"priority"`
	DueDate     nullable `json:"due_date"`
	AssignedTo  nullable `json:"assigned_to"`
	Comment     *string  `json:"comment"`
}

func (req patchRequest) toPatch() (taskguard.Patch, error) {
	p := taskguard.Patch{
		Title:       req.Title,
		Description: req.Description,
		Status:      trimmed(req.Status),
		Priority:    trimmed(req.Priority),
		Comment:     req.Comment,
	}

	switch {
	case req.DueDate.cleared():
		p.ClearDueDate = true
	case req.DueDate.Set:
		due, err := parseDate(req.DueDate.Value)
		if err != nil {
			return taskguard.Patch{}, err
		}
		p.DueDate = due
	}

	switch {
	case req.AssignedTo.cleared():
		p.ClearAssignee = true
	case req.AssignedTo.Set:
		a, err := jsonio.ObjectID(req.AssignedTo.Value, "assignee")
		if err != nil {
			return taskguard.Patch{}, err
		}
		p.AssignedTo = a
	}
	return p, nil
}

type imageRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
// Empty input yields nil.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.Validation("Invalid due date.")
}
