// Package model defines the project and task records shared by the store,
// the API surface, and the digest generator.
package model

import (
	"encoding/json"
	"time"
)

// Status is a task's lifecycle state. The canonical in-progress form is
// hyphenated; no other spellings are recognized anywhere in the system.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// ActiveStatuses are the not-yet-finished states that appear in digests.
var ActiveStatuses = []Status{StatusTodo, StatusInProgress}

// IsActive reports whether a task in this status belongs in the digest.
func (s Status) IsActive() bool {
	return s == StatusTodo || s == StatusInProgress
}

// Project is a named container for tasks.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Task is a single tracked item. ProjectID is nil for unassigned tasks.
// DueDate is an ISO calendar date ("2006-01-02") or empty.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	Assignee  string    `json:"assignee"`
	DueDate   string    `json:"dueDate"`
	UpdatedAt time.Time `json:"updatedAt"`
	ProjectID *string   `json:"projectId"`
	Notes     string    `json:"notes"`
}

// TaskDraft holds the caller-supplied fields for a new task. Title is not
// enforced (a titleless task is stored as-is, a documented gap). Zero-value
// fields fall back to defaults: status "todo", everything else empty.
type TaskDraft struct {
	Title     string  `json:"title"`
	Status    Status  `json:"status"`
	Assignee  string  `json:"assignee"`
	DueDate   string  `json:"dueDate"`
	ProjectID *string `json:"projectId"`
	Notes     string  `json:"notes"`
}

// TaskPatch is a partial update. A nil pointer means "leave unchanged".
//
// ProjectID needs one extra bit: a PUT body may set projectId to an explicit
// null (unassign) or omit it entirely (keep). ProjectIDSet distinguishes the
// two; when it is true and ProjectID is nil, the task becomes unassigned.
// No referential check is made against existing projects on update.
type TaskPatch struct {
	Title        *string
	Status       *Status
	Assignee     *string
	DueDate      *string
	Notes        *string
	ProjectID    *string
	ProjectIDSet bool
}

// UnmarshalJSON records field presence so absent and null projectId values
// are told apart.
func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title     *string         `json:"title"`
		Status    *Status         `json:"status"`
		Assignee  *string         `json:"assignee"`
		DueDate   *string         `json:"dueDate"`
		Notes     *string         `json:"notes"`
		ProjectID json.RawMessage `json:"projectId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Title = raw.Title
	p.Status = raw.Status
	p.Assignee = raw.Assignee
	p.DueDate = raw.DueDate
	p.Notes = raw.Notes

	if raw.ProjectID != nil {
		p.ProjectIDSet = true
		if string(raw.ProjectID) != "null" {
			var id string
			if err := json.Unmarshal(raw.ProjectID, &id); err != nil {
				return err
			}
			p.ProjectID = &id
		}
	}
	return nil
}

// Apply merges the patch over a task, leaving absent fields untouched.
// The caller is responsible for refreshing UpdatedAt.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.ProjectIDSet {
		t.ProjectID = p.ProjectID
	}
	return t
}
