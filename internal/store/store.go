// Package store owns the canonical project and task collections.
//
// All mutations funnel through a single mutex so read-modify-write sequences
// never interleave. Each mutation rewrites the affected collection through
// the configured Persister before the in-memory state is committed, so a
// failed write leaves memory and disk agreeing on the previous state and the
// error reaches the caller.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/pulseboard/internal/model"
)

// ErrNotFound is returned when an update or delete references an unknown id.
var ErrNotFound = errors.New("not found")

// DefaultProjectName is used when a project is created with an empty name.
const DefaultProjectName = "Untitled Project"

// Persister mirrors the in-memory collections to durable storage. Each Save
// call replaces the whole collection; there is no incremental diffing.
type Persister interface {
	LoadProjects() ([]model.Project, error)
	LoadTasks() ([]model.Task, error)
	SaveProjects([]model.Project) error
	SaveTasks([]model.Task) error
}

// Store holds the collections and serializes every operation.
type Store struct {
	mu       sync.Mutex
	persist  Persister
	projects []model.Project
	tasks    []model.Task
	ids      *idClock
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the clock used for updatedAt stamps and id generation.
// Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
		s.ids.now = now
	}
}

// Open loads both collections from the persister. A load failure degrades to
// an empty collection with a warning rather than failing startup: the files
// may legitimately not exist yet. Write failures are never degraded.
func Open(p Persister, opts ...Option) *Store {
	s := &Store{
		persist: p,
		now:     time.Now,
	}
	s.ids = newIDClock(time.Now)
	for _, opt := range opts {
		opt(s)
	}

	projects, err := p.LoadProjects()
	if err != nil {
		slog.Warn("loading projects, starting empty", "error", err)
		projects = nil
	}
	tasks, err := p.LoadTasks()
	if err != nil {
		slog.Warn("loading tasks, starting empty", "error", err)
		tasks = nil
	}
	s.projects = projects
	s.tasks = tasks
	return s
}

// ListProjects returns a copy of all projects in insertion order.
func (s *Store) ListProjects() []model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// ListTasks returns tasks in insertion order. A non-empty projectID keeps
// only tasks assigned to that exact project.
func (s *Store) ListTasks(projectID string) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if projectID == "" {
		out := make([]model.Task, len(s.tasks))
		copy(out, s.tasks)
		return out
	}

	out := make([]model.Task, 0)
	for _, t := range s.tasks {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}

// CreateProject assigns a fresh id, persists, and returns the new record.
// An empty name defaults to "Untitled Project".
func (s *Store) CreateProject(name string) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		name = DefaultProjectName
	}
	p := model.Project{ID: s.ids.ProjectID(), Name: name}

	next := append(append([]model.Project(nil), s.projects...), p)
	if err := s.persist.SaveProjects(next); err != nil {
		return model.Project{}, fmt.Errorf("persist projects: %w", err)
	}
	s.projects = next
	return p, nil
}

// DeleteProject removes the project and every task assigned to it. Deleting
// an unknown id succeeds without effect (idempotent by design). The removed
// project is returned when one existed, nil otherwise.
func (s *Store) DeleteProject(id string) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed *model.Project
	nextProjects := make([]model.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if p.ID == id {
			cp := p
			removed = &cp
			continue
		}
		nextProjects = append(nextProjects, p)
	}

	nextTasks := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.ProjectID != nil && *t.ProjectID == id {
			continue
		}
		nextTasks = append(nextTasks, t)
	}

	if err := s.persist.SaveProjects(nextProjects); err != nil {
		return nil, fmt.Errorf("persist projects: %w", err)
	}
	if err := s.persist.SaveTasks(nextTasks); err != nil {
		return nil, fmt.Errorf("persist tasks: %w", err)
	}
	s.projects = nextProjects
	s.tasks = nextTasks
	return removed, nil
}

// CreateTask fills defaults, assigns a fresh id, persists, and returns the
// new record. Title is stored as given, empty included; there is no hard
// validation.
func (s *Store) CreateTask(draft model.TaskDraft) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := draft.Status
	if status == "" {
		status = model.StatusTodo
	}
	t := model.Task{
		ID:        s.ids.TaskID(),
		Title:     draft.Title,
		Status:    status,
		Assignee:  draft.Assignee,
		DueDate:   draft.DueDate,
		UpdatedAt: s.now(),
		ProjectID: draft.ProjectID,
		Notes:     draft.Notes,
	}

	next := append(append([]model.Task(nil), s.tasks...), t)
	if err := s.persist.SaveTasks(next); err != nil {
		return model.Task{}, fmt.Errorf("persist tasks: %w", err)
	}
	s.tasks = next
	return t, nil
}

// UpdateTask merges the patch over the existing record, refreshes UpdatedAt,
// persists, and returns the merged record. Returns ErrNotFound for unknown ids.
func (s *Store) UpdateTask(id string, patch model.TaskPatch) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, t := range s.tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.Task{}, ErrNotFound
	}

	merged := patch.Apply(s.tasks[idx])
	merged.UpdatedAt = s.now()

	next := make([]model.Task, len(s.tasks))
	copy(next, s.tasks)
	next[idx] = merged

	if err := s.persist.SaveTasks(next); err != nil {
		return model.Task{}, fmt.Errorf("persist tasks: %w", err)
	}
	s.tasks = next
	return merged, nil
}

// DeleteTask removes and returns the task, or ErrNotFound.
func (s *Store) DeleteTask(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, t := range s.tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.Task{}, ErrNotFound
	}

	removed := s.tasks[idx]
	next := make([]model.Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:idx]...)
	next = append(next, s.tasks[idx+1:]...)

	if err := s.persist.SaveTasks(next); err != nil {
		return model.Task{}, fmt.Errorf("persist tasks: %w", err)
	}
	s.tasks = next
	return removed, nil
}
