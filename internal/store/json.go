package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/pulseboard/internal/model"
)

const (
	projectsFile = "projects.json"
	tasksFile    = "tasks.json"
)

// JSONPersister mirrors each collection to a JSON array file under a
// directory. A missing file reads as an empty collection; the file appears
// on the first save. Every save rewrites the whole file in place - a crash
// mid-write can corrupt it, an accepted limitation at this scale.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates the data directory if needed.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) LoadProjects() ([]model.Project, error) {
	var projects []model.Project
	if err := p.load(projectsFile, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (p *JSONPersister) LoadTasks() ([]model.Task, error) {
	var tasks []model.Task
	if err := p.load(tasksFile, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (p *JSONPersister) SaveProjects(projects []model.Project) error {
	if projects == nil {
		projects = []model.Project{}
	}
	return p.save(projectsFile, projects)
}

func (p *JSONPersister) SaveTasks(tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return p.save(tasksFile, tasks)
}

func (p *JSONPersister) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (p *JSONPersister) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(p.dir, name), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
