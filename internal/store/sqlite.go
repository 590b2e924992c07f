package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/pulseboard/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS projects (
	pos  INTEGER PRIMARY KEY AUTOINCREMENT,
	id   TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	pos        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL,
	assignee   TEXT NOT NULL,
	due_date   TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	project_id TEXT,
	notes      TEXT NOT NULL
);
`

// SQLitePersister is the alternative persistence backend. It keeps the same
// replace-the-whole-collection contract as the JSON files, but each save is
// a single transaction, so a crash mid-write cannot leave a torn collection.
type SQLitePersister struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent read access
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// Safe to call against an existing database; the schema is idempotent.
func OpenSQLite(path string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection
	// avoids SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLitePersister{db: db}, nil
}

// Close closes the database connection.
func (p *SQLitePersister) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *SQLitePersister) LoadProjects() ([]model.Project, error) {
	rows, err := p.db.Query(`SELECT id, name FROM projects ORDER BY pos ASC`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var pr model.Project
		if err := rows.Scan(&pr.ID, &pr.Name); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (p *SQLitePersister) LoadTasks() ([]model.Task, error) {
	rows, err := p.db.Query(`
		SELECT id, title, status, assignee, due_date, updated_at, project_id, notes
		FROM tasks ORDER BY pos ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var (
			t         model.Task
			updatedAt string
			projectID sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.Assignee, &t.DueDate, &updatedAt, &projectID, &t.Notes); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for %s: %w", t.ID, err)
		}
		t.UpdatedAt = ts
		if projectID.Valid {
			t.ProjectID = &projectID.String
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// SaveProjects replaces the projects table with the given collection.
func (p *SQLitePersister) SaveProjects(projects []model.Project) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("save projects: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.Exec(`DELETE FROM projects`); err != nil {
		return fmt.Errorf("save projects: clear: %w", err)
	}
	for _, pr := range projects {
		if _, err := tx.Exec(`INSERT INTO projects (id, name) VALUES (?, ?)`, pr.ID, pr.Name); err != nil {
			return fmt.Errorf("save projects: insert %s: %w", pr.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save projects: commit: %w", err)
	}
	return nil
}

// SaveTasks replaces the tasks table with the given collection.
func (p *SQLitePersister) SaveTasks(tasks []model.Task) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("save tasks: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("save tasks: clear: %w", err)
	}
	for _, t := range tasks {
		var projectID any
		if t.ProjectID != nil {
			projectID = *t.ProjectID
		}
		_, err := tx.Exec(`
			INSERT INTO tasks (id, title, status, assignee, due_date, updated_at, project_id, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.Title, string(t.Status), t.Assignee, t.DueDate, t.UpdatedAt.Format(time.RFC3339Nano), projectID, t.Notes)
		if err != nil {
			return fmt.Errorf("save tasks: insert %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save tasks: commit: %w", err)
	}
	return nil
}
