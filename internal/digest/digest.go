// Package digest renders the periodic plain-text summary of active tasks.
//
// This is the fiddliest formatting in the system: the header timestamp and
// every due-date label are computed against one fixed timezone, while
// calendar-day differences are taken on UTC-normalized dates so a DST
// transition inside the window cannot skew the day count.
package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roach88/pulseboard/internal/model"
)

// DefaultTimezone anchors "today" and the header clock.
const DefaultTimezone = "Europe/London"

const introLine = "Here's what's still open:"

// unassignedGroup collects active tasks whose projectId doesn't resolve.
const unassignedGroup = "Unassigned"

// Reader is the read-only store access the generator needs.
type Reader interface {
	ListProjects() []model.Project
	ListTasks(projectID string) []model.Task
}

// Generator renders digests from live store state.
type Generator struct {
	reader Reader
	loc    *time.Location
}

// New creates a Generator rendering in the given location.
func New(r Reader, loc *time.Location) *Generator {
	return &Generator{reader: r, loc: loc}
}

// Generate renders the digest for the given instant.
//
// Layout: a header line with the localized time and date, the constant intro
// line, then one block per project group in first-encountered task order.
// With no active tasks the groups collapse to a single "None!" line.
func (g *Generator) Generate(now time.Time) string {
	local := now.In(g.loc)

	var sb strings.Builder
	fmt.Fprintf(&sb, "It's %s on %s %s %s.\n",
		local.Format("3:04pm"),
		local.Weekday(),
		humanize.Ordinal(local.Day()),
		local.Month(),
	)
	sb.WriteString(introLine + "\n")

	names := make(map[string]string, len(g.reader.ListProjects()))
	for _, p := range g.reader.ListProjects() {
		names[p.ID] = p.Name
	}

	// Group active tasks by resolved project name, preserving the order in
	// which each group is first encountered while scanning tasks.
	var order []string
	groups := make(map[string][]model.Task)
	for _, t := range g.reader.ListTasks("") {
		if !t.Status.IsActive() {
			continue
		}
		group := unassignedGroup
		if t.ProjectID != nil {
			if name, ok := names[*t.ProjectID]; ok {
				group = name
			}
		}
		if _, seen := groups[group]; !seen {
			order = append(order, group)
		}
		groups[group] = append(groups[group], t)
	}

	if len(order) == 0 {
		sb.WriteString("None!\n")
		return sb.String()
	}

	today := local
	for _, group := range order {
		sb.WriteString("\n" + group + ":\n")
		for _, t := range groups[group] {
			sb.WriteString("- " + t.Title + " – " + string(t.Status))
			if label := dueLabel(t.DueDate, today); label != "" {
				sb.WriteString(" (" + label + ")")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// dueLabel formats a task's due date relative to "today" in the digest
// timezone. Within the coming week (today through today+6 inclusive) the
// label is the weekday name; anything else gets ordinal day plus month.
// Unset or unparseable dates get no label.
func dueLabel(dueDate string, today time.Time) string {
	if dueDate == "" {
		return ""
	}
	due, err := time.Parse("2006-01-02", dueDate)
	if err != nil {
		return ""
	}

	// Normalize both calendar dates to UTC midnights before differencing;
	// subtracting zoned times straddling a DST change would be off by an hour.
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	days := int(d.Sub(t).Hours() / 24)

	if days >= 0 && days <= 6 {
		return fmt.Sprintf("due %s", d.Weekday())
	}
	return fmt.Sprintf("due %s %s", humanize.Ordinal(d.Day()), d.Month())
}
