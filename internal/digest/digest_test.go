package digest

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulseboard/internal/model"
)

// stubReader serves fixed collections without a real store.
type stubReader struct {
	projects []model.Project
	tasks    []model.Task
}

func (r *stubReader) ListProjects() []model.Project { return r.projects }

func (r *stubReader) ListTasks(projectID string) []model.Task {
	if projectID == "" {
		return r.tasks
	}
	var out []model.Task
	for _, t := range r.tasks {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

func ptr(s string) *string {
	return &s
}

// Monday 2nd March 2026, 09:05 GMT - away from any DST transition.
func fixedNow(t *testing.T) time.Time {
	return time.Date(2026, 3, 2, 9, 5, 0, 0, london(t))
}

func TestGenerate_FullDigest(t *testing.T) {
	reader := &stubReader{
		projects: []model.Project{
			{ID: "proj-1", Name: "Launch"},
			{ID: "proj-2", Name: "Website"},
		},
		tasks: []model.Task{
			{ID: "task-1", Title: "Write docs", Status: model.StatusTodo, DueDate: "2026-03-06", ProjectID: ptr("proj-1")},
			{ID: "task-2", Title: "Fix login", Status: model.StatusInProgress, ProjectID: ptr("proj-1")},
			{ID: "task-3", Title: "Ship blog post", Status: model.StatusTodo, DueDate: "2026-03-09", ProjectID: ptr("proj-2")},
			{ID: "task-4", Title: "Order stickers", Status: model.StatusTodo, DueDate: "2026-10-03", ProjectID: ptr("proj-gone")},
			{ID: "task-5", Title: "Old release", Status: model.StatusDone, ProjectID: ptr("proj-1")},
		},
	}

	got := New(reader, london(t)).Generate(fixedNow(t))

	g := goldie.New(t, goldie.WithNameSuffix(".golden"))
	g.Assert(t, "full", []byte(got))
}

func TestGenerate_NoActiveTasks(t *testing.T) {
	reader := &stubReader{
		projects: []model.Project{{ID: "proj-1", Name: "Launch"}},
		tasks: []model.Task{
			{ID: "task-1", Title: "Shipped", Status: model.StatusDone, ProjectID: ptr("proj-1")},
		},
	}

	got := New(reader, london(t)).Generate(fixedNow(t))

	g := goldie.New(t, goldie.WithNameSuffix(".golden"))
	g.Assert(t, "empty", []byte(got))
}

func TestGenerate_GroupOrderFollowsTaskScan(t *testing.T) {
	// Website's task appears first, so its group must lead even though
	// Launch was created first.
	reader := &stubReader{
		projects: []model.Project{
			{ID: "proj-1", Name: "Launch"},
			{ID: "proj-2", Name: "Website"},
		},
		tasks: []model.Task{
			{ID: "task-1", Title: "b", Status: model.StatusTodo, ProjectID: ptr("proj-2")},
			{ID: "task-2", Title: "a", Status: model.StatusTodo, ProjectID: ptr("proj-1")},
		},
	}

	got := New(reader, london(t)).Generate(fixedNow(t))

	website := strings.Index(got, "Website:")
	launch := strings.Index(got, "Launch:")
	require.NotEqual(t, -1, website)
	require.NotEqual(t, -1, launch)
	assert.Less(t, website, launch, "groups must follow first-encountered order:\n%s", got)
}

func TestGenerate_HeaderUsesDigestTimezone(t *testing.T) {
	// 16:30 UTC on 1st September is 5:30pm in London (BST).
	now := time.Date(2026, 9, 1, 16, 30, 0, 0, time.UTC)

	got := New(&stubReader{}, london(t)).Generate(now)

	lines := strings.Split(got, "\n")
	assert.Equal(t, "It's 5:30pm on Tuesday 1st September.", lines[0])
	assert.Equal(t, "Here's what's still open:", lines[1])
	assert.Equal(t, "None!", lines[2])
}

func TestDueLabel_Boundaries(t *testing.T) {
	today := time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC) // Monday

	tests := []struct {
		name    string
		dueDate string
		want    string
	}{
		{"no due date", "", ""},
		{"unparseable", "next tuesday", ""},
		{"due today", "2026-03-02", "due Monday"},
		{"mid window", "2026-03-06", "due Friday"},
		{"six days out is still weekday", "2026-03-08", "due Sunday"},
		{"seven days out is ordinal", "2026-03-09", "due 9th March"},
		{"overdue falls back to ordinal", "2026-03-01", "due 1st March"},
		{"far future", "2026-10-03", "due 3rd October"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dueLabel(tt.dueDate, today))
		})
	}
}

func TestDueLabel_DSTDoesNotSkewWindow(t *testing.T) {
	loc := london(t)

	// Thursday 26th March 2026; the clocks go forward on the 29th. A naive
	// zoned subtraction would make 2nd April look 6.96 days away and
	// mislabel it with a weekday.
	today := time.Date(2026, 3, 26, 9, 0, 0, 0, loc)

	assert.Equal(t, "due 2nd April", dueLabel("2026-04-02", today))
	assert.Equal(t, "due Wednesday", dueLabel("2026-04-01", today))
}

func TestDueLabel_OrdinalSuffixes(t *testing.T) {
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		dueDate string
		want    string
	}{
		{"2026-10-01", "due 1st October"},
		{"2026-10-02", "due 2nd October"},
		{"2026-10-03", "due 3rd October"},
		{"2026-10-11", "due 11th October"},
		{"2026-10-12", "due 12th October"},
		{"2026-10-13", "due 13th October"},
		{"2026-10-21", "due 21st October"},
		{"2026-10-31", "due 31st October"},
	}

	for _, tt := range tests {
		t.Run(tt.dueDate, func(t *testing.T) {
			assert.Equal(t, tt.want, dueLabel(tt.dueDate, today))
		})
	}
}
