package domain

import (
	"slices"
	"strings"
)

// DefaultProjectName names the project synthesized for an empty store.
const DefaultProjectName = "Default Project"

// Project represents one named, independently ordered task collection.
type Project struct {
	ID    string
	Name  string
	Tasks []Task
}

// NewProject constructs a project with an empty task list.
func NewProject(id, name string) (Project, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Project{}, ErrInvalidID
	}
	if name == "" {
		return Project{}, ErrInvalidName
	}
	return Project{ID: id, Name: name, Tasks: []Task{}}, nil
}

// Clone deep-copies the project.
func (p Project) Clone() Project {
	p.Tasks = slices.Clone(p.Tasks)
	if p.Tasks == nil {
		p.Tasks = []Task{}
	}
	return p
}

// TaskIndex returns the physical index of a task, or -1.
func (p Project) TaskIndex(taskID string) int {
	return slices.IndexFunc(p.Tasks, func(t Task) bool { return t.ID == taskID })
}

// ColumnTasks returns the tasks of one column sorted by order.
func (p Project) ColumnTasks(col ColumnID) []Task {
	out := make([]Task, 0)
	for _, t := range p.Tasks {
		if t.Column == col {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b Task) int { return a.Order - b.Order })
	return out
}

// HasOpenTasks reports whether any task sits outside the completed column.
func (p Project) HasOpenTasks(layout Layout) bool {
	return slices.ContainsFunc(p.Tasks, func(t Task) bool { return !layout.IsCompleted(t.Column) })
}

// AppData is the root of all persisted board state.
type AppData struct {
	Projects        []Project
	ActiveProjectID string
}

// Clone deep-copies the app data.
func (d AppData) Clone() AppData {
	out := AppData{ActiveProjectID: d.ActiveProjectID, Projects: make([]Project, 0, len(d.Projects))}
	for _, p := range d.Projects {
		out.Projects = append(out.Projects, p.Clone())
	}
	return out
}

// ProjectIndex returns the physical index of a project, or -1.
func (d AppData) ProjectIndex(id string) int {
	return slices.IndexFunc(d.Projects, func(p Project) bool { return p.ID == id })
}
