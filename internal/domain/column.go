package domain

import (
	"slices"
	"strings"
)

// ColumnID identifies one workflow-stage bucket.
type ColumnID string

// Default column identifiers.
const (
	ColumnTodo       ColumnID = "todo"
	ColumnInProgress ColumnID = "in-progress"
	ColumnCompleted  ColumnID = "completed"
)

// ColumnSpec describes one board column.
type ColumnSpec struct {
	ID   ColumnID
	Name string
}

// Layout is the fixed, ordered column set shared by every project.
type Layout struct {
	Columns   []ColumnSpec
	Default   ColumnID
	Completed ColumnID
}

// DefaultLayout returns the three-stage board layout.
func DefaultLayout() Layout {
	return Layout{
		Columns: []ColumnSpec{
			{ID: ColumnTodo, Name: "To Do"},
			{ID: ColumnInProgress, Name: "In Progress"},
			{ID: ColumnCompleted, Name: "Completed"},
		},
		Default:   ColumnTodo,
		Completed: ColumnCompleted,
	}
}

// NewLayout validates column specs and resolves the default/completed columns.
// An empty defaultCol selects the first column; an empty completedCol selects the last.
func NewLayout(columns []ColumnSpec, defaultCol, completedCol ColumnID) (Layout, error) {
	if len(columns) == 0 {
		return Layout{}, ErrInvalidLayout
	}
	out := make([]ColumnSpec, 0, len(columns))
	seen := map[ColumnID]struct{}{}
	for _, col := range columns {
		col.ID = NormalizeColumnID(col.ID)
		col.Name = strings.TrimSpace(col.Name)
		if col.ID == "" {
			return Layout{}, ErrInvalidColumn
		}
		if col.Name == "" {
			return Layout{}, ErrInvalidName
		}
		if _, ok := seen[col.ID]; ok {
			return Layout{}, ErrInvalidLayout
		}
		seen[col.ID] = struct{}{}
		out = append(out, col)
	}
	layout := Layout{Columns: out, Default: NormalizeColumnID(defaultCol), Completed: NormalizeColumnID(completedCol)}
	if layout.Default == "" {
		layout.Default = out[0].ID
	}
	if layout.Completed == "" {
		layout.Completed = out[len(out)-1].ID
	}
	if !layout.Has(layout.Default) || !layout.Has(layout.Completed) {
		return Layout{}, ErrInvalidColumn
	}
	return layout, nil
}

// NormalizeColumnID trims and lowercases a column identifier.
func NormalizeColumnID(id ColumnID) ColumnID {
	return ColumnID(strings.ToLower(strings.TrimSpace(string(id))))
}

// Has reports whether the layout contains a column.
func (l Layout) Has(id ColumnID) bool {
	return slices.ContainsFunc(l.Columns, func(c ColumnSpec) bool { return c.ID == id })
}

// IDs returns column identifiers in display order.
func (l Layout) IDs() []ColumnID {
	out := make([]ColumnID, 0, len(l.Columns))
	for _, col := range l.Columns {
		out = append(out, col.ID)
	}
	return out
}

// Name returns the display name for a column, or the raw id when unknown.
func (l Layout) Name(id ColumnID) string {
	for _, col := range l.Columns {
		if col.ID == id {
			return col.Name
		}
	}
	return string(id)
}

// IsCompleted reports whether tasks in the column count as done.
func (l Layout) IsCompleted(id ColumnID) bool {
	return id == l.Completed
}
