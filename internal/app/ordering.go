package app

import (
	"fmt"
	"slices"

	"github.com/evanschultz/lanes/internal/domain"
)

// MoveOutcome describes one applied task move.
type MoveOutcome struct {
	Task         domain.Task
	FromColumn   domain.ColumnID
	Index        int
	HintResolved bool
}

// NextOrder returns the order value for a fresh append to a column.
func NextOrder(tasks []domain.Task, col domain.ColumnID) int {
	next := 0
	for _, t := range tasks {
		if t.Column == col && t.Order >= next {
			next = t.Order + 1
		}
	}
	return next
}

// RenumberColumn assigns 0..n-1 to the column's tasks in physical sequence and
// returns n.
func RenumberColumn(tasks []domain.Task, col domain.ColumnID) int {
	n := 0
	for i := range tasks {
		if tasks[i].Column != col {
			continue
		}
		tasks[i].Order = n
		n++
	}
	return n
}

// ResolveInsertionIndex returns the physical index at which a task entering col
// should be spliced in. tasks must already exclude the moved task. The second
// result reports whether a non-empty hint was honored.
func ResolveInsertionIndex(tasks []domain.Task, col domain.ColumnID, beforeID string) (int, bool) {
	if beforeID != "" {
		for i, t := range tasks {
			if t.ID == beforeID && t.Column == col {
				return i, true
			}
		}
	}
	for i := len(tasks) - 1; i >= 0; i-- {
		if tasks[i].Column == col {
			return i + 1, beforeID == ""
		}
	}
	return len(tasks), beforeID == ""
}

// MoveWithin splices a task out, retargets it to col, splices it back before
// beforeID and renumbers every touched column. The input slice is not modified.
// A hint naming the moved task itself keeps its current slot.
func MoveWithin(tasks []domain.Task, taskID string, col domain.ColumnID, beforeID string) ([]domain.Task, MoveOutcome, error) {
	idx := slices.IndexFunc(tasks, func(t domain.Task) bool { return t.ID == taskID })
	if idx < 0 {
		return nil, MoveOutcome{}, notFound("task", taskID)
	}
	if beforeID == taskID {
		beforeID = ""
		if tasks[idx].Column == col {
			beforeID = nextInColumn(tasks, idx)
		}
	}

	out := slices.Clone(tasks)
	moved := out[idx]
	out = slices.Delete(out, idx, idx+1)
	from := moved.Column
	moved.Column = col

	at, resolved := ResolveInsertionIndex(out, col, beforeID)
	out = slices.Insert(out, at, moved)

	RenumberColumn(out, col)
	if from != col {
		RenumberColumn(out, from)
	}
	return out, MoveOutcome{Task: out[at], FromColumn: from, Index: at, HintResolved: resolved}, nil
}

// RemoveTask deletes a task and renumbers its source column.
func RemoveTask(tasks []domain.Task, taskID string) ([]domain.Task, domain.Task, error) {
	idx := slices.IndexFunc(tasks, func(t domain.Task) bool { return t.ID == taskID })
	if idx < 0 {
		return nil, domain.Task{}, notFound("task", taskID)
	}
	removed := tasks[idx]
	out := slices.Delete(slices.Clone(tasks), idx, idx+1)
	RenumberColumn(out, removed.Column)
	return out, removed, nil
}

// NormalizeOrders rewrites a task list so the physical sequence within every
// column agrees with its order values, then renumbers each column densely.
// Tasks keep the physical slots their column already occupies.
func NormalizeOrders(tasks []domain.Task) {
	slots := map[domain.ColumnID][]int{}
	cols := make([]domain.ColumnID, 0)
	for i, t := range tasks {
		if _, ok := slots[t.Column]; !ok {
			cols = append(cols, t.Column)
		}
		slots[t.Column] = append(slots[t.Column], i)
	}
	for _, col := range cols {
		idxs := slots[col]
		members := make([]domain.Task, 0, len(idxs))
		for _, i := range idxs {
			members = append(members, tasks[i])
		}
		slices.SortStableFunc(members, func(a, b domain.Task) int { return a.Order - b.Order })
		for n, i := range idxs {
			tasks[i] = members[n]
			tasks[i].Order = n
		}
	}
}

// CheckDensity reports the first column whose orders are not exactly 0..n-1
// in physical sequence.
func CheckDensity(tasks []domain.Task) error {
	next := map[domain.ColumnID]int{}
	for _, t := range tasks {
		want := next[t.Column]
		if t.Order != want {
			return fmt.Errorf("column %q: task %q has order %d, want %d", t.Column, t.ID, t.Order, want)
		}
		next[t.Column] = want + 1
	}
	return nil
}

// nextInColumn returns the id of the next task after idx sharing its column.
func nextInColumn(tasks []domain.Task, idx int) string {
	col := tasks[idx].Column
	for i := idx + 1; i < len(tasks); i++ {
		if tasks[i].Column == col {
			return tasks[i].ID
		}
	}
	return ""
}
