package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// taskIDPrefix prefixes every generated task id.
const taskIDPrefix = "task-"

// Task represents one card on the board.
type Task struct {
	ID     string
	Title  string
	Column ColumnID
	Order  int
	Color  string
}

// TaskInput holds input values for task construction.
type TaskInput struct {
	ID     string
	Title  string
	Column ColumnID
	Order  int
	Color  string
}

// NewTask validates input and constructs a task.
func NewTask(in TaskInput) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	in.Column = NormalizeColumnID(in.Column)
	in.Color = strings.TrimSpace(in.Color)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.Column == "" {
		return Task{}, ErrInvalidColumn
	}
	if in.Order < 0 {
		return Task{}, ErrInvalidOrder
	}

	return Task{
		ID:     in.ID,
		Title:  in.Title,
		Column: in.Column,
		Order:  in.Order,
		Color:  in.Color,
	}, nil
}

// NewTaskID builds a task id that embeds the creation timestamp.
func NewTaskID(now time.Time, suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return fmt.Sprintf("%s%d", taskIDPrefix, now.UnixMilli())
	}
	return fmt.Sprintf("%s%d-%s", taskIDPrefix, now.UnixMilli(), suffix)
}

// TaskCreatedAt recovers the creation timestamp embedded in a task id.
func TaskCreatedAt(id string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(id, taskIDPrefix)
	if !ok {
		return time.Time{}, false
	}
	millis, _, _ := strings.Cut(rest, "-")
	v, err := strconv.ParseInt(millis, 10, 64)
	if err != nil || v < 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(v).UTC(), true
}
