package app

import (
	"context"
	"io"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/lanes/internal/domain"
)

// KeyValueStore is the synchronous local storage medium behind snapshots.
// Get returns ErrNotFound when the key has never been written.
type KeyValueStore interface {
	Get(context.Context, string) ([]byte, error)
	Put(context.Context, string, []byte) error
}

// SnapshotPersister loads and saves whole-board snapshots.
type SnapshotPersister interface {
	Load(context.Context) (domain.AppData, bool)
	Save(context.Context, domain.AppData) error
}

// ProjectTab is the render-facing summary of one project tab.
type ProjectTab struct {
	ID        string
	Name      string
	TaskCount int
	OpenCount int
}

// Renderer receives fresh ordered lists after every committing mutation and
// during drag previews.
type Renderer interface {
	RenderColumn(domain.ColumnID, []domain.Task)
	RenderTabs([]ProjectTab, string)
}

// NopRenderer discards render requests.
type NopRenderer struct{}

// RenderColumn implements Renderer.
func (NopRenderer) RenderColumn(domain.ColumnID, []domain.Task) {}

// RenderTabs implements Renderer.
func (NopRenderer) RenderTabs([]ProjectTab, string) {}

// Logger is the structured logging surface used by the app layer.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// discardLogger returns a logger that drops every event.
func discardLogger() Logger {
	return charmLog.New(io.Discard)
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// ConfirmFunc asks the user to confirm a destructive action.
type ConfirmFunc func(message string) bool
