package app

import (
	"errors"
	"fmt"
)

// ErrNotFound and related errors describe recoverable runtime failures.
var (
	ErrNotFound      = errors.New("not found")
	ErrGestureActive = errors.New("drag gesture already active")
	ErrNoGesture     = errors.New("no drag gesture active")
)

// PersistenceError reports a failed snapshot write. In-memory state stays authoritative.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *PersistenceError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying storage error.
func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// notFound wraps ErrNotFound with the missing entity.
func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
