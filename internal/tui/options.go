package tui

import (
	"time"

	"github.com/evanschultz/lanes/internal/app"
)

type Option func(*Model)

// WithDragBias sets the card insertion threshold fraction.
func WithDragBias(bias float64) Option {
	return func(m *Model) {
		m.dragBias = app.ClampDropBias(bias)
	}
}

// WithIdleTimeout sets how long a silent gesture survives before it is cancelled.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.idleTimeout = d
		}
	}
}

// WithConfirmDeleteProject toggles the confirmation prompt for deleting
// projects that still hold unfinished tasks.
func WithConfirmDeleteProject(enabled bool) Option {
	return func(m *Model) {
		m.confirmDeleteProject = enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

func WithLogger(logger app.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}
