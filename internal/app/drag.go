package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/evanschultz/lanes/internal/domain"
)

// DefaultIdleTimeout cancels a gesture that has seen no pointer activity.
const DefaultIdleTimeout = 30 * time.Second

// DragPhase is the state of a drag gesture.
type DragPhase int

// DragIdle and related constants enumerate gesture states.
const (
	DragIdle DragPhase = iota
	DragDragging
	DragDropped
	DragCancelled
)

// String returns a log-friendly name.
func (p DragPhase) String() string {
	switch p {
	case DragDragging:
		return "dragging"
	case DragDropped:
		return "dropped"
	case DragCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// gesture tracks the phase and activity timestamps shared by drag controllers.
type gesture struct {
	phase        DragPhase
	startedAt    time.Time
	lastActivity time.Time
	idleTimeout  time.Duration
}

func (g *gesture) begin(now time.Time) error {
	if g.phase != DragIdle {
		return fmt.Errorf("%w: phase %s", ErrGestureActive, g.phase)
	}
	g.phase = DragDragging
	g.startedAt = now
	g.lastActivity = now
	return nil
}

func (g *gesture) touch(now time.Time) {
	if now.After(g.lastActivity) {
		g.lastActivity = now
	}
}

func (g *gesture) expired(now time.Time) bool {
	return g.phase != DragIdle && g.idleTimeout > 0 && now.Sub(g.lastActivity) >= g.idleTimeout
}

func (g *gesture) reset() {
	g.phase = DragIdle
	g.startedAt = time.Time{}
	g.lastActivity = time.Time{}
}

// DragConfig holds configuration for task dragging.
type DragConfig struct {
	Bias        float64
	IdleTimeout time.Duration
	Logger      Logger
}

// DragSession is the scratch state of one task drag gesture.
type DragSession struct {
	ProjectID    string
	TaskID       string
	SourceColumn domain.ColumnID
	Ghost        string
	StartedAt    time.Time
	Target       DropTarget
	Hint         string
	previewed    []domain.ColumnID
}

// DropOutcome reports what a drop committed.
type DropOutcome int

// DropCancelled and related constants enumerate drop outcomes.
const (
	DropCancelled DropOutcome = iota
	DropMoved
	DropDeleted
)

// DropResult describes a completed drop.
type DropResult struct {
	Outcome    DropOutcome
	Task       domain.Task
	FromColumn domain.ColumnID
	ToColumn   domain.ColumnID
}

// DragController turns pointer gestures over board columns into previews and
// store mutations. The store is only mutated on drop.
type DragController struct {
	store   *Store
	layout  Layout
	bias    float64
	logger  Logger
	gesture gesture
	session *DragSession
}

// NewDragController constructs a task drag controller.
func NewDragController(store *Store, layout Layout, cfg DragConfig) *DragController {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = store.logger
	}
	return &DragController{
		store:   store,
		layout:  layout,
		bias:    ClampDropBias(cfg.Bias),
		logger:  cfg.Logger,
		gesture: gesture{idleTimeout: cfg.IdleTimeout},
	}
}

// Bias returns the threshold fraction in use.
func (d *DragController) Bias() float64 {
	return d.bias
}

// Phase returns the current gesture phase.
func (d *DragController) Phase() DragPhase {
	return d.gesture.phase
}

// Session returns a copy of the active session.
func (d *DragController) Session() (DragSession, bool) {
	if d.session == nil {
		return DragSession{}, false
	}
	out := *d.session
	out.previewed = slices.Clone(d.session.previewed)
	return out, true
}

// Begin starts dragging a task.
func (d *DragController) Begin(projectID, taskID, ghost string, now time.Time) (DragSession, error) {
	task, ok := d.store.Task(projectID, taskID)
	if !ok {
		return DragSession{}, notFound("task", taskID)
	}
	if err := d.gesture.begin(now); err != nil {
		return DragSession{}, err
	}
	d.session = &DragSession{
		ProjectID:    projectID,
		TaskID:       taskID,
		SourceColumn: task.Column,
		Ghost:        ghost,
		StartedAt:    now,
	}
	d.logger.Debug("drag started", "project", projectID, "task", taskID, "column", task.Column)
	return *d.session, nil
}

// Over updates the live preview for the pointer position. It reports whether
// anything was re-rendered; an unchanged hint renders nothing.
func (d *DragController) Over(target DropTarget, pointer Point, now time.Time) bool {
	if d.session == nil || d.gesture.phase != DragDragging {
		return false
	}
	d.gesture.touch(now)
	s := d.session
	if s.ProjectID != d.store.ActiveProjectID() {
		return false
	}

	var hint string
	switch target.Kind {
	case TargetColumn:
		if !d.store.layout.Has(target.Column) {
			return false
		}
		hint = InsertionHint(d.layout.ColumnItems(target.Column), s.TaskID, pointer.Y, d.bias)
	case TargetTrash:
	default:
		// keep the last preview while between targets
		return false
	}
	if len(s.previewed) > 0 && target == s.Target && hint == s.Hint {
		return false
	}
	s.Target = target
	s.Hint = hint
	d.renderPreview()
	return true
}

// renderPreview draws the session's target and source columns in preview
// order and restores columns no longer involved.
func (d *DragController) renderPreview() {
	s := d.session
	dragged, ok := d.store.Task(s.ProjectID, s.TaskID)
	if !ok {
		return
	}
	render := d.store.renderer
	involved := []domain.ColumnID{s.SourceColumn}
	if s.Target.Kind == TargetColumn && s.Target.Column != s.SourceColumn {
		involved = append(involved, s.Target.Column)
	}
	for _, col := range s.previewed {
		if !slices.Contains(involved, col) {
			render.RenderColumn(col, d.store.ColumnTasks(s.ProjectID, col))
		}
	}
	for _, col := range involved {
		tasks := d.store.ColumnTasks(s.ProjectID, col)
		if s.Target.Kind == TargetColumn && col == s.Target.Column {
			render.RenderColumn(col, PreviewOrder(tasks, dragged, col, s.Hint))
			continue
		}
		render.RenderColumn(col, withoutTask(tasks, s.TaskID))
	}
	s.previewed = involved
}

// Drop commits the gesture against target. The insertion hint is recomputed
// from the drop-time layout. Stale ids, or a source project that is no longer
// active, degrade to a cancel.
func (d *DragController) Drop(ctx context.Context, target DropTarget, pointer Point, now time.Time) (DropResult, error) {
	if d.session == nil || d.gesture.phase != DragDragging {
		return DropResult{}, ErrNoGesture
	}
	d.gesture.touch(now)
	s := d.session
	if s.ProjectID != d.store.ActiveProjectID() {
		// the visible columns belong to another project
		d.revert()
		d.gesture.phase = DragCancelled
		d.logger.Warn("drag source project no longer active; gesture cancelled", "project", s.ProjectID, "active", d.store.ActiveProjectID())
		return DropResult{Outcome: DropCancelled}, nil
	}

	switch target.Kind {
	case TargetColumn:
		hint := InsertionHint(d.layout.ColumnItems(target.Column), s.TaskID, pointer.Y, d.bias)
		outcome, err := d.store.MoveTask(ctx, s.ProjectID, s.TaskID, target.Column, hint)
		if err != nil {
			return d.degrade(err)
		}
		d.finishDrop(outcome.FromColumn, target.Column)
		d.logger.Debug("drag dropped", "task", s.TaskID, "from", outcome.FromColumn, "to", target.Column, "before", hint)
		return DropResult{Outcome: DropMoved, Task: outcome.Task, FromColumn: outcome.FromColumn, ToColumn: target.Column}, nil
	case TargetTrash:
		removed, err := d.store.DeleteTask(ctx, s.ProjectID, s.TaskID)
		if err != nil {
			return d.degrade(err)
		}
		d.finishDrop(removed.Column)
		d.logger.Debug("drag deleted task", "task", s.TaskID, "column", removed.Column)
		return DropResult{Outcome: DropDeleted, Task: removed, FromColumn: removed.Column}, nil
	default:
		d.revert()
		d.gesture.phase = DragCancelled
		return DropResult{Outcome: DropCancelled}, nil
	}
}

// degrade turns a recoverable drop failure into a cancel.
func (d *DragController) degrade(err error) (DropResult, error) {
	d.revert()
	d.gesture.phase = DragCancelled
	if errors.Is(err, ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		d.logger.Warn("drop target stale; gesture cancelled", "err", err)
		return DropResult{Outcome: DropCancelled}, nil
	}
	return DropResult{Outcome: DropCancelled}, err
}

// finishDrop restores previewed columns the store did not already re-render.
func (d *DragController) finishDrop(rendered ...domain.ColumnID) {
	s := d.session
	d.gesture.phase = DragDropped
	if s.ProjectID != d.store.ActiveProjectID() {
		s.previewed = nil
		return
	}
	for _, col := range s.previewed {
		if !slices.Contains(rendered, col) {
			d.store.renderer.RenderColumn(col, d.store.ColumnTasks(s.ProjectID, col))
		}
	}
	s.previewed = nil
}

// revert re-renders previewed columns from authoritative data.
func (d *DragController) revert() {
	s := d.session
	if s == nil || len(s.previewed) == 0 {
		return
	}
	if s.ProjectID == d.store.ActiveProjectID() {
		for _, col := range s.previewed {
			d.store.renderer.RenderColumn(col, d.store.ColumnTasks(s.ProjectID, col))
		}
	}
	s.previewed = nil
}

// End closes the gesture and returns its terminal phase. Ending without a
// drop is a cancellation.
func (d *DragController) End(now time.Time) DragPhase {
	if d.session == nil {
		return DragIdle
	}
	d.gesture.touch(now)
	phase := d.gesture.phase
	if phase == DragDragging {
		d.revert()
		phase = DragCancelled
	}
	d.logger.Debug("drag ended", "task", d.session.TaskID, "phase", phase)
	d.session = nil
	d.gesture.reset()
	return phase
}

// Cancel aborts any active gesture without touching the store.
func (d *DragController) Cancel() bool {
	if d.session == nil {
		return false
	}
	d.revert()
	d.session = nil
	d.gesture.reset()
	return true
}

// ExpireIdle cancels a gesture idle for longer than the configured timeout.
func (d *DragController) ExpireIdle(now time.Time) bool {
	if d.session == nil || !d.gesture.expired(now) {
		return false
	}
	d.logger.Warn("drag gesture idle; cancelling", "task", d.session.TaskID, "idle", now.Sub(d.gesture.lastActivity))
	return d.Cancel()
}

// PreviewOrder returns a derived column list with dragged placed before
// beforeID, or at the end when the hint is empty or absent. Orders in the
// result are display positions only.
func PreviewOrder(tasks []domain.Task, dragged domain.Task, col domain.ColumnID, beforeID string) []domain.Task {
	out := withoutTask(tasks, dragged.ID)
	dragged.Column = col
	at := slices.IndexFunc(out, func(t domain.Task) bool { return t.ID == beforeID })
	if beforeID == "" || at < 0 {
		at = len(out)
	}
	out = slices.Insert(out, at, dragged)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// withoutTask returns a copy of tasks lacking id, with display orders reassigned.
func withoutTask(tasks []domain.Task, id string) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			t.Order = len(out)
			out = append(out, t)
		}
	}
	return out
}
