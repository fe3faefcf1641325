package app

import (
	"context"
	"errors"
	"slices"
	"time"
)

// TabConfig holds configuration for project tab dragging.
type TabConfig struct {
	IdleTimeout time.Duration
	Confirm     ConfirmFunc
	Logger      Logger
}

// TabSession is the scratch state of one tab drag gesture.
type TabSession struct {
	ProjectID  string
	Ghost      string
	StartedAt  time.Time
	Target     DropTarget
	Hint       string
	previewing bool
}

// TabDropOutcome reports what a tab drop committed.
type TabDropOutcome int

// TabCancelled and related constants enumerate tab drop outcomes.
const (
	TabCancelled TabDropOutcome = iota
	TabReordered
	TabDeleted
	TabNeedsConfirmation
)

// TabDropResult describes a completed tab drop. NeedsConfirmation results carry
// the prompt; the caller deletes via Store.DeleteProject once confirmed.
type TabDropResult struct {
	Outcome   TabDropOutcome
	ProjectID string
	Message   string
}

// TabController reorders and deletes projects from tab bar gestures.
type TabController struct {
	store   *Store
	layout  TabLayout
	confirm ConfirmFunc
	logger  Logger
	gesture gesture
	session *TabSession
}

// NewTabController constructs a tab drag controller. A nil confirm defers
// confirmation to the caller.
func NewTabController(store *Store, layout TabLayout, cfg TabConfig) *TabController {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = store.logger
	}
	return &TabController{
		store:   store,
		layout:  layout,
		confirm: cfg.Confirm,
		logger:  cfg.Logger,
		gesture: gesture{idleTimeout: cfg.IdleTimeout},
	}
}

// Phase returns the current gesture phase.
func (c *TabController) Phase() DragPhase {
	return c.gesture.phase
}

// Session returns a copy of the active session.
func (c *TabController) Session() (TabSession, bool) {
	if c.session == nil {
		return TabSession{}, false
	}
	return *c.session, true
}

// Begin starts dragging a project tab.
func (c *TabController) Begin(projectID, ghost string, now time.Time) (TabSession, error) {
	if _, ok := c.store.Project(projectID); !ok {
		return TabSession{}, notFound("project", projectID)
	}
	if err := c.gesture.begin(now); err != nil {
		return TabSession{}, err
	}
	c.session = &TabSession{ProjectID: projectID, Ghost: ghost, StartedAt: now}
	c.logger.Debug("tab drag started", "project", projectID)
	return *c.session, nil
}

// Over updates the tab preview. It reports whether the tabs were re-rendered.
func (c *TabController) Over(target DropTarget, pointer Point, now time.Time) bool {
	if c.session == nil || c.gesture.phase != DragDragging {
		return false
	}
	c.gesture.touch(now)
	s := c.session

	var hint string
	switch target.Kind {
	case TargetTabBar:
		hint = InsertionHint(c.layout.TabItems(), s.ProjectID, pointer.X, TabDropBias)
	case TargetTrash:
	default:
		return false
	}
	if s.previewing && target == s.Target && hint == s.Hint {
		return false
	}
	s.Target = target
	s.Hint = hint
	s.previewing = true
	c.store.renderer.RenderTabs(c.previewTabs(), c.store.ActiveProjectID())
	return true
}

// previewTabs returns the tab list as it would look after the current hint.
func (c *TabController) previewTabs() []ProjectTab {
	s := c.session
	tabs := c.store.ProjectTabs()
	idx := slices.IndexFunc(tabs, func(t ProjectTab) bool { return t.ID == s.ProjectID })
	if idx < 0 {
		return tabs
	}
	moved := tabs[idx]
	tabs = slices.Delete(tabs, idx, idx+1)
	if s.Target.Kind != TargetTabBar {
		return tabs
	}
	at := slices.IndexFunc(tabs, func(t ProjectTab) bool { return t.ID == s.Hint })
	if s.Hint == "" || at < 0 {
		at = len(tabs)
	}
	return slices.Insert(tabs, at, moved)
}

// Drop commits the tab gesture. Dropping on the trash deletes the project,
// subject to the confirmation policy.
func (c *TabController) Drop(ctx context.Context, target DropTarget, pointer Point, now time.Time) (TabDropResult, error) {
	if c.session == nil || c.gesture.phase != DragDragging {
		return TabDropResult{}, ErrNoGesture
	}
	c.gesture.touch(now)
	s := c.session
	result := TabDropResult{ProjectID: s.ProjectID}

	switch target.Kind {
	case TargetTabBar:
		hint := InsertionHint(c.layout.TabItems(), s.ProjectID, pointer.X, TabDropBias)
		if err := c.store.ReorderProjects(ctx, s.ProjectID, hint); err != nil {
			return c.degrade(result, err)
		}
		c.gesture.phase = DragDropped
		s.previewing = false
		c.logger.Debug("tab dropped", "project", s.ProjectID, "before", hint)
		result.Outcome = TabReordered
		return result, nil
	case TargetTrash:
		if c.store.RequiresDeleteConfirmation(s.ProjectID) {
			result.Message = c.store.DeleteConfirmationMessage(s.ProjectID)
			if c.confirm == nil {
				c.revert()
				c.gesture.phase = DragDropped
				result.Outcome = TabNeedsConfirmation
				return result, nil
			}
			if !c.confirm(result.Message) {
				c.revert()
				c.gesture.phase = DragCancelled
				result.Outcome = TabCancelled
				return result, nil
			}
		}
		if err := c.store.DeleteProject(ctx, s.ProjectID); err != nil {
			return c.degrade(result, err)
		}
		c.gesture.phase = DragDropped
		s.previewing = false
		c.logger.Debug("tab deleted project", "project", s.ProjectID)
		result.Outcome = TabDeleted
		return result, nil
	default:
		c.revert()
		c.gesture.phase = DragCancelled
		result.Outcome = TabCancelled
		return result, nil
	}
}

func (c *TabController) degrade(result TabDropResult, err error) (TabDropResult, error) {
	c.revert()
	c.gesture.phase = DragCancelled
	result.Outcome = TabCancelled
	if errors.Is(err, ErrNotFound) {
		c.logger.Warn("tab drop target stale; gesture cancelled", "err", err)
		return result, nil
	}
	return result, err
}

// revert re-renders tabs from authoritative data.
func (c *TabController) revert() {
	if c.session == nil || !c.session.previewing {
		return
	}
	c.session.previewing = false
	c.store.renderTabs()
}

// End closes the gesture and returns its terminal phase.
func (c *TabController) End(now time.Time) DragPhase {
	if c.session == nil {
		return DragIdle
	}
	c.gesture.touch(now)
	phase := c.gesture.phase
	if phase == DragDragging {
		c.revert()
		phase = DragCancelled
	}
	c.logger.Debug("tab drag ended", "project", c.session.ProjectID, "phase", phase)
	c.session = nil
	c.gesture.reset()
	return phase
}

// Cancel aborts any active gesture without touching the store.
func (c *TabController) Cancel() bool {
	if c.session == nil {
		return false
	}
	c.revert()
	c.session = nil
	c.gesture.reset()
	return true
}

// ExpireIdle cancels a gesture idle for longer than the configured timeout.
func (c *TabController) ExpireIdle(now time.Time) bool {
	if c.session == nil || !c.gesture.expired(now) {
		return false
	}
	c.logger.Warn("tab gesture idle; cancelling", "project", c.session.ProjectID)
	return c.Cancel()
}
