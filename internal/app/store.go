package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evanschultz/lanes/internal/domain"
	"github.com/google/uuid"
)

// ColorStrategy selects how the color cycle starts after a load.
type ColorStrategy string

// ColorStrategyDerive and related constants define supported strategies.
const (
	ColorStrategyDerive ColorStrategy = "derive"
	ColorStrategyReset  ColorStrategy = "reset"
)

// StoreConfig holds configuration for the store.
type StoreConfig struct {
	Layout             domain.Layout
	Palette            []string
	ColorStrategy      ColorStrategy
	Renderer           Renderer
	Logger             Logger
	OnPersistenceError func(error)
}

// Store owns all board state. Every mutation persists synchronously and then
// pushes fresh column and tab lists to the renderer. A Store is not safe for
// concurrent use.
type Store struct {
	persist   SnapshotPersister
	idGen     IDGenerator
	clock     Clock
	layout    domain.Layout
	colors    *domain.ColorCycler
	strategy  ColorStrategy
	renderer  Renderer
	logger    Logger
	onPersist func(error)

	data        domain.AppData
	lastPersist error
}

// NewStore constructs a store. Call Open before mutating. A nil idGen uses
// random UUIDs.
func NewStore(persist SnapshotPersister, idGen IDGenerator, clock Clock, cfg StoreConfig) *Store {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	if len(cfg.Layout.Columns) == 0 {
		cfg.Layout = domain.DefaultLayout()
	}
	if cfg.ColorStrategy == "" {
		cfg.ColorStrategy = ColorStrategyDerive
	}
	if cfg.Renderer == nil {
		cfg.Renderer = NopRenderer{}
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	return &Store{
		persist:   persist,
		idGen:     idGen,
		clock:     clock,
		layout:    cfg.Layout,
		colors:    domain.NewColorCycler(cfg.Palette),
		strategy:  cfg.ColorStrategy,
		renderer:  cfg.Renderer,
		logger:    cfg.Logger,
		onPersist: cfg.OnPersistenceError,
		data:      domain.AppData{Projects: []domain.Project{}},
	}
}

// SetRenderer swaps the render target. nil installs NopRenderer.
func (s *Store) SetRenderer(r Renderer) {
	if r == nil {
		r = NopRenderer{}
	}
	s.renderer = r
}

// Open loads persisted state, synthesizing a default project when none exists.
func (s *Store) Open(ctx context.Context) error {
	data, ok := s.persist.Load(ctx)
	synthesized := false
	if !ok || len(data.Projects) == 0 {
		project, err := domain.NewProject(s.newProjectID(), domain.DefaultProjectName)
		if err != nil {
			return fmt.Errorf("create default project: %w", err)
		}
		data = domain.AppData{Projects: []domain.Project{project}, ActiveProjectID: project.ID}
		synthesized = true
	}
	if data.ProjectIndex(data.ActiveProjectID) < 0 {
		data.ActiveProjectID = data.Projects[0].ID
	}
	s.data = data
	s.initColors()
	s.logger.Info("board loaded", "projects", len(s.data.Projects), "active", s.data.ActiveProjectID, "synthesized", synthesized)
	if synthesized {
		s.save(ctx)
	}
	s.RenderAll()
	return nil
}

// initColors positions the color cycle per the configured strategy.
func (s *Store) initColors() {
	if s.strategy == ColorStrategyReset {
		s.colors.Reset()
		return
	}
	color, ok := domain.NewestTaskColor(s.data)
	if !ok {
		s.colors.Reset()
		return
	}
	s.colors.ResumeAfter(color)
}

// Layout returns the column layout.
func (s *Store) Layout() domain.Layout {
	return s.layout
}

// Data returns a deep copy of all state.
func (s *Store) Data() domain.AppData {
	return s.data.Clone()
}

// Projects returns copies of all projects in tab order.
func (s *Store) Projects() []domain.Project {
	return s.data.Clone().Projects
}

// ActiveProjectID returns the active project id, or "" when there are no projects.
func (s *Store) ActiveProjectID() string {
	return s.data.ActiveProjectID
}

// ActiveProject returns a copy of the active project.
func (s *Store) ActiveProject() (domain.Project, bool) {
	return s.Project(s.data.ActiveProjectID)
}

// Project returns a copy of one project.
func (s *Store) Project(id string) (domain.Project, bool) {
	idx := s.data.ProjectIndex(id)
	if idx < 0 {
		return domain.Project{}, false
	}
	return s.data.Projects[idx].Clone(), true
}

// ColumnTasks returns one column of a project in logical order.
func (s *Store) ColumnTasks(projectID string, col domain.ColumnID) []domain.Task {
	idx := s.data.ProjectIndex(projectID)
	if idx < 0 {
		return []domain.Task{}
	}
	return s.data.Projects[idx].ColumnTasks(col)
}

// Task returns a copy of one task.
func (s *Store) Task(projectID, taskID string) (domain.Task, bool) {
	idx := s.data.ProjectIndex(projectID)
	if idx < 0 {
		return domain.Task{}, false
	}
	p := s.data.Projects[idx]
	ti := p.TaskIndex(taskID)
	if ti < 0 {
		return domain.Task{}, false
	}
	return p.Tasks[ti], true
}

// ProjectTabs summarizes projects for the tab bar.
func (s *Store) ProjectTabs() []ProjectTab {
	return projectTabs(s.data.Projects, s.layout)
}

// projectTabs summarizes an ordered project list.
func projectTabs(projects []domain.Project, layout domain.Layout) []ProjectTab {
	out := make([]ProjectTab, 0, len(projects))
	for _, p := range projects {
		open := 0
		for _, t := range p.Tasks {
			if !layout.IsCompleted(t.Column) {
				open++
			}
		}
		out = append(out, ProjectTab{ID: p.ID, Name: p.Name, TaskCount: len(p.Tasks), OpenCount: open})
	}
	return out
}

// LastPersistenceError returns the most recent save failure, cleared by the next successful save.
func (s *Store) LastPersistenceError() error {
	return s.lastPersist
}

// AddProject appends a project and makes it active.
func (s *Store) AddProject(ctx context.Context, name string) (domain.Project, error) {
	project, err := domain.NewProject(s.newProjectID(), name)
	if err != nil {
		return domain.Project{}, err
	}
	s.data.Projects = append(s.data.Projects, project)
	s.data.ActiveProjectID = project.ID
	s.logger.Debug("project added", "project", project.ID)
	s.commitAll(ctx)
	return project.Clone(), nil
}

// RequiresDeleteConfirmation reports whether deleting a project needs user
// confirmation: true unless it has no tasks or every task is completed.
func (s *Store) RequiresDeleteConfirmation(projectID string) bool {
	idx := s.data.ProjectIndex(projectID)
	if idx < 0 {
		return false
	}
	return s.data.Projects[idx].HasOpenTasks(s.layout)
}

// DeleteConfirmationMessage returns the prompt shown before deleting a project.
func (s *Store) DeleteConfirmationMessage(projectID string) string {
	idx := s.data.ProjectIndex(projectID)
	if idx < 0 {
		return ""
	}
	p := s.data.Projects[idx]
	open := 0
	for _, t := range p.Tasks {
		if !s.layout.IsCompleted(t.Column) {
			open++
		}
	}
	return fmt.Sprintf("Delete project %q with %d unfinished task(s)?", p.Name, open)
}

// DeleteProject removes a project. The active project moves to the previous tab.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	idx := s.data.ProjectIndex(projectID)
	if idx < 0 {
		return notFound("project", projectID)
	}
	s.data.Projects = slices.Delete(s.data.Projects, idx, idx+1)
	switch {
	case len(s.data.Projects) == 0:
		s.data.ActiveProjectID = ""
	case s.data.ActiveProjectID == projectID || s.data.ProjectIndex(s.data.ActiveProjectID) < 0:
		s.data.ActiveProjectID = s.data.Projects[max(0, idx-1)].ID
	}
	s.logger.Debug("project deleted", "project", projectID, "active", s.data.ActiveProjectID)
	s.commitAll(ctx)
	return nil
}

// SetActiveProject switches the active tab.
func (s *Store) SetActiveProject(ctx context.Context, projectID string) error {
	if s.data.ProjectIndex(projectID) < 0 {
		return notFound("project", projectID)
	}
	if s.data.ActiveProjectID == projectID {
		return nil
	}
	s.data.ActiveProjectID = projectID
	s.commitAll(ctx)
	return nil
}

// ReorderProjects moves a project before beforeID, or to the end when the hint
// is empty or unknown.
func (s *Store) ReorderProjects(ctx context.Context, movedID, beforeID string) error {
	idx := s.data.ProjectIndex(movedID)
	if idx < 0 {
		return notFound("project", movedID)
	}
	if beforeID == movedID {
		return nil
	}
	moved := s.data.Projects[idx]
	projects := slices.Delete(slices.Clone(s.data.Projects), idx, idx+1)
	at := slices.IndexFunc(projects, func(p domain.Project) bool { return p.ID == beforeID })
	if at < 0 {
		at = len(projects)
	}
	s.data.Projects = slices.Insert(projects, at, moved)
	s.logger.Debug("project reordered", "project", movedID, "before", beforeID, "index", at)
	s.commit(ctx, "")
	return nil
}

// AddTask appends a task to the default column of a project.
func (s *Store) AddTask(ctx context.Context, projectID, title string) (domain.Task, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Task{}, domain.ErrInvalidTitle
	}
	pi := s.data.ProjectIndex(projectID)
	if pi < 0 {
		return domain.Task{}, notFound("project", projectID)
	}
	p := &s.data.Projects[pi]
	col := s.layout.Default
	task, err := domain.NewTask(domain.TaskInput{
		ID:     s.newTaskID(),
		Title:  title,
		Column: col,
		Order:  NextOrder(p.Tasks, col),
		Color:  s.colors.Next(),
	})
	if err != nil {
		return domain.Task{}, err
	}
	p.Tasks = append(p.Tasks, task)
	s.logger.Debug("task added", "project", projectID, "task", task.ID, "column", col)
	s.commit(ctx, projectID, col)
	return task, nil
}

// DeleteTask removes a task and renumbers its column.
func (s *Store) DeleteTask(ctx context.Context, projectID, taskID string) (domain.Task, error) {
	pi := s.data.ProjectIndex(projectID)
	if pi < 0 {
		return domain.Task{}, notFound("project", projectID)
	}
	p := &s.data.Projects[pi]
	tasks, removed, err := RemoveTask(p.Tasks, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	p.Tasks = tasks
	s.logger.Debug("task deleted", "project", projectID, "task", taskID, "column", removed.Column)
	s.commit(ctx, projectID, removed.Column)
	return removed, nil
}

// MoveTask moves a task into col before beforeID, renumbering both columns.
// An empty, unknown or foreign-column hint places the task at the end of col.
func (s *Store) MoveTask(ctx context.Context, projectID, taskID string, col domain.ColumnID, beforeID string) (MoveOutcome, error) {
	if !s.layout.Has(col) {
		return MoveOutcome{}, fmt.Errorf("%w: %q", domain.ErrInvalidColumn, col)
	}
	pi := s.data.ProjectIndex(projectID)
	if pi < 0 {
		return MoveOutcome{}, notFound("project", projectID)
	}
	p := &s.data.Projects[pi]
	tasks, outcome, err := MoveWithin(p.Tasks, taskID, col, beforeID)
	if err != nil {
		return MoveOutcome{}, err
	}
	if !outcome.HintResolved {
		s.logger.Debug("insertion hint not in target column; appended", "task", taskID, "column", col, "before", beforeID)
	}
	p.Tasks = tasks
	s.commit(ctx, projectID, outcome.FromColumn, col)
	return outcome, nil
}

// Replace swaps all state for data after validation and normalization.
func (s *Store) Replace(ctx context.Context, data domain.AppData) error {
	normalized, warnings := SnapshotFromAppData(data).ToAppData(s.layout)
	for _, w := range warnings {
		s.logger.Warn("replace record repaired", "detail", w)
	}
	if len(normalized.Projects) == 0 {
		return fmt.Errorf("%w: no valid projects", domain.ErrValidation)
	}
	s.data = normalized
	s.initColors()
	s.commitAll(ctx)
	return nil
}

// RenderAll pushes every column of the active project and the tab bar.
func (s *Store) RenderAll() {
	s.renderTabs()
	s.renderColumns(s.layout.IDs()...)
}

// commit persists state, then renders the tab bar and the listed columns of
// projectID when it is the active project.
func (s *Store) commit(ctx context.Context, projectID string, cols ...domain.ColumnID) {
	s.save(ctx)
	s.renderTabs()
	if projectID != s.data.ActiveProjectID {
		return
	}
	touched := make([]domain.ColumnID, 0, len(cols))
	for _, col := range cols {
		if !slices.Contains(touched, col) {
			touched = append(touched, col)
		}
	}
	s.renderColumns(touched...)
}

// commitAll persists state and re-renders every surface.
func (s *Store) commitAll(ctx context.Context) {
	s.save(ctx)
	s.RenderAll()
}

// save writes the snapshot; failures are logged and reported, never rolled back.
func (s *Store) save(ctx context.Context) {
	err := s.persist.Save(ctx, s.data)
	if err == nil {
		s.lastPersist = nil
		return
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		err = &PersistenceError{Op: "save", Err: err}
	}
	s.lastPersist = err
	s.logger.Warn("persist board failed; keeping in-memory state", "err", err)
	if s.onPersist != nil {
		s.onPersist(err)
	}
}

func (s *Store) renderTabs() {
	s.renderer.RenderTabs(s.ProjectTabs(), s.data.ActiveProjectID)
}

func (s *Store) renderColumns(cols ...domain.ColumnID) {
	idx := s.data.ProjectIndex(s.data.ActiveProjectID)
	for _, col := range cols {
		if idx < 0 {
			s.renderer.RenderColumn(col, []domain.Task{})
			continue
		}
		s.renderer.RenderColumn(col, s.data.Projects[idx].ColumnTasks(col))
	}
}

// newProjectID returns a project identifier not used by any loaded project.
func (s *Store) newProjectID() string {
	id := "project-" + s.idSuffix()
	for s.data.ProjectIndex(id) >= 0 {
		id = "project-" + uuid.NewString()
	}
	return id
}

// newTaskID returns a task identifier not used in any project.
func (s *Store) newTaskID() string {
	now := s.clock()
	id := domain.NewTaskID(now, s.idSuffix())
	for s.taskIDTaken(id) {
		id = domain.NewTaskID(now, uuid.NewString())
	}
	return id
}

// idSuffix returns the generator's next value, or a UUID when it yields nothing.
func (s *Store) idSuffix() string {
	if suffix := strings.TrimSpace(s.idGen()); suffix != "" {
		return suffix
	}
	return uuid.NewString()
}

func (s *Store) taskIDTaken(id string) bool {
	return slices.ContainsFunc(s.data.Projects, func(p domain.Project) bool { return p.TaskIndex(id) >= 0 })
}
