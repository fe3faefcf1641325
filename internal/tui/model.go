package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	charmLog "github.com/charmbracelet/log"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeAddTask
	modeAddProject
	modeConfirmDelete
	modeSummary
)

// pressKind identifies what a held mouse button grabbed.
type pressKind int

const (
	pressNone pressKind = iota
	pressCard
	pressTab
)

// pressState tracks one held mouse button.
type pressState struct {
	kind  pressKind
	id    string
	x, y  int
	moved bool
	over  hit
}

// idleTickMsg asks the model to expire stalled gestures.
type idleTickMsg struct {
	at time.Time
}

// Model is the bubbletea model for the board.
type Model struct {
	store  *app.Store
	board  *boardView
	drag   *app.DragController
	tabs   *app.TabController
	keys   keyMap
	help   help.Model
	input  textinput.Model
	logger app.Logger
	now    func() time.Time

	mode          inputMode
	press         pressState
	pendingDelete string
	confirmMsg    string
	status        string
	summary       string
	markdown      *markdownRenderer

	dragBias             float64
	idleTimeout          time.Duration
	confirmDeleteProject bool
}

// NewModel constructs a board model over an opened store. The model becomes
// the store's renderer.
func NewModel(store *app.Store, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		store:                store,
		keys:                 newKeyMap(),
		help:                 h,
		logger:               charmLog.New(io.Discard),
		now:                  time.Now,
		markdown:             &markdownRenderer{},
		dragBias:             app.DefaultDropBias,
		idleTimeout:          app.DefaultIdleTimeout,
		confirmDeleteProject: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.board = newBoardView(store.Layout(), m.logger)
	m.drag = app.NewDragController(store, m.board, app.DragConfig{
		Bias:        m.dragBias,
		IdleTimeout: m.idleTimeout,
		Logger:      m.logger,
	})
	tabCfg := app.TabConfig{IdleTimeout: m.idleTimeout, Logger: m.logger}
	if !m.confirmDeleteProject {
		tabCfg.Confirm = func(string) bool { return true }
	}
	m.tabs = app.NewTabController(store, m.board, tabCfg)
	store.SetRenderer(m.board)
	store.RenderAll()
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.board.resize(msg.Width, msg.Height)
		return m, nil

	case idleTickMsg:
		return m.handleIdleTick()

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseClickMsg:
		if msg.Button != tea.MouseLeft || m.mode != modeNone {
			return m, nil
		}
		return m.handleMouseDown(msg.X, msg.Y)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg.X, msg.Y)

	case tea.MouseReleaseMsg:
		return m.handleMouseUp(msg.X, msg.Y)

	default:
		if m.mode == modeAddTask || m.mode == modeAddProject {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

// handleMouseDown starts a card or tab gesture, or opens the new project prompt.
func (m Model) handleMouseDown(x, y int) (tea.Model, tea.Cmd) {
	h := m.board.hitTest(x, y)
	switch h.kind {
	case hitCard:
		card, _ := m.board.card(h.id)
		if _, err := m.drag.Begin(m.store.ActiveProjectID(), h.id, card.title, m.now()); err != nil {
			m.status = "drag failed: " + err.Error()
			return m, nil
		}
		m.press = pressState{kind: pressCard, id: h.id, x: x, y: y, over: h}
		return m, m.idleTick()
	case hitTab:
		tab, _ := m.board.tab(h.id)
		if _, err := m.tabs.Begin(h.id, tab.name, m.now()); err != nil {
			m.status = "drag failed: " + err.Error()
			return m, nil
		}
		m.press = pressState{kind: pressTab, id: h.id, x: x, y: y, over: h}
		return m, m.idleTick()
	case hitAddTab:
		cmd := m.openPrompt(modeAddProject)
		return m, cmd
	default:
		return m, nil
	}
}

// handleMouseMotion forwards pointer movement to the active gesture.
func (m Model) handleMouseMotion(x, y int) (tea.Model, tea.Cmd) {
	if m.press.kind == pressNone {
		return m, nil
	}
	if x != m.press.x || y != m.press.y {
		m.press.moved = true
	}
	if !m.press.moved {
		return m, nil
	}
	h := m.board.hitTest(x, y)
	m.press.over = h
	switch m.press.kind {
	case pressCard:
		m.drag.Over(h.dropTarget(), cellCenter(x, y), m.now())
	case pressTab:
		m.tabs.Over(h.dropTarget(), cellCenter(x, y), m.now())
	}
	return m, nil
}

// handleMouseUp commits or cancels the active gesture.
func (m Model) handleMouseUp(x, y int) (tea.Model, tea.Cmd) {
	p := m.press
	m.press = pressState{}
	switch p.kind {
	case pressCard:
		if !p.moved {
			m.drag.End(m.now())
			return m, nil
		}
		return m.dropCard(x, y)
	case pressTab:
		if !p.moved {
			m.tabs.Cancel()
			m.selectProject(p.id)
			return m, nil
		}
		return m.dropTab(x, y)
	default:
		return m, nil
	}
}

// dropCard finishes a card drag at (x, y).
func (m Model) dropCard(x, y int) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	now := m.now()
	result, err := m.drag.Drop(ctx, m.board.hitTest(x, y).dropTarget(), cellCenter(x, y), now)
	m.drag.End(now)
	if err != nil {
		m.status = "move failed: " + err.Error()
		return m, nil
	}
	switch result.Outcome {
	case app.DropMoved:
		m.setStatus(fmt.Sprintf("moved %q to %s", result.Task.Title, m.store.Layout().Name(result.ToColumn)))
	case app.DropDeleted:
		m.setStatus(fmt.Sprintf("deleted %q", result.Task.Title))
	default:
		m.status = "drag cancelled"
	}
	return m, nil
}

// dropTab finishes a tab drag at (x, y).
func (m Model) dropTab(x, y int) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	now := m.now()
	result, err := m.tabs.Drop(ctx, m.board.hitTest(x, y).dropTarget(), cellCenter(x, y), now)
	m.tabs.End(now)
	if err != nil {
		m.status = "project drag failed: " + err.Error()
		return m, nil
	}
	switch result.Outcome {
	case app.TabReordered:
		m.setStatus("projects reordered")
	case app.TabDeleted:
		m.setStatus("project deleted")
	case app.TabNeedsConfirmation:
		m.pendingDelete = result.ProjectID
		m.confirmMsg = result.Message
		m.mode = modeConfirmDelete
	default:
		m.status = "drag cancelled"
	}
	return m, nil
}

// handleIdleTick cancels gestures that stopped receiving input.
func (m Model) handleIdleTick() (tea.Model, tea.Cmd) {
	now := m.now()
	if m.drag.ExpireIdle(now) || m.tabs.ExpireIdle(now) {
		m.press = pressState{}
		m.status = "drag cancelled after inactivity"
		return m, nil
	}
	if m.drag.Phase() == app.DragDragging || m.tabs.Phase() == app.DragDragging {
		return m, m.idleTick()
	}
	return m, nil
}

// idleTick schedules the next idle check.
func (m Model) idleTick() tea.Cmd {
	return tea.Tick(m.idleTimeout, func(t time.Time) tea.Msg {
		return idleTickMsg{at: t}
	})
}

// handleNormalModeKey handles keys while no prompt is open.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.press.kind != pressNone && !key.Matches(msg, m.keys.toggleHelp, m.keys.quit) {
		// board-changing keys end a held gesture first
		m.abortGesture()
		m.status = "drag cancelled"
		if key.Matches(msg, m.keys.cancelDrag) {
			return m, nil
		}
	}
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.cancelDrag):
		if m.abortGesture() {
			m.status = "drag cancelled"
		}
		return m, nil
	case key.Matches(msg, m.keys.addTask):
		cmd := m.openPrompt(modeAddTask)
		return m, cmd
	case key.Matches(msg, m.keys.newProject):
		cmd := m.openPrompt(modeAddProject)
		return m, cmd
	case key.Matches(msg, m.keys.nextProject):
		m.cycleProject(1)
		return m, nil
	case key.Matches(msg, m.keys.prevProject):
		m.cycleProject(-1)
		return m, nil
	case key.Matches(msg, m.keys.deleteProject):
		m.requestDeleteProject(m.store.ActiveProjectID())
		return m, nil
	case key.Matches(msg, m.keys.summary):
		m.summary = m.markdown.render(m.summaryMarkdown(), max(24, m.board.width-8))
		m.mode = modeSummary
		return m, nil
	default:
		return m, nil
	}
}

// handleInputModeKey handles keys while a prompt or overlay is open.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeConfirmDelete:
		switch {
		case key.Matches(msg, m.keys.confirm):
			m.deleteProject(m.pendingDelete)
			m.closeMode()
		case key.Matches(msg, m.keys.decline):
			m.status = "delete cancelled"
			m.closeMode()
		}
		return m, nil
	case modeSummary:
		if msg.Code == tea.KeyEscape || key.Matches(msg, m.keys.summary) || key.Matches(msg, m.keys.quit) {
			m.closeMode()
		}
		return m, nil
	}

	switch msg.Code {
	case tea.KeyEscape:
		m.closeMode()
		return m, nil
	case tea.KeyEnter:
		m.submitPrompt()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// abortGesture cancels any held card or tab drag.
func (m *Model) abortGesture() bool {
	cancelled := m.drag.Cancel()
	if m.tabs.Cancel() {
		cancelled = true
	}
	m.press = pressState{}
	return cancelled
}

// openPrompt focuses the text input for mode.
func (m *Model) openPrompt(mode inputMode) tea.Cmd {
	switch mode {
	case modeAddTask:
		m.input = newModalInput("task: ", "what needs doing?", 200)
	case modeAddProject:
		m.input = newModalInput("project: ", "project name", 80)
	}
	m.mode = mode
	return m.input.Focus()
}

// submitPrompt applies the text input for the open prompt.
func (m *Model) submitPrompt() {
	ctx := context.Background()
	value := strings.TrimSpace(m.input.Value())
	switch m.mode {
	case modeAddTask:
		task, err := m.store.AddTask(ctx, m.store.ActiveProjectID(), value)
		if err != nil {
			m.status = describeError(err)
			return
		}
		m.setStatus(fmt.Sprintf("added %q", task.Title))
	case modeAddProject:
		project, err := m.store.AddProject(ctx, value)
		if err != nil {
			m.status = describeError(err)
			return
		}
		m.setStatus(fmt.Sprintf("created project %q", project.Name))
	}
	m.closeMode()
}

// closeMode returns to the board.
func (m *Model) closeMode() {
	m.input.Blur()
	m.mode = modeNone
	m.pendingDelete = ""
	m.confirmMsg = ""
	m.summary = ""
}

// cycleProject activates the project delta tabs away from the active one.
func (m *Model) cycleProject(delta int) {
	projects := m.store.Projects()
	if len(projects) < 2 {
		return
	}
	idx := m.store.Data().ProjectIndex(m.store.ActiveProjectID())
	next := (idx + delta + len(projects)) % len(projects)
	m.selectProject(projects[next].ID)
}

// selectProject activates projectID.
func (m *Model) selectProject(projectID string) {
	if projectID == m.store.ActiveProjectID() {
		return
	}
	if err := m.store.SetActiveProject(context.Background(), projectID); err != nil {
		m.status = describeError(err)
		return
	}
	if p, ok := m.store.Project(projectID); ok {
		m.setStatus("project: " + p.Name)
	}
}

// requestDeleteProject deletes projectID, asking first when it still holds open work.
func (m *Model) requestDeleteProject(projectID string) {
	if m.confirmDeleteProject && m.store.RequiresDeleteConfirmation(projectID) {
		m.pendingDelete = projectID
		m.confirmMsg = m.store.DeleteConfirmationMessage(projectID)
		m.mode = modeConfirmDelete
		return
	}
	m.deleteProject(projectID)
}

// deleteProject removes projectID from the store.
func (m *Model) deleteProject(projectID string) {
	p, ok := m.store.Project(projectID)
	if !ok {
		m.status = "project no longer exists"
		return
	}
	if err := m.store.DeleteProject(context.Background(), projectID); err != nil {
		m.status = describeError(err)
		return
	}
	m.setStatus(fmt.Sprintf("deleted project %q", p.Name))
}

// setStatus shows msg, flagging unsaved state when the last save failed.
func (m *Model) setStatus(msg string) {
	if err := m.store.LastPersistenceError(); err != nil {
		msg += " (not saved: " + err.Error() + ")"
	}
	m.status = msg
}

// summaryMarkdown renders the active project as markdown.
func (m Model) summaryMarkdown() string {
	p, ok := m.store.ActiveProject()
	if !ok {
		return ""
	}
	snap := app.SnapshotFromAppData(domain.AppData{Projects: []domain.Project{p}})
	return app.RenderSnapshotMarkdown(snap, m.store.Layout())
}

// View handles view.
func (m Model) View() tea.View {
	content := m.render()
	if overlay := m.renderOverlay(); overlay != "" {
		content = overlayOnContent(content, overlay, m.board.width, m.board.height)
	}
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// render draws the board without overlays.
func (m Model) render() string {
	b := m.board
	colW := b.columnWidth()
	layout := m.store.Layout()
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	accent := lipgloss.Color("62")

	rows := make([]string, 0, b.height)
	rows = append(rows, m.renderTabs(accent, muted), "")

	headers := make([]string, 0, len(layout.Columns))
	rules := make([]string, 0, len(layout.Columns))
	headerStyle := lipgloss.NewStyle().Bold(true).Width(colW)
	for _, col := range layout.Columns {
		label := fmt.Sprintf("%s (%d)", col.Name, len(b.columns[col.ID]))
		style := headerStyle
		if m.press.kind == pressCard && m.press.over.kind != hitTrash && m.press.over.column == col.ID {
			style = style.Foreground(accent)
		}
		headers = append(headers, style.Render(xansi.Truncate(label, colW, "…")))
		rules = append(rules, lipgloss.NewStyle().Foreground(dim).Render(strings.Repeat("─", colW)))
	}
	gap := strings.Repeat(" ", columnGap)
	rows = append(rows, strings.Join(headers, gap), strings.Join(rules, gap))

	dragging := ""
	if s, ok := m.drag.Session(); ok && m.press.moved {
		dragging = s.TaskID
	}
	for r := range b.visibleCards() {
		cells := make([]string, 0, len(layout.Columns))
		for _, col := range layout.Columns {
			cells = append(cells, m.renderCard(col.ID, r, colW, dragging))
		}
		rows = append(rows, strings.Join(cells, gap))
	}

	trashStyle := lipgloss.NewStyle().Width(b.width).Foreground(muted)
	if m.press.moved && m.press.over.kind == hitTrash {
		trashStyle = trashStyle.Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#c62828"))
	}
	rows = append(rows, trashStyle.Render("🗑  drop here to delete"))

	statusStyle := lipgloss.NewStyle().Foreground(dim)
	rows = append(rows, statusStyle.Render(xansi.Truncate(m.statusLine(), b.width, "…")))

	helpBubble := m.help
	helpBubble.SetWidth(max(0, b.width))
	rows = append(rows, lipgloss.NewStyle().Foreground(muted).Render(helpBubble.View(m.keys)))
	return strings.Join(rows, "\n")
}

// renderTabs draws the project tab strip.
func (m Model) renderTabs(accent, muted color.Color) string {
	parts := make([]string, 0, len(m.board.tabs)+1)
	for _, t := range m.board.tabs {
		style := lipgloss.NewStyle().Foreground(muted)
		if t.id == m.board.active {
			style = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(accent)
		}
		if m.press.kind == pressTab && m.press.moved && t.id == m.press.id {
			style = style.Faint(true)
		}
		parts = append(parts, style.Render(tabLabel(t)))
	}
	parts = append(parts, lipgloss.NewStyle().Foreground(accent).Render(addTabLabel))
	return strings.Join(parts, strings.Repeat(" ", tabGap))
}

// renderCard draws row r of col.
func (m Model) renderCard(col domain.ColumnID, r, colW int, dragging string) string {
	nodes := m.board.columns[col]
	if r >= len(nodes) {
		return strings.Repeat(" ", colW)
	}
	n := nodes[r]
	style := lipgloss.NewStyle().Width(colW).Foreground(lipgloss.Color("#111111"))
	if n.color != "" {
		style = style.Background(lipgloss.Color(n.color))
	}
	if m.store.Layout().IsCompleted(col) {
		style = style.Faint(true).Strikethrough(true)
	}
	if n.id == dragging {
		style = style.Reverse(true)
	}
	return style.Render(xansi.Truncate(" "+n.title, colW, "…"))
}

// statusLine returns the line below the trash target.
func (m Model) statusLine() string {
	switch m.mode {
	case modeAddTask, modeAddProject:
		return m.input.View()
	}
	if s, ok := m.drag.Session(); ok && m.press.moved {
		return "dragging: " + s.Ghost
	}
	if s, ok := m.tabs.Session(); ok && m.press.moved {
		return "dragging project: " + s.Ghost
	}
	return m.status
}

// renderOverlay draws the confirmation or summary box, if any.
func (m Model) renderOverlay() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)
	switch m.mode {
	case modeConfirmDelete:
		return box.Render(m.confirmMsg + "\n\n" + "y confirm • n cancel")
	case modeSummary:
		return box.Render(m.summary + "\n\n" + "esc close")
	default:
		return ""
	}
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}

// cellCenter returns the pointer position at the middle of a terminal cell.
func cellCenter(x, y int) app.Point {
	return app.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
}

// describeError returns a short status line for err.
func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTitle):
		return "title is required"
	case errors.Is(err, domain.ErrInvalidName):
		return "name is required"
	case errors.Is(err, app.ErrNotFound):
		return "no longer exists"
	default:
		return "error: " + err.Error()
	}
}

// fitLines pads or trims content to maxLines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		lines = lines[:maxLines]
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base.
func overlayOnContent(base, overlay string, width, height int) string {
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

