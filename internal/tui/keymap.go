package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	toggleHelp    key.Binding
	addTask       key.Binding
	newProject    key.Binding
	nextProject   key.Binding
	prevProject   key.Binding
	deleteProject key.Binding
	summary       key.Binding
	cancelDrag    key.Binding
	confirm       key.Binding
	decline       key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		addTask:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		newProject:    key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new project")),
		nextProject:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next project")),
		prevProject:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous project")),
		deleteProject: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete project")),
		summary:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "project summary")),
		cancelDrag:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
		confirm:       key.NewBinding(key.WithKeys("y", "Y", "enter"), key.WithHelp("y", "confirm")),
		decline:       key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n/esc", "cancel")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.addTask, k.newProject, k.nextProject, k.deleteProject, k.toggleHelp, k.quit}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.newProject, k.deleteProject, k.summary},
		{k.nextProject, k.prevProject, k.cancelDrag},
		{k.toggleHelp, k.quit},
	}
}
