package tui

import (
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// Screen geometry, in terminal cells.
const (
	tabRow        = 0
	headerRow     = 2
	cardTop       = 4
	columnGap     = 1
	tabGap        = 1
	minColumnW    = 12
	defaultWidth  = 80
	defaultHeight = 24
	addTabID      = "+"
	addTabLabel   = "[+]"
)

// cardNode is one rendered task card.
type cardNode struct {
	id    string
	title string
	color string
}

// tabNode is one rendered project tab.
type tabNode struct {
	id    string
	name  string
	open  int
	total int
}

// hitKind classifies what lies under a screen cell.
type hitKind int

const (
	hitNone hitKind = iota
	hitTab
	hitAddTab
	hitColumn
	hitCard
	hitTrash
)

// hit is the result of hit testing one cell.
type hit struct {
	kind   hitKind
	id     string
	column domain.ColumnID
}

// boardView caches presentation nodes pushed by the store and the drag
// controllers, and answers geometry queries against them.
type boardView struct {
	layout  domain.Layout
	columns map[domain.ColumnID][]cardNode
	tabs    []tabNode
	active  string
	width   int
	height  int
	logger  app.Logger

	cards  app.Reconciler[domain.Task, cardNode]
	tabRec app.Reconciler[app.ProjectTab, tabNode]
}

// newBoardView constructs an empty board for layout.
func newBoardView(layout domain.Layout, logger app.Logger) *boardView {
	b := &boardView{
		layout:  layout,
		columns: map[domain.ColumnID][]cardNode{},
		width:   defaultWidth,
		height:  defaultHeight,
		logger:  logger,
	}
	b.cards = app.Reconciler[domain.Task, cardNode]{
		DesiredID: func(t domain.Task) string { return t.ID },
		NodeID:    func(n cardNode) string { return n.id },
		Create:    func(t domain.Task) cardNode { return cardNode{id: t.ID, title: t.Title, color: t.Color} },
		Update: func(n cardNode, t domain.Task) (cardNode, bool) {
			if n.title == t.Title && n.color == t.Color {
				return n, false
			}
			n.title, n.color = t.Title, t.Color
			return n, true
		},
	}
	b.tabRec = app.Reconciler[app.ProjectTab, tabNode]{
		DesiredID: func(p app.ProjectTab) string { return p.ID },
		NodeID:    func(n tabNode) string { return n.id },
		Create: func(p app.ProjectTab) tabNode {
			return tabNode{id: p.ID, name: p.Name, open: p.OpenCount, total: p.TaskCount}
		},
		Update: func(n tabNode, p app.ProjectTab) (tabNode, bool) {
			if n.name == p.Name && n.open == p.OpenCount && n.total == p.TaskCount {
				return n, false
			}
			n.name, n.open, n.total = p.Name, p.OpenCount, p.TaskCount
			return n, true
		},
	}
	return b
}

// RenderColumn implements app.Renderer.
func (b *boardView) RenderColumn(col domain.ColumnID, tasks []domain.Task) {
	nodes, ops := b.cards.Apply(b.columns[col], tasks)
	b.columns[col] = nodes
	if b.logger != nil {
		b.logger.Debug("column patched", "column", col, "cards", len(nodes), "ops", len(ops))
	}
}

// RenderTabs implements app.Renderer.
func (b *boardView) RenderTabs(tabs []app.ProjectTab, activeID string) {
	nodes, _ := b.tabRec.Apply(b.tabs, tabs)
	b.tabs = nodes
	b.active = activeID
}

// ColumnItems implements app.Layout.
func (b *boardView) ColumnItems(col domain.ColumnID) []app.ItemBounds {
	nodes := b.columns[col]
	out := make([]app.ItemBounds, 0, len(nodes))
	for i, n := range nodes {
		out = append(out, app.ItemBounds{ID: n.id, Start: float64(cardTop + i), Size: 1})
	}
	return out
}

// TabItems implements app.TabLayout.
func (b *boardView) TabItems() []app.ItemBounds {
	out := make([]app.ItemBounds, 0, len(b.tabs)+1)
	x := 0
	for _, t := range b.tabs {
		w := lipgloss.Width(tabLabel(t))
		out = append(out, app.ItemBounds{ID: t.id, Start: float64(x), Size: float64(w)})
		x += w + tabGap
	}
	return append(out, app.ItemBounds{ID: addTabID, Start: float64(x), Size: float64(lipgloss.Width(addTabLabel)), Fixed: true})
}

// resize records the terminal size.
func (b *boardView) resize(width, height int) {
	if width > 0 {
		b.width = width
	}
	if height > 0 {
		b.height = height
	}
}

// columnWidth returns the width of one column.
func (b *boardView) columnWidth() int {
	n := len(b.layout.Columns)
	if n == 0 {
		return b.width
	}
	return max(minColumnW, (b.width-columnGap*(n-1))/n)
}

// trashRow returns the row of the deletion target, above the status and help lines.
func (b *boardView) trashRow() int {
	return max(cardTop+1, b.height-3)
}

// visibleCards returns how many card rows fit between the headers and the trash.
func (b *boardView) visibleCards() int {
	return max(0, b.trashRow()-cardTop)
}

// hitTest resolves the element under cell (x, y).
func (b *boardView) hitTest(x, y int) hit {
	switch {
	case y == tabRow:
		for _, item := range b.TabItems() {
			if float64(x) >= item.Start && float64(x) < item.Start+item.Size {
				if item.Fixed {
					return hit{kind: hitAddTab}
				}
				return hit{kind: hitTab, id: item.ID}
			}
		}
		return hit{kind: hitNone}
	case y == b.trashRow():
		return hit{kind: hitTrash}
	case y >= headerRow && y < b.trashRow():
		colW := b.columnWidth()
		idx := x / (colW + columnGap)
		if x < 0 || idx >= len(b.layout.Columns) || x-idx*(colW+columnGap) >= colW {
			return hit{kind: hitNone}
		}
		col := b.layout.Columns[idx].ID
		if row := y - cardTop; row >= 0 && row < len(b.columns[col]) {
			return hit{kind: hitCard, id: b.columns[col][row].id, column: col}
		}
		return hit{kind: hitColumn, column: col}
	default:
		return hit{kind: hitNone}
	}
}

// dropTarget converts a hit into a drag target.
func (h hit) dropTarget() app.DropTarget {
	switch h.kind {
	case hitCard, hitColumn:
		return app.ColumnTarget(h.column)
	case hitTrash:
		return app.TrashTarget()
	case hitTab, hitAddTab:
		return app.TabBarTarget()
	default:
		return app.NoTarget()
	}
}

// card returns a cached card by id.
func (b *boardView) card(id string) (cardNode, bool) {
	for _, nodes := range b.columns {
		for _, n := range nodes {
			if n.id == id {
				return n, true
			}
		}
	}
	return cardNode{}, false
}

// tab returns a cached tab by id.
func (b *boardView) tab(id string) (tabNode, bool) {
	for _, t := range b.tabs {
		if t.id == id {
			return t, true
		}
	}
	return tabNode{}, false
}

// tabLabel returns the text drawn for one tab.
func tabLabel(t tabNode) string {
	if t.open > 0 {
		return " " + t.name + " (" + strconv.Itoa(t.open) + ") "
	}
	return " " + t.name + " "
}
