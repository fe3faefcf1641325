package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minSummaryWidth keeps glamour's word wrap readable in narrow terminals.
const minSummaryWidth = 24

// markdownRenderer renders the board summary, caching one glamour renderer
// per wrap width.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown to styled terminal text. On renderer failure the
// raw markdown is returned.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "_nothing here yet_"
	}
	width = max(minSummaryWidth, width)
	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return markdown
		}
		r.renderer, r.width = renderer, width
	}
	out, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(out, "\n")
}
