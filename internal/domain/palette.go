package domain

import (
	"slices"
	"strings"
)

// DefaultPalette lists the dark-theme card colors cycled for new tasks.
var DefaultPalette = []string{
	"#4a4e69", "#003049", "#585123", "#5f0f40", "#432818", "#2d6a4f",
	"#7b2cbf", "#006d77", "#8338ec", "#3a5a40", "#219ebc", "#fb8500",
	"#6a4c93", "#1d3557", "#007f5f", "#5e60ce", "#44633f", "#705d56",
	"#023e8a", "#480ca8", "#b5838d", "#ff6f00", "#31572c", "#6d597a",
}

// ColorCycler hands out palette entries in a wrapping sequence.
type ColorCycler struct {
	palette []string
	index   int
}

// NewColorCycler constructs a cycler; an empty palette falls back to DefaultPalette.
func NewColorCycler(palette []string) *ColorCycler {
	cleaned := make([]string, 0, len(palette))
	for _, c := range palette {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		cleaned = slices.Clone(DefaultPalette)
	}
	return &ColorCycler{palette: cleaned}
}

// Next returns the current color and advances the cycle.
func (c *ColorCycler) Next() string {
	color := c.palette[c.index]
	c.index = (c.index + 1) % len(c.palette)
	return color
}

// Palette returns a copy of the configured palette.
func (c *ColorCycler) Palette() []string {
	return slices.Clone(c.palette)
}

// Reset moves the cycle back to the first entry.
func (c *ColorCycler) Reset() {
	c.index = 0
}

// ResumeAfter positions the cycle on the entry following color.
// Unknown colors reset the cycle.
func (c *ColorCycler) ResumeAfter(color string) {
	idx := slices.Index(c.palette, strings.TrimSpace(color))
	if idx < 0 {
		c.index = 0
		return
	}
	c.index = (idx + 1) % len(c.palette)
}

// NewestTaskColor returns the color of the most recently created task across
// all projects, judged by the timestamp embedded in task ids.
func NewestTaskColor(data AppData) (string, bool) {
	var (
		best  string
		found bool
		bestT int64
	)
	for _, p := range data.Projects {
		for _, t := range p.Tasks {
			created, ok := TaskCreatedAt(t.ID)
			if !ok {
				continue
			}
			if !found || created.UnixMilli() > bestT {
				best, bestT, found = t.Color, created.UnixMilli(), true
			}
		}
	}
	return best, found
}
