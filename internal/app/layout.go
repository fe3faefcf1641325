package app

import (
	"slices"

	"github.com/evanschultz/lanes/internal/domain"
)

// DefaultDropBias and related constants bound the sibling threshold fraction.
// A pointer strictly above start+size*bias inserts before that sibling.
const (
	DefaultDropBias = 0.55
	MinDropBias     = 0.4
	MaxDropBias     = 0.55
	TabDropBias     = 0.5
)

// ItemBounds is the extent of one rendered sibling along the drag axis.
// Fixed items are never insertion positions.
type ItemBounds struct {
	ID    string
	Start float64
	Size  float64
	Fixed bool
}

// Point is a pointer position in host coordinates.
type Point struct {
	X float64
	Y float64
}

// TargetKind identifies what the pointer is over.
type TargetKind int

// TargetNone and related constants enumerate drop targets.
const (
	TargetNone TargetKind = iota
	TargetColumn
	TargetTrash
	TargetTabBar
)

// String returns a log-friendly name.
func (k TargetKind) String() string {
	switch k {
	case TargetColumn:
		return "column"
	case TargetTrash:
		return "trash"
	case TargetTabBar:
		return "tabs"
	default:
		return "none"
	}
}

// DropTarget describes the droppable region under the pointer.
type DropTarget struct {
	Kind   TargetKind
	Column domain.ColumnID
}

// ColumnTarget returns a target for one board column.
func ColumnTarget(col domain.ColumnID) DropTarget {
	return DropTarget{Kind: TargetColumn, Column: col}
}

// TrashTarget returns the deletion target.
func TrashTarget() DropTarget {
	return DropTarget{Kind: TargetTrash}
}

// TabBarTarget returns the project tab bar target.
func TabBarTarget() DropTarget {
	return DropTarget{Kind: TargetTabBar}
}

// NoTarget returns the empty target.
func NoTarget() DropTarget {
	return DropTarget{}
}

// Layout exposes the vertical extents of rendered cards per column.
type Layout interface {
	ColumnItems(domain.ColumnID) []ItemBounds
}

// TabLayout exposes the horizontal extents of rendered project tabs.
type TabLayout interface {
	TabItems() []ItemBounds
}

// ClampDropBias bounds a configured bias; zero selects DefaultDropBias.
func ClampDropBias(bias float64) float64 {
	switch {
	case bias == 0:
		return DefaultDropBias
	case bias < MinDropBias:
		return MinDropBias
	case bias > MaxDropBias:
		return MaxDropBias
	default:
		return bias
	}
}

// InsertionHint returns the id of the first sibling, in ascending start order
// and excluding excludeID, whose threshold start+size*bias exceeds pos.
// "" means end of list. A fixed item reached before any match also means end.
func InsertionHint(items []ItemBounds, excludeID string, pos, bias float64) string {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b ItemBounds) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	for _, item := range sorted {
		if item.ID == excludeID && excludeID != "" {
			continue
		}
		if item.Fixed {
			return ""
		}
		if pos < item.Start+item.Size*bias {
			return item.ID
		}
	}
	return ""
}
