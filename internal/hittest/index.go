// Package hittest maps screen coordinates to clickable element ids.
package hittest

import (
	"agd-render/internal/dsl"
	"agd-render/internal/geom"
)

// Target is a clickable rectangle copied from a rect command.
type Target struct {
	ID string
	geom.Rect
}

// Index holds the targets of one accepted frame in command order. Overlaps
// resolve to the earliest target in the list, not the topmost drawn one.
type Index struct {
	targets []Target
}

// Rebuild replaces the index with the clickable rects of cmds.
func (ix *Index) Rebuild(cmds []dsl.Command) {
	ix.targets = ix.targets[:0]
	for _, c := range cmds {
		r, ok := c.(*dsl.Rect)
		if !ok || !r.Clickable || r.ID == nil {
			continue
		}
		ix.targets = append(ix.targets, Target{
			ID: *r.ID,
			Rect: geom.Rect{
				X: deref(r.X),
				Y: deref(r.Y),
				W: deref(r.W),
				H: deref(r.H),
			},
		})
	}
}

// Hit returns the first target containing (x, y).
func (ix *Index) Hit(x, y int) (Target, bool) {
	for _, t := range ix.targets {
		if t.Contains(x, y) {
			return t, true
		}
	}
	return Target{}, false
}

func (ix *Index) Targets() []Target {
	out := make([]Target, len(ix.targets))
	copy(out, ix.targets)
	return out
}

func (ix *Index) Len() int { return len(ix.targets) }

func deref(p *int32) int {
	if p == nil {
		return 0
	}
	return int(*p)
}
