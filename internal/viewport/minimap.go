package viewport

import (
	"math"

	"SharedBoard/internal/state"
)

// Minimap is a read-only scaled projection of the whole document.
type Minimap struct {
	Width  float64
	Height float64
}

// Scale fits the document inside the minimap, preserving aspect ratio.
func (mm Minimap) Scale(doc state.Size) float64 {
	if doc.Width <= 0 || doc.Height <= 0 {
		return 0
	}
	return math.Min(mm.Width/doc.Width, mm.Height/doc.Height)
}

// Project maps a document point onto the minimap.
func (mm Minimap) Project(p state.Point, doc state.Size) state.Point {
	s := mm.Scale(doc)
	return state.Point{X: p.X * s, Y: p.Y * s}
}

// ViewRect is the viewport outline drawn on the minimap.
func (mm Minimap) ViewRect(offset state.Point, visible, doc state.Size) state.Rect {
	s := mm.Scale(doc)
	return state.Rect{X: offset.X * s, Y: offset.Y * s, Width: visible.Width * s, Height: visible.Height * s}
}

// TargetOffset centers the viewport on a minimap position and clamps it to the document.
func (mm Minimap) TargetOffset(click state.Point, visible, doc state.Size) state.Point {
	s := mm.Scale(doc)
	if s == 0 {
		return state.Point{}
	}
	center := state.Point{
		X: click.X/s - visible.Width/2,
		Y: click.Y/s - visible.Height/2,
	}
	return Clamp(center, visible, doc)
}
