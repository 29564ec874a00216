package edit

import (
	"fmt"

	"SharedBoard/internal/state"
)

type ToolKind int

const (
	ToolPen ToolKind = iota
	ToolEraser
	ToolText
	ToolMove
	ToolShape
	ToolFill
)

// Tool is the single active tool. Selecting one replaces whatever was
// active before, so two tools can never be on at once.
type Tool struct {
	Kind ToolKind
	// Shape is only meaningful for ToolShape.
	Shape state.ShapeKind
}

func Pen() Tool    { return Tool{Kind: ToolPen} }
func Eraser() Tool { return Tool{Kind: ToolEraser} }
func Text() Tool   { return Tool{Kind: ToolText} }
func Move() Tool   { return Tool{Kind: ToolMove} }
func Fill() Tool   { return Tool{Kind: ToolFill} }

// ShapeTool selects the shape tool for kind. Unknown kinds fall back to a rectangle.
func ShapeTool(kind state.ShapeKind) Tool {
	if !kind.Valid() {
		kind = state.ShapeRectangle
	}
	return Tool{Kind: ToolShape, Shape: kind}
}

func (t Tool) String() string {
	switch t.Kind {
	case ToolPen:
		return "pen"
	case ToolEraser:
		return "eraser"
	case ToolText:
		return "text"
	case ToolMove:
		return "move"
	case ToolShape:
		return fmt.Sprintf("shape(%s)", t.Shape)
	case ToolFill:
		return "fill"
	}
	return "unknown"
}

// Style is the current pen configuration, as picked from the toolbar.
type Style struct {
	Color       string
	Width       float64
	EraserWidth float64
}

func DefaultStyle() Style {
	return Style{Color: "#000000", Width: 2, EraserWidth: 20}
}

const minFontSize = 16
