package state

import "math"

// DefaultBackgroundColor is the fill a document starts with and returns to on clearBoard.
const DefaultBackgroundColor = "#ffffff"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Max returns the per-dimension maximum of s and o.
func (s Size) Max(o Size) Size {
	return Size{Width: math.Max(s.Width, o.Width), Height: math.Max(s.Height, o.Height)}
}

// Stroke is immutable once added; it can only be removed.
type Stroke struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"ownerId"`
	Points  []Point `json:"points"`
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
}

type TextBox struct {
	ID       string  `json:"id"`
	OwnerID  string  `json:"ownerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Text     string  `json:"text"`
	Color    string  `json:"color"`
	FontSize float64 `json:"fontSize"`
}

type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
	ShapeLine      ShapeKind = "line"
	ShapeDiamond   ShapeKind = "diamond"
	ShapeTriangle  ShapeKind = "triangle"
	ShapeCurve     ShapeKind = "curve"
)

// Valid reports whether k is one of the fixed shape kinds.
func (k ShapeKind) Valid() bool {
	switch k {
	case ShapeRectangle, ShapeCircle, ShapeLine, ShapeDiamond, ShapeTriangle, ShapeCurve:
		return true
	}
	return false
}

// Shape is defined by two corner points (X,Y)-(X2,Y2) of its bounding box.
type Shape struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"ownerId"`
	Type    ShapeKind `json:"type"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	X2      float64   `json:"x2"`
	Y2      float64   `json:"y2"`
	Color   string    `json:"color"`
	Width   float64   `json:"width"`
}

// Bounds returns the normalized bounding box of the shape.
func (s Shape) Bounds() Rect {
	return RectFromCorners(Point{X: s.X, Y: s.Y}, Point{X: s.X2, Y: s.Y2})
}

// ImageObject references raster content through an opaque handle.
type ImageObject struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"ownerId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Content string  `json:"content"`
}

// Rect is an axis-aligned box in document coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromCorners builds the normalized rectangle spanned by two points,
// in whatever order they were captured.
func RectFromCorners(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Presence is an ephemeral roster entry for a connected user.
type Presence struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}
