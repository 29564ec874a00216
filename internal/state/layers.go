package state

type EntityKind int

const (
	KindStroke EntityKind = iota
	KindTextBox
	KindShape
	KindImage
)

func (k EntityKind) String() string {
	switch k {
	case KindStroke:
		return "stroke"
	case KindTextBox:
		return "textBox"
	case KindShape:
		return "shape"
	case KindImage:
		return "image"
	}
	return "unknown"
}

// Layer identifies one entity in paint order.
type Layer struct {
	Kind EntityKind
	ID   string
}

// Layers lists every entity bottom to top. Stacking is by type, not by
// creation time: images, then shapes, then strokes, then text.
func (s Snapshot) Layers() []Layer {
	out := make([]Layer, 0, len(s.Images)+len(s.Shapes)+len(s.Strokes)+len(s.TextBoxes))
	for _, v := range s.Images {
		out = append(out, Layer{Kind: KindImage, ID: v.ID})
	}
	for _, v := range s.Shapes {
		out = append(out, Layer{Kind: KindShape, ID: v.ID})
	}
	for _, v := range s.Strokes {
		out = append(out, Layer{Kind: KindStroke, ID: v.ID})
	}
	for _, v := range s.TextBoxes {
		out = append(out, Layer{Kind: KindTextBox, ID: v.ID})
	}
	return out
}

// HitTest returns the topmost movable entity (text box, shape or image)
// whose bounds contain p. Strokes are not movable and are skipped.
func (s Snapshot) HitTest(p Point) (Layer, bool) {
	for i := len(s.TextBoxes) - 1; i >= 0; i-- {
		t := s.TextBoxes[i]
		if (Rect{X: t.X, Y: t.Y, Width: t.Width, Height: t.Height}).Contains(p) {
			return Layer{Kind: KindTextBox, ID: t.ID}, true
		}
	}
	for i := len(s.Shapes) - 1; i >= 0; i-- {
		if s.Shapes[i].Bounds().Contains(p) {
			return Layer{Kind: KindShape, ID: s.Shapes[i].ID}, true
		}
	}
	for i := len(s.Images) - 1; i >= 0; i-- {
		img := s.Images[i]
		if (Rect{X: img.X, Y: img.Y, Width: img.Width, Height: img.Height}).Contains(p) {
			return Layer{Kind: KindImage, ID: img.ID}, true
		}
	}
	return Layer{}, false
}
