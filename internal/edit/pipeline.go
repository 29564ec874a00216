// Package edit turns pointer and keyboard input into draft entities and
// commits them. Drafts are local only; nothing reaches the network until a
// gesture completes.
package edit

import (
	"errors"
	"math"
	"slices"
	"strings"

	"SharedBoard/internal/state"
	"SharedBoard/internal/undo"
)

var ErrNoSelection = errors.New("nothing selected")

// View is the slice of the viewport manager the pipeline needs.
type View interface {
	ToDocument(screen state.Point) state.Point
	Track(p state.Point)
	EndGesture()
	Pan(dx, dy float64) state.Point
}

type phase int

const (
	idle phase = iota
	drawing
	boxing
	editingText
	shaping
	dragging
	panning
)

// Draft is a read-only copy of whatever is in progress, for local rendering.
type Draft struct {
	Stroke  *state.Stroke
	TextBox *state.TextBox
	Shape   *state.Shape
	Image   *state.ImageObject
}

type Pipeline struct {
	documentID string
	ownerID    string
	doc        *state.Document
	commit     undo.Emitter
	history    *undo.Manager
	view       View

	tool  Tool
	style Style
	phase phase

	start    state.Point
	lastSeen state.Point

	stroke  *state.Stroke
	textBox *state.TextBox
	editing string
	shape   *state.Shape

	selected    state.Layer
	hasSelected bool
	dragText    state.TextBox
	dragShape   state.Shape
	dragImage   state.ImageObject
	moved       bool
}

func NewPipeline(doc *state.Document, ownerID string, commit undo.Emitter, history *undo.Manager, view View) *Pipeline {
	return &Pipeline{
		documentID: doc.ID(),
		ownerID:    ownerID,
		doc:        doc,
		commit:     commit,
		history:    history,
		view:       view,
		tool:       Pen(),
		style:      DefaultStyle(),
	}
}

func (p *Pipeline) Tool() Tool {
	return p.tool
}

// SetTool switches the active tool. An open text edit is submitted as if it
// lost focus; any other draft is discarded.
func (p *Pipeline) SetTool(t Tool) error {
	var err error
	if p.phase == editingText {
		err = p.submitText()
	}
	p.reset()
	p.hasSelected = false
	p.tool = t
	return err
}

func (p *Pipeline) Style() Style {
	return p.style
}

func (p *Pipeline) SetColor(c string) {
	p.style.Color = c
}

func (p *Pipeline) SetStroke(w float64) {
	p.style.Width = w
}

func (p *Pipeline) SetEraserWidth(w float64) {
	p.style.EraserWidth = w
}

// Selected returns the entity picked by the move tool, if any.
func (p *Pipeline) Selected() (state.Layer, bool) {
	return p.selected, p.hasSelected
}

// Editing reports whether the inline text surface is open.
func (p *Pipeline) Editing() bool {
	return p.phase == editingText
}

func (p *Pipeline) Draft() Draft {
	var d Draft
	switch p.phase {
	case drawing:
		s := *p.stroke
		s.Points = slices.Clone(s.Points)
		d.Stroke = &s
	case boxing, editingText:
		t := *p.textBox
		d.TextBox = &t
	case shaping:
		s := *p.shape
		d.Shape = &s
	case dragging:
		switch p.selected.Kind {
		case state.KindTextBox:
			t := p.dragText
			d.TextBox = &t
		case state.KindShape:
			s := p.dragShape
			d.Shape = &s
		case state.KindImage:
			i := p.dragImage
			d.Image = &i
		}
	}
	return d
}

// PointerDown begins a gesture at a screen position.
func (p *Pipeline) PointerDown(screen state.Point) error {
	if p.phase == editingText {
		// clicking elsewhere closes the inline editor
		if err := p.submitText(); err != nil {
			p.reset()
			return err
		}
	}
	p.reset()

	pos := p.view.ToDocument(screen)
	p.start = pos
	p.lastSeen = screen

	switch p.tool.Kind {
	case ToolPen, ToolEraser:
		color, width := p.style.Color, p.style.Width
		if p.tool.Kind == ToolEraser {
			color, width = p.doc.BackgroundColor(), p.style.EraserWidth
		}
		p.stroke = &state.Stroke{OwnerID: p.ownerID, Points: []state.Point{pos}, Color: color, Width: width}
		p.phase = drawing
	case ToolText:
		p.textBox = &state.TextBox{OwnerID: p.ownerID, X: pos.X, Y: pos.Y, Color: p.style.Color}
		p.phase = boxing
	case ToolShape:
		p.shape = &state.Shape{
			OwnerID: p.ownerID, Type: p.tool.Shape,
			X: pos.X, Y: pos.Y, X2: pos.X, Y2: pos.Y,
			Color: p.style.Color, Width: p.style.Width,
		}
		p.phase = shaping
	case ToolMove:
		if p.grab(pos) {
			p.phase = dragging
		} else {
			p.hasSelected = false
			p.phase = panning
			return nil
		}
	case ToolFill:
		return p.fill()
	}
	p.view.Track(pos)
	return nil
}

// PointerMove updates the draft. It never emits network events.
func (p *Pipeline) PointerMove(screen state.Point) {
	if p.phase == panning {
		p.view.Pan(screen.X-p.lastSeen.X, screen.Y-p.lastSeen.Y)
		p.lastSeen = screen
		return
	}

	pos := p.view.ToDocument(screen)
	switch p.phase {
	case drawing:
		p.stroke.Points = append(p.stroke.Points, pos)
	case boxing:
		r := state.RectFromCorners(p.start, pos)
		p.textBox.X, p.textBox.Y, p.textBox.Width, p.textBox.Height = r.X, r.Y, r.Width, r.Height
	case shaping:
		p.shape.X2, p.shape.Y2 = pos.X, pos.Y
	case dragging:
		p.drag(pos.X-p.start.X, pos.Y-p.start.Y)
	default:
		return
	}
	p.lastSeen = screen
	p.view.Track(pos)
}

// PointerUp completes the gesture. Strokes and shapes are committed here;
// a text box opens its inline editor; a drag emits one update.
func (p *Pipeline) PointerUp(screen state.Point) error {
	defer p.view.EndGesture()

	switch p.phase {
	case drawing:
		s := *p.stroke
		p.reset()
		if len(s.Points) < 2 {
			return nil
		}
		s.ID = state.NewTempID()
		if err := p.commit.Emit(state.DrawStrokeEvent(p.documentID, s)); err != nil {
			return err
		}
		p.history.Record(undo.StrokeAdded(s))
	case boxing:
		p.phase = editingText
	case shaping:
		s := *p.shape
		p.reset()
		if degenerate(s) {
			return nil
		}
		s.ID = state.NewTempID()
		if err := p.commit.Emit(state.AddShapeEvent(p.documentID, s)); err != nil {
			return err
		}
		p.history.Record(undo.ShapeAdded(s))
	case dragging:
		moved := p.moved
		p.phase = idle
		if moved {
			return p.commitDrag()
		}
	case panning:
		p.phase = idle
	}
	return nil
}

// BeginTextEdit opens the inline editor on an existing text box.
func (p *Pipeline) BeginTextEdit(id string) bool {
	box, ok := p.doc.TextBox(id)
	if !ok {
		return false
	}
	p.reset()
	p.textBox = &box
	p.editing = box.ID
	p.phase = editingText
	return true
}

// SubmitText commits the open text box with its final text. Blank text
// discards it.
func (p *Pipeline) SubmitText(text string) error {
	if p.phase != editingText {
		return nil
	}
	p.textBox.Text = text
	err := p.submitText()
	p.reset()
	return err
}

// Blur is the inline editor losing focus; the current text is submitted.
func (p *Pipeline) Blur(text string) error {
	return p.SubmitText(text)
}

// CancelText closes the inline editor without committing.
func (p *Pipeline) CancelText() {
	if p.phase == editingText {
		p.reset()
	}
}

func (p *Pipeline) submitText() error {
	box := *p.textBox
	if strings.TrimSpace(box.Text) == "" {
		return nil
	}
	box.FontSize = math.Max(minFontSize, math.Floor(box.Height))
	if p.editing != "" {
		box.ID = p.editing
		return p.commit.Emit(state.UpdateTextBoxEvent(p.documentID, box))
	}
	box.ID = state.NewTempID()
	return p.commit.Emit(state.AddTextBoxEvent(p.documentID, box))
}

// AddImage places raster content at a document rectangle.
func (p *Pipeline) AddImage(r state.Rect, content string) error {
	img := state.ImageObject{
		ID: state.NewTempID(), OwnerID: p.ownerID,
		X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Content: content,
	}
	p.view.Track(state.Point{X: r.X + r.Width, Y: r.Y + r.Height})
	p.view.EndGesture()
	if err := p.commit.Emit(state.AddImageEvent(p.documentID, img)); err != nil {
		return err
	}
	p.history.Record(undo.ImageAdded(img))
	return nil
}

// DeleteSelection removes the entity picked by the move tool.
func (p *Pipeline) DeleteSelection() error {
	if !p.hasSelected {
		return ErrNoSelection
	}
	sel := p.selected
	p.hasSelected = false

	switch sel.Kind {
	case state.KindTextBox:
		return p.commit.Emit(state.RemoveTextBoxEvent(p.documentID, sel.ID))
	case state.KindImage:
		return p.commit.Emit(state.RemoveImageEvent(p.documentID, sel.ID))
	case state.KindShape:
		shape, ok := p.doc.Shape(sel.ID)
		if !ok {
			return nil
		}
		if err := p.commit.Emit(state.RemoveShapeEvent(p.documentID, sel.ID)); err != nil {
			return err
		}
		p.history.Record(undo.ShapeDeleted(shape))
	}
	return nil
}

// Abort drops any in-progress draft and selection without committing.
func (p *Pipeline) Abort() {
	p.reset()
	p.hasSelected = false
	p.view.EndGesture()
}

func (p *Pipeline) fill() error {
	prev := p.doc.BackgroundColor()
	next := p.style.Color
	if prev == next {
		return nil
	}
	if err := p.commit.Emit(state.SetBackgroundEvent(p.documentID, next)); err != nil {
		return err
	}
	p.history.Record(undo.FillChanged(prev, next))
	return nil
}

func (p *Pipeline) grab(pos state.Point) bool {
	hit, ok := p.doc.Snapshot().HitTest(pos)
	if !ok {
		return false
	}
	switch hit.Kind {
	case state.KindTextBox:
		p.dragText, ok = p.doc.TextBox(hit.ID)
	case state.KindShape:
		p.dragShape, ok = p.doc.Shape(hit.ID)
	case state.KindImage:
		p.dragImage, ok = p.doc.Image(hit.ID)
	}
	p.selected, p.hasSelected = hit, ok
	return ok
}

// drag positions the dragged copy at its original location plus the
// pointer delta since the gesture began.
func (p *Pipeline) drag(dx, dy float64) {
	p.moved = dx != 0 || dy != 0
	switch p.selected.Kind {
	case state.KindTextBox:
		orig, ok := p.doc.TextBox(p.selected.ID)
		if ok {
			p.dragText.X, p.dragText.Y = orig.X+dx, orig.Y+dy
		}
	case state.KindShape:
		orig, ok := p.doc.Shape(p.selected.ID)
		if ok {
			p.dragShape.X, p.dragShape.Y = orig.X+dx, orig.Y+dy
			p.dragShape.X2, p.dragShape.Y2 = orig.X2+dx, orig.Y2+dy
		}
	case state.KindImage:
		orig, ok := p.doc.Image(p.selected.ID)
		if ok {
			p.dragImage.X, p.dragImage.Y = orig.X+dx, orig.Y+dy
		}
	}
}

func (p *Pipeline) commitDrag() error {
	switch p.selected.Kind {
	case state.KindTextBox:
		return p.commit.Emit(state.UpdateTextBoxEvent(p.documentID, p.dragText))
	case state.KindShape:
		return p.commit.Emit(state.UpdateShapeEvent(p.documentID, p.dragShape))
	case state.KindImage:
		return p.commit.Emit(state.UpdateImageEvent(p.documentID, p.dragImage))
	}
	return nil
}

func (p *Pipeline) reset() {
	p.phase = idle
	p.stroke = nil
	p.textBox = nil
	p.editing = ""
	p.shape = nil
	p.moved = false
}

// degenerate reports whether a drafted shape has no extent. Lines and curves
// only need the endpoints to differ; boxed shapes need both dimensions.
func degenerate(s state.Shape) bool {
	b := s.Bounds()
	switch s.Type {
	case state.ShapeLine, state.ShapeCurve:
		return b.Width == 0 && b.Height == 0
	}
	return b.Width == 0 || b.Height == 0
}
